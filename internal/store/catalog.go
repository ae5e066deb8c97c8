package store

import (
	"context"
	"log/slog"

	"tablekit/internal/apperr"
	"tablekit/internal/pg"
	"tablekit/internal/schema"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const tablesNameKey = "tables_name_key"

// TableListParams: фильтр GET /tables.
type TableListParams struct {
	ID     *int
	Limit  int
	Offset int
}

// ListTables: таблицы каталога по id, в порядке создания.
func (s *Store) ListTables(ctx context.Context, p TableListParams) ([]schema.TableDefinition, error) {
	q := s.db.WithContext(ctx).Order("id")
	if p.ID != nil {
		q = q.Where("id = ?", *p.ID)
	}
	if p.Limit > 0 {
		q = q.Limit(p.Limit)
	}
	if p.Offset > 0 {
		q = q.Offset(p.Offset)
	}
	var out []schema.TableDefinition
	if err := q.Find(&out).Error; err != nil {
		return nil, pg.Classify(err, nil)
	}
	return out, nil
}

// GetTable: строка каталога по имени (имя нормализуется).
func (s *Store) GetTable(ctx context.Context, name string) (schema.TableDefinition, error) {
	return getTable(s.db.WithContext(ctx), name)
}

func getTable(db *gorm.DB, name string) (schema.TableDefinition, error) {
	norm := schema.NormalizeName(name)
	var t schema.TableDefinition
	if err := db.Where("name = ?", norm).First(&t).Error; err != nil {
		return t, notFoundAs(err, "Table %q not found", norm)
	}
	return t, nil
}

func listFields(db *gorm.DB, tableID int) ([]schema.FieldDefinition, error) {
	var fields []schema.FieldDefinition
	if err := db.Where("table_id = ?", tableID).Order("id").Find(&fields).Error; err != nil {
		return nil, pg.Classify(err, nil)
	}
	return fields, nil
}

// LoadTable: таблица со всеми полями и разрешениями; читается заново на каждый запрос.
func (s *Store) LoadTable(ctx context.Context, name string) (schema.TableDefinition, error) {
	norm := schema.NormalizeName(name)
	var t schema.TableDefinition
	err := s.db.WithContext(ctx).
		Preload("Fields", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Permissions").
		Where("name = ?", norm).
		First(&t).Error
	if err != nil {
		return t, notFoundAs(err, "Table %q not found", norm)
	}
	return t, nil
}

// CreateTable проверяет запрос, пишет каталог, права по умолчанию и физическую таблицу.
// Уникальность имени держит индекс tables_name_key: из двух одновременных запросов выиграет один.
func (s *Store) CreateTable(ctx context.Context, req schema.CreateTableRequest) (schema.TableDefinition, []schema.FieldDefinition, error) {
	t, fields, err := req.ToDefinition()
	if err != nil {
		return schema.TableDefinition{}, nil, err
	}
	err = s.mutate(ctx, "create_table", func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&t).Error; err != nil {
			if pg.IsUniqueViolation(err, tablesNameKey) {
				return apperr.Conflict("Table %q already exists", t.Name).WithValues(t.Name)
			}
			return pg.Classify(err, t.Name)
		}
		for i := range fields {
			fields[i].TableID = t.ID
		}
		if err := tx.Create(&fields).Error; err != nil {
			return pg.Classify(err, t.Name)
		}
		perms := schema.DefaultPermissions(t.ID)
		if err := tx.Create(&perms).Error; err != nil {
			return pg.Classify(err, t.Name)
		}
		stmts, err := pg.CreateTable(t, fields)
		return applyDDL(ctx, tx, t.Name, stmts, err)
	})
	if err != nil {
		return schema.TableDefinition{}, nil, err
	}
	slog.InfoContext(ctx, "table created", "table", t.Name, "fields", len(fields), "view", t.IsView)
	return t, fields, nil
}

// UpdateTable меняет метаданные; смена имени переименовывает физическую таблицу.
func (s *Store) UpdateTable(ctx context.Context, name string, req schema.UpdateTableRequest) (schema.TableDefinition, error) {
	var out schema.TableDefinition
	err := s.mutate(ctx, "update_table", func(tx *gorm.DB) error {
		old, err := getTable(tx, name)
		if err != nil {
			return err
		}
		next, err := req.Apply(old)
		if err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(&next).Error; err != nil {
			if pg.IsUniqueViolation(err, tablesNameKey) {
				return apperr.Conflict("Table %q already exists", next.Name).WithValues(next.Name)
			}
			return pg.Classify(err, old.Name)
		}
		if next.Name != old.Name {
			fields, err := listFields(tx, old.ID)
			if err != nil {
				return err
			}
			stmts, err := pg.RenameTable(old, next.Name, fields)
			if err := applyDDL(ctx, tx, old.Name, stmts, err); err != nil {
				return err
			}
		}
		out = next
		return nil
	})
	return out, err
}

// DeleteTable удаляет поля, права, строку каталога и физическую таблицу одной транзакцией.
func (s *Store) DeleteTable(ctx context.Context, name string) (schema.TableDefinition, error) {
	var out schema.TableDefinition
	err := s.mutate(ctx, "delete_table", func(tx *gorm.DB) error {
		t, err := getTable(tx, name)
		if err != nil {
			return err
		}
		if err := tx.Where("table_id = ?", t.ID).Delete(&schema.FieldDefinition{}).Error; err != nil {
			return pg.Classify(err, t.Name)
		}
		if err := tx.Where("table_id = ?", t.ID).Delete(&schema.TablePermission{}).Error; err != nil {
			return pg.Classify(err, t.Name)
		}
		if err := tx.Delete(&schema.TableDefinition{}, t.ID).Error; err != nil {
			return pg.Classify(err, t.Name)
		}
		stmts, err := pg.DropTable(t)
		if err := applyDDL(ctx, tx, t.Name, stmts, err); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err == nil {
		slog.InfoContext(ctx, "table dropped", "table", out.Name)
	}
	return out, err
}
