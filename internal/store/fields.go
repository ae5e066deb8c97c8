package store

import (
	"context"

	"tablekit/internal/apperr"
	"tablekit/internal/pg"
	"tablekit/internal/schema"

	"gorm.io/gorm"
)

func (s *Store) ListFields(ctx context.Context, table string) ([]schema.FieldDefinition, error) {
	db := s.db.WithContext(ctx)
	t, err := getTable(db, table)
	if err != nil {
		return nil, err
	}
	return listFields(db, t.ID)
}

func (s *Store) GetField(ctx context.Context, table, field string) (schema.FieldDefinition, error) {
	db := s.db.WithContext(ctx)
	t, err := getTable(db, table)
	if err != nil {
		return schema.FieldDefinition{}, err
	}
	return getField(db, t, field)
}

func getField(db *gorm.DB, t schema.TableDefinition, field string) (schema.FieldDefinition, error) {
	norm := schema.NormalizeName(field)
	var f schema.FieldDefinition
	if err := db.Where("table_id = ? AND name = ?", t.ID, norm).First(&f).Error; err != nil {
		return f, notFoundAs(err, "Field %q not found in table %q", norm, t.Name)
	}
	return f, nil
}

func mutableTable(t schema.TableDefinition) error {
	if t.IsView {
		return apperr.Validation("Fields of view %q cannot be changed", t.Name).WithValues(t.Name)
	}
	return nil
}

// AddFields добавляет поля одним ALTER TABLE.
func (s *Store) AddFields(ctx context.Context, table string, reqs []schema.CreateFieldRequest) ([]schema.FieldDefinition, error) {
	if len(reqs) == 0 {
		return nil, apperr.Validation("No fields provided")
	}
	var out []schema.FieldDefinition
	err := s.mutate(ctx, "add_fields", func(tx *gorm.DB) error {
		t, err := getTable(tx, table)
		if err != nil {
			return err
		}
		if err := mutableTable(t); err != nil {
			return err
		}
		existing, err := listFields(tx, t.ID)
		if err != nil {
			return err
		}
		seen := make(map[string]struct{}, len(existing)+len(reqs))
		pks := 0
		for _, f := range existing {
			seen[f.Name] = struct{}{}
			if f.IsPrimaryKey {
				pks++
			}
		}
		fields := make([]schema.FieldDefinition, 0, len(reqs))
		for _, r := range reqs {
			f, err := r.ToDefinition()
			if err != nil {
				return err
			}
			if _, dup := seen[f.Name]; dup {
				return apperr.Conflict("Field %q already exists", f.Name).WithValues(f.Name)
			}
			seen[f.Name] = struct{}{}
			if f.IsPrimaryKey {
				pks++
			}
			f.TableID = t.ID
			fields = append(fields, f)
		}
		if pks > 1 {
			return apperr.Validation("Table %q already has a primary key", t.Name).WithValues(t.Name)
		}
		if err := tx.Create(&fields).Error; err != nil {
			return pg.Classify(err, t.Name)
		}
		stmts, err := pg.AddColumns(t.Name, fields)
		if err := applyDDL(ctx, tx, t.Name, stmts, err); err != nil {
			return err
		}
		out = fields
		return nil
	})
	return out, err
}

// UpdateField применяет патч к полю; каждое изменение флага: отдельное ALTER.
func (s *Store) UpdateField(ctx context.Context, table, field string, req schema.UpdateFieldRequest) (schema.FieldDefinition, error) {
	if req.IsEmpty() {
		return schema.FieldDefinition{}, apperr.Validation("Nothing to update")
	}
	var out schema.FieldDefinition
	err := s.mutate(ctx, "update_field", func(tx *gorm.DB) error {
		t, err := getTable(tx, table)
		if err != nil {
			return err
		}
		if err := mutableTable(t); err != nil {
			return err
		}
		old, err := getField(tx, t, field)
		if err != nil {
			return err
		}
		next, err := req.Apply(old)
		if err != nil {
			return err
		}
		if err := schema.ValidateField(next); err != nil {
			return err
		}
		if old.IsPrimaryKey && !next.IsPrimaryKey {
			return apperr.Validation("Table %q must keep its primary key", t.Name).WithValues(old.Name)
		}
		siblings, err := listFields(tx, t.ID)
		if err != nil {
			return err
		}
		for _, f := range siblings {
			if f.ID == old.ID {
				continue
			}
			if f.Name == next.Name {
				return apperr.Conflict("Field %q already exists", next.Name).WithValues(next.Name)
			}
			if f.IsPrimaryKey && next.IsPrimaryKey {
				return apperr.Validation("Table %q already has a primary key", t.Name).WithValues(f.Name)
			}
		}
		if err := tx.Save(&next).Error; err != nil {
			return pg.Classify(err, t.Name)
		}
		stmts, err := pg.AlterField(t.Name, old, next)
		if err := applyDDL(ctx, tx, map[string]string{"table": t.Name, "field": old.Name}, stmts, err); err != nil {
			return err
		}
		out = next
		return nil
	})
	return out, err
}

// DeleteField удаляет поле и колонку.
func (s *Store) DeleteField(ctx context.Context, table, field string) (schema.FieldDefinition, error) {
	var out schema.FieldDefinition
	err := s.mutate(ctx, "delete_field", func(tx *gorm.DB) error {
		t, err := getTable(tx, table)
		if err != nil {
			return err
		}
		if err := mutableTable(t); err != nil {
			return err
		}
		f, err := getField(tx, t, field)
		if err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&schema.FieldDefinition{}).Where("table_id = ?", t.ID).Count(&count).Error; err != nil {
			return pg.Classify(err, t.Name)
		}
		if count <= 1 {
			return apperr.Validation("Table %q must keep at least one field", t.Name).WithValues(f.Name)
		}
		if f.IsPrimaryKey {
			return apperr.Validation("Table %q must keep its primary key", t.Name).WithValues(f.Name)
		}
		if err := tx.Delete(&f).Error; err != nil {
			return pg.Classify(err, t.Name)
		}
		stmts, err := pg.DropColumn(t.Name, f.Name)
		if err := applyDDL(ctx, tx, map[string]string{"table": t.Name, "field": f.Name}, stmts, err); err != nil {
			return err
		}
		out = f
		return nil
	})
	return out, err
}
