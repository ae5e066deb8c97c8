package store

import (
	"context"

	"tablekit/internal/pg"
	"tablekit/internal/schema"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) ListPermissions(ctx context.Context, table string) ([]schema.TablePermission, error) {
	db := s.db.WithContext(ctx)
	t, err := getTable(db, table)
	if err != nil {
		return nil, err
	}
	var perms []schema.TablePermission
	if err := db.Where("table_id = ?", t.ID).Order("id").Find(&perms).Error; err != nil {
		return nil, pg.Classify(err, t.Name)
	}
	return perms, nil
}

// SetPermission выставляет allow для операции; отсутствующая строка создаётся.
func (s *Store) SetPermission(ctx context.Context, table string, perm schema.Permission, allow bool) (schema.TablePermission, error) {
	var out schema.TablePermission
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := getTable(tx, table)
		if err != nil {
			return err
		}
		row := schema.TablePermission{TableID: t.ID, Permission: perm, Allow: allow}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "table_id"}, {Name: "permission"}},
			DoUpdates: clause.AssignmentColumns([]string{"allow"}),
		}).Create(&row).Error
		if err != nil {
			return pg.Classify(err, t.Name)
		}
		return tx.Where("table_id = ? AND permission = ?", t.ID, perm).First(&out).Error
	})
	if err != nil {
		return out, pg.Classify(err, table)
	}
	return out, nil
}
