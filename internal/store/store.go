// Package store: каталог таблиц (gorm) и данные пользовательских таблиц в одной базе Postgres.
// Каждое изменение схемы идёт одной транзакцией: строки каталога и DDL вместе.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"tablekit/internal/apperr"
	"tablekit/internal/metrics"
	"tablekit/internal/pg"
	"tablekit/internal/schema"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Store struct {
	db *gorm.DB
}

// ParseLogLevel: silent|error|warn|info; пустая строка: warn.
func ParseLogLevel(s string) (logger.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "silent":
		return logger.Silent, nil
	case "error":
		return logger.Error, nil
	case "", "warn":
		return logger.Warn, nil
	case "info":
		return logger.Info, nil
	}
	return 0, fmt.Errorf("unknown gorm log level %q", s)
}

// Open поднимает gorm поверх уже открытого пула pgx.
func Open(sqlDB *sql.DB, level logger.LogLevel) (*Store, error) {
	gl := logger.New(log.New(os.Stdout, "", log.LstdFlags), logger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 gl,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

func New(db *gorm.DB) *Store { return &Store{db: db} }

// Migrate создаёт таблицы каталога.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&schema.TableDefinition{},
		&schema.FieldDefinition{},
		&schema.TablePermission{},
	)
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// mutate выполняет fn в транзакции и считает результат в метриках.
func (s *Store) mutate(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	err := s.db.WithContext(ctx).Transaction(fn)
	metrics.SchemaMutation(op, err)
	return err
}

// applyDDL: DDL внутри текущей транзакции gorm.
func applyDDL(ctx context.Context, tx *gorm.DB, entity any, stmts []string, buildErr error) error {
	if buildErr != nil {
		return buildErr
	}
	return pg.ApplyDDL(ctx, tx.Statement.ConnPool, entity, stmts)
}

func notFoundAs(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(format, args...)
	}
	return pg.Classify(err, nil)
}
