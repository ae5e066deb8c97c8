// Package pg знает о PostgreSQL всё: подключение, генерация DDL/DML и разбор ошибок.
package pg

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
)

type PoolOptions struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

var DefaultPool = PoolOptions{MaxOpen: 10, MaxIdle: 5, MaxLifetime: 30 * time.Minute}

// Open открывает пул pgx через database/sql и проверяет соединение.
func Open(ctx context.Context, url string, pool PoolOptions) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, err
	}
	db.SetConnMaxLifetime(pool.MaxLifetime)
	db.SetMaxOpenConns(pool.MaxOpen)
	db.SetMaxIdleConns(pool.MaxIdle)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
