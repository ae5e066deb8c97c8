package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"tablekit/internal/api"
	"tablekit/internal/auth"
	"tablekit/internal/config"
	"tablekit/internal/logger"
	"tablekit/internal/pg"
	"tablekit/internal/query"
	"tablekit/internal/schema"
	"tablekit/internal/store"

	"github.com/gin-gonic/gin"
)

func main() {
	if err := run(); err != nil {
		slog.Error("tablekit stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Конфигурация и логгер
	cfg, err := config.Load("tablekit.yaml", os.Args[1:])
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Postgres: пул pgx, поверх него gorm
	db, err := pg.Open(ctx, cfg.DBURL, pg.DefaultPool)
	if err != nil {
		return err
	}
	defer db.Close()

	gormLevel, err := store.ParseLogLevel(cfg.GormLogLevel)
	if err != nil {
		return err
	}
	st, err := store.Open(db, gormLevel)
	if err != nil {
		return err
	}
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	// 3. Seed-таблицы из YAML
	if cfg.SeedDir != "" {
		reqs, err := schema.LoadSeeds(cfg.SeedDir)
		if err != nil {
			return err
		}
		n, err := st.ApplySeeds(ctx, reqs)
		if err != nil {
			return err
		}
		slog.Info("seed tables applied", "dir", cfg.SeedDir, "declared", len(reqs), "created", n)
	}

	// 4. Токены: секрет только из конфигурации
	verifier, err := auth.NewVerifier(cfg.JWTSecret)
	if err != nil {
		return err
	}

	// 5. HTTP
	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.Options{
		Catalog: st,
		Rows:    api.StoreRows(st),
		Auth:    auth.NewEvaluator(verifier),
		Query:   query.Options{DefaultLimit: cfg.DefaultLimit, MaxLimit: cfg.MaxLimit},
	})
	return api.RunServer(ctx, cfg.Addr(), router)
}
