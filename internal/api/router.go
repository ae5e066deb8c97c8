package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"tablekit/internal/auth"
	"tablekit/internal/metrics"
	"tablekit/internal/query"

	"github.com/gin-gonic/gin"
)

type Options struct {
	Catalog Catalog
	Rows    RowsFunc
	Auth    *auth.Evaluator
	Query   query.Options
}

func NewRouter(opts Options) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.NoRoute(noRoute)
	r.NoMethod(noMethod)
	r.Use(
		requestID(newIDSource()),
		accessLog(),
		gin.CustomRecovery(func(c *gin.Context, rec any) {
			fail(c, fmt.Errorf("panic: %v", rec))
		}),
	)

	// служебные маршруты
	r.GET("/health", HealthHandler(opts.Catalog))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/meta/types", FieldTypesHandler())

	// каталог: только admin_rights
	tables := r.Group("/tables", adminOnly(opts.Auth))
	{
		tables.GET("", ListTablesHandler(opts.Catalog))
		tables.POST("", CreateTableHandler(opts.Catalog))
		tables.GET("/:name", GetTableHandler(opts.Catalog))
		tables.PATCH("/:name", UpdateTableHandler(opts.Catalog))
		tables.DELETE("/:name", DeleteTableHandler(opts.Catalog))

		tables.GET("/:name/fields", ListFieldsHandler(opts.Catalog))
		tables.POST("/:name/fields", AddFieldsHandler(opts.Catalog))
		tables.GET("/:name/fields/:field", GetFieldHandler(opts.Catalog))
		tables.PATCH("/:name/fields/:field", UpdateFieldHandler(opts.Catalog))
		tables.DELETE("/:name/fields/:field", DeleteFieldHandler(opts.Catalog))

		tables.GET("/:name/permissions", ListPermissionsHandler(opts.Catalog))
		tables.PUT("/:name/permissions/:permission", SetPermissionHandler(opts.Catalog))
	}

	// строки пользовательских таблиц: права по каталогу таблицы
	custom := r.Group("/custom/:table", tableGate(opts))
	{
		custom.GET("", ListRowsHandler(opts.Query))
		custom.POST("", CreateRowHandler())
		custom.GET("/:id", GetRowHandler())
		custom.PUT("/:id", ReplaceRowHandler())
		custom.PATCH("/:id", UpdateRowHandler())
		custom.DELETE("/:id", DeleteRowHandler())
	}
	return r
}

// RunServer обслуживает запросы до отмены ctx, затем даёт активным запросам завершиться.
func RunServer(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	slog.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}
