// Package testutil: общая инфраструктура интеграционных тестов.
package testutil

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const postgresImage = "postgres:16-alpine"

// PostgresURL поднимает одноразовый Postgres и возвращает строку подключения.
// Под -short и без Docker тест пропускается.
func PostgresURL(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, postgresImage,
		postgres.WithDatabase("tablekit"),
		postgres.WithUsername("tablekit"),
		postgres.WithPassword("tablekit"),
		postgres.BasicWaitStrategies(),
	)
	t.Cleanup(func() {
		if ctr != nil {
			if err := ctr.Terminate(context.Background()); err != nil {
				t.Errorf("terminate postgres: %v", err)
			}
		}
	})
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres connection string: %v", err)
	}
	return url
}
