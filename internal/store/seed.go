package store

import (
	"context"
	"fmt"
	"log/slog"

	"tablekit/internal/apperr"
	"tablekit/internal/schema"
)

// ApplySeeds создаёт таблицы из seed-файлов; уже существующие пропускаются без изменений.
// Возвращает число созданных таблиц.
func (s *Store) ApplySeeds(ctx context.Context, reqs []schema.CreateTableRequest) (int, error) {
	created := 0
	for _, req := range reqs {
		_, _, err := s.CreateTable(ctx, req)
		switch {
		case err == nil:
			created++
		case apperr.Is(err, apperr.KindConflict):
			slog.DebugContext(ctx, "seed table exists", "table", req.Name)
		default:
			return created, fmt.Errorf("seed table %q: %w", req.Name, err)
		}
	}
	return created, nil
}
