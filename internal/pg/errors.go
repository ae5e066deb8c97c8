package pg

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"tablekit/internal/apperr"
	"tablekit/internal/metrics"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE, которые различаем явно.
const (
	codeUniqueViolation   = "23505"
	codeNotNullViolation  = "23502"
	codeCheckViolation    = "23514"
	codeFKViolation       = "23503"
	codeUndefinedTable    = "42P01"
	codeUndefinedColumn   = "42703"
	codeDuplicateTable    = "42P07"
	codeDuplicateColumn   = "42701"
	codeDuplicateObject   = "42710"
	classDataException    = "22"
	classIntegrityViolate = "23"
)

// Classify переводит ошибку хранилища в apperr с указанием сущности.
// Ошибки, уже классифицированные, возвращаются как есть.
func Classify(err error, entity any) error {
	if err == nil {
		return nil
	}
	if apperr.KindOf(err) != 0 {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("Row not found").WithValues(entity)
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return apperr.SchemaExecution(err, entity, "store error")
	}
	msg := strings.TrimSpace(pgErr.Message)
	switch {
	case pgErr.Code == codeUniqueViolation,
		pgErr.Code == codeDuplicateTable,
		pgErr.Code == codeDuplicateColumn,
		pgErr.Code == codeDuplicateObject:
		return wrap(apperr.KindConflict, pgErr, entity, msg)
	case pgErr.Code == codeNotNullViolation,
		pgErr.Code == codeCheckViolation,
		pgErr.Code == codeFKViolation:
		return wrap(apperr.KindValidation, pgErr, entity, msg)
	case pgErr.Code == codeUndefinedTable,
		pgErr.Code == codeUndefinedColumn:
		return wrap(apperr.KindNotFound, pgErr, entity, msg)
	case strings.HasPrefix(pgErr.Code, classDataException):
		return wrap(apperr.KindTypeCoercion, pgErr, entity, msg)
	case strings.HasPrefix(pgErr.Code, classIntegrityViolate):
		return wrap(apperr.KindValidation, pgErr, entity, msg)
	default:
		return apperr.SchemaExecution(pgErr, entity, "statement rejected (%s)", pgErr.Code)
	}
}

func wrap(k apperr.Kind, cause error, entity any, msg string) error {
	return &apperr.Error{Kind: k, Msg: msg, Values: entity, Err: cause}
}

// IsUniqueViolation: дубликат по конкретному ограничению/индексу ("": по любому).
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != codeUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// Execer: *sql.DB, *sql.Tx или ConnPool транзакции gorm.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ApplyDDL выполняет выражения по порядку и останавливается на первой ошибке.
// Откат на стороне вызывающего, exec должен быть открытой транзакцией.
func ApplyDDL(ctx context.Context, exec Execer, entity any, stmts []string) error {
	for _, s := range stmts {
		sqlText := strings.TrimSpace(s)
		if sqlText == "" {
			continue
		}
		_, err := exec.ExecContext(ctx, sqlText)
		metrics.DDL(err)
		if err != nil {
			slog.WarnContext(ctx, "DDL failed", "entity", entity, "sql", sqlText, "error", err)
			return Classify(err, entity)
		}
		slog.DebugContext(ctx, "DDL applied", "entity", entity, "sql", sqlText)
	}
	return nil
}
