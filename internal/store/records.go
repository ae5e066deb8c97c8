package store

import (
	"context"
	"encoding/json"

	"tablekit/internal/apperr"
	"tablekit/internal/pg"
	"tablekit/internal/query"
	"tablekit/internal/schema"

	"gorm.io/gorm"
)

// Row: одна строка пользовательской таблицы в виде JSON-объекта с snake_case ключами.
type Row = json.RawMessage

// Records: CRUD по строкам одной таблицы; определение берётся из LoadTable.
type Records struct {
	db     *gorm.DB
	table  schema.TableDefinition
	target pg.Target
}

// Records возвращает доступ к строкам таблицы. Неактивная или удалённая таблица: NotFound.
func (s *Store) Records(t schema.TableDefinition) (*Records, error) {
	if !t.Available() {
		return nil, apperr.NotFound("Table %q not found", t.Name).WithValues(t.Name)
	}
	return &Records{
		db:     s.db,
		table:  t,
		target: pg.Target{Table: t.Name, Fields: t.Fields, IsView: t.IsView},
	}, nil
}

func (r *Records) writable() error {
	if r.table.IsView {
		return apperr.Validation("View %q is read-only", r.table.Name).WithValues(r.table.Name)
	}
	return nil
}

// bind сверяет ключи тела с полями и приводит значения к типам колонок.
// Порядок колонок: порядок полей в каталоге.
func (r *Records) bind(body map[string]any) ([]pg.Column, error) {
	for k := range body {
		if _, ok := schema.FieldByName(r.table.Fields, k); !ok {
			return nil, apperr.Validation("Column %q not found", k).WithValues(k)
		}
	}
	cols := make([]pg.Column, 0, len(body))
	for _, f := range r.table.Fields {
		v, ok := body[f.Name]
		if !ok {
			continue
		}
		if v == nil && f.IsRequired {
			return nil, apperr.Validation("Column %q is required", f.Name).WithValues(f.Name)
		}
		bound, err := schema.Bind(f, v)
		if err != nil {
			return nil, err
		}
		cols = append(cols, pg.Column{Name: f.Name, Value: bound})
	}
	return cols, nil
}

func queryRows(db *gorm.DB, st pg.Stmt) ([]Row, error) {
	rows, err := db.Raw(st.SQL, st.Args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Row, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		out = append(out, Row(raw))
	}
	return out, rows.Err()
}

func (r *Records) one(db *gorm.DB, st pg.Stmt, id string) (Row, error) {
	rows, err := queryRows(db, st)
	if err != nil {
		return nil, pg.Classify(err, r.table.Name)
	}
	if len(rows) == 0 {
		return nil, apperr.NotFound("Row %s not found in table %q", id, r.table.Name).WithValues(id)
	}
	return rows[0], nil
}

// List: строки по результату query.Resolve; если задан id, это фильтр по ключу.
func (r *Records) List(ctx context.Context, res query.Result) ([]Row, error) {
	st, err := pg.Select(r.target, res)
	if err != nil {
		return nil, err
	}
	rows, err := queryRows(r.db.WithContext(ctx), st)
	if err != nil {
		return nil, pg.Classify(err, r.table.Name)
	}
	return rows, nil
}

func (r *Records) Get(ctx context.Context, id string) (Row, error) {
	st, err := pg.SelectByID(r.target, id)
	if err != nil {
		return nil, err
	}
	return r.one(r.db.WithContext(ctx), st, id)
}

// Insert вставляет строку. При заданной capacity таблица блокируется от параллельных
// вставок до конца транзакции, чтобы подсчёт и вставка не разошлись.
func (r *Records) Insert(ctx context.Context, body map[string]any) (Row, error) {
	if err := r.writable(); err != nil {
		return nil, err
	}
	cols, err := r.bind(body)
	if err != nil {
		return nil, err
	}
	st, err := pg.Insert(r.target, cols)
	if err != nil {
		return nil, err
	}
	var out Row
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.checkCapacity(tx); err != nil {
			return err
		}
		rows, err := queryRows(tx, st)
		if err != nil {
			return pg.Classify(err, r.table.Name)
		}
		if len(rows) == 0 {
			return apperr.Integrity("insert into %q returned no row", r.table.Name)
		}
		out = rows[0]
		return nil
	})
	return out, err
}

func (r *Records) checkCapacity(tx *gorm.DB) error {
	if r.table.Capacity == nil || *r.table.Capacity <= 0 {
		return nil
	}
	lock, err := pg.Lock(r.target)
	if err != nil {
		return err
	}
	if err := tx.Exec(lock.SQL).Error; err != nil {
		return pg.Classify(err, r.table.Name)
	}
	count, err := pg.Count(r.target)
	if err != nil {
		return err
	}
	var n int64
	if err := tx.Raw(count.SQL).Scan(&n).Error; err != nil {
		return pg.Classify(err, r.table.Name)
	}
	if n >= int64(*r.table.Capacity) {
		return apperr.Conflict("Table %q is full (capacity %d)", r.table.Name, *r.table.Capacity).
			WithValues(r.table.Name)
	}
	return nil
}

// Replace (PUT): отсутствующие в теле колонки возвращаются к DEFAULT.
func (r *Records) Replace(ctx context.Context, id string, body map[string]any) (Row, error) {
	return r.write(ctx, id, body, pg.Replace)
}

// Update (PATCH): меняются только переданные колонки.
func (r *Records) Update(ctx context.Context, id string, body map[string]any) (Row, error) {
	return r.write(ctx, id, body, pg.Update)
}

func (r *Records) write(ctx context.Context, id string, body map[string]any, build func(pg.Target, string, []pg.Column) (pg.Stmt, error)) (Row, error) {
	if err := r.writable(); err != nil {
		return nil, err
	}
	cols, err := r.bind(body)
	if err != nil {
		return nil, err
	}
	st, err := build(r.target, id, cols)
	if err != nil {
		return nil, err
	}
	return r.one(r.db.WithContext(ctx), st, id)
}

// Delete удаляет строку и возвращает её.
func (r *Records) Delete(ctx context.Context, id string) (Row, error) {
	if err := r.writable(); err != nil {
		return nil, err
	}
	st, err := pg.Delete(r.target, id)
	if err != nil {
		return nil, err
	}
	return r.one(r.db.WithContext(ctx), st, id)
}
