package pg

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"tablekit/internal/apperr"
	"tablekit/internal/query"
	"tablekit/internal/schema"
)

// Stmt: текст с плейсхолдерами "?" (их нумерует gorm) и аргументы.
type Stmt struct {
	SQL  string
	Args []any
}

// Column: колонка со значением, уже прошедшим schema.Bind.
type Column struct {
	Name  string
	Value any
}

// bytea передаёт []byte одним параметром, иначе gorm раскроет срез после "(" в список значений.
type bytea []byte

func (b bytea) Value() (driver.Value, error) { return []byte(b), nil }

func arg(v any) any {
	if b, ok := v.([]byte); ok {
		return bytea(b)
	}
	return v
}

// Target: таблица и её поля, как они записаны в каталоге.
type Target struct {
	Table  string
	Fields []schema.FieldDefinition
	IsView bool
}

func (t Target) field(name string) (schema.FieldDefinition, error) {
	f, ok := schema.FieldByName(t.Fields, name)
	if !ok {
		return f, apperr.Validation("Column %q not found", name)
	}
	return f, nil
}

func (t Target) pk() (schema.FieldDefinition, error) {
	f, ok := schema.PrimaryKey(t.Fields)
	if !ok {
		return f, apperr.Integrity("table %q has no primary key", t.Table)
	}
	return f, nil
}

// eq: сравнение колонки с текстовым параметром, приведённым к её типу.
func eq(b *builder, f schema.FieldDefinition) string {
	col := "r." + b.q(f.Name)
	if f.FieldType == schema.Json {
		return col + "::jsonb = CAST(? AS jsonb)"
	}
	return col + " = CAST(? AS " + f.FieldType.PhysicalType() + ")"
}

// eqArg: для текстовых колонок биндится литерал из запроса как есть ("007" остаётся "007"),
// каноническая форма значения годится только для чисел и bool.
func eqArg(f schema.FieldDefinition, p query.Predicate) (any, error) {
	switch f.FieldType {
	case schema.Json:
		b, err := json.Marshal(p.Value)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case schema.Varchar, schema.Text, schema.Binary:
		if p.Raw != "" {
			return p.Raw, nil
		}
	}
	return query.Text(p.Value), nil
}

func (t Target) where(b *builder, preds []query.Predicate, id *string) (string, []any, error) {
	var conds []string
	var args []any
	if id != nil {
		pk, err := t.pk()
		if err != nil {
			return "", nil, err
		}
		conds = append(conds, eq(b, pk))
		args = append(args, *id)
	}
	for _, p := range preds {
		f, err := t.field(p.Key)
		if err != nil {
			return "", nil, err
		}
		switch p.Op {
		case query.OpEq:
			conds = append(conds, eq(b, f))
			a, err := eqArg(f, p)
			if err != nil {
				return "", nil, err
			}
			args = append(args, a)
		case query.OpContains:
			if f.FieldType == schema.Json {
				raw, err := json.Marshal(p.Values)
				if err != nil {
					return "", nil, err
				}
				conds = append(conds, "r."+b.q(f.Name)+"::jsonb @> CAST(? AS jsonb)")
				args = append(args, string(raw))
			} else {
				conds = append(conds, "CAST(r."+b.q(f.Name)+" AS text) IN ?")
				args = append(args, p.Values)
			}
		default:
			return "", nil, fmt.Errorf("column %q: unsupported operator %s", p.Key, p.Op)
		}
	}
	if len(conds) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func (t Target) orderBy(b *builder, sort []query.SortKey) (string, error) {
	var keys []string
	for _, s := range sort {
		if _, err := t.field(s.Field); err != nil {
			return "", err
		}
		k := "r." + b.q(s.Field)
		if s.Desc {
			k += " DESC"
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 && !t.IsView {
		if pk, ok := schema.PrimaryKey(t.Fields); ok {
			keys = append(keys, "r."+b.q(pk.Name))
		}
	}
	if len(keys) == 0 {
		return "", nil
	}
	return " ORDER BY " + strings.Join(keys, ", "), nil
}

// Select: строки по фильтру, каждая как один JSON-объект.
func Select(t Target, res query.Result) (Stmt, error) {
	b := &builder{}
	where, args, err := t.where(b, res.Predicates, res.ID)
	if err != nil {
		return Stmt{}, err
	}
	order, err := t.orderBy(b, res.Sort)
	if err != nil {
		return Stmt{}, err
	}
	sql := "SELECT row_to_json(r) FROM " + b.q(t.Table) + " AS r" + where + order + " LIMIT ? OFFSET ?"
	if b.err != nil {
		return Stmt{}, b.err
	}
	return Stmt{SQL: sql, Args: append(args, res.Limit, res.Offset)}, nil
}

// SelectByID: одна строка по первичному ключу.
func SelectByID(t Target, id string) (Stmt, error) {
	return Select(t, query.Result{ID: &id, Limit: 1})
}

// Count: число строк (для capacity).
func Count(t Target) (Stmt, error) {
	b := &builder{}
	sql := "SELECT count(*) FROM " + b.q(t.Table)
	if b.err != nil {
		return Stmt{}, b.err
	}
	return Stmt{SQL: sql}, nil
}

// Lock: блокировка от параллельных вставок на время проверки capacity.
func Lock(t Target) (Stmt, error) {
	b := &builder{}
	sql := "LOCK TABLE " + b.q(t.Table) + " IN SHARE ROW EXCLUSIVE MODE"
	if b.err != nil {
		return Stmt{}, b.err
	}
	return Stmt{SQL: sql}, nil
}

// Insert: вставка одной строки; пустой набор колонок → DEFAULT VALUES.
func Insert(t Target, cols []Column) (Stmt, error) {
	b := &builder{}
	tbl := b.q(t.Table)
	if len(cols) == 0 {
		sql := "INSERT INTO " + tbl + " AS r DEFAULT VALUES RETURNING row_to_json(r)"
		return Stmt{SQL: sql}, b.err
	}
	names := make([]string, 0, len(cols))
	marks := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for _, c := range cols {
		if _, err := t.field(c.Name); err != nil {
			return Stmt{}, err
		}
		names = append(names, b.q(c.Name))
		marks = append(marks, "?")
		args = append(args, arg(c.Value))
	}
	sql := fmt.Sprintf("INSERT INTO %s AS r (%s) VALUES (%s) RETURNING row_to_json(r)",
		tbl, strings.Join(names, ", "), strings.Join(marks, ", "))
	if b.err != nil {
		return Stmt{}, b.err
	}
	return Stmt{SQL: sql, Args: args}, nil
}

func (t Target) update(id string, cols []Column, replace bool) (Stmt, error) {
	pk, err := t.pk()
	if err != nil {
		return Stmt{}, err
	}
	b := &builder{}
	given := make(map[string]Column, len(cols))
	for _, c := range cols {
		if _, err := t.field(c.Name); err != nil {
			return Stmt{}, err
		}
		given[c.Name] = c
	}

	var sets []string
	var args []any
	if replace {
		// PUT: колонки, которых нет в теле, возвращаются к DEFAULT
		for _, f := range t.Fields {
			if f.IsPrimaryKey {
				continue
			}
			if c, ok := given[f.Name]; ok {
				sets = append(sets, b.q(f.Name)+" = ?")
				args = append(args, arg(c.Value))
			} else {
				sets = append(sets, b.q(f.Name)+" = DEFAULT")
			}
		}
	} else {
		for _, c := range cols {
			if c.Name == pk.Name {
				continue
			}
			sets = append(sets, b.q(c.Name)+" = ?")
			args = append(args, arg(c.Value))
		}
	}
	if len(sets) == 0 {
		return SelectByID(t, id)
	}
	sql := fmt.Sprintf("UPDATE %s AS r SET %s WHERE %s RETURNING row_to_json(r)",
		b.q(t.Table), strings.Join(sets, ", "), eq(b, pk))
	if b.err != nil {
		return Stmt{}, b.err
	}
	return Stmt{SQL: sql, Args: append(args, id)}, nil
}

// Replace (PUT): полная замена строки, первичный ключ не меняется.
func Replace(t Target, id string, cols []Column) (Stmt, error) {
	return t.update(id, cols, true)
}

// Update (PATCH): только переданные колонки.
func Update(t Target, id string, cols []Column) (Stmt, error) {
	return t.update(id, cols, false)
}

// Delete удаляет строку и возвращает её.
func Delete(t Target, id string) (Stmt, error) {
	pk, err := t.pk()
	if err != nil {
		return Stmt{}, err
	}
	b := &builder{}
	sql := "DELETE FROM " + b.q(t.Table) + " AS r WHERE " + eq(b, pk) + " RETURNING row_to_json(r)"
	if b.err != nil {
		return Stmt{}, b.err
	}
	return Stmt{SQL: sql, Args: []any{id}}, nil
}
