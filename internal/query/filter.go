// Package query превращает строку запроса /custom в типизированные предикаты и пагинацию.
package query

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"tablekit/internal/apperr"
	"tablekit/internal/schema"

	"github.com/spf13/cast"
)

type Op int

const (
	OpEq       Op = iota + 1 // col = value
	OpContains               // col ∈ values
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return "eq"
	case OpContains:
		return "contains"
	default:
		return "unknown"
	}
}

// Predicate: одно условие фильтра. Для OpEq заполнено Value (int64, float64, bool или string)
// и Raw: литерал ровно как он пришёл в запросе; для OpContains: Values.
type Predicate struct {
	Key    string
	Op     Op
	Value  any
	Raw    string
	Values []string
}

// SortKey: элемент _sort.
type SortKey struct {
	Field string
	Desc  bool
}

const DefaultLimit = 100

type Options struct {
	DefaultLimit int // 0 → DefaultLimit
	MaxLimit     int // 0 → без ограничения
}

// Result: разобранный запрос. ID задан, если в строке был ключ id.
type Result struct {
	Predicates []Predicate
	Sort       []SortKey
	Limit      int
	Offset     int
	ID         *string
}

type param struct{ key, value string }

// splitQuery разбирает сырую строку запроса, сохраняя порядок ключей.
func splitQuery(raw string) ([]param, error) {
	var out []param
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			return nil, apperr.Validation("Invalid query parameter %q", k).WithValues(raw)
		}
		val, err := url.QueryUnescape(v)
		if err != nil {
			return nil, apperr.Validation("Invalid value for query parameter %q", key).WithValues(raw)
		}
		if strings.TrimSpace(key) == "" {
			continue
		}
		out = append(out, param{key: key, value: val})
	}
	return out, nil
}

// Resolve строит предикаты по сырой строке запроса и известным именам колонок.
// Неизвестная колонка: ошибка до того, как появится хоть какой-то SQL.
func Resolve(rawQuery string, fields []string, opts Options) (Result, error) {
	def := opts.DefaultLimit
	if def <= 0 {
		def = DefaultLimit
	}
	res := Result{Limit: def}

	known := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		known[f] = struct{}{}
	}

	params, err := splitQuery(rawQuery)
	if err != nil {
		return Result{}, err
	}

	for _, p := range params {
		lower := strings.ToLower(strings.TrimSpace(p.key))
		switch lower {
		case "id":
			id := p.value
			res.ID = &id
			continue
		case "limit", "perpage":
			res.Limit = parseLimit(p.value, def, opts.MaxLimit)
			continue
		case "offset":
			if n, err := ParseCount(p.value); err == nil && n > 0 {
				res.Offset = n
			}
			continue
		case "_sort":
			keys, err := parseSort(p.value, known)
			if err != nil {
				return Result{}, err
			}
			res.Sort = append(res.Sort, keys...)
			continue
		}

		isList := strings.HasSuffix(lower, "[]")
		col := schema.ColumnName(strings.TrimSuffix(strings.TrimSpace(p.key), "[]"), known)
		if _, ok := known[col]; !ok {
			return Result{}, apperr.Validation("Column %q not found", col).WithValues(p.key)
		}
		if isList {
			res.Predicates = append(res.Predicates, Predicate{Key: col, Op: OpContains, Values: parseList(p.value)})
			continue
		}
		res.Predicates = append(res.Predicates, Predicate{Key: col, Op: OpEq, Value: Scalar(p.value), Raw: p.value})
	}
	return res, nil
}

// ParseCount: неотрицательное десятичное число. "010" → 10; "0x10", "1e2", "-1": ошибка.
func ParseCount(v string) (int, error) {
	s := strings.TrimSpace(v)
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return 0, apperr.Validation("%q is not a decimal number", v)
	}
	// cast разбирает строки с base 0, поэтому ведущие нули снимаем заранее
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return 0, nil
	}
	return cast.ToIntE(s)
}

// parseLimit: число или числовая строка; всё прочее: значение по умолчанию.
func parseLimit(v string, def, max int) int {
	n, err := ParseCount(v)
	if err != nil || n <= 0 {
		return def
	}
	if max > 0 && n > max {
		return max
	}
	return n
}

// parseList: "[a,b,c]" → ["a","b","c"]; скобки необязательны, "[]": пустой список.
func parseList(v string) []string {
	s := strings.TrimSpace(v)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.TrimSpace(part))
	}
	return out
}

func parseSort(v string, known map[string]struct{}) ([]SortKey, error) {
	var out []SortKey
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		desc := false
		switch part[0] {
		case '-':
			desc = true
			part = part[1:]
		case '+':
			part = part[1:]
		}
		col := schema.ColumnName(part, known)
		if _, ok := known[col]; !ok {
			return nil, apperr.Validation("Column %q not found", col).WithValues(v)
		}
		out = append(out, SortKey{Field: col, Desc: desc})
	}
	return out, nil
}

// Scalar приводит значение в порядке int → float → bool → string.
func Scalar(v string) any {
	s := strings.TrimSpace(v)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return v
}

// Text: каноническое текстовое представление значения предиката для биндинга.
func Text(v any) string {
	switch x := v.(type) {
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	default:
		return cast.ToString(v)
	}
}
