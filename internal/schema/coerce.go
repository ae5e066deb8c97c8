package schema

import (
	"database/sql/driver"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"tablekit/internal/apperr"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05.999999"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	dateLayout,
}

var timeLayouts = []string{"15:04:05.999999999", "15:04"}

// DateValue: календарная дата без времени.
type DateValue struct{ time.Time }

func (d DateValue) String() string { return d.Format(dateLayout) }
func (d DateValue) Value() (driver.Value, error) { return d.String(), nil }
func (d DateValue) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

// TimeOfDay: время суток без даты и зоны.
type TimeOfDay struct{ time.Time }

func (t TimeOfDay) String() string { return t.Format(timeLayout) }
func (t TimeOfDay) Value() (driver.Value, error) { return t.String(), nil }
func (t TimeOfDay) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }

// JSONValue: структурированное значение для колонок Json; сериализуется при биндинге.
type JSONValue struct{ V any }

func (j JSONValue) Value() (driver.Value, error) {
	b, err := json.Marshal(j.V)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (j JSONValue) MarshalJSON() ([]byte, error) { return json.Marshal(j.V) }

func coerceErr(f FieldDefinition, v any, format string, args ...any) error {
	e := apperr.TypeCoercion("Column %q: "+format, append([]any{f.Name}, args...)...)
	return e.WithValues(map[string]any{"column": f.Name, "value": v})
}

// Bind превращает JSON-значение из тела запроса в типизированный параметр.
// nil → SQL NULL (обязательность проверяет вызывающий).
func Bind(f FieldDefinition, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch f.FieldType {
	case Varchar, Text:
		s, ok := v.(string)
		if !ok {
			return nil, coerceErr(f, v, "expected string, got %s", jsonKind(v))
		}
		return s, nil
	case Integer:
		n, err := toInt32(v)
		if err != nil {
			return nil, coerceErr(f, v, "%s", err.Error())
		}
		return n, nil
	case Float:
		x, err := toFloat32(v)
		if err != nil {
			return nil, coerceErr(f, v, "%s", err.Error())
		}
		return x, nil
	case Boolean:
		b, ok := v.(bool)
		if !ok {
			return nil, coerceErr(f, v, "expected boolean, got %s", jsonKind(v))
		}
		return b, nil
	case Timestamp:
		s, ok := v.(string)
		if !ok {
			return nil, coerceErr(f, v, "expected timestamp string, got %s", jsonKind(v))
		}
		ts, err := ParseTimestamp(s)
		if err != nil {
			return nil, coerceErr(f, v, "invalid timestamp %q", s)
		}
		return ts, nil
	case Date:
		s, ok := v.(string)
		if !ok {
			return nil, coerceErr(f, v, "expected date string, got %s", jsonKind(v))
		}
		d, err := time.Parse(dateLayout, strings.TrimSpace(s))
		if err != nil {
			return nil, coerceErr(f, v, "invalid date %q", s)
		}
		return DateValue{d}, nil
	case Time:
		s, ok := v.(string)
		if !ok {
			return nil, coerceErr(f, v, "expected time string, got %s", jsonKind(v))
		}
		t, err := parseTimeOfDay(s)
		if err != nil {
			return nil, coerceErr(f, v, "invalid time %q", s)
		}
		return TimeOfDay{t}, nil
	case Json:
		return JSONValue{V: v}, nil
	case Binary:
		s, ok := v.(string)
		if !ok {
			return nil, coerceErr(f, v, "expected string, got %s", jsonKind(v))
		}
		return []byte(s), nil
	default:
		return nil, coerceErr(f, v, "unsupported field type %s", f.FieldType)
	}
}

// ParseTimestamp принимает RFC3339/ISO-8601 и приводит к UTC без зоны.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			u := t.UTC()
			return time.Date(u.Year(), u.Month(), u.Day(), u.Hour(), u.Minute(), u.Second(), u.Nanosecond(), time.UTC), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func parseTimeOfDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func toInt32(v any) (int32, error) {
	var n int64
	switch x := v.(type) {
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return 0, errNotInteger(x.String())
		}
		n = i
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) {
			return 0, errNotInteger(strconv.FormatFloat(x, 'g', -1, 64))
		}
		if x > math.MaxInt32 || x < math.MinInt32 {
			return 0, errOutOfRange(strconv.FormatFloat(x, 'g', -1, 64))
		}
		return int32(x), nil
	case int:
		n = int64(x)
	case int32:
		return x, nil
	case int64:
		n = x
	default:
		return 0, &coerceMsg{"expected integer, got " + jsonKind(v)}
	}
	if n > math.MaxInt32 || n < math.MinInt32 {
		return 0, errOutOfRange(strconv.FormatInt(n, 10))
	}
	return int32(n), nil
}

func toFloat32(v any) (float32, error) {
	var x float64
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, &coerceMsg{"invalid number " + strconv.Quote(n.String())}
		}
		x = f
	case float64:
		x = n
	case float32:
		return n, nil
	case int:
		x = float64(n)
	case int64:
		x = float64(n)
	default:
		return 0, &coerceMsg{"expected number, got " + jsonKind(v)}
	}
	if math.Abs(x) > math.MaxFloat32 {
		return 0, errOutOfRange(strconv.FormatFloat(x, 'g', -1, 64))
	}
	return float32(x), nil
}

type coerceMsg struct{ s string }

func (e *coerceMsg) Error() string { return e.s }

func errNotInteger(lit string) error { return &coerceMsg{"expected integer, got " + lit} }
func errOutOfRange(lit string) error { return &coerceMsg{"value " + lit + " out of range"} }

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, float32, int, int32, int64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "value"
	}
}

var temporalDefaults = map[string]struct{}{
	"CURRENT_TIMESTAMP": {}, "CURRENT_DATE": {}, "CURRENT_TIME": {}, "NOW()": {},
}

// DefaultLiteral возвращает безопасный SQL-литерал для default_value поля.
// Значение проверяется по типу поля и квотируется; сырое выражение не пропускается.
func DefaultLiteral(f FieldDefinition) (string, error) {
	if f.DefaultValue == nil {
		return "NULL", nil
	}
	raw := *f.DefaultValue
	if f.FieldType.IsTemporal() {
		if _, ok := temporalDefaults[strings.ToUpper(strings.TrimSpace(raw))]; ok {
			return strings.ToUpper(strings.TrimSpace(raw)), nil
		}
	}
	if err := checkTextLiteral(f, raw); err != nil {
		return "", err
	}
	return "'" + strings.ReplaceAll(raw, "'", "''") + "'::" + f.FieldType.PhysicalType(), nil
}

func checkTextLiteral(f FieldDefinition, s string) error {
	bad := func() error {
		return apperr.TypeCoercion("Column %q: invalid default %q for type %s", f.Name, s, f.FieldType).
			WithValues(map[string]any{"column": f.Name, "value": s})
	}
	switch f.FieldType {
	case Integer:
		if _, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32); err != nil {
			return bad()
		}
	case Float:
		if _, err := strconv.ParseFloat(strings.TrimSpace(s), 32); err != nil {
			return bad()
		}
	case Boolean:
		if _, err := strconv.ParseBool(strings.TrimSpace(s)); err != nil {
			return bad()
		}
	case Timestamp:
		if _, err := ParseTimestamp(s); err != nil {
			return bad()
		}
	case Date:
		if _, err := time.Parse(dateLayout, strings.TrimSpace(s)); err != nil {
			return bad()
		}
	case Time:
		if _, err := parseTimeOfDay(s); err != nil {
			return bad()
		}
	case Json:
		if !json.Valid([]byte(s)) {
			return bad()
		}
	}
	return nil
}
