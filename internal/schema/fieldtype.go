package schema

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"tablekit/internal/apperr"
)

// FieldType: закрытый набор типов колонок.
type FieldType int

const (
	Varchar FieldType = iota + 1
	Integer
	Float
	Boolean
	Date
	Time
	Timestamp
	Text
	Json
	Binary
)

// FieldTypes: все допустимые значения в каноническом порядке.
var FieldTypes = []FieldType{Varchar, Integer, Float, Boolean, Date, Time, Timestamp, Text, Json, Binary}

var fieldTypeNames = map[FieldType]string{
	Varchar:   "Varchar",
	Integer:   "Integer",
	Float:     "Float",
	Boolean:   "Boolean",
	Date:      "Date",
	Time:      "Time",
	Timestamp: "Timestamp",
	Text:      "Text",
	Json:      "Json",
	Binary:    "Binary",
}

var physicalTypes = map[FieldType]string{
	Varchar:   "varchar",
	Integer:   "integer",
	Float:     "real",
	Boolean:   "bool",
	Date:      "date",
	Time:      "time",
	Timestamp: "timestamp",
	Text:      "text",
	Json:      "json",
	Binary:    "bytea",
}

// legacy: старые клиенты присылали "string" вместо "varchar"
var fieldTypeAliases = map[string]FieldType{
	"string": Varchar,
}

// ParseFieldType разбирает имя типа без учёта регистра.
func ParseFieldType(s string) (FieldType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, t := range FieldTypes {
		if strings.ToLower(fieldTypeNames[t]) == key {
			return t, nil
		}
	}
	if t, ok := fieldTypeAliases[key]; ok {
		return t, nil
	}
	return 0, apperr.Validation("unknown type %q, expected one of %s", s, fieldTypeList())
}

func fieldTypeList() string {
	names := make([]string, 0, len(FieldTypes))
	for _, t := range FieldTypes {
		names = append(names, fieldTypeNames[t])
	}
	return strings.Join(names, ", ")
}

func (t FieldType) Valid() bool {
	_, ok := fieldTypeNames[t]
	return ok
}

func (t FieldType) String() string {
	if n, ok := fieldTypeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("FieldType(%d)", int(t))
}

// PhysicalType: имя типа в Postgres.
func (t FieldType) PhysicalType() string {
	return physicalTypes[t]
}

// IsTemporal: типы, для которых допустимы CURRENT_* в default.
func (t FieldType) IsTemporal() bool {
	return t == Date || t == Time || t == Timestamp
}

func (t FieldType) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid field type %d", int(t))
	}
	return json.Marshal(t.String())
}

func (t *FieldType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return apperr.Validation("field type must be a string, expected one of %s", fieldTypeList())
	}
	v, err := ParseFieldType(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t *FieldType) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParseFieldType(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Scan читает тип из каталога; неизвестное значение: ошибка, не паника.
func (t *FieldType) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("field type: unsupported source %T", src)
	}
	parsed, err := ParseFieldType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t FieldType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid field type %d", int(t))
	}
	return t.String(), nil
}

func (FieldType) GormDataType() string { return "varchar(32)" }
