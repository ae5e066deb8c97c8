package schema

import (
	"regexp"
	"strings"
	"unicode"

	"tablekit/internal/apperr"
)

const (
	MaxTableNameLen = 50
	MaxFieldNameLen = 63
)

var identRe = regexp.MustCompile(`^[a-z0-9_]+$`)

// имена таблиц каталога: занимать их пользовательскими таблицами нельзя
var catalogTables = map[string]struct{}{
	"tables": {}, "fields": {}, "tables_permissions": {},
}

// CheckIdent: единственная защита от инъекций через идентификаторы.
// Вызывается в каждом месте, где имя попадает в текст SQL.
func CheckIdent(s string) error {
	if s == "" {
		return apperr.Validation("identifier cannot be empty")
	}
	if len(s) > MaxFieldNameLen {
		return apperr.Validation("identifier %q is longer than %d characters", s, MaxFieldNameLen)
	}
	if !identRe.MatchString(s) {
		return apperr.Validation("identifier %q can only contain lowercase letters, digits and underscore", s)
	}
	return nil
}

// QuoteIdent проверяет и квотирует имя.
func QuoteIdent(s string) (string, error) {
	if err := CheckIdent(s); err != nil {
		return "", err
	}
	return `"` + s + `"`, nil
}

// NormalizeName: trim, пробелы → "_", lower. "OrderItems" → "orderitems".
func NormalizeName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ToLower(s)
}

// ColumnName сопоставляет ключ запроса с колонкой: сначала ключ в нижнем регистре,
// затем camelCase → snake_case ("firstName" → "first_name"). Если не подошло ни то,
// ни другое, возвращается snake_case вариант для сообщения об ошибке.
func ColumnName(key string, known map[string]struct{}) string {
	lower := strings.ToLower(key)
	if _, ok := known[lower]; ok {
		return lower
	}
	return ToSnake(key)
}

// NormalizeTableName нормализует и проверяет имя таблицы.
func NormalizeTableName(s string) (string, error) {
	name := NormalizeName(s)
	if name == "" {
		return "", apperr.Validation("Name cannot be empty")
	}
	if len(name) > MaxTableNameLen {
		return "", apperr.Validation("Name cannot be longer than %d characters", MaxTableNameLen)
	}
	if !identRe.MatchString(name) {
		return "", apperr.Validation("Name can only contain alphanumeric and underline")
	}
	if _, ok := catalogTables[name]; ok {
		return "", apperr.Validation("Name %q is reserved", name)
	}
	return name, nil
}

// NormalizeFieldName нормализует и проверяет имя поля.
func NormalizeFieldName(s string) (string, error) {
	name := NormalizeName(s)
	if name == "" {
		return "", apperr.Validation("Name cannot be empty")
	}
	if err := CheckIdent(name); err != nil {
		return "", err
	}
	return name, nil
}

// ToSnake: "firstName" → "first_name"; подчёркивание ставится только
// на переходе строчная/цифра → заглавная, "ID" остаётся "id".
func ToSnake(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	var prev rune
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
		prev = r
	}
	return b.String()
}

// ToCamel: "first_name" → "firstName".
func ToCamel(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	upper := false
	for _, r := range s {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
