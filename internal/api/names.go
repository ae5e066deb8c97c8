package api

import (
	"encoding/json"

	"tablekit/internal/apperr"
	"tablekit/internal/schema"
)

// MapRow переименовывает ключи верхнего уровня snake_case → camelCase.
// Значения не разбираются и уходят клиенту как есть.
func MapRow(row json.RawMessage) (map[string]json.RawMessage, error) {
	var in map[string]json.RawMessage
	if err := json.Unmarshal(row, &in); err != nil {
		return nil, apperr.Integrity("row is not a JSON object: %v", err)
	}
	out := make(map[string]json.RawMessage, len(in))
	for k, v := range in {
		out[schema.ToCamel(k)] = v
	}
	return out, nil
}

// MapRows: MapRow для списка; пустой результат: [], не null.
func MapRows(rows []json.RawMessage) ([]map[string]json.RawMessage, error) {
	out := make([]map[string]json.RawMessage, 0, len(rows))
	for _, r := range rows {
		m, err := MapRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
