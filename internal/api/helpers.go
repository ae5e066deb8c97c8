package api

import (
	"encoding/json"
	"errors"
	"io"

	"tablekit/internal/apperr"
	"tablekit/internal/schema"

	"github.com/gin-gonic/gin"
)

// readObject читает тело как JSON-объект; числа остаются json.Number,
// чтобы binder сам решал, целое это или нет. Пустое тело: пустой объект.
func readObject(c *gin.Context) (map[string]any, error) {
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, apperr.Validation("Invalid JSON").WithValues(err.Error())
	}
	if obj == nil {
		return nil, apperr.Validation("Body must be a JSON object")
	}
	return obj, nil
}

func jsonErr(err error) error {
	if apperr.KindOf(err) != 0 {
		return err
	}
	return apperr.Validation("Invalid JSON").WithValues(err.Error())
}

// columnKeys переводит ключи тела в имена колонок таблицы.
// Два ключа на одну колонку ("firstName" и "first_name"): ошибка.
func columnKeys(obj map[string]any, fields []schema.FieldDefinition) (map[string]any, error) {
	known := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		known[f.Name] = struct{}{}
	}
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		col := schema.ColumnName(k, known)
		if _, dup := out[col]; dup {
			return nil, apperr.Validation("Column %q given more than once", col).WithValues(k)
		}
		out[col] = v
	}
	return out, nil
}
