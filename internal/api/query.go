package api

import (
	"net/url"
	"strings"

	"tablekit/internal/apperr"
	"tablekit/internal/query"
	"tablekit/internal/store"
)

// parseTableList: id, limit (алиас perPage), offset для GET /tables.
// Нечисловой limit/offset игнорируется, нечисловой id: ошибка.
func parseTableList(q url.Values) (store.TableListParams, error) {
	p := store.TableListParams{Limit: query.DefaultLimit}
	for key, vals := range q {
		if len(vals) == 0 {
			continue
		}
		v := strings.TrimSpace(vals[len(vals)-1])
		switch strings.ToLower(key) {
		case "id":
			id, err := query.ParseCount(v)
			if err != nil {
				return p, apperr.Validation("Invalid id %q", v).WithValues(v)
			}
			p.ID = &id
		case "limit", "perpage":
			if n, err := query.ParseCount(v); err == nil && n > 0 {
				p.Limit = n
			}
		case "offset":
			if n, err := query.ParseCount(v); err == nil && n > 0 {
				p.Offset = n
			}
		}
	}
	return p, nil
}
