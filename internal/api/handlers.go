package api

import (
	"encoding/json"
	"net/http"

	"tablekit/internal/apperr"
	"tablekit/internal/query"
	"tablekit/internal/schema"

	"github.com/gin-gonic/gin"
)

const (
	tableKey = "table"
	rowsKey  = "rows"
)

// tableGate загружает таблицу заново на каждый запрос и проверяет доступ
// до того, как к строкам пойдёт хоть один запрос.
func tableGate(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := opts.Catalog.LoadTable(c.Request.Context(), c.Param("table"))
		if err != nil {
			fail(c, err)
			return
		}
		if !t.Available() {
			fail(c, apperr.NotFound("Table %q not found", t.Name).WithValues(t.Name))
			return
		}
		d, err := opts.Auth.Authorize(t, t.Permissions, c.Request.Method, c.GetHeader("Authorization"))
		if err != nil {
			fail(c, err)
			return
		}
		rows, err := opts.Rows(t)
		if err != nil {
			fail(c, err)
			return
		}
		if d.Claims != nil {
			c.Set(claimsKey, d.Claims)
		}
		c.Set(tableKey, t)
		c.Set(rowsKey, rows)
		c.Next()
	}
}

func gated(c *gin.Context) (schema.TableDefinition, Rows) {
	return c.MustGet(tableKey).(schema.TableDefinition), c.MustGet(rowsKey).(Rows)
}

func respondRow(c *gin.Context, status int, row json.RawMessage, err error) {
	if err != nil {
		fail(c, err)
		return
	}
	out, err := MapRow(row)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(status, out)
}

// readRow: тело запроса с ключами, приведёнными к именам колонок.
func readRow(c *gin.Context, t schema.TableDefinition) (map[string]any, bool) {
	obj, err := readObject(c)
	if err == nil {
		obj, err = columnKeys(obj, t.Fields)
	}
	if err != nil {
		fail(c, err)
		return nil, false
	}
	return obj, true
}

// GET /custom/:table
func ListRowsHandler(opts query.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, rows := gated(c)
		res, err := query.Resolve(c.Request.URL.RawQuery, schema.FieldNames(t.Fields), opts)
		if err != nil {
			fail(c, err)
			return
		}
		list, err := rows.List(c.Request.Context(), res)
		if err != nil {
			fail(c, err)
			return
		}
		out, err := MapRows(list)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// POST /custom/:table
func CreateRowHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		t, rows := gated(c)
		body, ok := readRow(c, t)
		if !ok {
			return
		}
		row, err := rows.Insert(c.Request.Context(), body)
		respondRow(c, http.StatusCreated, row, err)
	}
}

// GET /custom/:table/:id
func GetRowHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, rows := gated(c)
		row, err := rows.Get(c.Request.Context(), c.Param("id"))
		respondRow(c, http.StatusOK, row, err)
	}
}

// PUT /custom/:table/:id
func ReplaceRowHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		t, rows := gated(c)
		body, ok := readRow(c, t)
		if !ok {
			return
		}
		row, err := rows.Replace(c.Request.Context(), c.Param("id"), body)
		respondRow(c, http.StatusOK, row, err)
	}
}

// PATCH /custom/:table/:id
func UpdateRowHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		t, rows := gated(c)
		body, ok := readRow(c, t)
		if !ok {
			return
		}
		row, err := rows.Update(c.Request.Context(), c.Param("id"), body)
		respondRow(c, http.StatusOK, row, err)
	}
}

// DELETE /custom/:table/:id
func DeleteRowHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, rows := gated(c)
		row, err := rows.Delete(c.Request.Context(), c.Param("id"))
		respondRow(c, http.StatusOK, row, err)
	}
}
