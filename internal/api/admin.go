package api

import (
	"net/http"

	"tablekit/internal/schema"

	"github.com/gin-gonic/gin"
)

// tableView: таблица вместе с полями для ответов каталога.
type tableView struct {
	schema.TableDefinition
	Fields []schema.FieldDefinition `json:"fields,omitempty"`
}

// GET /tables
func ListTablesHandler(cat Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := parseTableList(c.Request.URL.Query())
		if err != nil {
			fail(c, err)
			return
		}
		tables, err := cat.ListTables(c.Request.Context(), p)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, tables)
	}
}

// POST /tables
func CreateTableHandler(cat Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req schema.CreateTableRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badJSON(c, err)
			return
		}
		t, fields, err := cat.CreateTable(c.Request.Context(), req)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, tableView{TableDefinition: t, Fields: fields})
	}
}

// GET /tables/:name
func GetTableHandler(cat Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := cat.LoadTable(c.Request.Context(), c.Param("name"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, tableView{TableDefinition: t, Fields: t.Fields})
	}
}

// PATCH /tables/:name
func UpdateTableHandler(cat Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req schema.UpdateTableRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badJSON(c, err)
			return
		}
		t, err := cat.UpdateTable(c.Request.Context(), c.Param("name"), req)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

// DELETE /tables/:name
func DeleteTableHandler(cat Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := cat.DeleteTable(c.Request.Context(), c.Param("name"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}
