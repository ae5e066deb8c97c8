package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"tablekit/internal/apperr"
	"tablekit/internal/schema"

	"github.com/gin-gonic/gin"
)

// GET /tables/:name/fields
func ListFieldsHandler(cat Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		fields, err := cat.ListFields(c.Request.Context(), c.Param("name"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, fields)
	}
}

// readFieldRequests принимает и одно поле, и массив полей.
func readFieldRequests(c *gin.Context) ([]schema.CreateFieldRequest, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, apperr.Validation("Invalid JSON").WithValues(err.Error())
	}
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var reqs []schema.CreateFieldRequest
		if err := json.Unmarshal(body, &reqs); err != nil {
			return nil, jsonErr(err)
		}
		return reqs, nil
	}
	var req schema.CreateFieldRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, jsonErr(err)
	}
	return []schema.CreateFieldRequest{req}, nil
}

// POST /tables/:name/fields
func AddFieldsHandler(cat Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqs, err := readFieldRequests(c)
		if err != nil {
			fail(c, err)
			return
		}
		fields, err := cat.AddFields(c.Request.Context(), c.Param("name"), reqs)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, fields)
	}
}

// GET /tables/:name/fields/:field
func GetFieldHandler(cat Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := cat.GetField(c.Request.Context(), c.Param("name"), c.Param("field"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, f)
	}
}

// PATCH /tables/:name/fields/:field
func UpdateFieldHandler(cat Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req schema.UpdateFieldRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badJSON(c, err)
			return
		}
		f, err := cat.UpdateField(c.Request.Context(), c.Param("name"), c.Param("field"), req)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, f)
	}
}

// DELETE /tables/:name/fields/:field
func DeleteFieldHandler(cat Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := cat.DeleteField(c.Request.Context(), c.Param("name"), c.Param("field"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, f)
	}
}
