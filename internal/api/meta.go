package api

import (
	"context"
	"net/http"
	"time"

	"tablekit/internal/apperr"
	"tablekit/internal/schema"

	"github.com/gin-gonic/gin"
)

type metaFieldType struct {
	Type     string `json:"type"`
	Physical string `json:"physical"`
	Temporal bool   `json:"temporal"`
}

// GET /meta/types
func FieldTypesHandler() gin.HandlerFunc {
	out := make([]metaFieldType, 0, len(schema.FieldTypes))
	for _, ft := range schema.FieldTypes {
		out = append(out, metaFieldType{Type: ft.String(), Physical: ft.PhysicalType(), Temporal: ft.IsTemporal()})
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, out)
	}
}

// GET /health
func HealthHandler(cat Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := cat.Ping(ctx); err != nil {
			fail(c, apperr.SchemaExecution(err, nil, "database unavailable"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
