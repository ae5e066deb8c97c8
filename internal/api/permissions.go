package api

import (
	"net/http"

	"tablekit/internal/apperr"
	"tablekit/internal/schema"

	"github.com/gin-gonic/gin"
)

type setPermissionReq struct {
	Allow *bool `json:"allow"`
}

// GET /tables/:name/permissions
func ListPermissionsHandler(cat Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		perms, err := cat.ListPermissions(c.Request.Context(), c.Param("name"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, perms)
	}
}

// PUT /tables/:name/permissions/:permission
func SetPermissionHandler(cat Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		perm, err := schema.ParsePermission(c.Param("permission"))
		if err != nil {
			fail(c, err)
			return
		}
		var req setPermissionReq
		if err := c.ShouldBindJSON(&req); err != nil {
			badJSON(c, err)
			return
		}
		if req.Allow == nil {
			fail(c, apperr.Validation("Field %q is required", "allow"))
			return
		}
		p, err := cat.SetPermission(c.Request.Context(), c.Param("name"), perm, *req.Allow)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}
