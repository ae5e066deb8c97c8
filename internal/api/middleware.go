package api

import (
	"log/slog"
	"time"

	"tablekit/internal/auth"
	"tablekit/internal/metrics"

	"github.com/gin-gonic/gin"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	claimsKey       = "claims"
)

// requestID берёт X-Request-ID клиента или выдаёт новый ULID.
func requestID(ids *idSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = ids.next()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// accessLog пишет одну строку на запрос и считает метрики по шаблону маршрута.
func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)
		status := c.Writer.Status()
		metrics.ObserveRequest(c.Request.Method, c.FullPath(), status, elapsed)

		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		} else if status >= 400 {
			level = slog.LevelWarn
		}
		slog.Log(c.Request.Context(), level, "http request",
			"request_id", c.GetString(requestIDKey),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", c.FullPath(),
			"status", status,
			"latency_ms", elapsed.Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}

// adminOnly: каталог доступен только токену с admin_rights.
func adminOnly(eval *auth.Evaluator) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := eval.RequireAdmin(c.GetHeader("Authorization"))
		if err != nil {
			fail(c, err)
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}
