package api

import (
	"log/slog"
	"net/http"

	"tablekit/internal/apperr"

	"github.com/gin-gonic/gin"
)

// fail отвечает конвертом ошибки и прерывает цепочку обработчиков.
func fail(c *gin.Context, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed",
			"request_id", c.GetString(requestIDKey),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"kind", apperr.KindOf(err).String(),
			"error", err,
		)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, apperr.ToEnvelope(err))
}

// badJSON: ошибка разбора тела; ошибки парсеров перечислений уже классифицированы.
func badJSON(c *gin.Context, err error) {
	if apperr.KindOf(err) != 0 {
		fail(c, err)
		return
	}
	fail(c, apperr.Validation("Invalid JSON").WithValues(err.Error()))
}

func noRoute(c *gin.Context) {
	fail(c, apperr.NotFound("Route %s %s not found", c.Request.Method, c.Request.URL.Path))
}

func noMethod(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusMethodNotAllowed, apperr.Envelope{
		ErrorMsg: "Method " + c.Request.Method + " not allowed",
	})
}
