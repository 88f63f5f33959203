package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/seoscan/errs"
)

// ErrorHandler middleware recovers from any panics and answers with a 500
// error envelope.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					"panic", err,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()))

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error":   errs.UserMessage(errs.Internal),
				})
			}
		}()

		c.Next()
	}
}

// RespondError writes the envelope for err and aborts the chain. Only the
// fixed message for err's kind reaches the client; the full error is logged.
func RespondError(c *gin.Context, logger *slog.Logger, err error) {
	kind := errs.KindOf(err)
	status := errs.HTTPStatus(kind)

	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.Log(c.Request.Context(), level, "request failed",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"status", status,
		"kind", string(kind),
		"error", err)

	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   errs.UserMessage(kind),
	})
}
