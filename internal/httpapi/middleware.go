package httpapi

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const ctxUserID = "userID"

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"status", status,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"dur_ms", time.Since(start).Milliseconds(),
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			attrs = append(attrs, "err", errs)
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("http", attrs...)
		case status >= http.StatusBadRequest:
			logger.Warn("http", attrs...)
		default:
			logger.Info("http", attrs...)
		}
	}
}

// requireUser reads the caller id set by the upstream auth proxy.
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(headerUserID))
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{Error: "missing " + headerUserID + " header"})
			return
		}
		c.Set(ctxUserID, id)
		c.Next()
	}
}
