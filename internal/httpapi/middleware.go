package httpapi

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loopfield/interview-engine/internal/httpapi/dto"
)

// RequireBearer rejects requests without a valid `Authorization: Bearer
// <key>` header, comparing constant-time against key (spec.md §6: the
// admin-only routes' bearer token). This upgrades the teacher's own
// RequireAdminAPIKey, which does a plain `!=` comparison, to
// crypto/subtle.ConstantTimeCompare, since spec.md explicitly calls for
// constant-time comparison here.
func RequireBearer(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "bearer auth not configured"})
			return
		}
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "missing or invalid bearer token"})
			return
		}
		c.Next()
	}
}

// Recovery turns a panic inside a handler into a 500 instead of crashing
// the process, logging it the way the teacher's middleware.Recovery does.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.ErrorContext(c.Request.Context(), "panic recovered", "panic", rec, "path", c.Request.URL.Path)
				c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
			}
		}()
		c.Next()
	}
}

// RequestLogger logs one structured line per request, mirroring the
// teacher's middleware.Logger.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.InfoContext(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
