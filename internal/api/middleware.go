package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"mightstone-backend/internal/components/telemetry"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-Id"
	requestIDKey    = "request_id"
)

// requestID keeps a caller supplied X-Request-Id and mints one otherwise.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= 500 {
			level = slog.LevelWarn
		}
		slog.Log(
			c.Request.Context(), level, "request",
			"id", c.GetString(requestIDKey),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}

func recovery(tel telemetry.API) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		tel.ReportBroken(report_request_panic, c.GetString(requestIDKey), c.Request.URL.Path, fmt.Sprint(recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{"code": "INTERNAL", "message": "Internal server error"},
		})
	})
}
