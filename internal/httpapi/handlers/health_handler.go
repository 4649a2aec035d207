package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startedAt = time.Now()

// Health handles GET /health. It reports uptime and the credential
// preview bound at startup, for the supplemented "health check detail"
// feature (spec.md §7).
func Health(tokenPreview, cookiePreview string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":         "ok",
			"time":           time.Now().Unix(),
			"uptime_seconds": int64(time.Since(startedAt).Seconds()),
			"credentials": gin.H{
				"token_preview":  tokenPreview,
				"cookie_preview": cookiePreview,
			},
		})
	}
}
