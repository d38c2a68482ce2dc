package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/erp/reportdispatch/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const bearerPrefix = "Bearer "

// CronAuth requires "Authorization: Bearer <secret>".
// An empty configured secret rejects every request.
func CronAuth(secret string) gin.HandlerFunc {
	expected := []byte(secret)
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok || len(expected) == 0 || subtle.ConstantTimeCompare([]byte(token), expected) != 1 {
			logger.GetGinLogger(c).Warn("Rejected cron request",
				zap.Bool("header_present", c.GetHeader("Authorization") != ""),
				zap.Bool("secret_configured", len(expected) > 0),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Unauthorized",
			})
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}
