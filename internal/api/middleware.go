package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/familybicons/socios-server/internal/auth"
	"github.com/familybicons/socios-server/internal/models"
	"github.com/familybicons/socios-server/internal/session"
	"github.com/familybicons/socios-server/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const sessionKey = "session"

func unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Status:  "error",
		Code:    "UNAUTHORIZED",
		Message: message,
	})
	c.Abort()
}

// AuthMiddleware returns a Gin middleware that resolves the bearer token to
// an Authenticated session
func AuthMiddleware(tokens *auth.TokenIssuer, store session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get the JWT token from the Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "Authentication required")
			return
		}

		// Check if the Authorization header starts with "Bearer "
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			unauthorized(c, "Invalid token format")
			return
		}

		claims, err := tokens.Parse(parts[1])
		if err != nil {
			unauthorized(c, "Invalid token")
			return
		}

		sess, err := store.Get(c.Request.Context(), claims.SessionID)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
					Status:  "error",
					Code:    "SERVICE_UNAVAILABLE",
					Message: "Session store unavailable",
				})
				c.Abort()
				return
			}
			unauthorized(c, "Session expired")
			return
		}

		// A token outliving its session, or pointing at another member, is rejected
		if !sess.IsAuthenticated() || sess.Username != claims.Subject {
			unauthorized(c, "Session expired")
			return
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

// currentSession returns the session set by AuthMiddleware
func currentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

// RequestLogger logs one line per request
func RequestLogger(log *utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"ip":       c.ClientIP(),
		}).Info("request")
	}
}
