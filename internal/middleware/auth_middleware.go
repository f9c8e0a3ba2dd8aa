package middleware

import (
	"net/http"
	"strings"

	"github.com/Baaaki/community-hub/internal/service"
	"github.com/Baaaki/community-hub/internal/session"
	"github.com/Baaaki/community-hub/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionKey is the gin context key holding the session.Session
const SessionKey = "session"

// TokenCookie is the HTTP-only cookie the auth handler sets on login
const TokenCookie = "token"

// AuthMiddleware resolves the bearer token (or token cookie) to a session.
// The session is rebuilt from the stored user so role changes and deletions
// take effect before the token expires.
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			return
		}

		sess, err := authService.ValidateToken(token)
		if err != nil {
			logger.Log.Debug("Rejected token",
				zap.String("ip", c.ClientIP()),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			return
		}

		c.Set(SessionKey, sess)
		c.Next()
	}
}

// AdminMiddleware must run after AuthMiddleware
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := GetSession(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Unauthorized",
			})
			return
		}

		if !sess.IsAdmin() {
			logger.Log.Warn("Admin route denied",
				zap.Uint("user_id", sess.UserID),
				zap.String("path", c.FullPath()),
			)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Admin access required",
			})
			return
		}

		c.Next()
	}
}

// GetSession returns the session set by AuthMiddleware
func GetSession(c *gin.Context) (session.Session, bool) {
	v, exists := c.Get(SessionKey)
	if !exists {
		return session.Session{}, false
	}
	sess, ok := v.(session.Session)
	return sess, ok && sess.Valid()
}

func tokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}
