package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/domain"
)

const contextKey = "auth"

// Middleware rejects requests without a valid bearer token and stores the
// caller in the gin context.
func Middleware(tokens *TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}

		auth, err := tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(contextKey, auth)
		c.Next()
	}
}

func FromContext(c *gin.Context) domain.AuthContext {
	v, ok := c.Get(contextKey)
	if !ok {
		return domain.AuthContext{}
	}
	auth, _ := v.(domain.AuthContext)
	return auth
}

// WithAuth is used by tests and internal callers to attach a caller directly.
func WithAuth(c *gin.Context, auth domain.AuthContext) {
	c.Set(contextKey, auth)
}
