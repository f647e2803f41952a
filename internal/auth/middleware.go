package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/docno/mailward/internal/store"
)

const ctxKey = "user"

// Middleware validates the Bearer API token and sets the user in context.
func Middleware(q store.Querier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing API token"})
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		u, err := q.GetUserByTokenHash(c.Request.Context(), HashToken(raw))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API token"})
			return
		}

		c.Set(ctxKey, u)
		c.Next()
	}
}

// FromContext retrieves the authenticated user from the Gin context.
func FromContext(c *gin.Context) store.User {
	u, _ := c.Get(ctxKey)
	user, _ := u.(store.User)
	return user
}
