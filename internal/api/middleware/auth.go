package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"go-photo-gallery/internal/utils"
)

const SubjectKey = "subject"

// AdminAuth accepts a bearer token, or a token query parameter for clients
// that cannot set headers (browser websockets).
func AdminAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("token")
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
				return
			}
			tokenString = strings.TrimSpace(parts[1])
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization token"})
			return
		}

		subject, err := utils.ParseToken(tokenString, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "message": err.Error()})
			return
		}
		if subject != utils.AdminSubject {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}

		c.Set(SubjectKey, subject)
		c.Next()
	}
}
