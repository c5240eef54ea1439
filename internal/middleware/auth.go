package middleware

import (
	"net/http"
	"strings"

	"github.com/contentguard/backend/internal/auth"
	"github.com/gin-gonic/gin"
)

// OperatorMiddleware requires a valid operator bearer token
func OperatorMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
			return
		}

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set("operator_id", claims.OperatorID)
		c.Set("operator_name", claims.Name)
		c.Next()
	}
}
