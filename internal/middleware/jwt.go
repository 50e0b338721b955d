package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/atfitk/websystem-api/internal/models"
	"github.com/atfitk/websystem-api/internal/service"
	"github.com/atfitk/websystem-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// JWT protects routes by requiring a valid access token.
func JWT(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := service.ParseBearer(c.GetHeader("Authorization"))
		if err != nil {
			response.Abort(c, err)
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			response.Abort(c, err)
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// CurrentUser returns the verified claims attached by JWT.
func CurrentUser(c *gin.Context) (*models.JWTClaims, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok
}
