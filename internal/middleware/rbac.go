package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/atfitk/websystem-api/internal/models"
	appErrors "github.com/atfitk/websystem-api/pkg/errors"
	"github.com/atfitk/websystem-api/pkg/response"
)

var roleLabels = map[models.UserRole]string{
	models.RoleDirector:     "Director",
	models.RolePsychologist: "Psychologist",
}

// RequireRoles lets the request through only when the caller holds one of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	forbidden := appErrors.ErrForbidden
	if len(roles) == 1 {
		forbidden = appErrors.Clone(appErrors.ErrForbidden, "Forbidden: "+roleLabels[roles[0]]+" role required")
	}

	return func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		if !ok {
			response.Abort(c, appErrors.ErrUnauthorized)
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Abort(c, forbidden)
			return
		}
		c.Next()
	}
}
