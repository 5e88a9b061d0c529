package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medicart_back_end/internal/models"
)

// RequireRole laisse passer les appelants dont le rôle figure dans roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := Identity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}
		for _, r := range roles {
			if id.Role == r {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
		c.Abort()
	}
}

// RequireStaff réserve la route aux pharmacies et administrateurs.
func RequireStaff() gin.HandlerFunc {
	return RequireRole(models.RolePharmacy, models.RoleAdmin)
}
