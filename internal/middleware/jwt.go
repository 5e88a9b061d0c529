package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"medicart_back_end/internal/models"
	"medicart_back_end/internal/utils"
)

const identityKey = "identity"

// AuthRequired vérifie le jeton Bearer et place l'identité dans le contexte gin.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			c.Abort()
			return
		}

		id, err := utils.ParseJWT(secret, parts[1])
		if err != nil {
			log.Printf("🔐 Jeton refusé (%s): %v", c.ClientIP(), err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(identityKey, id)
		c.Set("user_id", id.UserID)
		c.Set("email", id.Email)
		c.Set("role", string(id.Role))
		c.Next()
	}
}

// Identity retourne l'appelant authentifié. ok vaut false hors AuthRequired.
func Identity(c *gin.Context) (models.Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return models.Identity{}, false
	}
	id, ok := v.(models.Identity)
	return id, ok
}
