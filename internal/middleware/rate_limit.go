package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	PaymentWindow = 1 * time.Minute
	CartMaxWrites = 20
	CartWindow    = 1 * time.Minute
)

// Limiter compte les requêtes d'une clé sur une fenêtre fixe.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int64, error)
}

// RateLimit limite les requêtes par utilisateur (par IP hors authentification).
// Sans limiter, ou si Redis est indisponible, la requête passe.
func RateLimit(limiter Limiter, scope string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limit <= 0 {
			c.Next()
			return
		}

		subject := c.GetString("user_id")
		if subject == "" {
			subject = c.ClientIP()
		}

		allowed, count, err := limiter.Allow(c.Request.Context(), scope+":"+subject, limit, window)
		if err != nil {
			log.Printf("⚠️ Rate limit %s indisponible: %v", scope, err)
			c.Next()
			return
		}

		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many requests, please retry later",
				"retry_after": int(window.Seconds()),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
