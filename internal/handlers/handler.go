// Package handlers expose l'API HTTP (gin). Les handlers ne portent aucune
// règle métier : ils lisent la requête, appellent un service et traduisent
// l'erreur en statut HTTP.
package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"medicart_back_end/internal/events"
	"medicart_back_end/internal/metrics"
	"medicart_back_end/internal/middleware"
	"medicart_back_end/internal/models"
	"medicart_back_end/internal/services/cart"
	"medicart_back_end/internal/services/checkout"
	"medicart_back_end/internal/services/inventory"
	"medicart_back_end/internal/services/orders"
	"medicart_back_end/internal/services/payment"
	"medicart_back_end/internal/store"
)

type Handler struct {
	Carts     *cart.Service
	Checkout  *checkout.Orchestrator
	Orders    *orders.Service
	Ledger    *inventory.Ledger
	Publisher events.Publisher
	Metrics   *metrics.Metrics

	// WebhookSecret signe les webhooks Stripe (STRIPE_WEBHOOK_SECRET).
	WebhookSecret string
	// Sandbox n'est défini que sans clé Stripe, hors production.
	Sandbox *payment.SandboxGateway
	// Ping vérifie les dépendances pour /api/health.
	Ping func(ctx context.Context) error
}

func identity(c *gin.Context) (models.Identity, bool) {
	id, ok := middleware.Identity(c)
	if !ok || id.UserID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return models.Identity{}, false
	}
	return id, true
}

// respondError traduit une erreur de service. Les détails internes
// restent dans les logs.
func respondError(c *gin.Context, err error) {
	var ce *checkout.Error
	if errors.As(err, &ce) {
		respondCheckoutError(c, ce)
		return
	}

	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, orders.ErrForbidden):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, cart.ErrItemNotInCart):
		c.JSON(http.StatusNotFound, gin.H{"error": "item not in cart"})
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrMissingProduct),
		errors.Is(err, inventory.ErrInvalidAdjustment),
		errors.Is(err, inventory.ErrNegativeStock):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, orders.ErrInvalidStatusTransition):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, orders.ErrStatusConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "order was updated concurrently, reload and retry"})
	case errors.Is(err, store.ErrLockTimeout):
		c.JSON(http.StatusConflict, gin.H{"error": "cart is busy, please retry"})
	default:
		log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func respondCheckoutError(c *gin.Context, e *checkout.Error) {
	body := gin.H{"error": e.Message, "state": e.State}
	status := http.StatusBadRequest

	switch e.State {
	case checkout.StateRejectedInvalidAddress:
		body["fields"] = e.Fields
	case checkout.StateRejectedInsufficientStock:
		body["shortages"] = e.Shortages
	case checkout.StateRejectedEmptyCart, checkout.StateRejectedBadSignature, checkout.StateRejectedUnknownIntent:
	case checkout.StateRejectedCartChanged, checkout.StateRejectedIntentFulfilled:
		status = http.StatusConflict
	case checkout.StateFailedGateway:
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}
	if e.Err != nil && status >= http.StatusInternalServerError {
		log.Printf("❌ Checkout %s: %v", e.State, e.Err)
	}
	c.JSON(status, body)
}

// Health répond 200 si les dépendances répondent, 503 sinon.
func (h *Handler) Health(c *gin.Context) {
	if h.Ping != nil {
		if err := h.Ping(c.Request.Context()); err != nil {
			log.Printf("⚠️ Health check: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
