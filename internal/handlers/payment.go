package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"medicart_back_end/internal/models"
	"medicart_back_end/internal/services/checkout"
	"medicart_back_end/internal/services/payment"
)

// POST /api/payment/create-order
func (h *Handler) CreatePaymentOrder(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req struct {
		DeliveryAddress models.DeliveryAddress `json:"deliveryAddress"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	intent, err := h.Checkout.Begin(c.Request.Context(), id, req.DeliveryAddress)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, intent)
}

// POST /api/payment/verify
// L'adresse éventuellement renvoyée est ignorée : seule celle enregistrée
// à la création de l'intention fait foi.
func (h *Handler) VerifyPayment(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req struct {
		GatewayOrderID   string                  `json:"gatewayOrderId" binding:"required"`
		GatewayPaymentID string                  `json:"gatewayPaymentId" binding:"required"`
		Signature        string                  `json:"signature" binding:"required"`
		DeliveryAddress  *models.DeliveryAddress `json:"deliveryAddress,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "gatewayOrderId, gatewayPaymentId and signature are required"})
		return
	}

	receipt, err := h.Checkout.Verify(c.Request.Context(), id, checkout.Callback{
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// POST /api/payment/webhook
// Les rejets métier répondent 200 pour que Stripe ne rejoue pas ; seules les
// erreurs techniques demandent un nouvel essai.
func (h *Handler) StripeWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read body"})
		return
	}

	wp, err := payment.ParseWebhook(payload, c.GetHeader("Stripe-Signature"), h.WebhookSecret)
	switch {
	case errors.Is(err, payment.ErrIgnoredEvent):
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	case errors.Is(err, payment.ErrBadSignature):
		log.Printf("🔐 Webhook Stripe refusé (%s): %v", c.ClientIP(), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	receipt, err := h.Checkout.CompleteFromWebhook(c.Request.Context(), wp)
	var ce *checkout.Error
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"received": true, "order_id": receipt.Order.ID, "state": receipt.State})
	case errors.As(err, &ce) && ce.State != checkout.StateFailedCommit:
		log.Printf("⚠️ Webhook %s non converti en commande: %s", wp.IntentID, ce.State)
		c.JSON(http.StatusOK, gin.H{"received": true, "state": ce.State})
	default:
		respondError(c, err)
	}
}

// POST /api/payment/sandbox/complete
// Simule le retour de la passerelle locale. Absent en production.
func (h *Handler) CompleteSandboxPayment(c *gin.Context) {
	if _, ok := identity(c); !ok {
		return
	}
	var req struct {
		GatewayOrderID string `json:"gatewayOrderId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "gatewayOrderId is required"})
		return
	}
	paymentID, signature := h.Sandbox.Complete(req.GatewayOrderID)
	c.JSON(http.StatusOK, gin.H{
		"gatewayOrderId":   req.GatewayOrderID,
		"gatewayPaymentId": paymentID,
		"signature":        signature,
	})
}
