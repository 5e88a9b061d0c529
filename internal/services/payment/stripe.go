package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/stripe/stripe-go/v83/webhook"

	"medicart_back_end/internal/models"
)

var ErrIgnoredEvent = errors.New("webhook event ignored")

type StripeGateway struct{}

// NewStripeGateway configure la clé globale du SDK.
func NewStripeGateway(secretKey string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{}
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*models.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		log.Printf("❌ Erreur création PaymentIntent: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	return &models.PaymentIntent{
		IntentID:     intent.ID,
		Amount:       intent.Amount,
		Currency:     string(intent.Currency),
		Status:       string(intent.Status),
		ClientSecret: intent.ClientSecret,
	}, nil
}

// WebhookPayment est un paiement confirmé par le prestataire.
type WebhookPayment struct {
	IntentID    string
	PaymentID   string
	AmountMinor int64
	Currency    string
	Metadata    map[string]string
}

// ParseWebhook vérifie la signature Stripe puis extrait un payment_intent.succeeded.
// Les autres types d'événements retournent ErrIgnoredEvent.
func ParseWebhook(payload []byte, header, secret string) (*WebhookPayment, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: webhook secret not configured", ErrBadSignature)
	}
	event, err := webhook.ConstructEvent(payload, header, secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	if string(event.Type) != "payment_intent.succeeded" {
		return nil, fmt.Errorf("%w: %s", ErrIgnoredEvent, event.Type)
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("decode payment intent: %w", err)
	}

	paymentID := pi.ID
	if pi.LatestCharge != nil && pi.LatestCharge.ID != "" {
		paymentID = pi.LatestCharge.ID
	}
	return &WebhookPayment{
		IntentID:    pi.ID,
		PaymentID:   paymentID,
		AmountMinor: pi.Amount,
		Currency:    string(pi.Currency),
		Metadata:    pi.Metadata,
	}, nil
}
