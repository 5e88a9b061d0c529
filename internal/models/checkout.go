package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentIntent est l'intention de paiement émise par la passerelle.
type PaymentIntent struct {
	IntentID     string `json:"intent_id"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
	ClientSecret string `json:"client_secret,omitempty"`
}

// StagedCheckout relie la création de l'intention et le callback de paiement.
// Ce n'est jamais une commande.
type StagedCheckout struct {
	GatewayOrderID  string          `json:"gateway_order_id"`
	CustomerID      string          `json:"customer_id"`
	Email           string          `json:"email,omitempty"`
	DeliveryAddress DeliveryAddress `json:"delivery_address"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Items           []CartItem      `json:"items"`
	CreatedAt       time.Time       `json:"created_at"`
}
