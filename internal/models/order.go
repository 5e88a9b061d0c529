package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPaid          PaymentStatus = "paid"
	PaymentStatusRefundPending PaymentStatus = "refund_pending"
)

type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusConfirmed DeliveryStatus = "confirmed"
	DeliveryStatusShipped   DeliveryStatus = "shipped"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusCancelled DeliveryStatus = "cancelled"
)

type OrderItem struct {
	ProductID       string          `json:"product_id"`
	Name            string          `json:"name"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
}

type Order struct {
	ID               string          `json:"id"`
	CustomerID       string          `json:"customer_id"`
	CustomerEmail    string          `json:"customer_email,omitempty"`
	Items            []OrderItem     `json:"items"`
	TotalPrice       decimal.Decimal `json:"total_price"`
	Currency         string          `json:"currency"`
	PaymentStatus    PaymentStatus   `json:"payment_status"`
	DeliveryStatus   DeliveryStatus  `json:"delivery_status"`
	DeliveryAddress  DeliveryAddress `json:"delivery_address"`
	GatewayOrderID   string          `json:"gateway_order_id"`
	GatewayPaymentID string          `json:"gateway_payment_id"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Lines retourne les lignes de stock consommées par la commande.
func (o *Order) Lines() []StockLine {
	lines := make([]StockLine, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, StockLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return lines
}
