package scylla

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medicart_back_end/internal/models"
)

func TestOrderRowKeepsPriceAtPurchaseAndMinorUnits(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	order := &models.Order{
		ID:         "o1",
		CustomerID: "c1",
		Items: []models.OrderItem{
			{ProductID: "A", Name: "Paracetamol", Quantity: 2, PriceAtPurchase: decimal.RequireFromString("49.99")},
		},
		TotalPrice:       decimal.RequireFromString("99.98"),
		Currency:         "inr",
		PaymentStatus:    models.PaymentStatusPaid,
		DeliveryStatus:   models.DeliveryStatusPending,
		DeliveryAddress:  models.DeliveryAddress{FullName: "Asha", City: "Pune"},
		GatewayPaymentID: "pay_1",
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	row, err := toRow(order)
	require.NoError(t, err)
	assert.Equal(t, int64(9998), row.TotalCents)

	back, err := row.toOrder()
	require.NoError(t, err)
	assert.True(t, back.TotalPrice.Equal(order.TotalPrice))
	require.Len(t, back.Items, 1)
	assert.True(t, back.Items[0].PriceAtPurchase.Equal(decimal.RequireFromString("49.99")))
	assert.Equal(t, "Pune", back.DeliveryAddress.City)
}

func TestOrderRowRejectsCorruptItems(t *testing.T) {
	_, err := orderRow{ID: "o1", Items: "{not json"}.toOrder()
	assert.Error(t, err)
}
