package mongo

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medicart_back_end/internal/models"
)

func TestOrderDocStoresMinorUnits(t *testing.T) {
	order := &models.Order{
		ID:               "o1",
		GatewayPaymentID: "pay_1",
		Items: []models.OrderItem{
			{ProductID: "A", Quantity: 3, PriceAtPurchase: decimal.RequireFromString("12.50")},
		},
		TotalPrice:     decimal.RequireFromString("37.50"),
		DeliveryStatus: models.DeliveryStatusPending,
	}

	doc := orderToDoc(order)
	assert.Equal(t, int64(3750), doc.TotalCents)
	require.Len(t, doc.Items, 1)
	assert.Equal(t, int64(1250), doc.Items[0].PriceCents)

	back := doc.toModel()
	assert.True(t, back.Items[0].PriceAtPurchase.Equal(order.Items[0].PriceAtPurchase))
	assert.Equal(t, models.DeliveryStatusPending, back.DeliveryStatus)
}
