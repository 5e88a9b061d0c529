package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medicart_back_end/internal/models"
	"medicart_back_end/internal/store"
)

func TestDecrementStockIsConditional(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.PutProduct(models.Product{ID: "p1", Price: decimal.NewFromInt(10), Stock: 3})

	left, err := s.DecrementStock(ctx, "p1", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, left)

	_, err = s.DecrementStock(ctx, "p1", 2)
	assert.ErrorIs(t, err, store.ErrInsufficientStock)

	p, err := s.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stock)

	_, err = s.DecrementStock(ctx, "missing", 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestInsertOrderRejectsDuplicatePayment(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.InsertOrder(ctx, &models.Order{ID: "o1", GatewayPaymentID: "pay_1"}))
	err := s.InsertOrder(ctx, &models.Order{ID: "o2", GatewayPaymentID: "pay_1"})
	assert.ErrorIs(t, err, store.ErrDuplicatePayment)
	assert.Equal(t, 1, s.OrderCount())

	o, err := s.FindOrderByPayment(ctx, "pay_1")
	require.NoError(t, err)
	assert.Equal(t, "o1", o.ID)
}

func TestInsertOrderRejectsSecondOrderForSameIntent(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.InsertOrder(ctx, &models.Order{ID: "o1", GatewayOrderID: "order_1", GatewayPaymentID: "pay_1"}))
	err := s.InsertOrder(ctx, &models.Order{ID: "o2", GatewayOrderID: "order_1", GatewayPaymentID: "pay_2"})
	assert.ErrorIs(t, err, store.ErrDuplicatePayment)

	o, err := s.FindOrderByGatewayOrder(ctx, "order_1")
	require.NoError(t, err)
	assert.Equal(t, "o1", o.ID)
}

func TestDeleteOrderReleasesPayment(t *testing.T) {
	ctx := context.Background()
	s := New()
	order := &models.Order{ID: "o1", GatewayOrderID: "order_1", GatewayPaymentID: "pay_1"}
	require.NoError(t, s.InsertOrder(ctx, order))

	require.NoError(t, s.DeleteOrder(ctx, order))
	assert.Equal(t, 0, s.OrderCount())
	_, err := s.FindOrderByPayment(ctx, "pay_1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteOrder(ctx, order), store.ErrNotFound)
}

func TestSetStockReturnsReplacedValue(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.PutProduct(models.Product{ID: "A", Stock: 7})

	prev, err := s.SetStock(ctx, "A", 2)
	require.NoError(t, err)
	assert.Equal(t, 7, prev)

	_, err = s.SetStock(ctx, "missing", 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateOrderStatusCompareAndSet(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.InsertOrder(ctx, &models.Order{
		ID: "o1", GatewayPaymentID: "pay_1", DeliveryStatus: models.DeliveryStatusPending,
	}))

	err := s.UpdateOrderStatus(ctx, "o1", models.DeliveryStatusConfirmed, models.DeliveryStatusShipped, models.PaymentStatusPaid)
	assert.ErrorIs(t, err, store.ErrStatusConflict)

	require.NoError(t, s.UpdateOrderStatus(ctx, "o1", models.DeliveryStatusPending, models.DeliveryStatusConfirmed, models.PaymentStatusPaid))
	o, _ := s.FindOrder(ctx, "o1")
	assert.Equal(t, models.DeliveryStatusConfirmed, o.DeliveryStatus)
}

func TestStagedCheckoutExpires(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Stage(ctx, models.StagedCheckout{GatewayOrderID: "order_1"}, time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err := s.GetStaged(ctx, "order_1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUnstageRemovesCheckout(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Stage(ctx, models.StagedCheckout{GatewayOrderID: "order_1"}, time.Hour))
	require.NoError(t, s.Unstage(ctx, "order_1"))
	_, err := s.GetStaged(ctx, "order_1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLockerSerializesAndHonoursContext(t *testing.T) {
	l := NewLocker()

	unlock, err := l.Lock(context.Background(), "cart:c1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "cart:c1")
	assert.ErrorIs(t, err, store.ErrLockTimeout)

	other, err := l.Lock(context.Background(), "cart:c2")
	require.NoError(t, err)
	other()

	unlock()
	unlock()
	again, err := l.Lock(context.Background(), "cart:c1")
	require.NoError(t, err)
	again()
}
