package orders

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medicart_back_end/internal/events"
	"medicart_back_end/internal/models"
	"medicart_back_end/internal/services/inventory"
	"medicart_back_end/internal/store"
	"medicart_back_end/internal/store/memory"
	"medicart_back_end/internal/utils"
)

var (
	pharmacist = models.Identity{UserID: "ph-1", Role: models.RolePharmacy}
	customer   = models.Identity{UserID: "cust-1", Role: models.RoleCustomer}
)

func setup(t *testing.T) (*Service, *memory.Store, *events.Recorder) {
	t.Helper()
	db := memory.New()
	db.PutProduct(models.Product{ID: "A", Name: "Paracetamol", Price: decimal.NewFromInt(50), Stock: 3})
	rec := &events.Recorder{}
	svc := NewService(db, inventory.NewLedger(db), rec, utils.NoopNotifier{})

	order := &models.Order{
		ID:               "o-1",
		CustomerID:       customer.UserID,
		Items:            []models.OrderItem{{ProductID: "A", Name: "Paracetamol", Quantity: 2, PriceAtPurchase: decimal.NewFromInt(50)}},
		TotalPrice:       decimal.NewFromInt(100),
		Currency:         "inr",
		PaymentStatus:    models.PaymentStatusPaid,
		DeliveryStatus:   models.DeliveryStatusPending,
		GatewayOrderID:   "order_1",
		GatewayPaymentID: "pay_1",
		CreatedAt:        time.Now(),
	}
	require.NoError(t, svc.Create(context.Background(), order))
	return svc, db, rec
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(models.DeliveryStatusPending, models.DeliveryStatusConfirmed))
	assert.True(t, CanTransition(models.DeliveryStatusConfirmed, models.DeliveryStatusCancelled))
	assert.True(t, CanTransition(models.DeliveryStatusShipped, models.DeliveryStatusDelivered))

	assert.False(t, CanTransition(models.DeliveryStatusPending, models.DeliveryStatusDelivered))
	assert.False(t, CanTransition(models.DeliveryStatusShipped, models.DeliveryStatusCancelled))
	assert.False(t, CanTransition(models.DeliveryStatusDelivered, models.DeliveryStatusPending))
	assert.False(t, CanTransition(models.DeliveryStatusCancelled, models.DeliveryStatusConfirmed))
}

func TestCreateRejectsDuplicatePayment(t *testing.T) {
	svc, db, _ := setup(t)

	err := svc.Create(context.Background(), &models.Order{ID: "o-2", CustomerID: "other", GatewayPaymentID: "pay_1"})
	assert.ErrorIs(t, err, store.ErrDuplicatePayment)
	assert.Equal(t, 1, db.OrderCount())

	got, err := svc.FindByPaymentID(context.Background(), "pay_1")
	require.NoError(t, err)
	assert.Equal(t, "o-1", got.ID)
}

func TestUpdateStatusFollowsTable(t *testing.T) {
	svc, _, rec := setup(t)
	ctx := context.Background()

	o, err := svc.UpdateStatus(ctx, pharmacist, "o-1", models.DeliveryStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryStatusConfirmed, o.DeliveryStatus)

	_, err = svc.UpdateStatus(ctx, pharmacist, "o-1", models.DeliveryStatusDelivered)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	stored, err := svc.FindByID(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryStatusConfirmed, stored.DeliveryStatus)
	assert.Equal(t, models.PaymentStatusPaid, stored.PaymentStatus)
	assert.Equal(t, []string{events.OrderStatusChanged}, rec.Types())
}

func TestCancelRestocksAndMarksRefund(t *testing.T) {
	svc, db, _ := setup(t)
	ctx := context.Background()

	o, err := svc.UpdateStatus(ctx, pharmacist, "o-1", models.DeliveryStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRefundPending, o.PaymentStatus)

	p, err := db.GetProduct(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 5, p.Stock)

	moves := db.Movements()
	require.Len(t, moves, 1)
	assert.Equal(t, models.MovementCancellation, moves[0].Type)
	assert.Equal(t, "o-1", moves[0].OrderID)
	assert.Equal(t, pharmacist.UserID, moves[0].UserID)

	_, err = svc.UpdateStatus(ctx, pharmacist, "o-1", models.DeliveryStatusConfirmed)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	svc, _, _ := setup(t)
	_, err := svc.UpdateStatus(context.Background(), pharmacist, "missing", models.DeliveryStatusConfirmed)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// staleStore renvoie toujours la commande telle qu'elle était au départ,
// comme si un autre écrivain était passé entre lecture et écriture.
type staleStore struct {
	*memory.Store
	snapshot models.Order
}

func (s *staleStore) FindOrder(context.Context, string) (*models.Order, error) {
	o := s.snapshot
	return &o, nil
}

func TestUpdateStatusConflict(t *testing.T) {
	_, db, _ := setup(t)
	ctx := context.Background()
	snapshot, err := db.FindOrder(ctx, "o-1")
	require.NoError(t, err)

	svc := NewService(&staleStore{Store: db, snapshot: *snapshot}, inventory.NewLedger(db), &events.Recorder{}, utils.NoopNotifier{})
	_, err = svc.UpdateStatus(ctx, pharmacist, "o-1", models.DeliveryStatusConfirmed)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, pharmacist, "o-1", models.DeliveryStatusCancelled)
	assert.ErrorIs(t, err, ErrStatusConflict)

	p, _ := db.GetProduct(ctx, "A")
	assert.Equal(t, 3, p.Stock)
}

func TestFindForActor(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	_, err := svc.FindForActor(ctx, customer, "o-1")
	assert.NoError(t, err)

	_, err = svc.FindForActor(ctx, models.Identity{UserID: "intruder", Role: models.RoleCustomer}, "o-1")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.FindForActor(ctx, pharmacist, "o-1")
	assert.NoError(t, err)

	list, err := svc.FindByCustomer(ctx, customer.UserID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
