package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medicart_back_end/internal/models"
	"medicart_back_end/internal/store"
	"medicart_back_end/internal/store/memory"
)

func seed(t *testing.T, stock map[string]int) *memory.Store {
	t.Helper()
	s := memory.New()
	for id, n := range stock {
		s.PutProduct(models.Product{ID: id, Name: "Med " + id, Price: decimal.NewFromInt(10), Stock: n})
	}
	return s
}

func stockOf(t *testing.T, s *memory.Store, id string) int {
	t.Helper()
	p, err := s.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestCheckAvailabilityReportsShortages(t *testing.T) {
	s := seed(t, map[string]int{"A": 5, "B": 3})
	l := NewLedger(s)

	av, err := l.CheckAvailability(context.Background(), []models.StockLine{
		{ProductID: "A", Quantity: 2},
		{ProductID: "B", Quantity: 10},
		{ProductID: "ghost", Quantity: 1},
	})
	require.NoError(t, err)
	assert.False(t, av.OK)
	assert.Equal(t, []Shortage{
		{ProductID: "B", Name: "Med B", Requested: 10, Available: 3},
		{ProductID: "ghost", Requested: 1, Available: 0},
	}, av.Shortages)

	av, err = l.CheckAvailability(context.Background(), []models.StockLine{{ProductID: "A", Quantity: 5}})
	require.NoError(t, err)
	assert.True(t, av.OK)
}

func TestCheckAvailabilityMergesDuplicateLines(t *testing.T) {
	l := NewLedger(seed(t, map[string]int{"A": 3}))

	av, err := l.CheckAvailability(context.Background(), []models.StockLine{
		{ProductID: "A", Quantity: 2},
		{ProductID: "A", Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, av.Shortages, 1)
	assert.Equal(t, 4, av.Shortages[0].Requested)
}

func TestDecrementSubtractsExactlyAndRecordsSales(t *testing.T) {
	s := seed(t, map[string]int{"A": 5, "B": 4})
	l := NewLedger(s)

	err := l.Decrement(context.Background(), []models.StockLine{
		{ProductID: "A", Quantity: 2},
		{ProductID: "B", Quantity: 4},
	}, "o1")
	require.NoError(t, err)

	assert.Equal(t, 3, stockOf(t, s, "A"))
	assert.Equal(t, 0, stockOf(t, s, "B"))

	moves := s.Movements()
	require.Len(t, moves, 2)
	assert.Equal(t, models.MovementSale, moves[0].Type)
	assert.Equal(t, 5, moves[0].PrevStock)
	assert.Equal(t, 3, moves[0].NewStock)
	assert.Equal(t, "o1", moves[0].OrderID)
}

func TestDecrementRestoresEarlierLinesOnFailure(t *testing.T) {
	s := seed(t, map[string]int{"A": 5, "B": 3})
	l := NewLedger(s)

	err := l.Decrement(context.Background(), []models.StockLine{
		{ProductID: "A", Quantity: 2},
		{ProductID: "B", Quantity: 10},
	}, "o1")

	var insufficient *InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.ErrorIs(t, err, store.ErrInsufficientStock)
	assert.Equal(t, "B", insufficient.Shortages[0].ProductID)
	assert.Equal(t, 3, insufficient.Shortages[0].Available)

	assert.Equal(t, 5, stockOf(t, s, "A"))
	assert.Equal(t, 3, stockOf(t, s, "B"))
	assert.Empty(t, s.Movements())
}

func TestRestockAddsBackAndRecords(t *testing.T) {
	s := seed(t, map[string]int{"A": 1})
	l := NewLedger(s)

	require.NoError(t, l.Restock(context.Background(), []models.StockLine{{ProductID: "A", Quantity: 2}}, "o1", models.MovementCancellation, "u1"))
	assert.Equal(t, 3, stockOf(t, s, "A"))
	assert.Equal(t, models.MovementCancellation, s.Movements()[0].Type)

	err := l.Restock(context.Background(), []models.StockLine{{ProductID: "ghost", Quantity: 1}}, "o1", models.MovementCancellation, "u1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAdjust(t *testing.T) {
	s := seed(t, map[string]int{"A": 4})
	l := NewLedger(s)
	ctx := context.Background()

	m, err := l.Adjust(ctx, "A", models.MovementRestock, 6, "delivery", "pharm1")
	require.NoError(t, err)
	assert.Equal(t, 4, m.PrevStock)
	assert.Equal(t, 10, m.NewStock)

	m, err = l.Adjust(ctx, "A", models.MovementAdjustment, 7, "inventory count", "pharm1")
	require.NoError(t, err)
	assert.Equal(t, 10, m.PrevStock)
	assert.Equal(t, 7, stockOf(t, s, "A"))

	_, err = l.Adjust(ctx, "A", models.MovementAdjustment, -1, "", "pharm1")
	assert.ErrorIs(t, err, ErrNegativeStock)

	_, err = l.Adjust(ctx, "A", models.MovementRestock, 0, "", "pharm1")
	assert.ErrorIs(t, err, ErrInvalidAdjustment)

	_, err = l.Adjust(ctx, "A", models.MovementSale, 1, "", "pharm1")
	assert.ErrorIs(t, err, ErrInvalidAdjustment)

	_, err = l.Adjust(ctx, "ghost", models.MovementRestock, 1, "", "pharm1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	moves, err := l.Movements(ctx, "A", 0)
	require.NoError(t, err)
	require.Len(t, moves, 2)
	assert.Equal(t, models.MovementAdjustment, moves[0].Type)
}

// saleAfterRead simule une vente qui passe entre la lecture du produit et
// l'écriture absolue du stock.
type saleAfterRead struct {
	*memory.Store
	sold int
}

func (s *saleAfterRead) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.Store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.Store.DecrementStock(ctx, id, s.sold); err != nil {
		return nil, err
	}
	return p, nil
}

func TestAdjustRecordsStockActuallyReplaced(t *testing.T) {
	s := seed(t, map[string]int{"A": 10})
	l := NewLedger(&saleAfterRead{Store: s, sold: 2})

	m, err := l.Adjust(context.Background(), "A", models.MovementAdjustment, 5, "inventory count", "pharm1")
	require.NoError(t, err)
	assert.Equal(t, 8, m.PrevStock)
	assert.Equal(t, 5, m.NewStock)
	assert.Equal(t, 5, stockOf(t, s, "A"))
}
