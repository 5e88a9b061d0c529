package cart

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medicart_back_end/internal/models"
	"medicart_back_end/internal/store/memory"
)

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	s := memory.New()
	s.PutProduct(models.Product{ID: "A", Name: "Amoxicillin", Price: decimal.NewFromInt(50), Stock: 5})
	s.PutProduct(models.Product{ID: "B", Name: "Bandage", Price: decimal.RequireFromString("2.5"), Stock: 1})
	return NewService(s, s, memory.NewLocker()), s
}

func TestAddItemDefaultsToOneAndIncrements(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	items, err := svc.AddItem(ctx, "c1", "A", 0)
	require.NoError(t, err)
	assert.Equal(t, []models.CartItem{{ProductID: "A", Quantity: 1}}, items)

	items, err = svc.AddItem(ctx, "c1", "A", 2)
	require.NoError(t, err)
	assert.Equal(t, []models.CartItem{{ProductID: "A", Quantity: 3}}, items)

	_, err = svc.AddItem(ctx, "c1", "A", -1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.AddItem(ctx, "c1", " ", 1)
	assert.ErrorIs(t, err, ErrMissingProduct)
}

func TestAddItemDoesNotCheckStock(t *testing.T) {
	svc, _ := newService(t)

	items, err := svc.AddItem(context.Background(), "c1", "B", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, items[0].Quantity)
}

func TestSetQuantityOverwrites(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "c1", "A", 4)
	require.NoError(t, err)

	items, err := svc.SetQuantity(ctx, "c1", "A", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, items[0].Quantity)

	_, err = svc.SetQuantity(ctx, "c1", "A", 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.SetQuantity(ctx, "c1", "B", 1)
	assert.ErrorIs(t, err, ErrItemNotInCart)
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "c1", "A", 1)
	require.NoError(t, err)

	items, err := svc.RemoveItem(ctx, "c1", "A")
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = svc.RemoveItem(ctx, "c1", "A")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestListItemsJoinsLiveSnapshot(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, _ = svc.AddItem(ctx, "c1", "A", 2)
	_, _ = svc.AddItem(ctx, "c1", "B", 3)
	_, _ = svc.AddItem(ctx, "c1", "gone", 1)

	cart, err := svc.ListItems(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 3)

	assert.Equal(t, "Amoxicillin", cart.Items[0].Name)
	assert.True(t, cart.Items[0].Subtotal.Equal(decimal.NewFromInt(100)))
	assert.True(t, cart.Items[0].Available)
	assert.False(t, cart.Items[1].Available)
	assert.Equal(t, 1, cart.Items[1].InStock)
	assert.False(t, cart.Items[2].Available)
	assert.True(t, cart.Total.Equal(decimal.RequireFromString("107.5")))
	assert.Equal(t, 6, cart.Count)
}

func TestConcurrentAddsAreNotLost(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(ctx, "c1", "A", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	items, err := svc.Items(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 20, items[0].Quantity, fmt.Sprintf("%+v", items))
}
