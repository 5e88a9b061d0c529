// Package memory fournit un backend en mémoire pour le développement local et les tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"medicart_back_end/internal/models"
	"medicart_back_end/internal/store"
)

type Store struct {
	mu        sync.Mutex
	products  map[string]models.Product
	movements []models.StockMovement
	orders    map[string]models.Order
	byPayment map[string]string
	carts     map[string][]models.CartItem
	staged    map[string]stagedEntry

	// FailInsert, si défini, est retourné par InsertOrder (tests d'échec du commit).
	FailInsert error
}

type stagedEntry struct {
	checkout  models.StagedCheckout
	expiresAt time.Time
}

func New() *Store {
	return &Store{
		products:  make(map[string]models.Product),
		orders:    make(map[string]models.Order),
		byPayment: make(map[string]string),
		carts:     make(map[string][]models.CartItem),
		staged:    make(map[string]stagedEntry),
	}
}

// PutProduct insère ou remplace un produit.
func (s *Store) PutProduct(p models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *Store) Movements() []models.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.StockMovement(nil), s.movements...)
}

func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// --- produits ---

func (s *Store) GetProduct(_ context.Context, id string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *Store) GetProducts(_ context.Context, ids []string) (map[string]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]models.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (s *Store) DecrementStock(_ context.Context, id string, qty int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return 0, store.ErrNotFound
	}
	if p.Stock < qty {
		return p.Stock, store.ErrInsufficientStock
	}
	p.Stock -= qty
	p.UpdatedAt = time.Now()
	s.products[id] = p
	return p.Stock, nil
}

func (s *Store) IncrementStock(_ context.Context, id string, qty int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return 0, store.ErrNotFound
	}
	p.Stock += qty
	p.UpdatedAt = time.Now()
	s.products[id] = p
	return p.Stock, nil
}

func (s *Store) SetStock(_ context.Context, id string, stock int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return 0, store.ErrNotFound
	}
	prev := p.Stock
	p.Stock = stock
	p.UpdatedAt = time.Now()
	s.products[id] = p
	return prev, nil
}

func (s *Store) RecordMovement(_ context.Context, m models.StockMovement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	s.movements = append(s.movements, m)
	return nil
}

func (s *Store) ListMovements(_ context.Context, productID string, limit int) ([]models.StockMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.StockMovement
	for i := len(s.movements) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if s.movements[i].ProductID == productID {
			out = append(out, s.movements[i])
		}
	}
	return out, nil
}

// --- commandes ---

func (s *Store) InsertOrder(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailInsert != nil {
		return s.FailInsert
	}
	if _, dup := s.byPayment[order.GatewayPaymentID]; dup {
		return store.ErrDuplicatePayment
	}
	for _, o := range s.orders {
		if order.GatewayOrderID != "" && o.GatewayOrderID == order.GatewayOrderID {
			return store.ErrDuplicatePayment
		}
	}
	s.orders[order.ID] = cloneOrder(*order)
	s.byPayment[order.GatewayPaymentID] = order.ID
	return nil
}

func (s *Store) FindOrder(_ context.Context, id string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	o = cloneOrder(o)
	return &o, nil
}

func (s *Store) FindOrderByPayment(_ context.Context, paymentID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byPayment[paymentID]
	if !ok {
		return nil, store.ErrNotFound
	}
	o := cloneOrder(s.orders[id])
	return &o, nil
}

func (s *Store) FindOrderByGatewayOrder(_ context.Context, gatewayOrderID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.GatewayOrderID == gatewayOrderID {
			o = cloneOrder(o)
			return &o, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) DeleteOrder(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[order.ID]; !ok {
		return store.ErrNotFound
	}
	delete(s.orders, order.ID)
	if s.byPayment[order.GatewayPaymentID] == order.ID {
		delete(s.byPayment, order.GatewayPaymentID)
	}
	return nil
}

func (s *Store) FindOrdersByCustomer(_ context.Context, customerID string) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		if o.CustomerID == customerID {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateOrderStatus(_ context.Context, id string, from, to models.DeliveryStatus, payment models.PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return store.ErrNotFound
	}
	if o.DeliveryStatus != from {
		return store.ErrStatusConflict
	}
	o.DeliveryStatus = to
	o.PaymentStatus = payment
	o.UpdatedAt = time.Now()
	s.orders[id] = o
	return nil
}

func cloneOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	return o
}

// --- paniers ---

func (s *Store) LoadCart(_ context.Context, customerID string) ([]models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CartItem(nil), s.carts[customerID]...), nil
}

func (s *Store) SaveCart(_ context.Context, customerID string, items []models.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[customerID] = append([]models.CartItem(nil), items...)
	return nil
}

func (s *Store) ClearCart(_ context.Context, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, customerID)
	return nil
}

// --- checkout en attente ---

func (s *Store) Stage(_ context.Context, c models.StagedCheckout, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged[c.GatewayOrderID] = stagedEntry{checkout: c, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *Store) GetStaged(_ context.Context, gatewayOrderID string) (*models.StagedCheckout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.staged[gatewayOrderID]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, store.ErrNotFound
	}
	c := e.checkout
	return &c, nil
}

func (s *Store) Unstage(_ context.Context, gatewayOrderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.staged, gatewayOrderID)
	return nil
}
