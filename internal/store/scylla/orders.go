package scylla

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gocql/gocql"

	"medicart_back_end/internal/models"
	"medicart_back_end/internal/store"
)

type OrderStore struct {
	session *gocql.Session
}

func NewOrderStore(session *gocql.Session) *OrderStore {
	return &OrderStore{session: session}
}

// orderRow est la forme stockée : lignes et adresse en JSON, montants en centimes.
type orderRow struct {
	ID               string
	CustomerID       string
	CustomerEmail    string
	Items            string
	TotalCents       int64
	Currency         string
	PaymentStatus    string
	DeliveryStatus   string
	DeliveryAddress  string
	GatewayOrderID   string
	GatewayPaymentID string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func toRow(o *models.Order) (orderRow, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return orderRow{}, err
	}
	addr, err := json.Marshal(o.DeliveryAddress)
	if err != nil {
		return orderRow{}, err
	}
	return orderRow{
		ID:               o.ID,
		CustomerID:       o.CustomerID,
		CustomerEmail:    o.CustomerEmail,
		Items:            string(items),
		TotalCents:       models.ToMinorUnits(o.TotalPrice),
		Currency:         o.Currency,
		PaymentStatus:    string(o.PaymentStatus),
		DeliveryStatus:   string(o.DeliveryStatus),
		DeliveryAddress:  string(addr),
		GatewayOrderID:   o.GatewayOrderID,
		GatewayPaymentID: o.GatewayPaymentID,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}, nil
}

func (r orderRow) toOrder() (*models.Order, error) {
	o := &models.Order{
		ID:               r.ID,
		CustomerID:       r.CustomerID,
		CustomerEmail:    r.CustomerEmail,
		TotalPrice:       models.FromMinorUnits(r.TotalCents),
		Currency:         r.Currency,
		PaymentStatus:    models.PaymentStatus(r.PaymentStatus),
		DeliveryStatus:   models.DeliveryStatus(r.DeliveryStatus),
		GatewayOrderID:   r.GatewayOrderID,
		GatewayPaymentID: r.GatewayPaymentID,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(r.Items), &o.Items); err != nil {
		return nil, fmt.Errorf("order %s items: %w", r.ID, err)
	}
	if r.DeliveryAddress != "" {
		if err := json.Unmarshal([]byte(r.DeliveryAddress), &o.DeliveryAddress); err != nil {
			return nil, fmt.Errorf("order %s address: %w", r.ID, err)
		}
	}
	return o, nil
}

// claim réserve une clé d'unicité pour la commande (LWT).
func (s *OrderStore) claim(ctx context.Context, table, column, key, orderID string) (bool, error) {
	existing := map[string]interface{}{}
	return s.session.Query(
		`INSERT INTO `+table+` (`+column+`, order_id) VALUES (?, ?) IF NOT EXISTS`,
		key, orderID,
	).WithContext(ctx).MapScanCAS(existing)
}

// release libère une réservation seulement si elle appartient encore à orderID.
func (s *OrderStore) release(ctx context.Context, table, column, key, orderID string) {
	var ignored string
	if _, err := s.session.Query(
		`DELETE FROM `+table+` WHERE `+column+` = ? IF order_id = ?`,
		key, orderID,
	).WithContext(context.WithoutCancel(ctx)).ScanCAS(&ignored); err != nil {
		log.Printf("❌ Impossible de libérer %s=%s: %v", column, key, err)
	}
}

// InsertOrder réserve l'identifiant de paiement puis l'intention (LWT), et
// écrit la commande et son index client dans un batch journalisé. Si une
// étape échoue, les réservations déjà prises sont libérées.
func (s *OrderStore) InsertOrder(ctx context.Context, order *models.Order) error {
	row, err := toRow(order)
	if err != nil {
		return fmt.Errorf("encode order %s: %w", order.ID, err)
	}

	applied, err := s.claim(ctx, "orders_by_payment", "gateway_payment_id", row.GatewayPaymentID, row.ID)
	if err != nil {
		return fmt.Errorf("claim payment %s: %w", row.GatewayPaymentID, err)
	}
	if !applied {
		return store.ErrDuplicatePayment
	}

	applied, err = s.claim(ctx, "orders_by_gateway_order", "gateway_order_id", row.GatewayOrderID, row.ID)
	if err != nil || !applied {
		s.release(ctx, "orders_by_payment", "gateway_payment_id", row.GatewayPaymentID, row.ID)
		if err != nil {
			return fmt.Errorf("claim gateway order %s: %w", row.GatewayOrderID, err)
		}
		return store.ErrDuplicatePayment
	}

	batch := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`INSERT INTO orders (
			order_id, customer_id, customer_email, items, total_cents, currency, payment_status, delivery_status,
			delivery_address, gateway_order_id, gateway_payment_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.CustomerID, row.CustomerEmail, row.Items, row.TotalCents, row.Currency, row.PaymentStatus,
		row.DeliveryStatus, row.DeliveryAddress, row.GatewayOrderID, row.GatewayPaymentID,
		row.CreatedAt, row.UpdatedAt)
	batch.Query(`INSERT INTO orders_by_customer (customer_id, created_at, order_id) VALUES (?, ?, ?)`,
		row.CustomerID, row.CreatedAt, row.ID)

	if err := s.session.ExecuteBatch(batch); err != nil {
		s.release(ctx, "orders_by_gateway_order", "gateway_order_id", row.GatewayOrderID, row.ID)
		s.release(ctx, "orders_by_payment", "gateway_payment_id", row.GatewayPaymentID, row.ID)
		return fmt.Errorf("write order %s: %w", row.ID, err)
	}
	return nil
}

// DeleteOrder efface la commande et ses index, puis libère les réservations.
func (s *OrderStore) DeleteOrder(ctx context.Context, order *models.Order) error {
	ctx = context.WithoutCancel(ctx)
	batch := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`DELETE FROM orders WHERE order_id = ?`, order.ID)
	batch.Query(`DELETE FROM orders_by_customer WHERE customer_id = ? AND created_at = ? AND order_id = ?`,
		order.CustomerID, order.CreatedAt, order.ID)
	if err := s.session.ExecuteBatch(batch); err != nil {
		return fmt.Errorf("delete order %s: %w", order.ID, err)
	}
	s.release(ctx, "orders_by_gateway_order", "gateway_order_id", order.GatewayOrderID, order.ID)
	s.release(ctx, "orders_by_payment", "gateway_payment_id", order.GatewayPaymentID, order.ID)
	return nil
}

const orderColumns = `order_id, customer_id, customer_email, items, total_cents, currency, payment_status, delivery_status,
	delivery_address, gateway_order_id, gateway_payment_id, created_at, updated_at`

func (s *OrderStore) FindOrder(ctx context.Context, id string) (*models.Order, error) {
	var r orderRow
	err := s.session.Query(`SELECT `+orderColumns+` FROM orders WHERE order_id = ?`, id).WithContext(ctx).
		Scan(&r.ID, &r.CustomerID, &r.CustomerEmail, &r.Items, &r.TotalCents, &r.Currency, &r.PaymentStatus, &r.DeliveryStatus,
			&r.DeliveryAddress, &r.GatewayOrderID, &r.GatewayPaymentID, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order %s: %w", id, err)
	}
	return r.toOrder()
}

// FindOrderByPayment retourne ErrNotFound tant que la commande réservée n'est pas écrite.
func (s *OrderStore) FindOrderByPayment(ctx context.Context, paymentID string) (*models.Order, error) {
	var orderID string
	err := s.session.Query(`SELECT order_id FROM orders_by_payment WHERE gateway_payment_id = ?`, paymentID).
		WithContext(ctx).Consistency(gocql.Consistency(gocql.LocalSerial)).Scan(&orderID)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find payment %s: %w", paymentID, err)
	}
	return s.FindOrder(ctx, orderID)
}

func (s *OrderStore) FindOrderByGatewayOrder(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	var orderID string
	err := s.session.Query(`SELECT order_id FROM orders_by_gateway_order WHERE gateway_order_id = ?`, gatewayOrderID).
		WithContext(ctx).Consistency(gocql.Consistency(gocql.LocalSerial)).Scan(&orderID)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find gateway order %s: %w", gatewayOrderID, err)
	}
	return s.FindOrder(ctx, orderID)
}

func (s *OrderStore) FindOrdersByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	iter := s.session.Query(`SELECT order_id FROM orders_by_customer WHERE customer_id = ?`, customerID).
		WithContext(ctx).Iter()
	var (
		ids []string
		id  string
	)
	for iter.Scan(&id) {
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("list orders for %s: %w", customerID, err)
	}

	orders := make([]models.Order, 0, len(ids))
	for _, id := range ids {
		o, err := s.FindOrder(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, nil
}

func (s *OrderStore) UpdateOrderStatus(ctx context.Context, id string, from, to models.DeliveryStatus, payment models.PaymentStatus) error {
	var current string
	applied, err := s.session.Query(
		`UPDATE orders SET delivery_status = ?, payment_status = ?, updated_at = ? WHERE order_id = ? IF delivery_status = ?`,
		string(to), string(payment), time.Now(), id, string(from),
	).WithContext(ctx).ScanCAS(&current)
	if err != nil {
		return fmt.Errorf("update order %s: %w", id, err)
	}
	if applied {
		return nil
	}
	if current == "" {
		return store.ErrNotFound
	}
	return store.ErrStatusConflict
}
