package scylla

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"medicart_back_end/internal/models"
	"medicart_back_end/internal/store"
)

// Au-delà, un produit est trop disputé : on rend la main plutôt que de boucler.
const maxCASAttempts = 16

var errContended = errors.New("stock update contended")

type ProductStore struct {
	session *gocql.Session
}

func NewProductStore(session *gocql.Session) *ProductStore {
	return &ProductStore{session: session}
}

const productColumns = `product_id, name, price_cents, stock, image_url, pharmacy_id, updated_at`

func scanProduct(scan func(dest ...interface{}) error) (models.Product, error) {
	var (
		p     models.Product
		cents int64
	)
	err := scan(&p.ID, &p.Name, &cents, &p.Stock, &p.ImageURL, &p.PharmacyID, &p.UpdatedAt)
	p.Price = models.FromMinorUnits(cents)
	return p, err
}

func (s *ProductStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	q := s.session.Query(`SELECT `+productColumns+` FROM products WHERE product_id = ?`, id).WithContext(ctx)
	p, err := scanProduct(q.Scan)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return &p, nil
}

func (s *ProductStore) GetProducts(ctx context.Context, ids []string) (map[string]models.Product, error) {
	out := make(map[string]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	iter := s.session.Query(`SELECT `+productColumns+` FROM products WHERE product_id IN ?`, ids).WithContext(ctx).Iter()
	var (
		p     models.Product
		cents int64
	)
	for iter.Scan(&p.ID, &p.Name, &cents, &p.Stock, &p.ImageURL, &p.PharmacyID, &p.UpdatedAt) {
		p.Price = models.FromMinorUnits(cents)
		out[p.ID] = p
		p = models.Product{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	return out, nil
}

// readStock lit le stock en consistance SERIAL pour voir les LWT en cours.
func (s *ProductStore) readStock(ctx context.Context, id string) (int, error) {
	var stock int
	err := s.session.Query(`SELECT stock FROM products WHERE product_id = ?`, id).
		WithContext(ctx).Consistency(gocql.Consistency(gocql.LocalSerial)).Scan(&stock)
	if errors.Is(err, gocql.ErrNotFound) {
		return 0, store.ErrNotFound
	}
	return stock, err
}

// casStock applique next(current) tant que la valeur lue n'a pas changé entre-temps.
func (s *ProductStore) casStock(ctx context.Context, id string, next func(current int) (int, error)) (int, error) {
	current, err := s.readStock(ctx, id)
	if err != nil {
		return 0, err
	}
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		target, err := next(current)
		if err != nil {
			return current, err
		}
		var seen int
		applied, err := s.session.Query(
			`UPDATE products SET stock = ?, updated_at = ? WHERE product_id = ? IF stock = ?`,
			target, time.Now(), id, current,
		).WithContext(ctx).ScanCAS(&seen)
		if err != nil {
			return 0, fmt.Errorf("update stock %s: %w", id, err)
		}
		if applied {
			return target, nil
		}
		current = seen
	}
	return current, fmt.Errorf("%w: %s", errContended, id)
}

func (s *ProductStore) DecrementStock(ctx context.Context, id string, qty int) (int, error) {
	return s.casStock(ctx, id, func(current int) (int, error) {
		if current < qty {
			return current, store.ErrInsufficientStock
		}
		return current - qty, nil
	})
}

func (s *ProductStore) IncrementStock(ctx context.Context, id string, qty int) (int, error) {
	return s.casStock(ctx, id, func(current int) (int, error) {
		return current + qty, nil
	})
}

// SetStock retourne la valeur que le CAS a effectivement remplacée.
func (s *ProductStore) SetStock(ctx context.Context, id string, stock int) (int, error) {
	var prev int
	_, err := s.casStock(ctx, id, func(current int) (int, error) {
		prev = current
		return stock, nil
	})
	return prev, err
}

func (s *ProductStore) RecordMovement(ctx context.Context, m models.StockMovement) error {
	id := gocql.TimeUUID()
	if m.ID != "" {
		if parsed, err := gocql.ParseUUID(m.ID); err == nil && parsed.Version() == 1 {
			id = parsed
		}
	}
	err := s.session.Query(`INSERT INTO stock_movements (
			product_id, id, type, quantity, prev_stock, new_stock, reason, order_id, user_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ProductID, id, string(m.Type), m.Quantity, m.PrevStock, m.NewStock,
		m.Reason, m.OrderID, m.UserID, m.CreatedAt,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("record movement %s: %w", m.ProductID, err)
	}
	return nil
}

func (s *ProductStore) ListMovements(ctx context.Context, productID string, limit int) ([]models.StockMovement, error) {
	if limit <= 0 {
		limit = 50
	}
	iter := s.session.Query(`SELECT id, type, quantity, prev_stock, new_stock, reason, order_id, user_id, created_at
		FROM stock_movements WHERE product_id = ? LIMIT ?`, productID, limit).WithContext(ctx).Iter()

	var (
		out []models.StockMovement
		id  gocql.UUID
		typ string
		m   models.StockMovement
	)
	for iter.Scan(&id, &typ, &m.Quantity, &m.PrevStock, &m.NewStock, &m.Reason, &m.OrderID, &m.UserID, &m.CreatedAt) {
		m.ID = id.String()
		m.ProductID = productID
		m.Type = models.MovementType(typ)
		out = append(out, m)
		m = models.StockMovement{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("list movements %s: %w", productID, err)
	}
	return out, nil
}
