// Package inventory tient le stock autoritaire des produits : contrôle de
// disponibilité, décrément conditionnel au checkout et réassort.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"medicart_back_end/internal/models"
	"medicart_back_end/internal/store"
)

var (
	ErrInvalidAdjustment = errors.New("invalid stock operation")
	ErrNegativeStock     = errors.New("stock cannot be negative")
)

const maxMovements = 100

type Shortage struct {
	ProductID string `json:"productId"`
	Name      string `json:"name,omitempty"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

type Availability struct {
	OK        bool       `json:"ok"`
	Shortages []Shortage `json:"shortages,omitempty"`
}

// InsufficientStockError liste les lignes qui n'ont pas pu être servies.
type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s (requested %d, available %d)", s.ProductID, s.Requested, s.Available))
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == store.ErrInsufficientStock
}

type Ledger struct {
	products store.ProductStore
}

func NewLedger(products store.ProductStore) *Ledger {
	return &Ledger{products: products}
}

// merge regroupe les lignes d'un même produit en gardant l'ordre d'apparition.
func merge(lines []models.StockLine) []models.StockLine {
	index := make(map[string]int, len(lines))
	out := make([]models.StockLine, 0, len(lines))
	for _, l := range lines {
		if i, ok := index[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out
}

// CheckAvailability relit le stock à chaque appel. Aucun effet de bord.
func (l *Ledger) CheckAvailability(ctx context.Context, lines []models.StockLine) (Availability, error) {
	lines = merge(lines)
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}

	products, err := l.products.GetProducts(ctx, ids)
	if err != nil {
		return Availability{}, fmt.Errorf("check availability: %w", err)
	}

	result := Availability{OK: true}
	for _, line := range lines {
		p, ok := products[line.ProductID]
		if !ok {
			result.Shortages = append(result.Shortages, Shortage{ProductID: line.ProductID, Requested: line.Quantity})
			continue
		}
		if p.Stock < line.Quantity {
			result.Shortages = append(result.Shortages, Shortage{
				ProductID: p.ID,
				Name:      p.Name,
				Requested: line.Quantity,
				Available: p.Stock,
			})
		}
	}
	result.OK = len(result.Shortages) == 0
	return result, nil
}

// Decrement retire chaque ligne sous condition stock >= quantité. Si une
// ligne échoue, les lignes déjà retirées sont restituées (sauf dans une
// transaction, qui s'en charge) et rien n'est enregistré.
func (l *Ledger) Decrement(ctx context.Context, lines []models.StockLine, orderID string) error {
	lines = merge(lines)
	done := make([]models.StockLine, 0, len(lines))
	after := make([]int, 0, len(lines))

	for _, line := range lines {
		newStock, err := l.products.DecrementStock(ctx, line.ProductID, line.Quantity)
		if err == nil {
			done = append(done, line)
			after = append(after, newStock)
			continue
		}

		if !store.InTx(ctx) {
			l.restore(ctx, done, orderID)
		}
		switch {
		case errors.Is(err, store.ErrInsufficientStock):
			return &InsufficientStockError{Shortages: []Shortage{{
				ProductID: line.ProductID, Requested: line.Quantity, Available: newStock,
			}}}
		case errors.Is(err, store.ErrNotFound):
			return &InsufficientStockError{Shortages: []Shortage{{
				ProductID: line.ProductID, Requested: line.Quantity,
			}}}
		default:
			return fmt.Errorf("decrement %s: %w", line.ProductID, err)
		}
	}

	now := time.Now()
	for i, line := range done {
		l.record(ctx, models.StockMovement{
			ProductID: line.ProductID,
			Type:      models.MovementSale,
			Quantity:  line.Quantity,
			PrevStock: after[i] + line.Quantity,
			NewStock:  after[i],
			OrderID:   orderID,
			CreatedAt: now,
		})
	}
	return nil
}

func (l *Ledger) restore(ctx context.Context, lines []models.StockLine, orderID string) {
	ctx = context.WithoutCancel(ctx)
	for _, line := range lines {
		if _, err := l.products.IncrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			log.Printf("❌ Compensation stock %s (+%d, commande %s) échouée: %v", line.ProductID, line.Quantity, orderID, err)
		}
	}
}

// Restock remet en stock des lignes déjà vendues (annulation d'une commande).
func (l *Ledger) Restock(ctx context.Context, lines []models.StockLine, orderID string, kind models.MovementType, userID string) error {
	var errs []error
	now := time.Now()
	for _, line := range merge(lines) {
		newStock, err := l.products.IncrementStock(ctx, line.ProductID, line.Quantity)
		if err != nil {
			errs = append(errs, fmt.Errorf("restock %s: %w", line.ProductID, err))
			continue
		}
		l.record(ctx, models.StockMovement{
			ProductID: line.ProductID,
			Type:      kind,
			Quantity:  line.Quantity,
			PrevStock: newStock - line.Quantity,
			NewStock:  newStock,
			OrderID:   orderID,
			UserID:    userID,
			CreatedAt: now,
		})
	}
	return errors.Join(errs...)
}

// Adjust applique une opération pharmacie : restock ajoute la quantité,
// adjustment fixe la valeur absolue.
func (l *Ledger) Adjust(ctx context.Context, productID string, kind models.MovementType, quantity int, reason, userID string) (*models.StockMovement, error) {
	p, err := l.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	m := models.StockMovement{
		ProductID: productID,
		Type:      kind,
		Quantity:  quantity,
		PrevStock: p.Stock,
		Reason:    reason,
		UserID:    userID,
		CreatedAt: time.Now(),
	}

	switch kind {
	case models.MovementRestock:
		if quantity <= 0 {
			return nil, fmt.Errorf("%w: restock quantity must be positive", ErrInvalidAdjustment)
		}
		newStock, err := l.products.IncrementStock(ctx, productID, quantity)
		if err != nil {
			return nil, err
		}
		m.PrevStock = newStock - quantity
		m.NewStock = newStock
	case models.MovementAdjustment:
		if quantity < 0 {
			return nil, ErrNegativeStock
		}
		prev, err := l.products.SetStock(ctx, productID, quantity)
		if err != nil {
			return nil, err
		}
		m.PrevStock = prev
		m.NewStock = quantity
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidAdjustment, kind)
	}

	m.ID = uuid.NewString()
	l.record(ctx, m)
	log.Printf("✅ Stock mis à jour pour %s: %d -> %d", p.Name, m.PrevStock, m.NewStock)
	return &m, nil
}

func (l *Ledger) Movements(ctx context.Context, productID string, limit int) ([]models.StockMovement, error) {
	if limit <= 0 || limit > maxMovements {
		limit = maxMovements
	}
	return l.products.ListMovements(ctx, productID, limit)
}

// record est best effort : le journal ne doit pas faire échouer une vente.
func (l *Ledger) record(ctx context.Context, m models.StockMovement) {
	if err := l.products.RecordMovement(ctx, m); err != nil {
		log.Printf("⚠️ Erreur enregistrement mouvement stock %s: %v", m.ProductID, err)
	}
}
