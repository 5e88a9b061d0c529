// Package store déclare les contrats de persistance utilisés par les services.
// Les implémentations vivent dans les sous-packages scylla, mongo et memory,
// et dans internal/cache pour ce qui est porté par Redis.
package store

import (
	"context"
	"errors"
	"time"

	"medicart_back_end/internal/models"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicatePayment  = errors.New("payment already recorded")
	ErrStatusConflict    = errors.New("status changed concurrently")
	ErrLockTimeout       = errors.New("lock not acquired")
)

// ProductStore porte le stock autoritaire des produits.
type ProductStore interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	// GetProducts ignore les identifiants inconnus.
	GetProducts(ctx context.Context, ids []string) (map[string]models.Product, error)
	// DecrementStock retire qty seulement si stock >= qty, de façon atomique.
	// Retourne ErrInsufficientStock sinon, ErrNotFound si le produit n'existe pas.
	DecrementStock(ctx context.Context, id string, qty int) (newStock int, err error)
	IncrementStock(ctx context.Context, id string, qty int) (newStock int, err error)
	// SetStock fixe une valeur absolue (>= 0) et retourne la valeur remplacée.
	SetStock(ctx context.Context, id string, stock int) (prevStock int, err error)
	RecordMovement(ctx context.Context, m models.StockMovement) error
	// ListMovements retourne les mouvements d'un produit, les plus récents d'abord.
	ListMovements(ctx context.Context, productID string, limit int) ([]models.StockMovement, error)
}

type OrderStore interface {
	// InsertOrder retourne ErrDuplicatePayment si GatewayPaymentID existe déjà.
	InsertOrder(ctx context.Context, order *models.Order) error
	FindOrder(ctx context.Context, id string) (*models.Order, error)
	FindOrderByPayment(ctx context.Context, paymentID string) (*models.Order, error)
	FindOrderByGatewayOrder(ctx context.Context, gatewayOrderID string) (*models.Order, error)
	// DeleteOrder retire une commande dont le stock n'a pas pu être décrémenté,
	// avec ses index. Hors transaction uniquement.
	DeleteOrder(ctx context.Context, order *models.Order) error
	FindOrdersByCustomer(ctx context.Context, customerID string) ([]models.Order, error)
	// UpdateOrderStatus applique la transition seulement si le statut courant vaut from.
	UpdateOrderStatus(ctx context.Context, id string, from, to models.DeliveryStatus, payment models.PaymentStatus) error
}

type CartStore interface {
	LoadCart(ctx context.Context, customerID string) ([]models.CartItem, error)
	SaveCart(ctx context.Context, customerID string, items []models.CartItem) error
	ClearCart(ctx context.Context, customerID string) error
}

type StagingStore interface {
	Stage(ctx context.Context, s models.StagedCheckout, ttl time.Duration) error
	GetStaged(ctx context.Context, gatewayOrderID string) (*models.StagedCheckout, error)
	// Unstage consomme le checkout une fois la commande écrite.
	Unstage(ctx context.Context, gatewayOrderID string) error
}

// Locker sérialise les écritures sur une clé (un panier client).
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// TxRunner exécute fn dans une transaction quand le backend en offre une.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoTx exécute fn directement ; la cohérence repose alors sur les
// compensations de l'appelant.
type NoTx struct{}

func (NoTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type txKey struct{}

// WithTx marque ctx comme porteur d'une transaction réelle.
func WithTx(ctx context.Context) context.Context {
	return context.WithValue(ctx, txKey{}, true)
}

// InTx indique si une erreur sera annulée par la transaction englobante,
// auquel cas les compensations manuelles sont inutiles.
func InTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}
