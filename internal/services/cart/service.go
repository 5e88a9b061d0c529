// Package cart gère le panier d'un client. Le panier est indicatif : aucune
// quantité n'y est réservée, le stock n'est vérifié qu'au checkout.
package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"medicart_back_end/internal/models"
	"medicart_back_end/internal/store"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrItemNotInCart   = errors.New("item not in cart")
	ErrMissingProduct  = errors.New("product id is required")
)

// LockKey est partagé avec le checkout : commit et mutations du panier
// s'excluent mutuellement.
func LockKey(customerID string) string {
	return "cart:" + customerID
}

type Service struct {
	carts    store.CartStore
	products store.ProductStore
	locker   store.Locker
}

func NewService(carts store.CartStore, products store.ProductStore, locker store.Locker) *Service {
	return &Service{carts: carts, products: products, locker: locker}
}

// mutate charge, modifie et réécrit le panier sous le verrou du client.
func (s *Service) mutate(ctx context.Context, customerID string, fn func(items []models.CartItem) ([]models.CartItem, error)) ([]models.CartItem, error) {
	unlock, err := s.locker.Lock(ctx, LockKey(customerID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	items, err := s.carts.LoadCart(ctx, customerID)
	if err != nil {
		return nil, err
	}
	items, err = fn(items)
	if err != nil {
		return nil, err
	}
	if err := s.carts.SaveCart(ctx, customerID, items); err != nil {
		return nil, err
	}
	return items, nil
}

// AddItem ajoute quantity (1 si 0) ou incrémente la ligne existante.
func (s *Service) AddItem(ctx context.Context, customerID, productID string, quantity int) ([]models.CartItem, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, ErrMissingProduct
	}
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	return s.mutate(ctx, customerID, func(items []models.CartItem) ([]models.CartItem, error) {
		for i := range items {
			if items[i].ProductID == productID {
				items[i].Quantity += quantity
				return items, nil
			}
		}
		return append(items, models.CartItem{ProductID: productID, Quantity: quantity}), nil
	})
}

// SetQuantity remplace la quantité d'une ligne existante.
func (s *Service) SetQuantity(ctx context.Context, customerID, productID string, quantity int) ([]models.CartItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	return s.mutate(ctx, customerID, func(items []models.CartItem) ([]models.CartItem, error) {
		for i := range items {
			if items[i].ProductID == productID {
				items[i].Quantity = quantity
				return items, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrItemNotInCart, productID)
	})
}

// RemoveItem est idempotent.
func (s *Service) RemoveItem(ctx context.Context, customerID, productID string) ([]models.CartItem, error) {
	return s.mutate(ctx, customerID, func(items []models.CartItem) ([]models.CartItem, error) {
		out := items[:0]
		for _, it := range items {
			if it.ProductID != productID {
				out = append(out, it)
			}
		}
		return out, nil
	})
}

// Items retourne les lignes brutes, sans jointure produit.
func (s *Service) Items(ctx context.Context, customerID string) ([]models.CartItem, error) {
	return s.carts.LoadCart(ctx, customerID)
}

// ListItems joint chaque ligne à l'état courant du produit, pour affichage.
func (s *Service) ListItems(ctx context.Context, customerID string) (*models.Cart, error) {
	items, err := s.carts.LoadCart(ctx, customerID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.products.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	cart := &models.Cart{CustomerID: customerID, Items: make([]models.CartLine, 0, len(items)), Total: decimal.Zero}
	for _, it := range items {
		line := models.CartLine{ProductID: it.ProductID, Quantity: it.Quantity}
		if p, ok := products[it.ProductID]; ok {
			line.Name = p.Name
			line.Price = p.Price
			line.ImageURL = p.ImageURL
			line.InStock = p.Stock
			line.Available = p.Stock >= it.Quantity
			line.Subtotal = p.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
			cart.Total = cart.Total.Add(line.Subtotal)
		}
		cart.Count += it.Quantity
		cart.Items = append(cart.Items, line)
	}
	return cart, nil
}

// Clear vide le panier. L'appelant détient déjà le verrou du client.
func (s *Service) Clear(ctx context.Context, customerID string) error {
	return s.carts.ClearCart(ctx, customerID)
}
