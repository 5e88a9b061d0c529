package models

import "github.com/shopspring/decimal"

type CartItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CartLine est une entrée de panier jointe à l'état courant du produit.
// Purement informatif : aucune réservation de stock.
type CartLine struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image_url,omitempty"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	InStock   int             `json:"in_stock"`
	Available bool            `json:"available"`
}

type Cart struct {
	CustomerID string          `json:"customer_id"`
	Items      []CartLine      `json:"items"`
	Total      decimal.Decimal `json:"total"`
	Count      int             `json:"count"`
}
