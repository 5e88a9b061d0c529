package models

import "time"

type StockLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type MovementType string

const (
	MovementSale         MovementType = "sale"
	MovementRestock      MovementType = "restock"
	MovementAdjustment   MovementType = "adjustment"
	MovementCancellation MovementType = "cancellation"
)

type StockMovement struct {
	ID        string       `json:"id"`
	ProductID string       `json:"product_id"`
	Type      MovementType `json:"type"`
	Quantity  int          `json:"quantity"`
	PrevStock int          `json:"prev_stock"`
	NewStock  int          `json:"new_stock"`
	Reason    string       `json:"reason,omitempty"`
	OrderID   string       `json:"order_id,omitempty"`
	UserID    string       `json:"user_id,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}
