package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	ImageURL   string          `json:"image_url,omitempty"`
	PharmacyID string          `json:"pharmacy_id,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ToMinorUnits convertit un montant en plus petite unité monétaire (paise, centimes).
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// FromMinorUnits est l'inverse de ToMinorUnits.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
