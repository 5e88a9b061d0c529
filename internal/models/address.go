package models

import "strings"

type DeliveryAddress struct {
	FullName     string `json:"fullName" bson:"full_name"`
	AddressLine1 string `json:"addressLine1" bson:"address_line1"`
	AddressLine2 string `json:"addressLine2,omitempty" bson:"address_line2,omitempty"`
	City         string `json:"city" bson:"city"`
	State        string `json:"state" bson:"state"`
	PostalCode   string `json:"postalCode" bson:"postal_code"`
	Phone        string `json:"phone" bson:"phone"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validate retourne la liste des champs obligatoires manquants.
func (a DeliveryAddress) Validate() []FieldError {
	required := []struct {
		field string
		value string
	}{
		{"fullName", a.FullName},
		{"addressLine1", a.AddressLine1},
		{"city", a.City},
		{"state", a.State},
		{"postalCode", a.PostalCode},
		{"phone", a.Phone},
	}

	var errs []FieldError
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, FieldError{Field: r.field, Message: r.field + " is required"})
		}
	}
	return errs
}
