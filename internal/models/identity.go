package models

type Role string

const (
	RoleCustomer Role = "customer"
	RolePharmacy Role = "pharmacy"
	RoleAdmin    Role = "admin"
)

// Identity est l'appelant authentifié, passé explicitement aux services.
type Identity struct {
	UserID string
	Email  string
	Role   Role
}

func (i Identity) IsStaff() bool {
	return i.Role == RolePharmacy || i.Role == RoleAdmin
}
