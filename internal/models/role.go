package models

// Role names.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// DefaultRoles are seeded at startup.
var DefaultRoles = []string{RoleUser, RoleAdmin}

// Role is static reference data.
type Role struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:32;not null" json:"name"`
}
