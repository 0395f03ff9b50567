package models

import "gorm.io/gorm"

const (
	RoleAdmin = "admin"
	RoleKasir = "kasir"
)

// User is a staff account. Cashiers hold the "kasir" role.
type User struct {
	gorm.Model
	Name     string `gorm:"size:255;not null" json:"name"`
	Email    string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password string `gorm:"size:255;not null" json:"-"` // hashed, never serialised
	Role     string `gorm:"size:50;default:kasir" json:"role"`
}
