package models

import (
	"gorm.io/gorm"
)

// User is a dashboard account. The admin gate only checks that a valid
// session exists for an active user; there is no separate role claim
// (known gap inherited from the product's current behavior).
type User struct {
	gorm.Model

	Email        string  `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string  `gorm:"not null" json:"-"`
	Name         *string `json:"name,omitempty"`

	IsActive bool `gorm:"default:true" json:"is_active"`

	// TokenVersion is bumped on logout to invalidate outstanding JWTs.
	TokenVersion int `gorm:"default:0" json:"-"`
}
