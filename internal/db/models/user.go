package models

import (
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// User is a local account. Its role lives in UserRole.
type User struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	IsStaff   bool      `gorm:"not null;default:false" json:"isStaff"`
	Username  string    `gorm:"unique;size:150;not null" json:"username"`
	Email     string    `gorm:"unique;size:255;not null" json:"email"`
	Password  string    `gorm:"size:255" json:"-"` // argon2id hash
	FirstName string    `gorm:"size:150" json:"firstName"`
	LastName  string    `gorm:"size:150" json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HashPassword hashes a plaintext password with the argon2id default parameters.
func HashPassword(password string) (string, error) {
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return hash, nil
}

// VerifyPassword compares password against the stored hash in constant time.
func (u *User) VerifyPassword(password string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, u.Password)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", u.ID).Msg("failed to verify password")

		return false
	}

	return match
}
