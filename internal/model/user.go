package model

import (
	"errors"
	"fmt"
	"time"
)

// MinPasswordLength is the shortest password accepted for a user.
const MinPasswordLength = 8

// User is an account allowed into the admin console and, when enabled,
// the authenticated API.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// ErrWeakPassword is returned for passwords that fail the strength rules.
var ErrWeakPassword = errors.New("weak password")

// ValidatePassword checks password strength requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrWeakPassword, MinPasswordLength)
	}
	return nil
}
