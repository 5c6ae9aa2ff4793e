package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyUsername = errors.New("username must not be empty")
	ErrEmptyPassword = errors.New("password must not be empty")
	// ErrUsernameTaken is returned by repositories on a unique-username conflict.
	ErrUsernameTaken = errors.New("username already taken")
)

// User is a registered account holder. Every user owns exactly one wallet.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Never expose
	CreatedAt    time.Time `json:"created_at"`
}

// NewUser builds a user with a fresh identifier.
// The credential must already be hashed by the caller.
func NewUser(username, passwordHash string) (*User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, ErrEmptyUsername
	}
	if passwordHash == "" {
		return nil, ErrEmptyPassword
	}
	return &User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}, nil
}
