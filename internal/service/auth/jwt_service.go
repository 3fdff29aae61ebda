// Package auth provides authentication services: password hashing, JWT
// issuing and validation, login rate limiting, and the logout token
// blacklist.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Claims represents the validated claims extracted from a token.
type Claims struct {
	UserID    uuid.UUID
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}

// JWTService defines the interface for JWT operations.
type JWTService interface {
	// GenerateToken creates a signed token for the given user.
	GenerateToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateToken validates a token and returns its claims.
	// Returns ErrExpiredToken or ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}
