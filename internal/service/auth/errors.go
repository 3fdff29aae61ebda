package auth

import "errors"

// Sentinel errors returned by the auth service. The API layer maps these to
// HTTP status codes.
var (
	// ErrInvalidToken indicates a malformed token or bad signature.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken indicates the token's expiry has passed.
	ErrExpiredToken = errors.New("token expired")

	// ErrRevokedToken indicates the token was blacklisted by a logout.
	ErrRevokedToken = errors.New("token revoked")

	// ErrInvalidCredentials indicates a wrong email/password combination.
	// Unknown email and wrong password produce the same error on purpose.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken indicates a registration with an already-used email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrRateLimited indicates too many login attempts for an email.
	ErrRateLimited = errors.New("too many login attempts, try again later")
)
