package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/reflecta/reflecta-api/internal/cache"
	"github.com/reflecta/reflecta-api/internal/config"
	"github.com/reflecta/reflecta-api/internal/domain"
	"github.com/reflecta/reflecta-api/internal/store"
)

// loginWindow is the sliding window for the login rate limit counter.
const loginWindow = time.Minute

// AuthService handles user registration, login, and logout. Login attempts
// are rate limited per email through the redis counter, and logout revokes
// the presented token by blacklisting its ID until natural expiry.
type AuthService struct {
	userStore  store.UserStore
	jwtService JWTService
	hasher     PasswordHasher
	cache      cache.Cache
	rateLimit  int
	logger     *slog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	userStore store.UserStore,
	jwtService JWTService,
	hasher PasswordHasher,
	c cache.Cache,
	cfg config.AuthConfig,
	logger *slog.Logger,
) (*AuthService, error) {
	if userStore == nil {
		return nil, errors.New("userStore cannot be nil")
	}
	if jwtService == nil {
		return nil, errors.New("jwtService cannot be nil")
	}
	if hasher == nil {
		return nil, errors.New("hasher cannot be nil")
	}
	if c == nil {
		return nil, errors.New("cache cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	rateLimit := cfg.LoginRateLimitPerMinute
	if rateLimit <= 0 {
		rateLimit = 5
	}

	return &AuthService{
		userStore:  userStore,
		jwtService: jwtService,
		hasher:     hasher,
		cache:      c,
		rateLimit:  rateLimit,
		logger:     logger.With("component", "auth_service"),
	}, nil
}

// Register creates a new user account and returns it with a fresh token.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, string, error) {
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := domain.NewUser(name, email, hashed)
	if err != nil {
		return nil, "", err
	}

	if err := s.userStore.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return nil, "", ErrEmailTaken
		}
		s.logger.Error("failed to create user", "error", err)
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.jwtService.GenerateToken(ctx, user.ID)
	if err != nil {
		// The account exists; the user can still log in normally.
		s.logger.Error("failed to issue token after registration",
			"error", err,
			"user_id", user.ID)
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return user, token, nil
}

// Login authenticates a user by email and password and returns a token.
// Attempts are counted per email before credentials are checked, so failed
// and successful attempts both consume the budget.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	count, err := s.cache.IncrWithExpiry(ctx, cache.LoginAttemptKey(email), loginWindow)
	if err != nil {
		// A broken limiter should not lock everyone out.
		s.logger.Warn("login rate limiter unavailable, allowing attempt", "error", err)
	} else if count > int64(s.rateLimit) {
		s.logger.Warn("login rate limit exceeded", "attempts", count)
		return nil, "", ErrRateLimited
	}

	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		s.logger.Error("failed to look up user for login", "error", err)
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		s.logger.Debug("password mismatch", "user_id", user.ID)
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to issue token", "error", err, "user_id", user.ID)
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return user, token, nil
}

// UpdateProfileInput carries the optional profile changes for UpdateProfile.
// A password change requires both OldPassword and NewPassword; a new
// password without the old one is ignored.
type UpdateProfileInput struct {
	Name        string
	OldPassword string
	NewPassword string
}

// GetProfile returns the account behind userID.
func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, store.ErrUserNotFound
		}
		s.logger.Error("failed to load profile", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return user, nil
}

// UpdateProfile applies name and password changes to the account. The old
// password must match before a new one is accepted; a mismatch returns
// ErrInvalidCredentials.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, store.ErrUserNotFound
		}
		s.logger.Error("failed to load user for update", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if input.Name != "" {
		user.Name = input.Name
	}

	if input.OldPassword != "" && input.NewPassword != "" {
		if err := s.hasher.Compare(user.HashedPassword, input.OldPassword); err != nil {
			s.logger.Debug("old password mismatch on profile update", "user_id", userID)
			return nil, ErrInvalidCredentials
		}
		hashed, err := s.hasher.Hash(input.NewPassword)
		if err != nil {
			s.logger.Error("failed to hash new password", "error", err)
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.HashedPassword = hashed
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.userStore.Update(ctx, user); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, store.ErrUserNotFound
		}
		s.logger.Error("failed to update profile", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.logger.Info("profile updated",
		"user_id", userID,
		"password_changed", input.OldPassword != "" && input.NewPassword != "")
	return user, nil
}

// DeleteAccount removes the account and everything it owns.
func (s *AuthService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	if err := s.userStore.Delete(ctx, userID); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return store.ErrUserNotFound
		}
		s.logger.Error("failed to delete account", "error", err, "user_id", userID)
		return fmt.Errorf("failed to delete account: %w", err)
	}

	s.logger.Info("account deleted", "user_id", userID)
	return nil
}

// Logout revokes the token described by claims by blacklisting its ID for
// the remainder of its lifetime.
func (s *AuthService) Logout(ctx context.Context, claims *Claims) error {
	ttl := time.Until(claims.ExpiresAt)
	if ttl <= 0 {
		// Already expired; nothing to revoke.
		return nil
	}

	if err := s.cache.Set(ctx, cache.BlacklistKey(claims.ID), []byte("revoked"), ttl); err != nil {
		s.logger.Error("failed to blacklist token",
			"error", err,
			"token_id", claims.ID)
		return fmt.Errorf("failed to blacklist token: %w", err)
	}

	s.logger.Info("token revoked",
		"user_id", claims.UserID,
		"token_id", claims.ID)
	return nil
}

// IsRevoked reports whether the token ID has been blacklisted. Cache errors
// fail open: a down redis should degrade revocation, not all authentication.
func (s *AuthService) IsRevoked(ctx context.Context, tokenID string) bool {
	_, found, err := s.cache.Get(ctx, cache.BlacklistKey(tokenID))
	if err != nil {
		s.logger.Warn("token blacklist unavailable", "error", err)
		return false
	}
	return found
}
