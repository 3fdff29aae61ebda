package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reflecta/reflecta-api/internal/config"
	"github.com/reflecta/reflecta-api/internal/domain"
	"github.com/reflecta/reflecta-api/internal/store"
)

// fakeUserStore is a map-backed store.UserStore keyed by email.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*domain.User{}}
}

func (s *fakeUserStore) Create(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.Email]; exists {
		return store.ErrEmailExists
	}
	c := *user
	s.users[user.Email] = &c
	return nil
}

func (s *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.ID == id {
			c := *user
			return &c, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *fakeUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[email]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	c := *user
	return &c, nil
}

func (s *fakeUserStore) Update(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for email, existing := range s.users {
		if existing.ID == user.ID {
			c := *user
			s.users[email] = &c
			return nil
		}
	}
	return store.ErrUserNotFound
}

func (s *fakeUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for email, existing := range s.users {
		if existing.ID == id {
			delete(s.users, email)
			return nil
		}
	}
	return store.ErrUserNotFound
}

func (s *fakeUserStore) WithTx(tx *sql.Tx) store.UserStore { return s }

var _ store.UserStore = (*fakeUserStore)(nil)

// fakeCache is an in-memory cache.Cache with injectable failures.
type fakeCache struct {
	mu       sync.Mutex
	values   map[string][]byte
	counters map[string]int64

	setErr  error
	getErr  error
	incrErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		values:   map[string][]byte{},
		counters: map[string]int64{},
	}
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.values[key]
	return value, ok, nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	return nil
}

func (c *fakeCache) Ping(ctx context.Context) error { return nil }

func (c *fakeCache) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	if c.incrErr != nil {
		return 0, c.incrErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[key]++
	return c.counters[key], nil
}

// plainHasher avoids bcrypt's cost in tests that only care about matching.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (plainHasher) Compare(hashedPassword, password string) error {
	if hashedPassword != "hashed:"+password {
		return errors.New("password mismatch")
	}
	return nil
}

func newTestAuthService(t *testing.T, userStore store.UserStore, c *fakeCache) *AuthService {
	t.Helper()

	jwtService, err := NewJWTService(config.AuthConfig{
		JWTSecret:            strings.Repeat("test-secret-", 3),
		TokenLifetimeMinutes: 60,
	})
	require.NoError(t, err)

	svc, err := NewAuthService(userStore, jwtService, plainHasher{}, c, config.AuthConfig{
		LoginRateLimitPerMinute: 5,
	}, nil)
	require.NoError(t, err)
	return svc
}

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("creates the account and issues a token", func(t *testing.T) {
		t.Parallel()

		userStore := newFakeUserStore()
		svc := newTestAuthService(t, userStore, newFakeCache())

		user, token, err := svc.Register(context.Background(), "Ada", "ada@example.com", "hunter22")
		require.NoError(t, err)

		assert.Equal(t, "Ada", user.Name)
		assert.Equal(t, "ada@example.com", user.Email)
		assert.NotEmpty(t, token)

		stored, err := userStore.GetByEmail(context.Background(), "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, "hashed:hunter22", stored.HashedPassword)
	})

	t.Run("duplicate email", func(t *testing.T) {
		t.Parallel()

		userStore := newFakeUserStore()
		svc := newTestAuthService(t, userStore, newFakeCache())

		_, _, err := svc.Register(context.Background(), "Ada", "ada@example.com", "hunter22")
		require.NoError(t, err)

		_, _, err = svc.Register(context.Background(), "Imposter", "ada@example.com", "other")
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("invalid input", func(t *testing.T) {
		t.Parallel()

		svc := newTestAuthService(t, newFakeUserStore(), newFakeCache())

		_, _, err := svc.Register(context.Background(), "Al", "al@example.com", "password")
		assert.ErrorIs(t, err, domain.ErrUserNameTooShort)

		_, _, err = svc.Register(context.Background(), "Alice", "not-an-email", "password")
		assert.ErrorIs(t, err, domain.ErrInvalidUserEmail)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	register := func(t *testing.T, svc *AuthService) {
		t.Helper()
		_, _, err := svc.Register(context.Background(), "Ada", "ada@example.com", "hunter22")
		require.NoError(t, err)
	}

	t.Run("valid credentials", func(t *testing.T) {
		t.Parallel()

		svc := newTestAuthService(t, newFakeUserStore(), newFakeCache())
		register(t, svc)

		user, token, err := svc.Login(context.Background(), "ada@example.com", "hunter22")
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", user.Email)
		assert.NotEmpty(t, token)
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()

		svc := newTestAuthService(t, newFakeUserStore(), newFakeCache())
		register(t, svc)

		_, _, err := svc.Login(context.Background(), "ada@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email looks like wrong credentials", func(t *testing.T) {
		t.Parallel()

		svc := newTestAuthService(t, newFakeUserStore(), newFakeCache())

		_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("rate limit kicks in after the configured budget", func(t *testing.T) {
		t.Parallel()

		svc := newTestAuthService(t, newFakeUserStore(), newFakeCache())
		register(t, svc)

		for i := 0; i < 5; i++ {
			_, _, err := svc.Login(context.Background(), "ada@example.com", fmt.Sprintf("wrong-%d", i))
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		}

		// Sixth attempt in the window is rejected even with the right password.
		_, _, err := svc.Login(context.Background(), "ada@example.com", "hunter22")
		assert.ErrorIs(t, err, ErrRateLimited)
	})

	t.Run("broken limiter fails open", func(t *testing.T) {
		t.Parallel()

		c := newFakeCache()
		c.incrErr = errors.New("redis down")
		svc := newTestAuthService(t, newFakeUserStore(), c)
		register(t, svc)

		_, token, err := svc.Login(context.Background(), "ada@example.com", "hunter22")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
	})
}

func TestProfile(t *testing.T) {
	t.Parallel()

	register := func(t *testing.T, svc *AuthService) *domain.User {
		t.Helper()
		user, _, err := svc.Register(context.Background(), "Ada", "ada@example.com", "hunter22")
		require.NoError(t, err)
		return user
	}

	t.Run("get profile returns the account", func(t *testing.T) {
		t.Parallel()

		svc := newTestAuthService(t, newFakeUserStore(), newFakeCache())
		user := register(t, svc)

		got, err := svc.GetProfile(context.Background(), user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, "ada@example.com", got.Email)
	})

	t.Run("get profile for an unknown user", func(t *testing.T) {
		t.Parallel()

		svc := newTestAuthService(t, newFakeUserStore(), newFakeCache())

		_, err := svc.GetProfile(context.Background(), uuid.New())
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})

	t.Run("name change leaves the password alone", func(t *testing.T) {
		t.Parallel()

		userStore := newFakeUserStore()
		svc := newTestAuthService(t, userStore, newFakeCache())
		user := register(t, svc)

		updated, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileInput{Name: "Ada Lovelace"})
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", updated.Name)

		stored, err := userStore.GetByEmail(context.Background(), "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", stored.Name)
		assert.Equal(t, "hashed:hunter22", stored.HashedPassword)
	})

	t.Run("password change with the correct old password", func(t *testing.T) {
		t.Parallel()

		userStore := newFakeUserStore()
		svc := newTestAuthService(t, userStore, newFakeCache())
		user := register(t, svc)

		_, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileInput{
			OldPassword: "hunter22",
			NewPassword: "correcthorse",
		})
		require.NoError(t, err)

		stored, err := userStore.GetByEmail(context.Background(), "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, "hashed:correcthorse", stored.HashedPassword)
	})

	t.Run("wrong old password is rejected and nothing changes", func(t *testing.T) {
		t.Parallel()

		userStore := newFakeUserStore()
		svc := newTestAuthService(t, userStore, newFakeCache())
		user := register(t, svc)

		_, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileInput{
			OldPassword: "wrong",
			NewPassword: "correcthorse",
		})
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		stored, err := userStore.GetByEmail(context.Background(), "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, "hashed:hunter22", stored.HashedPassword)
	})

	t.Run("new password without the old one is ignored", func(t *testing.T) {
		t.Parallel()

		userStore := newFakeUserStore()
		svc := newTestAuthService(t, userStore, newFakeCache())
		user := register(t, svc)

		_, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileInput{
			NewPassword: "correcthorse",
		})
		require.NoError(t, err)

		stored, err := userStore.GetByEmail(context.Background(), "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, "hashed:hunter22", stored.HashedPassword)
	})

	t.Run("delete account removes the user", func(t *testing.T) {
		t.Parallel()

		userStore := newFakeUserStore()
		svc := newTestAuthService(t, userStore, newFakeCache())
		user := register(t, svc)

		require.NoError(t, svc.DeleteAccount(context.Background(), user.ID))

		_, err := userStore.GetByEmail(context.Background(), "ada@example.com")
		assert.ErrorIs(t, err, store.ErrUserNotFound)

		assert.ErrorIs(t, svc.DeleteAccount(context.Background(), user.ID), store.ErrUserNotFound)
	})
}

func TestLogoutAndRevocation(t *testing.T) {
	t.Parallel()

	t.Run("logout blacklists the token until expiry", func(t *testing.T) {
		t.Parallel()

		c := newFakeCache()
		svc := newTestAuthService(t, newFakeUserStore(), c)

		claims := &Claims{
			UserID:    uuid.New(),
			ID:        uuid.New().String(),
			ExpiresAt: time.Now().Add(time.Hour),
		}

		assert.False(t, svc.IsRevoked(context.Background(), claims.ID))
		require.NoError(t, svc.Logout(context.Background(), claims))
		assert.True(t, svc.IsRevoked(context.Background(), claims.ID))
	})

	t.Run("expired token logout is a no-op", func(t *testing.T) {
		t.Parallel()

		c := newFakeCache()
		svc := newTestAuthService(t, newFakeUserStore(), c)

		claims := &Claims{
			UserID:    uuid.New(),
			ID:        uuid.New().String(),
			ExpiresAt: time.Now().Add(-time.Minute),
		}

		require.NoError(t, svc.Logout(context.Background(), claims))
		assert.Empty(t, c.values)
	})

	t.Run("blacklist errors fail open", func(t *testing.T) {
		t.Parallel()

		c := newFakeCache()
		c.getErr = errors.New("redis down")
		svc := newTestAuthService(t, newFakeUserStore(), c)

		assert.False(t, svc.IsRevoked(context.Background(), "some-token-id"))
	})
}
