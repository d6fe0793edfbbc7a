// Package auth implements opaque bearer-token authentication. Token state
// lives exclusively in the cache: an entry's presence and its recorded
// expiry decide validity, so a cache flush logs everyone out. That is the
// intended trade-off, not a bug.
package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mlakar/shramba/internal/cache"
	"github.com/mlakar/shramba/internal/store"
)

var (
	// ErrInvalidCredentials is returned by Issue for a bad username or
	// password, without distinguishing which.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized is returned for a missing, expired, or revoked token.
	ErrUnauthorized = errors.New("invalid or expired token")
)

// TokenTTL is the default token lifetime.
const TokenTTL = 7 * 24 * time.Hour

// Cache key prefixes. The reverse user mapping exists so issuing a new
// token invalidates the previous one and revoke can clear both entries.
const (
	tokenKeyPrefix = "token:"
	userKeyPrefix  = "user:"
)

// Identity is the cached snapshot of the user a token belongs to.
// Authenticate returns it without touching the database.
type Identity struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Token is the result of a successful Issue.
type Token struct {
	Token     string
	Identity  Identity
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// tokenEntry is the cache representation of a live token.
type tokenEntry struct {
	Identity
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Authenticator issues, validates, refreshes, and revokes bearer tokens.
type Authenticator struct {
	db    *sql.DB
	cache cache.Cache
	ttl   time.Duration

	// now is the clock; overridable in tests.
	now func() time.Time
}

// New creates an Authenticator with the default 7-day token lifetime.
func New(db *sql.DB, c cache.Cache) *Authenticator {
	return &Authenticator{
		db:    db,
		cache: c,
		ttl:   TokenTTL,
		now:   time.Now,
	}
}

func tokenKey(token string) string { return tokenKeyPrefix + token }
func userKey(id int64) string      { return fmt.Sprintf("%s%d", userKeyPrefix, id) }

// Issue verifies the credentials and, on success, stores and returns a fresh
// token. Any previous token for the same user is invalidated. Bad username
// and bad password fail identically with ErrInvalidCredentials.
func (a *Authenticator) Issue(ctx context.Context, username, password string) (*Token, error) {
	user, err := store.GetUserByUsername(ctx, a.db, username)
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// Drop the user's previous token, if any.
	if prev, err := a.cache.Get(ctx, userKey(user.ID)); err == nil {
		_ = a.cache.Delete(ctx, tokenKey(string(prev)))
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	now := a.now()
	entry := tokenEntry{
		Identity: Identity{
			UserID:   user.ID,
			Username: user.Username,
			Email:    user.Email,
			Role:     user.Role,
		},
		IssuedAt:  now,
		ExpiresAt: now.Add(a.ttl),
	}

	if err := a.storeEntry(ctx, token, &entry); err != nil {
		return nil, err
	}

	return &Token{
		Token:     token,
		Identity:  entry.Identity,
		IssuedAt:  entry.IssuedAt,
		ExpiresAt: entry.ExpiresAt,
	}, nil
}

// Authenticate resolves a token to its identity. Expired entries count as
// absent even if the cache still physically holds them.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*Identity, error) {
	entry, err := a.lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	id := entry.Identity
	return &id, nil
}

// Refresh extends a valid token's expiry to now + TTL. The token string is
// unchanged.
func (a *Authenticator) Refresh(ctx context.Context, token string) (time.Time, error) {
	entry, err := a.lookup(ctx, token)
	if err != nil {
		return time.Time{}, err
	}

	entry.ExpiresAt = a.now().Add(a.ttl)
	if err := a.storeEntry(ctx, token, entry); err != nil {
		return time.Time{}, err
	}
	return entry.ExpiresAt, nil
}

// Revoke deletes a valid token immediately.
func (a *Authenticator) Revoke(ctx context.Context, token string) error {
	entry, err := a.lookup(ctx, token)
	if err != nil {
		return err
	}

	if err := a.cache.Delete(ctx, tokenKey(token)); err != nil {
		return fmt.Errorf("deleting token: %w", err)
	}
	_ = a.cache.Delete(ctx, userKey(entry.UserID))
	return nil
}

// Info returns the identity snapshot plus issue and expiry times for a
// valid token. No mutation.
func (a *Authenticator) Info(ctx context.Context, token string) (*Token, error) {
	entry, err := a.lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	return &Token{
		Token:     token,
		Identity:  entry.Identity,
		IssuedAt:  entry.IssuedAt,
		ExpiresAt: entry.ExpiresAt,
	}, nil
}

// lookup fetches and validates a token entry. All failure modes collapse to
// ErrUnauthorized except backend outages, which surface as wrapped errors.
func (a *Authenticator) lookup(ctx context.Context, token string) (*tokenEntry, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	data, err := a.cache.Get(ctx, tokenKey(token))
	if errors.Is(err, cache.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("reading token: %w", err)
	}

	var entry tokenEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Corrupt entry: drop it and treat as absent.
		_ = a.cache.Delete(ctx, tokenKey(token))
		return nil, ErrUnauthorized
	}

	if !a.now().Before(entry.ExpiresAt) {
		_ = a.cache.Delete(ctx, tokenKey(token))
		_ = a.cache.Delete(ctx, userKey(entry.UserID))
		return nil, ErrUnauthorized
	}

	return &entry, nil
}

// storeEntry writes both the token mapping and the reverse user mapping
// with a physical TTL matching the entry's logical expiry.
func (a *Authenticator) storeEntry(ctx context.Context, token string, entry *tokenEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding token entry: %w", err)
	}

	ttl := entry.ExpiresAt.Sub(a.now())
	if err := a.cache.Set(ctx, tokenKey(token), data, ttl); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}
	if err := a.cache.Set(ctx, userKey(entry.UserID), []byte(token), ttl); err != nil {
		return fmt.Errorf("storing user token mapping: %w", err)
	}
	return nil
}
