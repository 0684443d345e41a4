package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wisersense-io/mate-session/internal/domain"
	apperrors "github.com/wisersense-io/mate-session/pkg/errors"
)

const (
	keyAccessToken  = keyPrefix + "access_token"
	keyRefreshToken = keyPrefix + "refresh_token"
	keyTokenExpiry  = keyPrefix + "token_expires_at"
)

// TokenRepository implements repository.TokenRepository using Redis. Token
// values are stored without a TTL: token lifetime is governed by the expiry
// field, not by store eviction.
type TokenRepository struct {
	client *redis.Client
}

// NewTokenRepository creates a new Redis-backed token repository.
func NewTokenRepository(client *redis.Client) *TokenRepository {
	return &TokenRepository{client: client}
}

// Save writes the access token, and the refresh token and expiry only when
// present. The write is confirmed by reading the access token back; an
// unconfirmed write returns a storage-unavailable error. No partial state is
// reverted on failure.
func (r *TokenRepository) Save(ctx context.Context, token *domain.AuthToken) error {
	if err := r.client.Set(ctx, keyAccessToken, token.AccessToken, 0).Err(); err != nil {
		return apperrors.StorageUnavailable("access_token", err)
	}

	if token.RefreshToken != "" {
		if err := r.client.Set(ctx, keyRefreshToken, token.RefreshToken, 0).Err(); err != nil {
			return apperrors.StorageUnavailable("refresh_token", err)
		}
	}

	if token.ExpiresAt != nil {
		if err := r.client.Set(ctx, keyTokenExpiry, token.ExpiresAt.UTC().Format(time.RFC3339Nano), 0).Err(); err != nil {
			return apperrors.StorageUnavailable("token_expires_at", err)
		}
	}

	// Durability check: the access token must read back as written.
	stored, err := r.client.Get(ctx, keyAccessToken).Result()
	if err != nil {
		return apperrors.StorageUnavailable("access_token", err)
	}
	if stored != token.AccessToken {
		return apperrors.StorageUnavailable("access_token",
			fmt.Errorf("read-back mismatch: stored %d bytes, wrote %d bytes", len(stored), len(token.AccessToken)))
	}

	return nil
}

// Get returns the stored token, or nil when no (or an empty) access token is
// stored. Refresh token and expiry are read independently; their absence is
// not an error.
func (r *TokenRepository) Get(ctx context.Context) (*domain.AuthToken, error) {
	access, err := r.client.Get(ctx, keyAccessToken).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get access token: %w", err)
	}
	if access == "" {
		return nil, nil
	}

	token := &domain.AuthToken{AccessToken: access}

	refresh, err := r.client.Get(ctx, keyRefreshToken).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("redis get refresh token: %w", err)
	}
	token.RefreshToken = refresh

	raw, err := r.client.Get(ctx, keyTokenExpiry).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("redis get token expiry: %w", err)
	}
	if err == nil {
		expiry, parseErr := time.Parse(time.RFC3339Nano, raw)
		if parseErr != nil {
			return nil, fmt.Errorf("parse token expiry %q: %w", raw, parseErr)
		}
		token.ExpiresAt = &expiry
	}

	return token, nil
}

// Clear removes all three token keys unconditionally. Idempotent.
func (r *TokenRepository) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, keyAccessToken, keyRefreshToken, keyTokenExpiry).Err(); err != nil {
		return fmt.Errorf("redis del token keys: %w", err)
	}
	return nil
}

// Valid reports whether a stored token exists and is usable at now.
// Side-effect-free.
func (r *TokenRepository) Valid(ctx context.Context, now time.Time) (bool, error) {
	token, err := r.Get(ctx)
	if err != nil {
		return false, err
	}
	return token.Valid(now), nil
}
