// Package redis provides the Redis-backed implementations of the session
// store interfaces. All keys share a fixed prefix so a single Redis database
// can host several sidecar instances side by side during development.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/wisersense-io/mate-session/internal/domain"
	"github.com/wisersense-io/mate-session/internal/repository"
)

const keyPrefix = "mate:session:"

const (
	keyCurrentUser           = keyPrefix + "current_user"
	keyCurrentOrganizationID = keyPrefix + "current_organization_id"
)

// SessionRepository implements repository.SessionRepository using Redis.
// The user snapshot is stored as JSON under a fixed key.
type SessionRepository struct {
	client *redis.Client
}

// NewSessionRepository creates a new Redis-backed session repository.
func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

// SaveUser persists the user snapshot.
func (r *SessionRepository) SaveUser(ctx context.Context, user *domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user snapshot: %w", err)
	}
	if err := r.client.Set(ctx, keyCurrentUser, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set user snapshot: %w", err)
	}
	return nil
}

// LoadUser returns the stored snapshot. Absence yields (nil, nil); a stored
// value that does not decode yields an error wrapping
// repository.ErrCorruptSnapshot.
func (r *SessionRepository) LoadUser(ctx context.Context) (*domain.User, error) {
	data, err := r.client.Get(ctx, keyCurrentUser).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get user snapshot: %w", err)
	}

	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrCorruptSnapshot, err)
	}

	return &user, nil
}

// DeleteUser removes the user snapshot. Idempotent.
func (r *SessionRepository) DeleteUser(ctx context.Context) error {
	if err := r.client.Del(ctx, keyCurrentUser).Err(); err != nil {
		return fmt.Errorf("redis del user snapshot: %w", err)
	}
	return nil
}

// SaveOrganizationID persists the session-active organization id.
func (r *SessionRepository) SaveOrganizationID(ctx context.Context, id string) error {
	if err := r.client.Set(ctx, keyCurrentOrganizationID, id, 0).Err(); err != nil {
		return fmt.Errorf("redis set current organization: %w", err)
	}
	return nil
}

// OrganizationID returns the session-active organization id, or empty when
// none is stored.
func (r *SessionRepository) OrganizationID(ctx context.Context) (string, error) {
	val, err := r.client.Get(ctx, keyCurrentOrganizationID).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get current organization: %w", err)
	}
	return val, nil
}

// DeleteOrganizationID removes the session-active organization id. Idempotent.
func (r *SessionRepository) DeleteOrganizationID(ctx context.Context) error {
	if err := r.client.Del(ctx, keyCurrentOrganizationID).Err(); err != nil {
		return fmt.Errorf("redis del current organization: %w", err)
	}
	return nil
}
