package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	keySelectedOrganization    = keyPrefix + "selected_organization_id"
	keyUserDefaultOrganization = keyPrefix + "current_user_organization_id"
)

// OrganizationRepository implements repository.OrganizationRepository using
// Redis. The selected and user-default keys are independent: clearing one
// never touches the other, and Active never merges or cross-validates them.
type OrganizationRepository struct {
	client *redis.Client
}

// NewOrganizationRepository creates a new Redis-backed organization repository.
func NewOrganizationRepository(client *redis.Client) *OrganizationRepository {
	return &OrganizationRepository{client: client}
}

// SaveSelected stores the user's explicit organization choice.
func (r *OrganizationRepository) SaveSelected(ctx context.Context, id string) error {
	if err := r.client.Set(ctx, keySelectedOrganization, id, 0).Err(); err != nil {
		return fmt.Errorf("redis set selected organization: %w", err)
	}
	return nil
}

// Selected returns the explicit organization choice, or empty when none.
func (r *OrganizationRepository) Selected(ctx context.Context) (string, error) {
	return r.get(ctx, keySelectedOrganization)
}

// RemoveSelected deletes the explicit organization choice.
func (r *OrganizationRepository) RemoveSelected(ctx context.Context) error {
	if err := r.client.Del(ctx, keySelectedOrganization).Err(); err != nil {
		return fmt.Errorf("redis del selected organization: %w", err)
	}
	return nil
}

// SaveUserDefault stores the account-default organization fallback.
func (r *OrganizationRepository) SaveUserDefault(ctx context.Context, id string) error {
	if err := r.client.Set(ctx, keyUserDefaultOrganization, id, 0).Err(); err != nil {
		return fmt.Errorf("redis set user default organization: %w", err)
	}
	return nil
}

// UserDefault returns the account-default organization, or empty when none.
func (r *OrganizationRepository) UserDefault(ctx context.Context) (string, error) {
	return r.get(ctx, keyUserDefaultOrganization)
}

// RemoveUserDefault deletes the account-default organization.
func (r *OrganizationRepository) RemoveUserDefault(ctx context.Context) error {
	if err := r.client.Del(ctx, keyUserDefaultOrganization).Err(); err != nil {
		return fmt.Errorf("redis del user default organization: %w", err)
	}
	return nil
}

// Active resolves the organization to scope requests to: the explicit
// selection always wins over the account default.
func (r *OrganizationRepository) Active(ctx context.Context) (string, error) {
	selected, err := r.Selected(ctx)
	if err != nil {
		return "", err
	}
	if selected != "" {
		return selected, nil
	}
	return r.UserDefault(ctx)
}

// ClearAll removes both organization keys. Used on logout.
func (r *OrganizationRepository) ClearAll(ctx context.Context) error {
	if err := r.client.Del(ctx, keySelectedOrganization, keyUserDefaultOrganization).Err(); err != nil {
		return fmt.Errorf("redis del organization keys: %w", err)
	}
	return nil
}

func (r *OrganizationRepository) get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}
