package repository

import (
	"context"
	"errors"
	"time"

	"github.com/wisersense-io/mate-session/internal/domain"
)

// ErrCorruptSnapshot is returned by SessionRepository.LoadUser when a stored
// user snapshot exists but cannot be decoded. Callers collapse it to "no
// session", but the distinction from plain absence is kept so it can be
// logged and tested.
var ErrCorruptSnapshot = errors.New("corrupt session snapshot")

// TokenRepository persists the authentication token issued by the upstream
// Mate API. The three token fields live under separate keys: Save never
// clears a refresh token or expiry that the new token omits; a full
// replacement requires Clear first.
type TokenRepository interface {
	// Save writes the token and confirms the write with a read-back check.
	// An unconfirmed write is the single storage error that propagates out
	// of the session core.
	Save(ctx context.Context, token *domain.AuthToken) error

	// Get returns the stored token, or nil when no access token is stored.
	// Refresh token and expiry are read independently and may be absent even
	// when the access token is present.
	Get(ctx context.Context) (*domain.AuthToken, error)

	// Clear removes all three token keys unconditionally. Idempotent.
	Clear(ctx context.Context) error

	// Valid reports whether a stored token exists and is usable at now.
	Valid(ctx context.Context, now time.Time) (bool, error)
}

// OrganizationRepository persists the organization switcher state: an
// explicit user selection and the account-default fallback. The two keys are
// independent; clearing one never touches the other.
type OrganizationRepository interface {
	SaveSelected(ctx context.Context, id string) error
	Selected(ctx context.Context) (string, error)
	RemoveSelected(ctx context.Context) error

	SaveUserDefault(ctx context.Context, id string) error
	UserDefault(ctx context.Context) (string, error)
	RemoveUserDefault(ctx context.Context) error

	// Active resolves the organization the application should scope requests
	// to: the explicit selection when present, else the account default.
	Active(ctx context.Context) (string, error)

	// ClearAll removes both keys. Used on logout.
	ClearAll(ctx context.Context) error
}

// SessionRepository persists the session manager's state: the serialized
// user snapshot and the session-active organization id. These keys are
// deliberately separate from the OrganizationRepository keys; see the
// session manager docs.
type SessionRepository interface {
	SaveUser(ctx context.Context, user *domain.User) error

	// LoadUser returns the stored snapshot, nil when absent, or an error
	// wrapping ErrCorruptSnapshot when the snapshot cannot be decoded.
	LoadUser(ctx context.Context) (*domain.User, error)

	DeleteUser(ctx context.Context) error

	SaveOrganizationID(ctx context.Context, id string) error
	OrganizationID(ctx context.Context) (string, error)
	DeleteOrganizationID(ctx context.Context) error
}
