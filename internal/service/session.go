package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/wisersense-io/mate-session/internal/domain"
	"github.com/wisersense-io/mate-session/internal/repository"
)

// SessionManager owns the in-memory session state: the current user and the
// session-active organization id. It has two states, anonymous
// (CurrentUser() == nil) and authenticated, and is the single writer of the
// persisted user snapshot and current-organization keys.
//
// All methods are safe for concurrent use; a single mutex serializes access
// to the in-memory state. Persistence of the snapshot and organization id is
// best-effort: failures are logged and the in-memory state still changes.
// Only the token store (owned by AuthService) surfaces storage errors.
//
// The session-active organization id is deliberately a separate persisted
// value from the organization switcher's selected/user-default keys; the two
// concerns are never synchronized.
type SessionManager struct {
	mu     sync.Mutex
	repo   repository.SessionRepository
	logger *slog.Logger

	currentUser  *domain.User
	currentOrgID string
}

// NewSessionManager creates a session manager and restores any persisted
// session. A missing or corrupt snapshot silently yields the anonymous
// state; a corrupt snapshot is additionally logged.
func NewSessionManager(ctx context.Context, repo repository.SessionRepository, logger *slog.Logger) *SessionManager {
	m := &SessionManager{
		repo:   repo,
		logger: logger,
	}
	m.restore(ctx)
	return m
}

// restore loads the persisted snapshot and the stored organization id. The
// organization id is reloaded as stored, never re-derived from the snapshot.
func (m *SessionManager) restore(ctx context.Context) {
	user, err := m.repo.LoadUser(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrCorruptSnapshot) {
			m.logger.WarnContext(ctx, "discarding corrupt session snapshot",
				slog.String("error", err.Error()),
			)
		} else {
			m.logger.WarnContext(ctx, "session snapshot unavailable",
				slog.String("error", err.Error()),
			)
		}
		return
	}
	if user == nil {
		return
	}

	orgID, err := m.repo.OrganizationID(ctx)
	if err != nil {
		m.logger.WarnContext(ctx, "stored organization id unavailable",
			slog.String("error", err.Error()),
		)
	}

	m.currentUser = user
	m.currentOrgID = orgID

	m.logger.InfoContext(ctx, "session restored",
		slog.String("user_id", user.ID),
		slog.String("organization_id", orgID),
	)
}

// SetUser transitions to the authenticated state. The session-active
// organization is derived from the user (default organization field, else
// first listed organization) and persisted together with the snapshot. The
// derivation is unconditional; any prior organization choice is overwritten.
func (m *SessionManager) SetUser(ctx context.Context, user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.currentUser = user
	m.setOrganizationIDLocked(ctx, user.DefaultOrganizationID())

	if err := m.repo.SaveUser(ctx, user); err != nil {
		m.logger.ErrorContext(ctx, "failed to persist session snapshot",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}
}

// ClearUser transitions to the anonymous state and removes the persisted
// snapshot and organization id. Idempotent.
func (m *SessionManager) ClearUser(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.currentUser = nil
	m.currentOrgID = ""

	if err := m.repo.DeleteUser(ctx); err != nil {
		m.logger.ErrorContext(ctx, "failed to delete session snapshot",
			slog.String("error", err.Error()),
		)
	}
	if err := m.repo.DeleteOrganizationID(ctx); err != nil {
		m.logger.ErrorContext(ctx, "failed to delete stored organization id",
			slog.String("error", err.Error()),
		)
	}
}

// CurrentUser returns the authenticated user, or nil in the anonymous state.
func (m *SessionManager) CurrentUser() *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentUser
}

// IsLoggedIn reports whether the session is authenticated.
func (m *SessionManager) IsLoggedIn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentUser != nil
}

// SetOrganizationID sets the session-active organization. A non-empty id is
// persisted; an empty id removes the persisted key. Callable independently
// of SetUser, e.g. for an explicit organization switch.
func (m *SessionManager) SetOrganizationID(ctx context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setOrganizationIDLocked(ctx, id)
}

func (m *SessionManager) setOrganizationIDLocked(ctx context.Context, id string) {
	m.currentOrgID = id

	if id == "" {
		if err := m.repo.DeleteOrganizationID(ctx); err != nil {
			m.logger.ErrorContext(ctx, "failed to delete stored organization id",
				slog.String("error", err.Error()),
			)
		}
		return
	}

	if err := m.repo.SaveOrganizationID(ctx, id); err != nil {
		m.logger.ErrorContext(ctx, "failed to persist organization id",
			slog.String("organization_id", id),
			slog.String("error", err.Error()),
		)
	}
}

// OrganizationID returns the session-active organization id. This is a
// mutating accessor: when the in-memory value is empty but a user is
// authenticated, the id is re-derived from the user and persisted before it
// is returned. The repair exists because the organization id can be cleared
// (SetOrganizationID with an empty id) while the session stays
// authenticated. Use OrganizationIDValue for a side-effect-free read.
func (m *SessionManager) OrganizationID(ctx context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.currentOrgID != "" {
		return m.currentOrgID
	}
	if m.currentUser == nil {
		return ""
	}

	derived := m.currentUser.DefaultOrganizationID()
	if derived != "" {
		m.logger.InfoContext(ctx, "repaired missing organization id",
			slog.String("user_id", m.currentUser.ID),
			slog.String("organization_id", derived),
		)
	}
	m.setOrganizationIDLocked(ctx, derived)
	return derived
}

// OrganizationIDValue returns the in-memory organization id without the
// self-repair side effect.
func (m *SessionManager) OrganizationIDValue() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentOrgID
}
