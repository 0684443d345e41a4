package service

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wisersense-io/mate-session/internal/domain"
	redisrepo "github.com/wisersense-io/mate-session/internal/repository/redis"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type sessionEnv struct {
	mr      *miniredis.Miniredis
	repo    *redisrepo.SessionRepository
	manager *SessionManager
}

func newSessionEnv(t *testing.T) *sessionEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	repo := redisrepo.NewSessionRepository(client)
	manager := NewSessionManager(context.Background(), repo, newTestLogger())
	return &sessionEnv{mr: mr, repo: repo, manager: manager}
}

func testUser(defaultOrg string, memberships ...string) *domain.User {
	u := &domain.User{
		ID:             "user-001",
		Email:          "ada@example.com",
		OrganizationID: defaultOrg,
		TenantID:       "tenant-1",
	}
	for _, id := range memberships {
		u.Organizations = append(u.Organizations, domain.UserOrganization{ID: id})
	}
	return u
}

func TestSessionManager_StartsAnonymous(t *testing.T) {
	env := newSessionEnv(t)

	assert.Nil(t, env.manager.CurrentUser())
	assert.False(t, env.manager.IsLoggedIn())
	assert.Empty(t, env.manager.OrganizationIDValue())
}

func TestSessionManager_SetUser_DerivesFromDefaultOrganization(t *testing.T) {
	env := newSessionEnv(t)
	ctx := context.Background()

	env.manager.SetUser(ctx, testUser("org-default", "org-first", "org-second"))

	assert.True(t, env.manager.IsLoggedIn())
	assert.Equal(t, "org-default", env.manager.OrganizationIDValue())

	// Persisted alongside the snapshot.
	stored, err := env.repo.OrganizationID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "org-default", stored)
}

func TestSessionManager_SetUser_FallsBackToFirstMembership(t *testing.T) {
	env := newSessionEnv(t)

	env.manager.SetUser(context.Background(), testUser("", "org-first", "org-second"))

	assert.Equal(t, "org-first", env.manager.OrganizationIDValue())
}

func TestSessionManager_SetUser_NoOrganizations(t *testing.T) {
	env := newSessionEnv(t)
	ctx := context.Background()

	env.manager.SetUser(ctx, testUser(""))

	assert.True(t, env.manager.IsLoggedIn())
	assert.Empty(t, env.manager.OrganizationIDValue())

	stored, err := env.repo.OrganizationID(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestSessionManager_SetUser_OverwritesPriorChoice(t *testing.T) {
	env := newSessionEnv(t)
	ctx := context.Background()

	env.manager.SetOrganizationID(ctx, "org-manual")
	env.manager.SetUser(ctx, testUser("org-default"))

	assert.Equal(t, "org-default", env.manager.OrganizationIDValue())
}

func TestSessionManager_ClearUser_Idempotent(t *testing.T) {
	env := newSessionEnv(t)
	ctx := context.Background()

	env.manager.SetUser(ctx, testUser("org-default"))
	env.manager.ClearUser(ctx)

	assert.Nil(t, env.manager.CurrentUser())
	assert.Empty(t, env.manager.OrganizationIDValue())

	user, err := env.repo.LoadUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)

	stored, err := env.repo.OrganizationID(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)

	// Clearing again changes nothing and does not error.
	env.manager.ClearUser(ctx)
	assert.Nil(t, env.manager.CurrentUser())

	// A fresh restore from the cleared store is anonymous.
	restored := NewSessionManager(ctx, env.repo, newTestLogger())
	assert.False(t, restored.IsLoggedIn())
}

func TestSessionManager_SetOrganizationID(t *testing.T) {
	env := newSessionEnv(t)
	ctx := context.Background()

	env.manager.SetOrganizationID(ctx, "org-9")
	assert.Equal(t, "org-9", env.manager.OrganizationIDValue())

	stored, err := env.repo.OrganizationID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "org-9", stored)

	// Empty id removes the persisted key.
	env.manager.SetOrganizationID(ctx, "")
	assert.Empty(t, env.manager.OrganizationIDValue())

	stored, err = env.repo.OrganizationID(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestSessionManager_OrganizationID_SelfHeals(t *testing.T) {
	env := newSessionEnv(t)
	ctx := context.Background()

	env.manager.SetUser(ctx, testUser("org-default", "org-first"))
	env.manager.SetOrganizationID(ctx, "")

	// The mutating accessor re-derives from the user and persists the repair.
	got := env.manager.OrganizationID(ctx)
	assert.Equal(t, "org-default", got)
	assert.Equal(t, "org-default", env.manager.OrganizationIDValue())

	stored, err := env.repo.OrganizationID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "org-default", stored)
}

func TestSessionManager_OrganizationID_AnonymousStaysEmpty(t *testing.T) {
	env := newSessionEnv(t)

	assert.Empty(t, env.manager.OrganizationID(context.Background()))
}

func TestSessionManager_OrganizationIDValue_NoRepair(t *testing.T) {
	env := newSessionEnv(t)
	ctx := context.Background()

	env.manager.SetUser(ctx, testUser("org-default"))
	env.manager.SetOrganizationID(ctx, "")

	// The pure read must not trigger the repair.
	assert.Empty(t, env.manager.OrganizationIDValue())

	stored, err := env.repo.OrganizationID(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestSessionManager_RestoreRoundTrip(t *testing.T) {
	env := newSessionEnv(t)
	ctx := context.Background()

	user := testUser("org-default", "org-first")
	env.manager.SetUser(ctx, user)
	env.manager.SetOrganizationID(ctx, "org-switched")

	restored := NewSessionManager(ctx, env.repo, newTestLogger())

	require.NotNil(t, restored.CurrentUser())
	assert.Equal(t, user, restored.CurrentUser())
	assert.True(t, restored.IsLoggedIn())
	assert.Equal(t, "org-switched", restored.OrganizationIDValue())
}

func TestSessionManager_Restore_DoesNotRederiveOrganization(t *testing.T) {
	env := newSessionEnv(t)
	ctx := context.Background()

	env.manager.SetUser(ctx, testUser("org-default"))
	env.manager.SetOrganizationID(ctx, "")

	// Restore reloads what is stored; the missing id is not re-derived until
	// a caller asks for it through the mutating accessor.
	restored := NewSessionManager(ctx, env.repo, newTestLogger())

	require.NotNil(t, restored.CurrentUser())
	assert.Empty(t, restored.OrganizationIDValue())
}

func TestSessionManager_Restore_CorruptSnapshot(t *testing.T) {
	env := newSessionEnv(t)
	ctx := context.Background()

	require.NoError(t, env.mr.Set("mate:session:current_user", "{corrupt"))
	require.NoError(t, env.mr.Set("mate:session:current_organization_id", "org-1"))

	restored := NewSessionManager(ctx, env.repo, newTestLogger())

	assert.Nil(t, restored.CurrentUser())
	assert.False(t, restored.IsLoggedIn())
	assert.Empty(t, restored.OrganizationIDValue())
}
