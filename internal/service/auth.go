package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/wisersense-io/mate-session/internal/domain"
	"github.com/wisersense-io/mate-session/internal/event"
	"github.com/wisersense-io/mate-session/internal/repository"
	apperrors "github.com/wisersense-io/mate-session/pkg/errors"
)

// AuthGateway is the upstream Mate API contract consumed by the auth service.
type AuthGateway interface {
	Login(ctx context.Context, email, password string) (*domain.User, *domain.AuthToken, error)
	ForgotPassword(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) error
}

// AuthService orchestrates the login lifecycle: upstream authentication,
// token persistence, session state, and the bootstrap decision.
type AuthService struct {
	gateway  AuthGateway
	tokens   repository.TokenRepository
	orgs     repository.OrganizationRepository
	session  *SessionManager
	producer *event.Producer
	logger   *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	gateway AuthGateway,
	tokens repository.TokenRepository,
	orgs repository.OrganizationRepository,
	session *SessionManager,
	producer *event.Producer,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		gateway:  gateway,
		tokens:   tokens,
		orgs:     orgs,
		session:  session,
		producer: producer,
		logger:   logger,
	}
}

// LoginInput holds the parameters for login.
type LoginInput struct {
	Email    string
	Password string
}

// Login authenticates against the Mate API, persists the issued token, and
// transitions the session to the authenticated state. The token write is the
// single storage operation whose failure propagates; in that case the
// session is not changed and the caller sees the storage error.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.User, error) {
	if input.Email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, apperrors.InvalidInput("password is required")
	}

	user, token, err := s.gateway.Login(ctx, input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	// A stale refresh token or expiry must not survive a new login.
	if err := s.tokens.Clear(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to clear previous token",
			slog.String("error", err.Error()),
		)
	}
	if err := s.tokens.Save(ctx, token); err != nil {
		return nil, err
	}

	s.session.SetUser(ctx, user)

	// Event publication is best-effort and must not fail the login.
	if err := s.producer.PublishSessionStarted(ctx, user, s.session.OrganizationIDValue()); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish session.started event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Logout clears the token, the session state, and the organization switcher
// state. Idempotent: logging out of an anonymous session is a no-op.
func (s *AuthService) Logout(ctx context.Context) error {
	userID := ""
	if u := s.session.CurrentUser(); u != nil {
		userID = u.ID
	}

	if err := s.tokens.Clear(ctx); err != nil {
		return err
	}

	s.session.ClearUser(ctx)

	if err := s.orgs.ClearAll(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to clear organization selection",
			slog.String("error", err.Error()),
		)
	}

	if userID != "" {
		if err := s.producer.PublishSessionEnded(ctx, userID); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish session.ended event",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
		s.logger.InfoContext(ctx, "user logged out", slog.String("user_id", userID))
	}

	return nil
}

// ForgotPassword requests a password-reset email via the Mate API.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return apperrors.InvalidInput("email is required")
	}
	return s.gateway.ForgotPassword(ctx, email)
}

// VerifyCode validates a verification code via the Mate API.
func (s *AuthService) VerifyCode(ctx context.Context, email, code string) error {
	if email == "" {
		return apperrors.InvalidInput("email is required")
	}
	if code == "" {
		return apperrors.InvalidInput("code is required")
	}
	return s.gateway.VerifyCode(ctx, email, code)
}

// StoredToken returns the persisted token, or nil when none is stored.
func (s *AuthService) StoredToken(ctx context.Context) (*domain.AuthToken, error) {
	return s.tokens.Get(ctx)
}

// HasStoredToken reports whether a token is persisted, regardless of expiry.
func (s *AuthService) HasStoredToken(ctx context.Context) (bool, error) {
	token, err := s.tokens.Get(ctx)
	if err != nil {
		return false, err
	}
	return token != nil, nil
}

// ClearToken removes the persisted token without touching the session state.
func (s *AuthService) ClearToken(ctx context.Context) error {
	return s.tokens.Clear(ctx)
}

// TokenValid reports whether a stored token exists and has not expired.
func (s *AuthService) TokenValid(ctx context.Context) (bool, error) {
	return s.tokens.Valid(ctx, time.Now().UTC())
}

// CanResume is the session bootstrap decision: the authenticated flow is
// shown iff a stored token is present (presence only, no validity re-check)
// and the session is authenticated. The two stores are not transactionally
// linked, so a torn state (token without session, or session without token)
// resolves to false and the caller falls back to the login flow.
func (s *AuthService) CanResume(ctx context.Context) bool {
	token, err := s.tokens.Get(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "stored token unavailable",
			slog.String("error", err.Error()),
		)
		return false
	}
	return token != nil && s.session.IsLoggedIn()
}
