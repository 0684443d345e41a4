// Package gateway implements the HTTP client for the upstream Mate API. It
// is the only component that talks to the network; the session core consumes
// it through the service.AuthGateway contract.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wisersense-io/mate-session/internal/domain"
	apperrors "github.com/wisersense-io/mate-session/pkg/errors"
	"github.com/wisersense-io/mate-session/pkg/httpclient"
)

// Client calls the Mate API auth endpoints through a circuit-breaker-wrapped
// HTTP client.
type Client struct {
	baseURL string
	http    *httpclient.CircuitBreakerClient
	logger  *slog.Logger
}

// NewClient creates a new Mate API client. baseURL must not end with a slash.
func NewClient(baseURL string, hc *httpclient.CircuitBreakerClient, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    hc,
		logger:  logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User  *domain.User      `json:"user"`
	Token *domain.AuthToken `json:"token"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type verifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type errorEnvelope struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Login authenticates against the Mate API and returns the user together
// with the issued token. When the response omits the token expiry it is
// recovered from the access token's exp claim.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.User, *domain.AuthToken, error) {
	resp, err := c.post(ctx, "/api/v1/auth/login", loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, c.mapError(resp, "login")
	}

	var body loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, nil, fmt.Errorf("decode login response: %w", err)
	}
	if body.User == nil || body.Token == nil || body.Token.AccessToken == "" {
		return nil, nil, fmt.Errorf("login response missing user or token")
	}

	if body.Token.ExpiresAt == nil {
		body.Token.ExpiresAt = tokenExpiry(body.Token.AccessToken)
	}

	c.logger.InfoContext(ctx, "upstream login succeeded",
		slog.String("user_id", body.User.ID),
	)

	return body.User, body.Token, nil
}

// ForgotPassword requests a password-reset email for the given address.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	resp, err := c.post(ctx, "/api/v1/auth/forgot-password", forgotPasswordRequest{Email: email})
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return c.mapError(resp, "forgot password")
	}
	return nil
}

// VerifyCode checks a verification code previously sent to the user.
func (c *Client) VerifyCode(ctx context.Context, email, code string) error {
	resp, err := c.post(ctx, "/api/v1/auth/verify-code", verifyCodeRequest{Email: email, Code: code})
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return c.mapError(resp, "verify code")
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (*http.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	resp, err := c.http.Post(ctx, c.baseURL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		c.logger.WarnContext(ctx, "mate api unreachable",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.ServiceUnavailable("mate api is unreachable")
	}
	return resp, nil
}

// mapError translates a non-2xx Mate API response into an AppError,
// preserving the upstream message when the body matches the standard error
// envelope.
func (c *Client) mapError(resp *http.Response, operation string) error {
	message := operation + " failed"

	var envelope errorEnvelope
	if json.NewDecoder(resp.Body).Decode(&envelope) == nil && envelope.Error != nil {
		message = envelope.Error.Message
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperrors.Unauthorized(message)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperrors.InvalidInput(message)
	case http.StatusNotFound:
		return apperrors.Unauthorized(message)
	default:
		return apperrors.ServiceUnavailable(fmt.Sprintf("mate api returned status %d", resp.StatusCode))
	}
}

// tokenExpiry extracts the exp claim from a JWT access token. The token is
// not signature-verified here: the upstream API is trusted, the claim is
// only used to schedule local expiry. Returns nil for opaque tokens.
func tokenExpiry(accessToken string) *time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	t := exp.Time.UTC()
	return &t
}
