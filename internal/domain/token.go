package domain

import "time"

// AuthToken is the credential set issued by the upstream Mate API on login.
// RefreshToken and ExpiresAt are optional; some deployments issue
// non-expiring access tokens.
type AuthToken struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// Valid reports whether the token is usable at the given instant: the access
// token must be non-empty and the expiry, when present, must be strictly in
// the future.
func (t *AuthToken) Valid(now time.Time) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	if t.ExpiresAt == nil {
		return true
	}
	return t.ExpiresAt.After(now)
}
