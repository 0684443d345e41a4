package domain

import "time"

// UserOrganization is one organization a user belongs to, in the order the
// upstream API returns them.
type UserOrganization struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TenantID   string `json:"tenant_id"`
	TenantName string `json:"tenant_name"`
}

// User represents the authenticated Mate user. It is produced by the auth
// gateway on login and held by the session manager for the process lifetime;
// the same shape is serialized as the local session snapshot.
type User struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	UserName        string `json:"user_name"`
	Email           string `json:"email"`
	Role            int    `json:"role"`
	JobType         string `json:"job_type"`
	DefaultLanguage string `json:"default_language"`
	TimeZone        string `json:"time_zone"`
	IsActive        bool   `json:"is_active"`
	IsConfirmed     bool   `json:"is_confirmed"`
	HasTempPassword bool   `json:"has_temp_password"`

	// OrganizationID is the user's default organization. It is not required
	// to appear in Organizations; no referential check is enforced.
	OrganizationID string             `json:"organization_id,omitempty"`
	TenantID       string             `json:"tenant_id,omitempty"`
	Organizations  []UserOrganization `json:"organizations"`

	LastSigninAt *time.Time `json:"last_signin_at,omitempty"`

	EmailNotifications bool `json:"email_notifications"`
	PushNotifications  bool `json:"push_notifications"`
}

// DefaultOrganizationID resolves the organization a fresh session should be
// scoped to: the explicit default organization field wins, else the first
// entry of Organizations, else empty.
func (u *User) DefaultOrganizationID() string {
	if u == nil {
		return ""
	}
	if u.OrganizationID != "" {
		return u.OrganizationID
	}
	if len(u.Organizations) > 0 {
		return u.Organizations[0].ID
	}
	return ""
}
