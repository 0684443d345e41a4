package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/wisersense-io/mate-session/internal/repository"
	"github.com/wisersense-io/mate-session/internal/service"
	"github.com/wisersense-io/mate-session/pkg/httputil"
	"github.com/wisersense-io/mate-session/pkg/validator"
)

// SessionHandler handles HTTP requests for session and organization state.
type SessionHandler struct {
	session *service.SessionManager
	auth    *service.AuthService
	orgs    repository.OrganizationRepository
	logger  *slog.Logger
}

// NewSessionHandler creates a new session HTTP handler.
func NewSessionHandler(
	session *service.SessionManager,
	auth *service.AuthService,
	orgs repository.OrganizationRepository,
	logger *slog.Logger,
) *SessionHandler {
	return &SessionHandler{session: session, auth: auth, orgs: orgs, logger: logger}
}

// --- DTOs ---

// SessionResponse describes the current session state.
type SessionResponse struct {
	LoggedIn       bool   `json:"logged_in"`
	CanResume      bool   `json:"can_resume"`
	User           any    `json:"user,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`
}

// OrganizationRequest is the JSON request body for organization updates.
type OrganizationRequest struct {
	OrganizationID string `json:"organization_id" validate:"required,min=1,max=100"`
}

// OrganizationResponse describes an organization id value.
type OrganizationResponse struct {
	OrganizationID string `json:"organization_id,omitempty"`
}

// ActiveOrganizationResponse describes the switcher's resolved state.
type ActiveOrganizationResponse struct {
	SelectedID    string `json:"selected_id,omitempty"`
	UserDefaultID string `json:"user_default_id,omitempty"`
	ActiveID      string `json:"active_id,omitempty"`
}

// --- Session handlers ---

// GetSession handles GET /api/v1/session
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	resp := SessionResponse{
		LoggedIn:  h.session.IsLoggedIn(),
		CanResume: h.auth.CanResume(r.Context()),
	}
	if user := h.session.CurrentUser(); user != nil {
		resp.User = user
		resp.OrganizationID = h.session.OrganizationID(r.Context())
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: resp})
}

// GetOrganization handles GET /api/v1/session/organization
func (h *SessionHandler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: OrganizationResponse{OrganizationID: h.session.OrganizationID(r.Context())},
	})
}

// SetOrganization handles PUT /api/v1/session/organization
func (h *SessionHandler) SetOrganization(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req OrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	h.session.SetOrganizationID(r.Context(), req.OrganizationID)

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: OrganizationResponse{OrganizationID: req.OrganizationID},
	})
}

// ClearOrganization handles DELETE /api/v1/session/organization
func (h *SessionHandler) ClearOrganization(w http.ResponseWriter, r *http.Request) {
	h.session.SetOrganizationID(r.Context(), "")
	w.WriteHeader(http.StatusNoContent)
}

// --- Organization switcher handlers ---

// GetSelectedOrganization handles GET /api/v1/organizations/selected
func (h *SessionHandler) GetSelectedOrganization(w http.ResponseWriter, r *http.Request) {
	selected, err := h.orgs.Selected(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	userDefault, err := h.orgs.UserDefault(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	active, err := h.orgs.Active(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: ActiveOrganizationResponse{
			SelectedID:    selected,
			UserDefaultID: userDefault,
			ActiveID:      active,
		},
	})
}

// SelectOrganization handles PUT /api/v1/organizations/selected
func (h *SessionHandler) SelectOrganization(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req OrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	if err := h.orgs.SaveSelected(r.Context(), req.OrganizationID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: OrganizationResponse{OrganizationID: req.OrganizationID},
	})
}

// DeselectOrganization handles DELETE /api/v1/organizations/selected
func (h *SessionHandler) DeselectOrganization(w http.ResponseWriter, r *http.Request) {
	if err := h.orgs.RemoveSelected(r.Context()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
