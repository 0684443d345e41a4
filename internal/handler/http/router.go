package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wisersense-io/mate-session/internal/repository"
	"github.com/wisersense-io/mate-session/internal/service"
	"github.com/wisersense-io/mate-session/pkg/health"
	"github.com/wisersense-io/mate-session/pkg/middleware"
)

// NewRouter creates a chi router with all session service routes registered.
func NewRouter(
	authService *service.AuthService,
	sessionManager *service.SessionManager,
	orgs repository.OrganizationRepository,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig middleware.CORSConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing("session"))
	r.Use(middleware.PrometheusMetrics("session"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	authHandler := NewAuthHandler(authService, logger)
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.Post("/verify-code", authHandler.VerifyCode)
	})

	sessionHandler := NewSessionHandler(sessionManager, authService, orgs, logger)
	r.Route("/api/v1/session", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/", sessionHandler.GetSession)
		r.Get("/organization", sessionHandler.GetOrganization)
		r.Put("/organization", sessionHandler.SetOrganization)
		r.Delete("/organization", sessionHandler.ClearOrganization)
	})

	r.Route("/api/v1/organizations", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/selected", sessionHandler.GetSelectedOrganization)
		r.Put("/selected", sessionHandler.SelectOrganization)
		r.Delete("/selected", sessionHandler.DeselectOrganization)
	})

	return r
}
