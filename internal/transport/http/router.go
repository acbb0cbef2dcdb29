// Package httptransport is the thin HTTP layer. Handlers decode, delegate
// to domain services, and encode; no business logic lives here.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blckdfly/sphyre/internal/platform/middleware"
)

// HealthChecker is anything with a liveness probe worth aggregating under
// /healthz (postgres pool, redis client).
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps bundles everything the router mounts.
type Deps struct {
	Auth          *AuthHandler
	Credentials   *CredentialHandler
	Presentations *PresentationHandler
	Issuer        *IssuerHandler
	Schemas       *SchemaHandler
	Consents      *ConsentHandler
	Sessions      middleware.SessionValidator
	Health        []HealthChecker
	Logger        *slog.Logger
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	r.Get("/healthz", handleHealth(deps.Health))
	r.Handle("/metrics", promhttp.Handler())

	deps.Auth.Register(r)

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth(deps.Sessions, deps.Logger))
		deps.Auth.RegisterProtected(protected)
		deps.Credentials.Register(protected)
		deps.Presentations.Register(protected)
		deps.Issuer.Register(protected)
		deps.Schemas.Register(protected)
		deps.Consents.Register(protected)
	})

	return r
}

func handleHealth(checks []HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		for _, check := range checks {
			if err := check.Health(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
