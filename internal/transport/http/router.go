package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the public endpoints. The query and write routes share the
// request-id and optional auth middleware; health and metrics stay open.
func NewRouter(h *Handler, jwtSigningKey string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestID)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", h.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if jwtSigningKey != "" {
			r.Use(RequireAuth(jwtSigningKey, h.logger))
		}
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				h.logRequest(req)
				next.ServeHTTP(w, req)
			})
		})

		r.Post("/marks", h.handleProcessMark)
		r.Get("/reputation/context", h.handleReputationContext)
		r.Get("/reputation/count", h.handleReputationCount)
		r.Get("/reputation/changelog", h.handleReputationChangelog)
	})

	return r
}
