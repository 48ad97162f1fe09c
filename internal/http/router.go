package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"gitea.jw6.us/james/tiptrack/internal/api"
	"gitea.jw6.us/james/tiptrack/internal/auth"
	"gitea.jw6.us/james/tiptrack/internal/config"
	"gitea.jw6.us/james/tiptrack/internal/http/csrf"
	"gitea.jw6.us/james/tiptrack/internal/http/ratelimit"
	"gitea.jw6.us/james/tiptrack/internal/logging"
	"gitea.jw6.us/james/tiptrack/internal/metrics"
	"gitea.jw6.us/james/tiptrack/internal/store"
	"gitea.jw6.us/james/tiptrack/internal/ui"
)

// Router is the application's HTTP handler. Stop releases the rate limiters'
// background goroutines.
type Router struct {
	http.Handler
	limiters []*ratelimit.IPRateLimiter
}

func (r *Router) Stop() {
	for _, l := range r.limiters {
		l.Stop()
	}
}

// NewRouter wires all HTTP routes for the dashboard pages and the JSON API.
func NewRouter(cfg *config.Config, store *store.Store, authService *auth.Service, logger *zap.Logger) *Router {
	r := chi.NewRouter()

	// Auth endpoints: 5 requests per second, burst of 10
	authRateLimiter := ratelimit.NewIPRateLimiter(rate.Limit(5), 10, 5*time.Minute, cfg.TrustedProxies)
	// API endpoints: 20 requests per second, burst of 50
	apiRateLimiter := ratelimit.NewIPRateLimiter(rate.Limit(20), 50, 5*time.Minute, cfg.TrustedProxies)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := store.HealthCheck(ctx); err != nil {
			http.Error(w, "unready", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.PrometheusEnabled {
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			metrics.Handler().ServeHTTP(w, r)
		})
	}

	uiHandler := ui.NewHandler(cfg, store, authService)
	apiHandler := api.NewHandler(store, authService)

	r.Route("/auth", func(r chi.Router) {
		r.Use(authRateLimiter.Middleware())

		// Token requests come from scripts without a browser cookie jar.
		r.Post("/token", apiHandler.IssueToken)

		r.Group(func(r chi.Router) {
			r.Use(csrf.Middleware(cfg))
			r.Get("/login", uiHandler.LoginPage)
			r.Post("/login", uiHandler.Login)
			r.Post("/signup", uiHandler.Signup)
			r.Get("/federated/{provider}", uiHandler.FederatedBegin)
			r.Get("/callback/{provider}", uiHandler.FederatedCallback)
			r.Post("/logout", uiHandler.Logout)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(authService.RequireSession)
		r.Use(csrf.Middleware(cfg))
		r.Get("/", uiHandler.Dashboard)
		r.Post("/shifts", uiHandler.SaveShift)
		r.Get("/shifts/export.xlsx", uiHandler.Export)
	})

	r.Route("/data", func(r chi.Router) {
		r.Use(apiRateLimiter.Middleware())
		r.Use(authService.RequireToken)
		r.Get("/", apiHandler.ListShifts)
		r.Post("/", apiHandler.CreateShift)
	})

	return &Router{Handler: r, limiters: []*ratelimit.IPRateLimiter{authRateLimiter, apiRateLimiter}}
}
