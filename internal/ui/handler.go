package ui

import (
	"html/template"
	"net/http"

	"gitea.jw6.us/james/tiptrack/internal/auth"
	"gitea.jw6.us/james/tiptrack/internal/config"
	"gitea.jw6.us/james/tiptrack/internal/store"
)

// Handler serves server-rendered HTML pages.
type Handler struct {
	cfg         *config.Config
	store       *store.Store
	authService *auth.Service
	templates   map[string]*template.Template
}

func NewHandler(cfg *config.Config, store *store.Store, authService *auth.Service) *Handler {
	return &Handler{cfg: cfg, store: store, authService: authService, templates: templates}
}

// resolveSession prefers a session already placed on the context by
// RequireSession and falls back to the session cookie.
func (h *Handler) resolveSession(r *http.Request) (*auth.Session, error) {
	if s, ok := auth.SessionFromContext(r.Context()); ok {
		return s, nil
	}
	if h.authService == nil {
		return nil, nil
	}
	return h.authService.ResolveSession(r)
}

type option struct {
	Value string
	Label string
}

var (
	chartOptions    = []option{{Value: "tipsOverTime", Label: "Tips Over Time"}}
	categoryOptions = []option{{Value: "all", Label: "All Categories"}}
)
