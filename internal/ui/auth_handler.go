package ui

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"gitea.jw6.us/james/tiptrack/internal/auth"
	httperrors "gitea.jw6.us/james/tiptrack/internal/http/errors"
)

// LoginPage shows the sign-in and sign-up forms. Signed-in visitors go
// straight to the dashboard.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if s, err := h.resolveSession(r); err == nil && s != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.renderLogin(w, r, http.StatusOK, "", "")
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int, email, errMsg string) {
	providers := make([]string, 0, len(h.cfg.Providers))
	for _, p := range h.cfg.Providers {
		providers = append(providers, strings.ToLower(p.Name))
	}
	data := h.withFlash(r, map[string]any{
		"Title":     "Sign in",
		"Email":     email,
		"Providers": providers,
	})
	if errMsg != "" {
		data["FlashError"] = errMsg
	}
	h.renderStatus(w, r, status, "login.html", data)
}

// Login handles the password sign-in form.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid form")
		return
	}
	email := strings.TrimSpace(r.PostFormValue("email"))
	r = clientContext(r)

	_, err := h.authService.SignIn(r.Context(), w, email, r.PostFormValue("password"))
	if err != nil {
		h.authFailed(w, r, email, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// Signup handles the sign-up form.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid form")
		return
	}
	email := strings.TrimSpace(r.PostFormValue("email"))
	r = clientContext(r)

	session, err := h.authService.SignUp(r.Context(), w, email, r.PostFormValue("password"))
	if err != nil {
		h.authFailed(w, r, email, err)
		return
	}
	status := "Welcome to TipTrack!"
	if session.Provisional {
		status = "Account created. Check your e-mail to confirm your address."
	}
	h.redirect(w, r, "/", map[string]string{"status": status})
}

func (h *Handler) authFailed(w http.ResponseWriter, r *http.Request, email string, err error) {
	var authErr *auth.AuthError
	if !errors.As(err, &authErr) {
		httperrors.InternalError(w, r, err, "authentication failed")
		return
	}
	httperrors.LogInfo(r, "authentication rejected: "+authErr.Error())
	status := http.StatusUnauthorized
	if errors.Is(err, auth.ErrDuplicateAccount) {
		status = http.StatusConflict
	}
	h.renderLogin(w, r, status, email, auth.Message(err))
}

// FederatedBegin redirects to the identity provider named in the path.
func (h *Handler) FederatedBegin(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	err := h.authService.BeginFederated(w, r, provider)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrUnknownProvider):
		http.NotFound(w, r)
	default:
		httperrors.LogError(r, "begin federated sign-in", err)
		h.redirect(w, r, "/auth/login", map[string]string{"error": auth.Message(err)})
	}
}

// FederatedCallback completes a federated sign-in.
func (h *Handler) FederatedCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	r = clientContext(r)

	_, err := h.authService.HandleFederatedCallback(w, r, provider)
	var authErr *auth.AuthError
	switch {
	case err == nil:
		http.Redirect(w, r, "/", http.StatusFound)
	case errors.Is(err, auth.ErrUnknownProvider):
		http.NotFound(w, r)
	case errors.As(err, &authErr):
		httperrors.LogInfo(r, "federated sign-in rejected: "+authErr.Error())
		h.redirect(w, r, "/auth/login", map[string]string{"error": auth.Message(err)})
	default:
		httperrors.InternalError(w, r, err, "federated callback")
	}
}

// Logout ends the session. The dashboard then starts over without one.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.SignOut(w, r); err != nil {
		httperrors.LogError(r, "sign out", err)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}
