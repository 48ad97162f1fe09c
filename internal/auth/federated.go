package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"gitea.jw6.us/james/tiptrack/internal/config"
	"gitea.jw6.us/james/tiptrack/internal/metrics"
	"gitea.jw6.us/james/tiptrack/internal/store"
)

// federatedClient is a discovered OpenID Connect provider.
type federatedClient struct {
	oauth    oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// providerSet discovers providers on first use so that an unreachable issuer
// does not keep the server from starting.
type providerSet struct {
	cfg     *config.Config
	mu      sync.Mutex
	clients map[string]*federatedClient
}

func newProviderSet(cfg *config.Config) *providerSet {
	return &providerSet{cfg: cfg, clients: make(map[string]*federatedClient)}
}

func (p *providerSet) get(ctx context.Context, name string) (*federatedClient, error) {
	pc, ok := p.cfg.Provider(name)
	if !ok {
		return nil, ErrUnknownProvider
	}
	key := strings.ToLower(pc.Name)

	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[key]; ok {
		return c, nil
	}

	provider, err := oidc.NewProvider(ctx, pc.IssuerURL)
	if err != nil {
		return nil, authErr("discover provider", ErrProvider, err)
	}
	scopes := pc.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "email", "profile"}
	}
	c := &federatedClient{
		oauth: oauth2.Config{
			ClientID:     pc.ClientID,
			ClientSecret: pc.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  strings.TrimRight(p.cfg.BaseURL, "/") + "/auth/callback/" + key,
			Scopes:       scopes,
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: pc.ClientID}),
	}
	p.clients[key] = c
	return c, nil
}

// BeginFederated redirects the browser to the provider's authorization
// endpoint. State and nonce travel in short-lived signed cookies.
func (s *Service) BeginFederated(w http.ResponseWriter, r *http.Request, provider string) error {
	client, err := s.providers.get(r.Context(), provider)
	if err != nil {
		return err
	}

	state, err := randomToken()
	if err != nil {
		return err
	}
	nonce, err := randomToken()
	if err != nil {
		return err
	}
	expires := s.now().Add(federatedCookieTTL)
	if err := s.sessions.set(w, stateCookieName, state, expires); err != nil {
		return fmt.Errorf("set state cookie: %w", err)
	}
	if err := s.sessions.set(w, nonceCookieName, nonce, expires); err != nil {
		return fmt.Errorf("set nonce cookie: %w", err)
	}

	http.Redirect(w, r, client.oauth.AuthCodeURL(state, oidc.Nonce(nonce)), http.StatusFound)
	return nil
}

type idTokenClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

// HandleFederatedCallback completes a federated sign-in started by
// BeginFederated and starts a session for the linked user.
func (s *Service) HandleFederatedCallback(w http.ResponseWriter, r *http.Request, provider string) (*Session, error) {
	session, err := s.federatedCallback(w, r, provider)
	if !errors.Is(err, ErrUnknownProvider) {
		metrics.AuthAttempt("federated", err == nil)
	}
	return session, err
}

func (s *Service) federatedCallback(w http.ResponseWriter, r *http.Request, provider string) (*Session, error) {
	ctx := r.Context()
	client, err := s.providers.get(ctx, provider)
	if err != nil {
		return nil, err
	}

	wantState, ok := s.sessions.get(r, stateCookieName)
	nonce, nonceOK := s.sessions.get(r, nonceCookieName)
	s.sessions.clear(w, stateCookieName)
	s.sessions.clear(w, nonceCookieName)

	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		return nil, authErr("federated callback", ErrProvider, fmt.Errorf("provider returned %q", e))
	}
	if !ok || !nonceOK || q.Get("state") == "" || q.Get("state") != wantState {
		return nil, authErr("federated callback", ErrProvider, errors.New("state mismatch"))
	}

	token, err := client.oauth.Exchange(ctx, q.Get("code"))
	if err != nil {
		return nil, authErr("federated callback", ErrProvider, err)
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, authErr("federated callback", ErrProvider, errors.New("no id_token in token response"))
	}
	idToken, err := client.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, authErr("federated callback", ErrProvider, err)
	}
	if idToken.Nonce != nonce {
		return nil, authErr("federated callback", ErrProvider, errors.New("nonce mismatch"))
	}

	var claims idTokenClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, authErr("federated callback", ErrProvider, err)
	}
	if claims.Email == "" {
		return nil, authErr("federated callback", ErrProvider, errors.New("id token carries no email"))
	}

	user, err := s.store.Users.UpsertOAuthUser(ctx, strings.ToLower(provider), idToken.Subject, claims.Email, claims.EmailVerified)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, authErr("federated callback", ErrDuplicateAccount, nil)
		}
		return nil, err
	}
	return s.startSession(ctx, w, user)
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
