package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitea.jw6.us/james/tiptrack/internal/config"
)

const testKeyID = "test-key"

// testIssuer is an OpenID Connect provider serving discovery, a JWKS and a
// token endpoint that answers every code with an ID token for one subject.
type testIssuer struct {
	*httptest.Server
	key *rsa.PrivateKey

	mu    sync.Mutex
	nonce string
}

func newTestIssuer(t *testing.T) *testIssuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	iss := &testIssuer{key: key}
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, map[string]any{
			"issuer":                                iss.URL,
			"authorization_endpoint":                iss.URL + "/authorize",
			"token_endpoint":                        iss.URL + "/token",
			"jwks_uri":                              iss.URL + "/jwks",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	mux.HandleFunc("/jwks", func(w http.ResponseWriter, r *http.Request) {
		pub := iss.key.PublicKey
		writeTestJSON(w, map[string]any{"keys": []map[string]string{{
			"kty": "RSA",
			"alg": "RS256",
			"use": "sig",
			"kid": testKeyID,
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}}})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.PostForm.Get("code") == "" {
			http.Error(w, `{"error":"invalid_request"}`, http.StatusBadRequest)
			return
		}
		idToken, err := iss.idToken()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeTestJSON(w, map[string]any{
			"access_token": "access",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     idToken,
		})
	})
	iss.Server = httptest.NewServer(mux)
	t.Cleanup(iss.Close)
	return iss
}

func (iss *testIssuer) setNonce(nonce string) {
	iss.mu.Lock()
	defer iss.mu.Unlock()
	iss.nonce = nonce
}

func (iss *testIssuer) idToken() (string, error) {
	iss.mu.Lock()
	nonce := iss.nonce
	iss.mu.Unlock()

	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":            iss.URL,
		"sub":            "subject-42",
		"aud":            "client",
		"iat":            now.Unix(),
		"exp":            now.Add(time.Hour).Unix(),
		"nonce":          nonce,
		"email":          "fed@example.com",
		"email_verified": true,
	})
	tok.Header["kid"] = testKeyID
	return tok.SignedString(iss.key)
}

func writeTestJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func federatedConfig(issuerURL string) *config.Config {
	cfg := testConfig()
	cfg.Providers = []config.ProviderConfig{{
		Name:         "google",
		IssuerURL:    issuerURL,
		ClientID:     "client",
		ClientSecret: "secret",
	}}
	return cfg
}

// beginAgainst starts a federated sign-in and returns the recorder holding
// the state and nonce cookies plus the authorization redirect.
func beginAgainst(t *testing.T, svc *Service) (*httptest.ResponseRecorder, url.Values) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/federated/google", nil)
	require.NoError(t, svc.BeginFederated(rec, req, "google"))

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	return rec, loc.Query()
}

func TestFederatedCallbackStartsSession(t *testing.T) {
	iss := newTestIssuer(t)
	svc, users, sessions := newTestService(federatedConfig(iss.URL))

	begin, params := beginAgainst(t, svc)
	require.NotEmpty(t, params.Get("nonce"))
	iss.setNonce(params.Get("nonce"))

	cb := requestWithCookies(begin, "/auth/callback/google?code=abc&state="+url.QueryEscape(params.Get("state")))
	rec := httptest.NewRecorder()
	session, err := svc.HandleFederatedCallback(rec, cb, "google")
	require.NoError(t, err)
	assert.Equal(t, "fed@example.com", session.Email)
	assert.Equal(t, 1, sessions.count())

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "callback did not issue a session cookie")

	current, ok := svc.CurrentSession(requestWithCookies(rec, "/"))
	require.True(t, ok)
	assert.Equal(t, session.ID, current.ID)

	user, err := users.GetByID(context.Background(), session.UserID)
	require.NoError(t, err)
	require.NotNil(t, user)
	require.NotNil(t, user.OAuthSubject)
	assert.Equal(t, "subject-42", *user.OAuthSubject)
	assert.Equal(t, "google", *user.OAuthProvider)
}

func TestFederatedCallbackRejectsNonceMismatch(t *testing.T) {
	iss := newTestIssuer(t)
	svc, _, sessions := newTestService(federatedConfig(iss.URL))

	begin, params := beginAgainst(t, svc)
	iss.setNonce("replayed-nonce")

	cb := requestWithCookies(begin, "/auth/callback/google?code=abc&state="+url.QueryEscape(params.Get("state")))
	rec := httptest.NewRecorder()
	_, err := svc.HandleFederatedCallback(rec, cb, "google")
	require.ErrorIs(t, err, ErrProvider)
	assert.Zero(t, sessions.count())
	for _, c := range rec.Result().Cookies() {
		assert.NotEqual(t, sessionCookieName, c.Name, "no session cookie expected")
	}
}
