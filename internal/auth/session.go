package auth

import (
	"crypto/sha256"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/securecookie"

	"gitea.jw6.us/james/tiptrack/internal/config"
)

const (
	sessionCookieName = "tiptrack_session"
	stateCookieName   = "tiptrack_oauth_state"
	nonceCookieName   = "tiptrack_oauth_nonce"

	federatedCookieTTL = 10 * time.Minute
)

// Session is the signed-in state handed to handlers.
type Session struct {
	ID     string
	UserID int64
	Email  string
	// Provisional is set while the account's email address is unconfirmed.
	Provisional bool
	ExpiresAt   time.Time
}

// SessionManager signs and reads the cookies that carry session ids and the
// federated sign-in state.
type SessionManager struct {
	codec  *securecookie.SecureCookie
	ttl    time.Duration
	secure bool
}

func NewSessionManager(cfg *config.Config) *SessionManager {
	hash := sha256.Sum256([]byte(cfg.Session.Secret))
	hashKey := hash[:]

	// Derive an AES-256 sized block key to avoid invalid key length errors.
	blockKey := hash[:]
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(cfg.Session.TTL.Seconds()))
	sc.SetSerializer(securecookie.JSONEncoder{})

	secure := true
	if base, err := url.Parse(cfg.BaseURL); err == nil && base.Scheme != "https" {
		secure = false
	}

	return &SessionManager{codec: sc, ttl: cfg.Session.TTL, secure: secure}
}

// Issue stores the session id in the session cookie.
func (m *SessionManager) Issue(w http.ResponseWriter, sessionID string, expires time.Time) error {
	return m.set(w, sessionCookieName, sessionID, expires)
}

// Clear removes the session cookie.
func (m *SessionManager) Clear(w http.ResponseWriter) {
	m.clear(w, sessionCookieName)
}

// SessionID returns the id carried by the request's session cookie.
func (m *SessionManager) SessionID(r *http.Request) (string, bool) {
	return m.get(r, sessionCookieName)
}

func (m *SessionManager) set(w http.ResponseWriter, name, value string, expires time.Time) error {
	encoded, err := m.codec.Encode(name, value)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    encoded,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (m *SessionManager) get(r *http.Request, name string) (string, bool) {
	c, err := r.Cookie(name)
	if err != nil {
		return "", false
	}
	var value string
	if err := m.codec.Decode(name, c.Value, &value); err != nil || value == "" {
		return "", false
	}
	return value, true
}

func (m *SessionManager) clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
	})
}
