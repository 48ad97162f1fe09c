package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"gitea.jw6.us/james/tiptrack/internal/config"
	httperrors "gitea.jw6.us/james/tiptrack/internal/http/errors"
	"gitea.jw6.us/james/tiptrack/internal/metrics"
	"gitea.jw6.us/james/tiptrack/internal/store"
)

const minPasswordLength = 8

// Service encapsulates password and federated sign-in, web sessions and API
// tokens.
type Service struct {
	cfg       *config.Config
	store     *store.Store
	sessions  *SessionManager
	providers *providerSet
	now       func() time.Time
}

func NewService(cfg *config.Config, store *store.Store, sessions *SessionManager) *Service {
	return &Service{
		cfg:       cfg,
		store:     store,
		sessions:  sessions,
		providers: newProviderSet(cfg),
		now:       time.Now,
	}
}

// SignUp creates a password account and signs it in.
func (s *Service) SignUp(ctx context.Context, w http.ResponseWriter, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		metrics.AuthAttempt("signup", false)
		return nil, authErr("sign up", ErrInvalidCredentials, errors.New("malformed email"))
	}
	if len(password) < minPasswordLength {
		metrics.AuthAttempt("signup", false)
		return nil, authErr("sign up", ErrInvalidCredentials, fmt.Errorf("password shorter than %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.Users.CreateWithPassword(ctx, email, string(hash), !s.cfg.RequireEmailConfirmation)
	if err != nil {
		metrics.AuthAttempt("signup", false)
		if errors.Is(err, store.ErrDuplicate) {
			return nil, authErr("sign up", ErrDuplicateAccount, nil)
		}
		return nil, err
	}

	metrics.AuthAttempt("signup", true)
	return s.startSession(ctx, w, user)
}

// SignIn checks a password and starts a session.
func (s *Service) SignIn(ctx context.Context, w http.ResponseWriter, email, password string) (*Session, error) {
	user, err := s.checkPassword(ctx, email, password)
	metrics.AuthAttempt("password", err == nil)
	if err != nil {
		return nil, err
	}
	if err := s.store.Users.TouchLastLogin(ctx, user.ID); err != nil {
		zap.L().Warn("failed to record last login", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	return s.startSession(ctx, w, user)
}

func (s *Service) checkPassword(ctx context.Context, email, password string) (*store.User, error) {
	user, err := s.store.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	// Federated-only accounts have no password to check.
	if user == nil || user.PasswordHash == nil {
		return nil, authErr("sign in", ErrInvalidCredentials, nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, authErr("sign in", ErrInvalidCredentials, nil)
	}
	return user, nil
}

func (s *Service) startSession(ctx context.Context, w http.ResponseWriter, user *store.User) (*Session, error) {
	client := clientFromContext(ctx)
	row := store.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.cfg.Session.TTL),
	}
	if client.UserAgent != "" {
		row.UserAgent = &client.UserAgent
	}
	if client.IPAddress != "" {
		row.IPAddress = &client.IPAddress
	}

	created, err := s.store.Sessions.Create(ctx, row)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Issue(w, created.ID, created.ExpiresAt); err != nil {
		return nil, fmt.Errorf("issue session cookie: %w", err)
	}

	return &Session{
		ID:          created.ID,
		UserID:      user.ID,
		Email:       user.Email,
		Provisional: !user.Confirmed(),
		ExpiresAt:   created.ExpiresAt,
	}, nil
}

// SignOut deletes the server-side session and clears the cookie. Signing out
// without a session is not an error.
func (s *Service) SignOut(w http.ResponseWriter, r *http.Request) error {
	defer s.sessions.Clear(w)
	id, ok := s.sessions.SessionID(r)
	if !ok {
		return nil
	}
	return s.store.Sessions.Delete(r.Context(), id)
}

// CurrentSession resolves the request's session cookie without modifying any
// state.
func (s *Service) CurrentSession(r *http.Request) (*Session, bool) {
	session, err := s.ResolveSession(r)
	if err != nil {
		zap.L().Warn("session lookup failed", zap.Error(err))
		return nil, false
	}
	return session, session != nil
}

// ResolveSession is CurrentSession with lookup failures reported. A missing
// or expired session is (nil, nil).
func (s *Service) ResolveSession(r *http.Request) (*Session, error) {
	id, ok := s.sessions.SessionID(r)
	if !ok {
		return nil, nil
	}
	ctx := r.Context()
	row, err := s.store.Sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil || !row.ExpiresAt.After(s.now()) {
		return nil, nil
	}
	user, err := s.store.Users.GetByID(ctx, row.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	return &Session{
		ID:          row.ID,
		UserID:      user.ID,
		Email:       user.Email,
		Provisional: !user.Confirmed(),
		ExpiresAt:   row.ExpiresAt,
	}, nil
}

// RequireSession puts the current session on the request context or
// redirects to the login page. A failed lookup is a 500, not a sign-out.
func (s *Service) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := s.ResolveSession(r)
		if err != nil {
			httperrors.InternalError(w, r, err, "session lookup failed")
			return
		}
		if session == nil {
			http.Redirect(w, r, "/auth/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

// PruneSessions deletes expired session rows until ctx is cancelled.
func (s *Service) PruneSessions(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.store.Sessions.DeleteExpired(ctx)
			if err != nil {
				zap.L().Warn("failed to prune sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				zap.L().Debug("pruned expired sessions", zap.Int64("count", n))
			}
		}
	}
}
