package auth

import (
	"context"
	"sync"
	"time"

	"gitea.jw6.us/james/tiptrack/internal/config"
	"gitea.jw6.us/james/tiptrack/internal/store"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*store.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*store.User)}
}

func (f *fakeUserRepo) CreateWithPassword(ctx context.Context, email, passwordHash string, confirmed bool) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return nil, store.ErrDuplicate
		}
	}
	f.nextID++
	u := &store.User{ID: f.nextID, Email: email, PasswordHash: &passwordHash, CreatedAt: time.Now()}
	if confirmed {
		now := time.Now()
		u.ConfirmedAt = &now
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUserRepo) UpsertOAuthUser(ctx context.Context, provider, subject, email string, emailVerified bool) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.OAuthSubject != nil && *u.OAuthSubject == subject {
			return u, nil
		}
	}
	f.nextID++
	u := &store.User{ID: f.nextID, Email: email, OAuthProvider: &provider, OAuthSubject: &subject}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id], nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) TouchLastLogin(ctx context.Context, id int64) error { return nil }

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]store.Session
	getErr   error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]store.Session)}
}

func (f *fakeSessionRepo) Create(ctx context.Context, session store.Session) (*store.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session.CreatedAt = time.Now()
	session.LastSeenAt = session.CreatedAt
	f.sessions[session.ID] = session
	return &session, nil
}

func (f *fakeSessionRepo) GetByID(ctx context.Context, id string) (*store.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (f *fakeSessionRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

func (f *fakeSessionRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

func testConfig() *config.Config {
	cfg := &config.Config{BaseURL: "http://localhost:8080"}
	cfg.Session.Secret = "0123456789abcdef0123456789abcdef"
	cfg.Session.TTL = time.Hour
	cfg.Token.Secret = "fedcba9876543210fedcba9876543210"
	cfg.Token.TTL = 15 * time.Minute
	cfg.Providers = []config.ProviderConfig{{
		Name:         "google",
		IssuerURL:    "https://accounts.example.com",
		ClientID:     "client",
		ClientSecret: "secret",
	}}
	return cfg
}

func newTestService(cfg *config.Config) (*Service, *fakeUserRepo, *fakeSessionRepo) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	st := &store.Store{Users: users, Sessions: sessions}
	return NewService(cfg, st, NewSessionManager(cfg)), users, sessions
}
