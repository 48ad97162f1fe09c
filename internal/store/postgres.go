package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"gitea.jw6.us/james/tiptrack/internal/metrics"
)

const pgUniqueViolation = "23505"

func observeDB(ctx context.Context, operation string) func() {
	start := time.Now()
	return func() {
		metrics.ObserveDBLatency(ctx, operation, start)
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

const userColumns = `id, email, password_hash, oauth_provider, oauth_subject, confirmed_at, created_at, last_login_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.OAuthProvider, &u.OAuthSubject, &u.ConfirmedAt, &u.CreatedAt, &u.LastLoginAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// userRepo implements UserRepository.
type userRepo struct {
	db DBTX
}

func (r *userRepo) CreateWithPassword(ctx context.Context, email, passwordHash string, confirmed bool) (*User, error) {
	defer observeDB(ctx, "users.create")()
	q := `INSERT INTO users (email, password_hash, confirmed_at)
VALUES ($1, $2, CASE WHEN $3 THEN NOW() END)
RETURNING ` + userColumns
	u, err := scanUser(r.db.QueryRow(ctx, q, normalizeEmail(email), passwordHash, confirmed))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// UpsertOAuthUser finds the user linked to (provider, subject). A first
// federated sign-in links to an existing password account only when the
// provider vouches for the email address.
func (r *userRepo) UpsertOAuthUser(ctx context.Context, provider, subject, email string, emailVerified bool) (*User, error) {
	defer observeDB(ctx, "users.upsert_oauth")()
	email = normalizeEmail(email)

	existing, err := scanUser(r.db.QueryRow(ctx, `UPDATE users SET last_login_at = NOW(), email = $3
WHERE oauth_provider = $1 AND oauth_subject = $2
RETURNING `+userColumns, provider, subject, email))
	if err == nil {
		return existing, nil
	}
	if isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("lookup oauth user: %w", err)
	}

	if !emailVerified {
		u, err := scanUser(r.db.QueryRow(ctx, `INSERT INTO users (email, oauth_provider, oauth_subject, last_login_at)
VALUES ($1, $2, $3, NOW())
RETURNING `+userColumns, email, provider, subject))
		if err != nil {
			if isUniqueViolation(err) {
				return nil, ErrDuplicate
			}
			return nil, fmt.Errorf("create oauth user: %w", err)
		}
		return u, nil
	}

	u, err := scanUser(r.db.QueryRow(ctx, `INSERT INTO users (email, oauth_provider, oauth_subject, confirmed_at, last_login_at)
VALUES ($1, $2, $3, NOW(), NOW())
ON CONFLICT (email) DO UPDATE SET
    oauth_provider = EXCLUDED.oauth_provider,
    oauth_subject = EXCLUDED.oauth_subject,
    confirmed_at = COALESCE(users.confirmed_at, NOW()),
    last_login_at = NOW()
WHERE users.oauth_subject IS NULL
RETURNING `+userColumns, email, provider, subject))
	if err != nil {
		// The conflict target exists but is linked to another identity.
		if errors.Is(err, pgx.ErrNoRows) || isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("link oauth user: %w", err)
	}
	return u, nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*User, error) {
	defer observeDB(ctx, "users.get_by_id")()
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	defer observeDB(ctx, "users.get_by_email")()
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, normalizeEmail(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (r *userRepo) TouchLastLogin(ctx context.Context, id int64) error {
	defer observeDB(ctx, "users.touch_last_login")()
	if _, err := r.db.Exec(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

// sessionRepo implements SessionRepository.
type sessionRepo struct {
	db DBTX
}

const sessionColumns = `id, user_id, user_agent, ip_address, created_at, expires_at, last_seen_at`

func scanSession(row pgx.Row) (*Session, error) {
	var s Session
	if err := row.Scan(&s.ID, &s.UserID, &s.UserAgent, &s.IPAddress, &s.CreatedAt, &s.ExpiresAt, &s.LastSeenAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) Create(ctx context.Context, session Session) (*Session, error) {
	defer observeDB(ctx, "sessions.create")()
	s, err := scanSession(r.db.QueryRow(ctx, `INSERT INTO sessions (id, user_id, user_agent, ip_address, expires_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+sessionColumns, session.ID, session.UserID, session.UserAgent, session.IPAddress, session.ExpiresAt))
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s, nil
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*Session, error) {
	defer observeDB(ctx, "sessions.get_by_id")()
	s, err := scanSession(r.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	defer observeDB(ctx, "sessions.delete")()
	if _, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *sessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	defer observeDB(ctx, "sessions.delete_expired")()
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
