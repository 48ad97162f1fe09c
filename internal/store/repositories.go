package store

import (
	"context"

	"gitea.jw6.us/james/tiptrack/internal/shifts"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// CreateWithPassword returns ErrDuplicate when the email is taken.
	CreateWithPassword(ctx context.Context, email, passwordHash string, confirmed bool) (*User, error)
	UpsertOAuthUser(ctx context.Context, provider, subject, email string, emailVerified bool) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	TouchLastLogin(ctx context.Context, id int64) error
}

// SessionRepository stores web sessions.
type SessionRepository interface {
	Create(ctx context.Context, session Session) (*Session, error)
	GetByID(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// ShiftRepository reads and appends shift records. Records are never
// updated or deleted.
type ShiftRepository interface {
	// ListByOwner returns the owner's records ascending by date. No rows is
	// an empty slice, not an error.
	ListByOwner(ctx context.Context, ownerID int64) ([]shifts.Record, error)
	Insert(ctx context.Context, draft shifts.Draft) (*shifts.Record, error)
}
