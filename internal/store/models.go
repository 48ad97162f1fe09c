package store

import "time"

// User is a person who signed up with a password or a federated provider.
type User struct {
	ID            int64
	Email         string
	PasswordHash  *string
	OAuthProvider *string
	OAuthSubject  *string
	ConfirmedAt   *time.Time
	CreatedAt     time.Time
	LastLoginAt   *time.Time
}

// Confirmed reports whether the user's email address has been verified.
func (u *User) Confirmed() bool {
	return u.ConfirmedAt != nil
}

// Session is a server-side web session.
type Session struct {
	ID         string
	UserID     int64
	UserAgent  *string
	IPAddress  *string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	LastSeenAt time.Time
}
