package auth

import "time"

// Account is the credential view of a user row.
type Account struct {
	ID           int64
	Email        string
	PasswordHash string
	Active       bool
}

// SessionRecord describes a login persisted in user_sessions.
type SessionRecord struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	IP        string
	UserAgent string
}
