package models

import "time"

// Session is a server-side login. Only the hash of the cookie value is kept.
type Session struct {
	ID        int64
	UserID    int64
	TokenHash string
	Expires   time.Time
	CreatedAt time.Time
}

// Expired reports whether the session is no longer usable at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.Expires)
}
