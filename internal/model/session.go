// internal/model/session.go
package model

import "time"

// Session is the server-side half of a login. Persistent sessions back a
// cookie with an explicit expiry; the rest live as browser-session cookies.
type Session struct {
	Token      string    `db:"token" json:"-"`
	UserID     int       `db:"user_id" json:"user_id"`
	UserName   string    `db:"user_name" json:"user_name"`
	Persistent bool      `db:"persistent" json:"persistent"`
	ExpiresAt  time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
