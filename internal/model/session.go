package model

import "time"

// Session models the HAS_SESSION relationship plus its Session node. The ID
// is the SHA-256 hex digest of the client's token; the raw token is never
// persisted, so a stolen database dump cannot be replayed as cookies.
//
// Host and UserAgent record the client context the session was created from
// and are used to detect a re-login from the same browser.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userID"`
	ExpiresAt time.Time `json:"expiresAt"`
	Host      string    `json:"host,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
}

// Expired reports whether the session is logically absent at the given time.
// A session at exactly its expiry instant is already expired.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
