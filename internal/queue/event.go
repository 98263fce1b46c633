// Package queue defines the audit messages exchanged over the message
// broker and the background consumer that records them.
package queue

// Audit event kinds.
const (
	EventLogin               = "login"
	EventLogout              = "logout"
	EventSessionsInvalidated = "sessions_invalidated"
	EventUserCreated         = "user_created"
	EventUserUpdated         = "user_updated"
	EventUserDeleted         = "user_deleted"
)

// AuthEvent is published for every auth lifecycle change. It carries enough
// context for downstream consumers to build an audit trail without querying
// the directory.
type AuthEvent struct {
	Kind       string `json:"kind"`
	Email      string `json:"email,omitempty"`       // affected user
	UserID     string `json:"user_id,omitempty"`     // affected user's id
	ActorEmail string `json:"actor_email,omitempty"` // authenticated principal, when distinct
	Host       string `json:"host,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
	OccurredAt string `json:"occurred_at"` // RFC3339
}
