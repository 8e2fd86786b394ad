package domain

import "time"

// SessionEventKind names a session lifecycle transition.
type SessionEventKind string

const (
	EventSignIn       SessionEventKind = "sign_in"
	EventSignInFailed SessionEventKind = "sign_in_failed"
	EventSignOut      SessionEventKind = "sign_out"
)

// SessionEvent is an entry of the session audit trail.
type SessionEvent struct {
	Kind      SessionEventKind
	SessionID string
	UserID    string
	Email     string
	Role      string
	Reason    string
	At        time.Time
}
