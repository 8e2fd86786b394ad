package domain

import (
	"context"
	"strings"
	"time"
)

const (
	RoleSupplier = "supplier"
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// DefaultSessionMaxAge is the absolute lifetime of a session artifact.
const DefaultSessionMaxAge = 30 * 24 * time.Hour

// Credentials is the sign-in form submitted by the user.
type Credentials struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is the authenticated identity carried by the signed session cookie.
// It is created by a successful credential exchange and destroyed on sign-out
// or expiry; nothing else mutates it.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	DisplayName  string    `json:"name"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	IssuedAt     time.Time `json:"issuedAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Expired reports whether the session's absolute lifetime has elapsed at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// BackendUser is the user record returned by the remote login endpoint.
type BackendUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// DisplayName joins first and last name the way the dashboard shows it.
func (u BackendUser) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// LoginGrant is the token pair and identity handed back by a successful login.
type LoginGrant struct {
	AccessToken  string
	RefreshToken string
	User         BackendUser
}

type sessionCtxKey struct{}

// WithSession returns a copy of ctx carrying s. A nil session is stored as-is
// so that a terminated session shadows any parent value.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, s)
}

// SessionFromContext returns the session placed on ctx by WithSession.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, _ := ctx.Value(sessionCtxKey{}).(*Session)
	return s, s != nil
}
