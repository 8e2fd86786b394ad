package ports

import (
	"context"
	"time"

	"github.com/supplyhub/supplier-console/internal/core/domain"
)

// SessionCarrier is where the signed session artifact lives between requests
// (a cookie in production). Clear must make subsequent Read calls on the same
// carrier report nothing.
type SessionCarrier interface {
	Read() (string, bool)
	Write(value string, maxAge time.Duration)
	Clear()
}

// SessionCodec signs and verifies session artifacts.
type SessionCodec interface {
	Encode(s *domain.Session) (string, error)
	Decode(artifact string) (*domain.Session, error)
}

// RevocationStore remembers artifacts that were signed out before expiry.
type RevocationStore interface {
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// SessionStore obtains, holds and ends the authenticated identity.
type SessionStore interface {
	Authenticate(ctx context.Context, carrier SessionCarrier, creds domain.Credentials) (*domain.Session, error)
	Current(ctx context.Context, carrier SessionCarrier) *domain.Session
	Terminate(ctx context.Context, carrier SessionCarrier)
}
