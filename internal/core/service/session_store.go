package service

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/supplyhub/supplier-console/internal/core/domain"
	"github.com/supplyhub/supplier-console/internal/core/ports"
	"github.com/supplyhub/supplier-console/internal/pkg/metrics"
	"github.com/supplyhub/supplier-console/internal/pkg/validate"
)

var _ ports.SessionStore = (*SessionStore)(nil)

// SessionStoreConfig tunes session lifetime. Zero values select the defaults.
type SessionStoreConfig struct {
	MaxAge time.Duration
	Now    func() time.Time
}

// SessionStore implements sign-in, session lookup and sign-out on top of a
// signed artifact kept in a SessionCarrier.
type SessionStore struct {
	gateway ports.AuthGateway
	codec   ports.SessionCodec
	revoked ports.RevocationStore
	audit   ports.AuditRepository
	maxAge  time.Duration
	now     func() time.Time
	log     zerolog.Logger
}

// NewSessionStore returns a SessionStore. revoked and audit may be nil, in
// which case sign-out relies on clearing the carrier and no trail is kept.
func NewSessionStore(
	gateway ports.AuthGateway,
	codec ports.SessionCodec,
	revoked ports.RevocationStore,
	audit ports.AuditRepository,
	cfg SessionStoreConfig,
	log zerolog.Logger,
) *SessionStore {
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = domain.DefaultSessionMaxAge
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &SessionStore{
		gateway: gateway,
		codec:   codec,
		revoked: revoked,
		audit:   audit,
		maxAge:  cfg.MaxAge,
		now:     cfg.Now,
		log:     log,
	}
}

// Authenticate exchanges creds for a session and stores it in carrier. On any
// failure the carrier is left untouched and no session exists afterwards that
// did not exist before.
func (s *SessionStore) Authenticate(ctx context.Context, carrier ports.SessionCarrier, creds domain.Credentials) (*domain.Session, error) {
	if err := validate.Struct(creds); err != nil {
		metrics.SignInsTotal.WithLabelValues(string(domain.KindValidation)).Inc()
		return nil, &domain.APIError{Kind: domain.KindValidation, Status: http.StatusUnprocessableEntity, Message: err.Error()}
	}

	grant, err := s.gateway.Login(ctx, creds)
	if err != nil {
		kind := domain.KindOf(err)
		if kind == "" {
			kind = domain.KindServer
		}
		metrics.SignInsTotal.WithLabelValues(string(kind)).Inc()
		s.log.Info().Str("email", creds.Email).Str("kind", string(kind)).Msg("sign-in rejected")
		s.record(ctx, &domain.SessionEvent{Kind: domain.EventSignInFailed, Email: creds.Email, Reason: err.Error()})
		return nil, err
	}

	// A sign-in replaces whatever session the carrier held.
	if prev := s.decode(carrier); prev != nil {
		s.revoke(ctx, prev)
	}

	now := s.now().UTC()
	sess := &domain.Session{
		ID:           uuid.NewString(),
		UserID:       grant.User.ID,
		Email:        grant.User.Email,
		Role:         grant.User.Role,
		DisplayName:  grant.User.DisplayName(),
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		IssuedAt:     now,
		ExpiresAt:    now.Add(s.maxAge),
	}

	artifact, err := s.codec.Encode(sess)
	if err != nil {
		metrics.SignInsTotal.WithLabelValues(string(domain.KindServer)).Inc()
		s.log.Error().Err(err).Str("user_id", sess.UserID).Msg("failed to sign session")
		return nil, &domain.APIError{Kind: domain.KindServer, Status: http.StatusInternalServerError, Message: "could not create session", Err: err}
	}
	carrier.Write(artifact, s.maxAge)

	metrics.SignInsTotal.WithLabelValues("ok").Inc()
	s.log.Info().Str("session_id", sess.ID).Str("user_id", sess.UserID).Str("role", sess.Role).Msg("signed in")
	s.record(ctx, &domain.SessionEvent{
		Kind:      domain.EventSignIn,
		SessionID: sess.ID,
		UserID:    sess.UserID,
		Email:     sess.Email,
		Role:      sess.Role,
	})
	return sess, nil
}

// Current returns the valid session held by carrier, or nil. It performs no
// network call to the marketplace API.
func (s *SessionStore) Current(ctx context.Context, carrier ports.SessionCarrier) *domain.Session {
	sess := s.decode(carrier)
	if sess == nil {
		return nil
	}
	if sess.Expired(s.now()) {
		return nil
	}
	if s.revoked != nil {
		revoked, err := s.revoked.IsRevoked(ctx, sess.ID)
		if err != nil {
			s.log.Warn().Err(err).Str("session_id", sess.ID).Msg("revocation check failed, accepting session")
		} else if revoked {
			return nil
		}
	}
	return sess
}

// Terminate ends the session held by carrier. It is idempotent and never fails.
func (s *SessionStore) Terminate(ctx context.Context, carrier ports.SessionCarrier) {
	sess := s.decode(carrier)
	carrier.Clear()
	if sess == nil {
		return
	}

	s.revoke(ctx, sess)
	s.log.Info().Str("session_id", sess.ID).Str("user_id", sess.UserID).Msg("signed out")
	s.record(ctx, &domain.SessionEvent{
		Kind:      domain.EventSignOut,
		SessionID: sess.ID,
		UserID:    sess.UserID,
		Email:     sess.Email,
		Role:      sess.Role,
	})
}

func (s *SessionStore) decode(carrier ports.SessionCarrier) *domain.Session {
	artifact, ok := carrier.Read()
	if !ok || artifact == "" {
		return nil
	}
	sess, err := s.codec.Decode(artifact)
	if err != nil {
		s.log.Debug().Err(err).Msg("discarding unreadable session artifact")
		return nil
	}
	return sess
}

func (s *SessionStore) revoke(ctx context.Context, sess *domain.Session) {
	if s.revoked == nil {
		return
	}
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return
	}
	if err := s.revoked.Revoke(ctx, sess.ID, ttl); err != nil {
		s.log.Warn().Err(err).Str("session_id", sess.ID).Msg("failed to revoke session")
	}
}

// record writes an audit entry. Failures are logged and never surface.
func (s *SessionStore) record(ctx context.Context, e *domain.SessionEvent) {
	if s.audit == nil {
		return
	}
	e.At = s.now().UTC()
	if err := s.audit.InsertSessionEvent(ctx, e); err != nil {
		s.log.Warn().Err(err).Str("kind", string(e.Kind)).Msg("failed to write session event")
	}
}
