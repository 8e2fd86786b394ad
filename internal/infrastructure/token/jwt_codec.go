// Package token signs and verifies the session artifact stored in the
// session cookie. Artifacts are HS256 JWTs keyed by a secret-derived key.
package token

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"

	"github.com/supplyhub/supplier-console/internal/core/domain"
)

const keyInfo = "supplier-console session signing key"

var (
	ErrEmptySecret = errors.New("session secret is empty")
	ErrMalformed   = errors.New("session artifact is missing identity claims")
)

type sessionClaims struct {
	UserID       string `json:"id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Name         string `json:"name"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	jwt.RegisteredClaims
}

// JWTCodec implements ports.SessionCodec.
type JWTCodec struct {
	key []byte
	now func() time.Time
}

// DeriveKey stretches the configured secret into a 32-byte signing key.
func DeriveKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive signing key: %w", err)
	}
	return key, nil
}

// NewJWTCodec returns a codec keyed by secret.
func NewJWTCodec(secret string) (*JWTCodec, error) {
	key, err := DeriveKey(secret)
	if err != nil {
		return nil, err
	}
	return &JWTCodec{key: key, now: time.Now}, nil
}

// WithClock overrides the verification clock. Used by tests.
func (c *JWTCodec) WithClock(now func() time.Time) *JWTCodec {
	c.now = now
	return c
}

func (c *JWTCodec) Encode(s *domain.Session) (string, error) {
	claims := sessionClaims{
		UserID:       s.UserID,
		Email:        s.Email,
		Role:         s.Role,
		Name:         s.DisplayName,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(s.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

func (c *JWTCodec) Decode(artifact string) (*domain.Session, error) {
	var claims sessionClaims
	tkn, err := jwt.ParseWithClaims(artifact, &claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return c.key, nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(c.now))
	if err != nil {
		return nil, fmt.Errorf("verify session: %w", err)
	}
	if !tkn.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.UserID == "" || claims.AccessToken == "" {
		return nil, ErrMalformed
	}

	s := &domain.Session{
		ID:           claims.ID,
		UserID:       claims.UserID,
		Email:        claims.Email,
		Role:         claims.Role,
		DisplayName:  claims.Name,
		AccessToken:  claims.AccessToken,
		RefreshToken: claims.RefreshToken,
	}
	if claims.IssuedAt != nil {
		s.IssuedAt = claims.IssuedAt.UTC()
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.UTC()
	}
	return s, nil
}
