// Package session implements the cookie-carried session: token signing and
// verification, route protection rules and the guard decision.
package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"audiosales/web-gateway/models"
)

var (
	// ErrMissingSecret means the server has no signing secret configured.
	ErrMissingSecret = errors.New("session: signing secret is not configured")
	// ErrInvalidToken covers malformed, tampered or wrongly signed tokens.
	ErrInvalidToken = errors.New("session: invalid token")
	// ErrTokenExpired is returned for tokens past their expiry.
	ErrTokenExpired = errors.New("session: token expired")
)

const issuer = "audiosales-web-gateway"

// Claims is the token payload.
type Claims struct {
	UserID    int  `json:"uid"`
	IsManager bool `json:"mgr"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokensOption customises Tokens.
type TokensOption func(*Tokens)

// WithClock overrides the clock used for issuing and verifying.
func WithClock(now func() time.Time) TokensOption {
	return func(t *Tokens) {
		t.now = now
	}
}

// NewTokens returns a signer/verifier. An empty secret is accepted; every
// operation then fails with ErrMissingSecret.
func NewTokens(secret string, ttl time.Duration, opts ...TokensOption) *Tokens {
	t := &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Configured reports whether a secret is present.
func (t *Tokens) Configured() bool {
	return t != nil && len(t.secret) > 0
}

// TTL returns the lifetime of issued tokens.
func (t *Tokens) TTL() time.Duration {
	return t.ttl
}

// Issue signs a token for u and returns it with its expiry.
func (t *Tokens) Issue(u models.User) (string, time.Time, error) {
	if !t.Configured() {
		return "", time.Time{}, ErrMissingSecret
	}
	now := t.now()
	exp := now.Add(t.ttl)
	claims := Claims{
		UserID:    u.ID,
		IsManager: u.IsManager,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(u.ID),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("session: sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks signature, algorithm and expiry of raw.
func (t *Tokens) Verify(raw string) (*Claims, error) {
	if !t.Configured() {
		return nil, ErrMissingSecret
	}
	if raw == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (interface{}, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
