package session

import (
	"context"

	"audiosales/web-gateway/models"
)

// Session is the request-scoped view of the logged-in user.
type Session struct {
	User   *models.User
	Claims *Claims
}

// IsAuthenticated reports whether a user is attached.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.User != nil
}

// IsManager reports whether the user has the manager role. The signed
// claim must agree with the user cookie.
func (s *Session) IsManager() bool {
	return s.IsAuthenticated() && s.User.IsManager && (s.Claims == nil || s.Claims.IsManager)
}

// UserID returns the attached user's id, or 0.
func (s *Session) UserID() int {
	if !s.IsAuthenticated() {
		return 0
	}
	return s.User.ID
}

type ctxKey struct{}

// NewContext returns ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored in ctx, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}
