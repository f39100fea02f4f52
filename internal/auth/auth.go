// Package auth orchestrates login, logout, registration and session restore
// on top of the backend user API and the session tokens.
package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"audiosales/web-gateway/internal/apperr"
	"audiosales/web-gateway/internal/backend"
	"audiosales/web-gateway/internal/retry"
	"audiosales/web-gateway/internal/session"
	"audiosales/web-gateway/models"
)

// Backend is the subset of the backend client auth needs.
type Backend interface {
	Login(ctx context.Context, creds models.Credentials) (models.User, error)
	NotifyLogout(ctx context.Context, userID int) error
	Register(ctx context.Context, reg models.Registration) (models.User, error)
	GetUser(ctx context.Context, userID int) (models.User, error)
}

// Login is a successful login: the cookies to set and where to go next.
type Login struct {
	User       models.User `json:"user"`
	Token      string      `json:"-"`
	ExpiresAt  time.Time   `json:"expires_at"`
	UserCookie string      `json:"-"`
	Redirect   string      `json:"redirect"`
}

// RestoreCooldown is how long a failed restore suppresses further attempts
// for the same user.
const RestoreCooldown = 30 * time.Second

// Service implements the auth flows.
type Service struct {
	backend Backend
	tokens  *session.Tokens
	rules   session.Rules
	restore retry.Policy
	logger  *logrus.Logger
	now     func() time.Time

	mu          sync.Mutex
	failedUntil map[int]time.Time
}

// NewService returns a service; restore is the retry policy for Restore.
func NewService(b Backend, tokens *session.Tokens, rules session.Rules, restore retry.Policy, logger *logrus.Logger) *Service {
	return &Service{
		backend:     b,
		tokens:      tokens,
		rules:       rules,
		restore:     restore,
		logger:      logger,
		now:         time.Now,
		failedUntil: make(map[int]time.Time),
	}
}

// Tokens exposes the token issuer.
func (s *Service) Tokens() *session.Tokens { return s.tokens }

// Login verifies credentials with the backend and issues the session.
func (s *Service) Login(ctx context.Context, creds models.Credentials) (*Login, error) {
	if !s.tokens.Configured() {
		return nil, apperr.Config(session.ErrMissingSecret)
	}
	u, err := s.backend.Login(ctx, creds)
	switch {
	case errors.Is(err, backend.ErrInvalidCredentials):
		return nil, apperr.Auth(apperr.KeyInvalidCredentials, err)
	case err != nil:
		return nil, apperr.Upstream(err)
	}
	return s.issue(u)
}

func (s *Service) issue(u models.User) (*Login, error) {
	token, exp, err := s.tokens.Issue(u)
	if err != nil {
		return nil, apperr.New(apperr.KindInternal, apperr.KeyInternal, err)
	}
	cookie, err := session.EncodeUser(u)
	if err != nil {
		return nil, apperr.New(apperr.KindInternal, apperr.KeyInternal, err)
	}
	return &Login{
		User:       u,
		Token:      token,
		ExpiresAt:  exp,
		UserCookie: cookie,
		Redirect:   s.rules.DashboardFor(u.IsManager),
	}, nil
}

// Logout tells the backend the user left. Failures are logged only; the
// caller clears the cookies regardless.
func (s *Service) Logout(ctx context.Context, userID int) {
	if userID == 0 {
		return
	}
	if err := s.backend.NotifyLogout(ctx, userID); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Logout notification failed")
	}
}

// Register creates an account.
func (s *Service) Register(ctx context.Context, reg models.Registration) (models.User, error) {
	u, err := s.backend.Register(ctx, reg)
	if err != nil {
		var se *backend.HTTPStatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusConflict {
			return models.User{}, apperr.New(apperr.KindConflict, apperr.KeyValidation, err)
		}
		return models.User{}, apperr.Upstream(err)
	}
	return u, nil
}

// Restore looks the user up again when the token is valid but the user
// cookie is gone. It gives up silently after the policy is exhausted or on
// a definitive not-found, and then skips the user for RestoreCooldown.
func (s *Service) Restore(ctx context.Context, userID int) (models.User, bool) {
	if s.coolingDown(userID) {
		return models.User{}, false
	}
	res := retry.Do(ctx, s.restore, func(ctx context.Context) (models.User, error) {
		u, err := s.backend.GetUser(ctx, userID)
		if errors.Is(err, backend.ErrNotFound) {
			return u, retry.Permanent(err)
		}
		return u, err
	})
	if !res.OK() || res.Value.ID != userID {
		s.logger.WithError(res.Err).WithFields(logrus.Fields{
			"user_id":  userID,
			"attempts": res.Attempts,
		}).Debug("Session restore gave up")
		s.mu.Lock()
		s.failedUntil[userID] = s.now().Add(RestoreCooldown)
		s.mu.Unlock()
		return models.User{}, false
	}
	s.mu.Lock()
	delete(s.failedUntil, userID)
	s.mu.Unlock()
	return res.Value, true
}

func (s *Service) coolingDown(userID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.failedUntil[userID]
	if !ok {
		return false
	}
	if !s.now().Before(until) {
		delete(s.failedUntil, userID)
		return false
	}
	return true
}
