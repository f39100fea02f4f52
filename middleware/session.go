package middleware

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"audiosales/web-gateway/internal/apperr"
	"audiosales/web-gateway/internal/session"
	"audiosales/web-gateway/models"
	"audiosales/web-gateway/utils"
)

// SessionKey is the c.Locals key holding the *session.Session.
const SessionKey = "session"

// Restorer re-fetches a user whose cookie went missing.
type Restorer interface {
	Restore(ctx context.Context, userID int) (models.User, bool)
}

// SessionConfig configures PageGuard and LoadSession.
type SessionConfig struct {
	Guard        *session.Guard
	Restorer     Restorer
	CookieSecure bool
	Logger       *logrus.Logger
}

// PageGuard protects page routes: it redirects unauthenticated users to the
// login page, managers away from member-only landing pages and members away
// from manager-only pages.
func PageGuard(cfg SessionConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rules := cfg.Guard.Rules()
		guarded := rules.IsProtected(c.Path()) || rules.IsPublic(c.Path())
		d := resolve(c, cfg, guarded)
		if d.Action == session.Redirect && d.Location != c.Path() {
			return c.Redirect(d.Location, fiber.StatusFound)
		}
		return c.Next()
	}
}

// LoadSession attaches the session (possibly anonymous) to API requests.
func LoadSession(cfg SessionConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		resolve(c, cfg, true)
		return c.Next()
	}
}

// RequireSession rejects API requests without a logged-in user.
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !CurrentSession(c).IsAuthenticated() {
			return utils.RespondWithAppError(c, apperr.Auth(apperr.KeySessionRequired, nil))
		}
		return c.Next()
	}
}

// RequireManager rejects API requests from non-managers.
func RequireManager() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s := CurrentSession(c)
		if !s.IsAuthenticated() {
			return utils.RespondWithAppError(c, apperr.Auth(apperr.KeySessionRequired, nil))
		}
		if !s.IsManager() {
			return utils.RespondWithAppError(c, apperr.New(apperr.KindForbidden, apperr.KeyManagerOnly, nil))
		}
		return c.Next()
	}
}

// CurrentSession returns the request's session; never nil after
// LoadSession or PageGuard ran.
func CurrentSession(c *fiber.Ctx) *session.Session {
	s, _ := c.Locals(SessionKey).(*session.Session)
	return s
}

// resolve runs the guard, restoring the user cookie when restore is set and
// the token is valid but the cookie is not, and stores the session in
// c.Locals and the user context. Assets and other unguarded paths never
// restore.
func resolve(c *fiber.Ctx, cfg SessionConfig, restore bool) session.Decision {
	token := c.Cookies(session.TokenCookie)
	userCookie := c.Cookies(session.UserCookie)
	d := cfg.Guard.Decide(c.Path(), token, userCookie)

	if d.Misconfigured {
		cfg.Logger.Error("JWT secret is not configured; treating request as unauthenticated")
	}
	if d.ClearCookies {
		ClearSessionCookies(c, cfg.CookieSecure)
	}
	if restore && d.NeedsRestore && d.Claims != nil && cfg.Restorer != nil {
		if u, ok := cfg.Restorer.Restore(c.UserContext(), d.Claims.UserID); ok {
			if encoded, err := session.EncodeUser(u); err == nil {
				setCookie(c, session.UserCookie, encoded, d.Claims.ExpiresAt.Time, cfg.CookieSecure, false)
				d = cfg.Guard.Decide(c.Path(), token, encoded)
			}
		}
	}

	s := &session.Session{User: d.User, Claims: d.Claims}
	c.Locals(SessionKey, s)
	c.SetUserContext(session.NewContext(c.UserContext(), s))
	return d
}

// SetSessionCookies writes the token (HTTP-only) and user cookies.
func SetSessionCookies(c *fiber.Ctx, token, userCookie string, expires time.Time, secure bool) {
	setCookie(c, session.TokenCookie, token, expires, secure, true)
	setCookie(c, session.UserCookie, userCookie, expires, secure, false)
}

// ClearSessionCookies expires both session cookies.
func ClearSessionCookies(c *fiber.Ctx, secure bool) {
	past := time.Unix(0, 0)
	setCookie(c, session.TokenCookie, "", past, secure, true)
	setCookie(c, session.UserCookie, "", past, secure, false)
}

func setCookie(c *fiber.Ctx, name, value string, expires time.Time, secure, httpOnly bool) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		Secure:   secure,
		HTTPOnly: httpOnly,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
