package session

import (
	"errors"
	"strconv"

	"audiosales/web-gateway/models"
)

// Action is what the guard wants done with a request.
type Action int

const (
	// Pass lets the request through.
	Pass Action = iota
	// Redirect sends the browser to Decision.Location.
	Redirect
)

// Decision is the outcome of Guard.Decide.
type Decision struct {
	Action   Action
	Location string
	// ClearCookies asks the caller to expire both session cookies.
	ClearCookies bool
	// NeedsRestore is set when the token is valid but the user cookie is
	// missing, unreadable or belongs to someone else.
	NeedsRestore bool
	// Misconfigured is set when the signing secret is missing.
	Misconfigured bool
	Claims        *Claims
	User          *models.User
}

// Guard decides redirect vs. pass-through for page requests.
type Guard struct {
	rules  Rules
	tokens *Tokens
}

// NewGuard returns a guard for rules backed by tokens.
func NewGuard(rules Rules, tokens *Tokens) *Guard {
	return &Guard{rules: rules, tokens: tokens}
}

// Rules returns the route table the guard enforces.
func (g *Guard) Rules() Rules {
	return g.rules
}

// Decide evaluates path against the token and user cookie values.
func (g *Guard) Decide(path, tokenCookie, userCookie string) Decision {
	protected := g.rules.IsProtected(path)
	public := g.rules.IsPublic(path)

	if !g.tokens.Configured() {
		if protected {
			return Decision{Action: Redirect, Location: g.rules.LoginPath, Misconfigured: true}
		}
		return Decision{Action: Pass, Misconfigured: true}
	}

	if tokenCookie == "" {
		if protected {
			return Decision{Action: Redirect, Location: g.rules.LoginPath}
		}
		return Decision{Action: Pass}
	}

	claims, err := g.tokens.Verify(tokenCookie)
	if err != nil {
		if protected {
			return Decision{Action: Redirect, Location: g.rules.LoginPath, ClearCookies: true}
		}
		return Decision{Action: Pass, ClearCookies: true}
	}

	user, userErr := userFor(claims, userCookie)
	d := Decision{Action: Pass, Claims: claims, NeedsRestore: userErr != nil}
	if userErr == nil {
		d.User = &user
	}
	isManager := userErr == nil && user.IsManager && claims.IsManager

	switch {
	case public:
		d.Action = Redirect
		d.Location = g.rules.DashboardFor(isManager)
	case g.rules.IsManagerOnly(path) && !isManager:
		d.Action = Redirect
		d.Location = g.rules.UserDashboard
	}
	return d
}

var errUserMismatch = errors.New("session: user cookie does not match token subject")

func userFor(claims *Claims, userCookie string) (models.User, error) {
	u, err := DecodeUser(userCookie)
	if err != nil {
		return u, err
	}
	if strconv.Itoa(u.ID) != claims.Subject {
		return u, errUserMismatch
	}
	return u, nil
}
