// Package apperr categorizes failures and turns them into HTTP statuses and
// localized user-facing messages.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind is the broad category of a failure.
type Kind int

const (
	KindInternal Kind = iota
	KindConfig
	KindAuth
	KindForbidden
	KindValidation
	KindNotFound
	KindConflict
	KindUpstream
	KindResource
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUpstream:
		return "upstream"
	case KindResource:
		return "resource"
	default:
		return "internal"
	}
}

// Error is a categorized error carrying a message key.
type Error struct {
	Kind Kind
	Key  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Key)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns a categorized error.
func New(kind Kind, key string, err error) *Error {
	return &Error{Kind: kind, Key: key, Err: err}
}

// Config wraps a configuration failure.
func Config(err error) *Error { return New(KindConfig, KeyConfig, err) }

// Auth wraps an authentication failure.
func Auth(key string, err error) *Error { return New(KindAuth, key, err) }

// Validation wraps an input validation failure.
func Validation(err error) *Error { return New(KindValidation, KeyValidation, err) }

// Upstream wraps a backend failure. Database connectivity messages are
// rewritten to the friendlier KeyUpstreamDatabase message.
func Upstream(err error) *Error {
	if err != nil && IsDatabaseConnectivity(err.Error()) {
		return New(KindUpstream, KeyUpstreamDatabase, err)
	}
	return New(KindUpstream, KeyUpstream, err)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// KeyOf returns the message key for err.
func KeyOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Key != "" {
		return e.Key
	}
	return KeyInternal
}

// Status maps err to an HTTP status code.
func Status(err error) int {
	switch KindOf(err) {
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	case KindResource:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

var databaseMarkers = []string{
	"login timeout expired",
	"tcp provider",
	"communication link failure",
	"could not connect to database",
	"database is not currently available",
	"odbc driver",
	"cannot open server",
}

// IsDatabaseConnectivity reports whether an upstream message describes the
// backend losing its database.
func IsDatabaseConnectivity(msg string) bool {
	msg = strings.ToLower(msg)
	for _, m := range databaseMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
