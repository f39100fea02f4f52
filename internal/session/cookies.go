package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"audiosales/web-gateway/models"
)

// Cookie names. Both are always set and cleared together.
const (
	TokenCookie = "token"
	UserCookie  = "user"
)

// ErrNoUserCookie is returned when the user cookie is absent.
var ErrNoUserCookie = errors.New("session: user cookie missing")

// EncodeUser serialises u for the client-readable user cookie.
func EncodeUser(u models.User) (string, error) {
	b, err := json.Marshal(u)
	if err != nil {
		return "", fmt.Errorf("session: encode user cookie: %w", err)
	}
	return url.QueryEscape(string(b)), nil
}

// DecodeUser parses the user cookie value.
func DecodeUser(raw string) (models.User, error) {
	var u models.User
	if raw == "" {
		return u, ErrNoUserCookie
	}
	s, err := url.QueryUnescape(raw)
	if err != nil {
		return u, fmt.Errorf("session: unescape user cookie: %w", err)
	}
	if err := json.Unmarshal([]byte(s), &u); err != nil {
		return u, fmt.Errorf("session: decode user cookie: %w", err)
	}
	return u, nil
}
