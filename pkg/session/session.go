package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the explicit login context: created at login, read by the HTTP
// client wrapper when attaching the bearer header, destroyed at logout. It is
// passed around rather than held in a package-level global so the lifecycle
// stays controlled.
type Session struct {
	Token     string
	Email     string
	ExpiresAt time.Time // zero when the token carries no expiry claim
}

// New builds a session from a freshly issued token. If the token is a JWT its
// exp claim is sniffed with an unverified parse; the server enforces auth,
// the client only uses the expiry to warn before a doomed batch save.
func New(token, email string) *Session {
	s := &Session{Token: token, Email: email}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			s.ExpiresAt = exp.Time
		}
	}

	return s
}

// Expired reports whether the token's expiry claim, when present, has passed.
func (s *Session) Expired() bool {
	if s == nil || s.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(s.ExpiresAt)
}

// Valid reports whether the session can authenticate a call.
func (s *Session) Valid() bool {
	return s != nil && s.Token != "" && !s.Expired()
}
