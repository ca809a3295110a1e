package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of the tokens the backend issues.
// Subject carries the user id.
type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Session is what the client knows about who is signed in. It is read from
// the token without verifying its signature; only the backend verifies.
type Session struct {
	Authenticated bool
	UserID        string
	Name          string
	ExpiresAt     time.Time
	Token         string
}

// ParseSession decodes the claims of a token.
func ParseSession(token string) (Session, error) {
	var c Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return Session{}, fmt.Errorf("decode token: %w", err)
	}
	s := Session{UserID: c.Subject, Name: c.Name, Token: token}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s, nil
}

// CurrentSession reports the signed-in user. Missing, undecodable and
// expired tokens all yield an unauthenticated session.
func CurrentSession(now time.Time) Session {
	ti, err := Load()
	if err != nil || ti == nil || ti.Token == "" {
		return Session{}
	}
	s, err := ParseSession(ti.Token)
	if err != nil {
		return Session{}
	}
	if !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt) {
		return Session{}
	}
	s.Authenticated = true
	return s
}

// Display is the identity shown in headers.
func (s Session) Display() string {
	if !s.Authenticated {
		return ""
	}
	if s.Name != "" {
		return s.Name
	}
	return s.UserID
}
