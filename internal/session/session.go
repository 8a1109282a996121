package session

import (
	"time"

	"github.com/golang-jwt/jwt"
)

// AccessTokenCookie is the cookie carrying the access token. The edge gateway
// reads its presence to make routing decisions.
const AccessTokenCookie = "accessToken"

// Session is the client-held view of one authenticated context.
//
// Subject and ExpiresAt are read from the token without verifying its
// signature. They are informational only; the remote API owns validation.
type Session struct {
	AccessToken string
	Subject     string
	ExpiresAt   time.Time
}

// FromToken builds a Session around an opaque access token, filling in
// claims when the token happens to be a JWT.
func FromToken(token string) Session {
	s := Session{AccessToken: token}
	if token == "" {
		return s
	}

	claims := &jwt.StandardClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return s
	}
	s.Subject = claims.Subject
	if claims.ExpiresAt > 0 {
		s.ExpiresAt = time.Unix(claims.ExpiresAt, 0)
	}
	return s
}

// Empty reports whether no access token is held.
func (s Session) Empty() bool {
	return s.AccessToken == ""
}

// Expired reports whether the token carries an expiry that has passed.
// Tokens without a readable expiry never report expired.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
