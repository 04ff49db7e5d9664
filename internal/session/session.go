// Package session models the authenticated-session inputs the sync engine
// receives from the outside: a user and a bearer token. Tokens are issued
// and verified elsewhere; the engine only peeks at claims for logging and
// identity, without verifying the signature.
package session

import (
	"errors"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session identifies the authenticated user the engine syncs for.
type Session struct {
	UserID    int64
	Token     string
	ExpiresAt time.Time
}

var ErrNoToken = errors.New("session token is empty")

// FromToken builds a Session from a bearer token. When the token is a JWT,
// the user id and expiry are read from its claims unverified; an opaque
// token still yields a usable session with no identity attached.
func FromToken(token string) (Session, error) {
	if token == "" {
		return Session{}, ErrNoToken
	}

	sess := Session{Token: token}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		log.Printf("session token is not a jwt, continuing without claims: %v", err)
		return sess, nil
	}

	if id, ok := claims["user_id"].(float64); ok {
		sess.UserID = int64(id)
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		sess.ExpiresAt = exp.Time
		if time.Now().After(exp.Time) {
			log.Printf("session token expired at %s, the backend will reject it", exp.Time.Format(time.RFC3339))
		}
	}
	return sess, nil
}
