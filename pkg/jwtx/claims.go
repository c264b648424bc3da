// Package jwtx decodes the identity backend's ID tokens on the client.
//
// Tokens are decoded without signature verification: the SDK only reads its
// own session token to show claims and to decide when to refresh. Anything
// that needs trust in the claims has to verify the token server-side.
package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed = errors.New("jwtx: malformed token")
	ErrExpired   = errors.New("jwtx: token expired")
)

// Claims are the ID token claims issued by the identity backend.
type Claims struct {
	jwt.RegisteredClaims

	UserID        string `json:"user_id,omitempty"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Name          string `json:"name,omitempty"`
	Picture       string `json:"picture,omitempty"`

	// AuthTime is when the user last actively signed in (seconds since epoch)
	AuthTime int64 `json:"auth_time,omitempty"`

	Firebase FirebaseClaim `json:"firebase"`
}

// FirebaseClaim holds the sign-in method used to mint the token.
type FirebaseClaim struct {
	SignInProvider string              `json:"sign_in_provider,omitempty"`
	Identities     map[string][]string `json:"identities,omitempty"`
}

var parser = jwt.NewParser()

// Decode parses token into Claims without verifying its signature.
func Decode(token string) (*Claims, error) {
	var c Claims
	if _, _, err := parser.ParseUnverified(token, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &c, nil
}

// DecodeMap parses token into a generic claim map without verifying its
// signature, keeping custom claims the typed form does not know about.
func DecodeMap(token string) (map[string]any, error) {
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return claims, nil
}

// ExpiresAtTime returns the exp claim, or the zero time when absent.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// IsExpired reports whether the token has expired at now. Tokens without an
// exp claim never expire.
func (c *Claims) IsExpired(now time.Time) bool {
	return c.ExpiresWithin(now, 0)
}

// ExpiresWithin reports whether the token expires within d of now.
func (c *Claims) ExpiresWithin(now time.Time, d time.Duration) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return !now.Add(d).Before(c.ExpiresAt.Time)
}

// ValidateExpiry returns ErrExpired once the token is past exp.
func (c *Claims) ValidateExpiry() error {
	if c.IsExpired(time.Now().UTC()) {
		return ErrExpired
	}
	return nil
}
