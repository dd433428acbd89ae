package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is what the admin API puts into its tokens.
type Claims struct {
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// ErrNotJWT is returned for opaque tokens that cannot be decoded.
var ErrNotJWT = errors.New("token is not a JWT")

// ParseClaims decodes the token payload WITHOUT verifying the signature: the
// client has no key. Use it for display only, never for an access decision.
func ParseClaims(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrNotJWT
	}
	var c Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJWT, err)
	}
	return &c, nil
}

// UserID returns the numeric subject, or 0 when absent.
func (c *Claims) UserID() int64 {
	id, _ := strconv.ParseInt(c.Subject, 10, 64)
	return id
}

// Expiry returns the expiry time; ok is false when the token has none.
func (c *Claims) Expiry() (time.Time, bool) {
	if c.RegisteredClaims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return c.RegisteredClaims.ExpiresAt.Time, true
}

// Expired reports whether the token is past its expiry at now.
func (c *Claims) Expired(now time.Time) bool {
	exp, ok := c.Expiry()
	return ok && !now.Before(exp)
}
