package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin    = 1
	RoleCustomer = 3
)

var ErrMalformed = errors.New("malformed session token")

type SessionClaims struct {
	Phone  string `json:"phone"`
	RoleID int    `json:"role_id"`
	jwt.RegisteredClaims
}

func (c *SessionClaims) IsAdmin() bool {
	return c.RoleID == RoleAdmin
}

func (c *SessionClaims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(c.ExpiresAt.Time)
}

// Decode reads the claims of a backend-issued token without checking the signature.
// The backend stays the authority; the client only needs phone and role for projections.
func Decode(tokenStr string) (*SessionClaims, error) {
	if tokenStr == "" {
		return nil, ErrMalformed
	}
	var claims SessionClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, &claims); err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}
	return &claims, nil
}

// Verify is Decode plus an HS256 signature check, used when the shared secret is configured.
func Verify(tokenStr string, secret []byte) (*SessionClaims, error) {
	var claims SessionClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, ErrMalformed
	}
	return &claims, nil
}
