package domain

import "time"

// RoleAdmin grants access to the management API.
const RoleAdmin = "admin"

// TokenIssuer issues tokens (e.g. JWT) for a subject.
type TokenIssuer interface {
	Issue(subject string, roles []string, expiry time.Duration) (string, error)
}

// TokenClaims is what a verified token asserts.
type TokenClaims struct {
	Subject string
	Roles   []string
}

// HasRole reports whether the claims include role.
func (c *TokenClaims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// TokenVerifier verifies a token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*TokenClaims, error)
}
