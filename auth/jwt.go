package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims the client reads from its bearer token.
// The signature is not verified here; the backend does that on every request.
type TokenClaims struct {
	Subject   string
	Role      Role
	ExpiresAt time.Time
	IssuedAt  time.Time
	Raw       map[string]any
}

// roleClaims lists the claims that may carry the role, in lookup order.
var roleClaims = []string{"role", "userRole", "roles"}

// ParseTokenClaims decodes the claims of a JWT without verifying it.
func ParseTokenClaims(token string) (*TokenClaims, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return nil, ErrTokenMalformed
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	tc := &TokenClaims{Raw: make(map[string]any, len(claims))}
	for k, v := range claims {
		tc.Raw[k] = v
	}

	if sub, err := claims.GetSubject(); err == nil {
		tc.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		tc.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		tc.IssuedAt = iat.Time
	}
	tc.Role = roleFromClaims(claims)

	return tc, nil
}

func roleFromClaims(claims jwt.MapClaims) Role {
	for _, name := range roleClaims {
		switch v := claims[name].(type) {
		case string:
			if v != "" {
				return Role(v)
			}
		case []any:
			for _, r := range v {
				if s, ok := r.(string); ok && s != "" {
					return Role(s)
				}
			}
		}
	}
	return ""
}
