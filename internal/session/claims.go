package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Claims are the parts of an access token worth showing to a user.
type Claims struct {
	Subject   string
	IsAdmin   bool
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ParseClaims decodes, without verifying, the claims of a JWT access token.
// Tokens are opaque to the client as far as authorization goes; the result is
// informational only.
func ParseClaims(token string) (Claims, error) {
	claims := Claims{}
	mapClaims := jwt.MapClaims{}
	if _, _, err :=
		jwt.NewParser().ParseUnverified(token, mapClaims); err != nil {
		return claims, errors.Wrap(err, "error parsing access token")
	}
	// The API server's identity claim is not always a string.
	if sub, ok := mapClaims["sub"]; ok && sub != nil {
		claims.Subject = fmt.Sprint(sub)
	}
	if isAdmin, ok := mapClaims["is_admin"].(bool); ok {
		claims.IsAdmin = isAdmin
	}
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}
