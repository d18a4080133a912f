package fairchat

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the current user's session identity. Externally supplied and
// immutable for the session lifetime; the user id scopes the connection's
// room and distinguishes sent from received messages.
type Identity struct {
	UserID      string
	DisplayName string
}

// IdentityFromToken derives the session identity from the claims of the
// session credential. The signature is not verified here; the token was
// issued by the backend and every request carrying it is verified there.
func IdentityFromToken(token string) (Identity, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return Identity{}, WrapError(ErrorInvalidConfig, "parse session token", err)
	}

	id := Identity{}
	switch v := claims["sub"].(type) {
	case string:
		id.UserID = v
	case float64:
		id.UserID = fmt.Sprintf("%.0f", v)
	}
	if id.UserID == "" {
		if v, ok := claims["userId"].(string); ok {
			id.UserID = v
		}
	}
	if id.UserID == "" {
		return Identity{}, NewError(ErrorInvalidConfig, "session token has no user id claim")
	}
	if name, ok := claims["name"].(string); ok {
		id.DisplayName = name
	}
	return id, nil
}
