// Package auth issues and validates the connect tickets that bind a
// websocket session to an account identity. Tickets are minted by the
// account service at login time; the chat server only verifies them, it
// never looks identities up itself.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"forum-chat/domain"
)

// ConnectClaims is the payload of a connect ticket: who the session
// belongs to and the display name the account service resolved for it.
type ConnectClaims struct {
	UserID      domain.UserID `json:"user_id"`
	DisplayName string        `json:"display_name"`
	jwt.RegisteredClaims
}

// GenerateTicket creates a signed short-lived ticket for a user.
func GenerateTicket(secret []byte, userID domain.UserID, displayName string, ttl time.Duration) (string, error) {
	claims := &ConnectClaims{
		UserID:      userID,
		DisplayName: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "forum-chat",
		},
	}

	// HS256: the account service and the chat server share the secret.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateTicket parses and validates the signature and expiration of a
// ticket string.
func ValidateTicket(secret []byte, ticket string) (*ConnectClaims, error) {
	token, err := jwt.ParseWithClaims(ticket, &ConnectClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*ConnectClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
