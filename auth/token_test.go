package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"forum-chat/domain"
)

func TestGenerateAndValidateTicket(t *testing.T) {
	req := require.New(t)
	secret := []byte("test-secret")

	ticket, err := GenerateTicket(secret, domain.UserID(42), "alice", time.Hour)
	req.NoError(err)
	req.NotEmpty(ticket)

	claims, err := ValidateTicket(secret, ticket)
	req.NoError(err)
	req.Equal(domain.UserID(42), claims.UserID)
	req.Equal("alice", claims.DisplayName)
	req.Equal("forum-chat", claims.Issuer)
}

func TestValidateTicket_WrongSecret(t *testing.T) {
	req := require.New(t)

	ticket, err := GenerateTicket([]byte("right-secret"), domain.UserID(1), "alice", time.Hour)
	req.NoError(err)

	_, err = ValidateTicket([]byte("wrong-secret"), ticket)
	req.Error(err)
}

func TestValidateTicket_Expired(t *testing.T) {
	req := require.New(t)
	secret := []byte("test-secret")

	ticket, err := GenerateTicket(secret, domain.UserID(1), "alice", -time.Minute)
	req.NoError(err)

	_, err = ValidateTicket(secret, ticket)
	req.Error(err)
}

func TestValidateTicket_Garbage(t *testing.T) {
	req := require.New(t)

	_, err := ValidateTicket([]byte("test-secret"), "not.a.ticket")
	req.Error(err)
}
