package services

import (
	"time"

	"forum-chat/auth"
	"forum-chat/domain"
	"forum-chat/errors"
)

// ITicketService is what the account service uses to mint connect
// tickets after a successful login. The chat server itself only
// validates tickets; issuance lives here so local tooling and tests can
// produce valid ones without a running account service.
type ITicketService interface {
	Issue(userID domain.UserID, displayName string) (Ticket, error)
}

type Ticket string

type TicketService struct {
	secret []byte
	ttl    time.Duration
}

func NewTicketService(secret []byte, ttl time.Duration) *TicketService {
	return &TicketService{secret: secret, ttl: ttl}
}

func (s *TicketService) Issue(userID domain.UserID, displayName string) (Ticket, error) {
	ticket, err := auth.GenerateTicket(s.secret, userID, displayName, s.ttl)
	if err != nil {
		return "", errors.ErrTicketGeneration
	}
	return Ticket(ticket), nil
}
