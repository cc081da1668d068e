// Package services exposes the chat core to transports as small
// facades, keeping protocol code free of domain wiring.
package services

import (
	"context"
	"fmt"

	"forum-chat/auth"
	"forum-chat/contract"
	"forum-chat/domain"
	"forum-chat/errors"
	"forum-chat/repositories"
	"forum-chat/runtime"
)

// ChatService glues ticket validation, the presence directory, the
// relay, and the history repository behind contract.IChatService.
type ChatService struct {
	secret     []byte
	directory  *runtime.Directory
	relay      *runtime.Relay
	repository repositories.IMessageRepository
}

func NewChatService(secret []byte, directory *runtime.Directory, relay *runtime.Relay,
	repository repositories.IMessageRepository) *ChatService {
	return &ChatService{secret: secret, directory: directory, relay: relay, repository: repository}
}

// Register validates the connect ticket and binds the session to the
// identity it names. The directory broadcast happens inside Register,
// atomically with the mutation.
func (s *ChatService) Register(_ context.Context, ticket string, session domain.SessionID,
	sink contract.EventSink) (domain.PresenceEntry, error) {
	claims, err := auth.ValidateTicket(s.secret, ticket)
	if err != nil {
		return domain.PresenceEntry{}, fmt.Errorf("%w: %v", errors.ErrInvalidTicket, err)
	}

	entry := domain.PresenceEntry{
		UserID:      claims.UserID,
		SessionID:   session,
		DisplayName: claims.DisplayName,
	}
	s.directory.Register(entry, sink)
	return entry, nil
}

func (s *ChatService) Route(ctx context.Context, from domain.SessionID, recipient domain.UserID, body string) error {
	return s.relay.Route(ctx, from, recipient, body)
}

func (s *ChatService) Disconnect(session domain.SessionID) {
	s.directory.Disconnect(session)
}

func (s *ChatService) GetHistory(a, b domain.UserID) ([]domain.Message, error) {
	messages, err := s.repository.GetHistory(a, b)
	if err != nil {
		return nil, err
	}
	return repositories.FromDiskMessages(messages), nil
}
