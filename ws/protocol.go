// Package ws is the websocket transport of the chat core: one session
// per connection, JSON event envelopes both ways, and a non-blocking
// sink feeding each connection's write pump.
package ws

import (
	"encoding/json"
	"fmt"

	"github.com/samber/lo"

	"forum-chat/domain"
	"forum-chat/domain/event"
)

// Client -> server event types.
const (
	TypeRegister    = "register"
	TypeSendMessage = "send_message"
)

// Server -> client event types.
const (
	TypePresence         = "presence"
	TypeMessage          = "message"
	TypeRecipientOffline = "recipient_offline"
	TypeError            = "error"
)

// Error codes carried by TypeError events.
const (
	CodeUnregisteredSender = "unregistered_sender"
	CodeInvalidTicket      = "invalid_ticket"
	CodeMalformedEvent     = "malformed_event"
)

// Envelope frames every event on the wire.
type Envelope struct {
	Type    string          `json:"type" validate:"required"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type RegisterPayload struct {
	Ticket string `json:"ticket" validate:"required"`
}

type SendMessagePayload struct {
	RecipientID int64  `json:"recipient_id" validate:"required,gt=0"`
	Body        string `json:"body" validate:"required,max=4096"`
}

type PresenceUser struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
}

type PresencePayload struct {
	Users []PresenceUser `json:"users"`
}

// MessagePayload is one delivery. RecipientID is present only on the
// copy echoed to the sender; its presence is the sole marker a client
// uses to tell its own outgoing messages apart from incoming ones.
type MessagePayload struct {
	SenderID          int64  `json:"sender_id"`
	SenderDisplayName string `json:"sender_display_name"`
	Body              string `json:"body"`
	RecipientID       *int64 `json:"recipient_id,omitempty"`
}

type RecipientOfflinePayload struct {
	RecipientID int64 `json:"recipient_id"`
}

type ErrorPayload struct {
	Code string `json:"code"`
}

func encode(eventType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: eventType, Payload: raw})
}

// EncodeClientEvent frames a client -> server event.
func EncodeClientEvent(eventType string, payload any) ([]byte, error) {
	return encode(eventType, payload)
}

// EncodeEvent turns a domain event into its wire form.
func EncodeEvent(e event.DomainEvent) ([]byte, error) {
	switch evt := e.(type) {
	case event.PresenceSnapshot:
		users := lo.Map(evt.Users, func(u domain.OnlineUser, _ int) PresenceUser {
			return PresenceUser{UserID: int64(u.UserID), DisplayName: u.DisplayName}
		})
		return encode(TypePresence, PresencePayload{Users: users})
	case event.MessageDelivered:
		payload := MessagePayload{
			SenderID:          int64(evt.Message.SenderID),
			SenderDisplayName: evt.Message.SenderName,
			Body:              evt.Message.Body,
		}
		if evt.Echo {
			payload.RecipientID = lo.ToPtr(int64(evt.Message.RecipientID))
		}
		return encode(TypeMessage, payload)
	case event.RecipientOffline:
		return encode(TypeRecipientOffline, RecipientOfflinePayload{RecipientID: int64(evt.RecipientID)})
	case event.ProtocolError:
		return encode(TypeError, ErrorPayload{Code: evt.Code})
	default:
		return nil, fmt.Errorf("unencodable event kind %q", e.Kind())
	}
}

// DecodeServerEvent parses a server -> client frame back into its
// domain event. Used by the client controller and by tests.
func DecodeServerEvent(data []byte) (event.DomainEvent, error) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}

	switch envelope.Type {
	case TypePresence:
		var payload PresencePayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return nil, err
		}
		users := lo.Map(payload.Users, func(u PresenceUser, _ int) domain.OnlineUser {
			return domain.OnlineUser{UserID: domain.UserID(u.UserID), DisplayName: u.DisplayName}
		})
		return event.PresenceSnapshot{Users: users}, nil
	case TypeMessage:
		var payload MessagePayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return nil, err
		}
		message := domain.Message{
			SenderID:   domain.UserID(payload.SenderID),
			SenderName: payload.SenderDisplayName,
			Body:       payload.Body,
		}
		if payload.RecipientID != nil {
			message.RecipientID = domain.UserID(*payload.RecipientID)
			return event.MessageDelivered{Message: message, Echo: true}, nil
		}
		return event.MessageDelivered{Message: message}, nil
	case TypeRecipientOffline:
		var payload RecipientOfflinePayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return nil, err
		}
		return event.RecipientOffline{RecipientID: domain.UserID(payload.RecipientID)}, nil
	case TypeError:
		var payload ErrorPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return nil, err
		}
		return event.ProtocolError{Code: payload.Code}, nil
	default:
		return nil, fmt.Errorf("unknown server event type %q", envelope.Type)
	}
}
