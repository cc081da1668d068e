// Package domain contains core concepts of the private chat system.
// This file defines Message values and related rules.
// Messages are immutable once created.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable private message between two users.
// SenderName is captured at send time so history replies do not need
// a lookup against the account directory.
type Message struct {
	ID          uuid.UUID // unique identifier
	SenderID    UserID
	SenderName  string
	RecipientID UserID
	Body        string
	At          time.Time
}

// NewMessage stamps a freshly routed message with its identity and clock.
func NewMessage(sender PresenceEntry, recipient UserID, body string, at time.Time) Message {
	return Message{
		ID:          uuid.New(),
		SenderID:    sender.UserID,
		SenderName:  sender.DisplayName,
		RecipientID: recipient,
		Body:        body,
		At:          at,
	}
}
