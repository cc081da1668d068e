// Package event defines the domain events pushed to connected sessions.
package event

import (
	"forum-chat/domain"
)

// DomainEvent is anything a session sink can consume.
type DomainEvent interface {
	Kind() string
}

// PresenceSnapshot carries the full set of online users. It is emitted
// to every connected session after each register and after each
// disconnect that removed an entry. There is no incremental diffing.
type PresenceSnapshot struct {
	Users []domain.OnlineUser
}

func (PresenceSnapshot) Kind() string { return "presence" }

// MessageDelivered is one delivery of a routed message. Two copies
// exist for every successful route: the recipient's copy (Echo false)
// and the sender's echo (Echo true). Only the echo exposes the
// recipient id on the wire; that marker is how a client tells its own
// outgoing messages apart from incoming ones.
type MessageDelivered struct {
	Message domain.Message
	Echo    bool
}

func (MessageDelivered) Kind() string { return "message" }

// RecipientOffline tells a sender its message was dropped because the
// recipient has no open registered session. It goes to the sender only.
type RecipientOffline struct {
	RecipientID domain.UserID
}

func (RecipientOffline) Kind() string { return "recipient_offline" }

// ProtocolError reports a rejected client operation back to the
// offending session, e.g. a message routed before registration.
type ProtocolError struct {
	Code string
}

func (ProtocolError) Kind() string { return "error" }
