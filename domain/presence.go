// Package domain contains core concepts of the private chat system.
// This file defines presence entities and their invariants.
// No runtime, network, or UI logic should be added here.
package domain

import "github.com/google/uuid"

// UserID is the stable account identifier assigned by the account service.
type UserID int64

// SessionID identifies one live connection. It exists only while the
// connection is open; a connection owns at most one SessionID.
type SessionID = uuid.UUID

// NewSessionID mints the opaque handle for a freshly accepted connection.
func NewSessionID() SessionID {
	return uuid.New()
}

// PresenceEntry binds an online user to its current session.
// The directory holds at most one entry per UserID: a later registration
// for the same user replaces the earlier one.
type PresenceEntry struct {
	UserID      UserID
	SessionID   SessionID
	DisplayName string
}

// OnlineUser is the {id, name} pair carried by a presence snapshot.
type OnlineUser struct {
	UserID      UserID
	DisplayName string
}

// Online projects the broadcastable part of an entry.
func (e PresenceEntry) Online() OnlineUser {
	return OnlineUser{UserID: e.UserID, DisplayName: e.DisplayName}
}
