// Package runtime owns the live state of the chat core: who is online,
// where their session delivers, and how messages move between them.
// It contains no transport or storage logic.
package runtime

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"forum-chat/contract"
	"forum-chat/domain"
	"forum-chat/domain/event"
	"forum-chat/observability"
)

type occupant struct {
	entry domain.PresenceEntry
	sink  contract.EventSink
}

// Directory is the in-memory presence registry. One mutex guards the
// user map, the session back-references, and the snapshot broadcast, so
// lookup + mutate + broadcast behave as a single atomic unit and no
// torn snapshot can ever be emitted.
type Directory struct {
	mu        sync.Mutex
	log       *slog.Logger
	monitor   *observability.Monitor
	users     map[domain.UserID]occupant
	bySession map[domain.SessionID]domain.UserID
}

func NewDirectory(log *slog.Logger, monitor *observability.Monitor) *Directory {
	return &Directory{
		log:       log,
		monitor:   monitor,
		users:     make(map[domain.UserID]occupant),
		bySession: make(map[domain.SessionID]domain.UserID),
	}
}

// Register inserts or overwrites the presence entry for the user and
// broadcasts the new snapshot to every connected session, including the
// one that triggered the change. Last write wins: a second registration
// for the same user silently supersedes the first.
func (d *Directory) Register(entry domain.PresenceEntry, sink contract.EventSink) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if previous, ok := d.users[entry.UserID]; ok {
		// The superseded session keeps its connection; it just no
		// longer owns the user's presence.
		delete(d.bySession, previous.entry.SessionID)
		d.log.Info("presence superseded",
			"user_id", entry.UserID,
			"old_session", previous.entry.SessionID,
			"new_session", entry.SessionID)
	}
	d.users[entry.UserID] = occupant{entry: entry, sink: sink}
	d.bySession[entry.SessionID] = entry.UserID

	d.monitor.IncrRegisters()
	d.broadcastLocked()
}

// Disconnect removes whatever presence the session holds. If the user
// re-registered from a newer session in the meantime, the entry belongs
// to that session and stays untouched. Sessions that never registered
// are a no-op. A broadcast goes out only when an entry was removed.
func (d *Directory) Disconnect(session domain.SessionID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	userID, ok := d.bySession[session]
	if !ok {
		return
	}
	delete(d.bySession, session)

	if current, ok := d.users[userID]; ok && current.entry.SessionID == session {
		delete(d.users, userID)
		d.log.Info("presence removed", "user_id", userID, "session", session)
		d.broadcastLocked()
	}
}

// Identity resolves the registered user behind a session handle.
func (d *Directory) Identity(session domain.SessionID) (domain.PresenceEntry, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	userID, ok := d.bySession[session]
	if !ok {
		return domain.PresenceEntry{}, false
	}
	occ, ok := d.users[userID]
	if !ok || occ.entry.SessionID != session {
		return domain.PresenceEntry{}, false
	}
	return occ.entry, true
}

// Lookup returns the presence entry and delivery sink of an online user.
func (d *Directory) Lookup(userID domain.UserID) (domain.PresenceEntry, contract.EventSink, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	occ, ok := d.users[userID]
	if !ok {
		return domain.PresenceEntry{}, nil, false
	}
	return occ.entry, occ.sink, true
}

// Snapshot returns the current set of online users, sorted by id for
// deterministic payloads.
func (d *Directory) Snapshot() []domain.OnlineUser {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

func (d *Directory) snapshotLocked() []domain.OnlineUser {
	users := make([]domain.OnlineUser, 0, len(d.users))
	for _, occ := range d.users {
		users = append(users, occ.entry.Online())
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	return users
}

// broadcastLocked fans the full snapshot out to every connected
// session. Sinks never block (buffered channel with drop-on-full), so
// holding the lock here is safe and keeps the snapshot consistent with
// the mutation that caused it.
func (d *Directory) broadcastLocked() {
	snapshot := event.PresenceSnapshot{Users: d.snapshotLocked()}
	for _, occ := range d.users {
		if err := occ.sink.Consume(context.Background(), snapshot); err != nil {
			d.log.Warn("presence snapshot lost", "user_id", occ.entry.UserID, "error", err)
		}
	}
	d.monitor.IncrBroadcasts()
}
