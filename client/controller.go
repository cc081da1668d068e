// Package client implements the chat controller driving a connected
// user's conversation view: presence, per-partner transcripts, unread
// markers, and the merge of persisted history with live deliveries.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"forum-chat/domain"
	"forum-chat/domain/event"
	"forum-chat/errors"
)

// State is the connection lifecycle of the controller. Only a
// Registered client is fed presence snapshots and deliveries.
type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateRegistered
)

// Entry is one rendered transcript line.
type Entry struct {
	Text     string
	Outgoing bool
}

// Renderer is the UI the controller drives. Implementations must not
// call back into the controller.
type Renderer interface {
	RenderPresence(users []domain.OnlineUser)
	RenderTranscript(partner domain.UserID, entries []Entry)
	RenderEntry(entry Entry)
	RenderNotice(text string)
	NotifyUnread(partner domain.UserID)
}

// HistoryFetcher queries the persisted exchange between two users.
type HistoryFetcher interface {
	GetHistory(ctx context.Context, a, b domain.UserID) ([]domain.Message, error)
}

// Controller holds the client-side chat state. The transcript cache is
// a convenience only: opening a conversation always discards the
// partner's cache and rebuilds it from the history store, then layers
// live deliveries on top in arrival order.
type Controller struct {
	mu          sync.Mutex
	log         *slog.Logger
	state       State
	self        domain.OnlineUser
	history     HistoryFetcher
	renderer    Renderer
	online      []domain.OnlineUser
	transcripts map[domain.UserID][]Entry
	unread      map[domain.UserID]bool
	active      domain.UserID // zero when no conversation is open
}

func NewController(log *slog.Logger, history HistoryFetcher, renderer Renderer) *Controller {
	return &Controller{
		log:         log,
		history:     history,
		renderer:    renderer,
		transcripts: make(map[domain.UserID][]Entry),
		unread:      make(map[domain.UserID]bool),
	}
}

// OnConnect marks the transport as established.
func (c *Controller) OnConnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateConnected
}

// OnRegistered records the identity the server accepted.
func (c *Controller) OnRegistered(self domain.OnlineUser) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.self = self
	c.state = StateRegistered
}

// OnDisconnect resets the lifecycle; cached transcripts survive so a
// reconnect within the same run keeps context until a reopen replaces
// them.
func (c *Controller) OnDisconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateDisconnected
	c.online = nil
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Online returns the latest presence snapshot, self excluded.
func (c *Controller) Online() []domain.OnlineUser {
	c.mu.Lock()
	defer c.mu.Unlock()
	users := make([]domain.OnlineUser, 0, len(c.online))
	for _, user := range c.online {
		if user.UserID == c.self.UserID {
			continue
		}
		users = append(users, user)
	}
	return users
}

// Active returns the partner of the open conversation, zero if none.
func (c *Controller) Active() domain.UserID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// HandleEvent consumes one server event. Events arriving before
// registration completes are dropped, matching the server's own gating.
func (c *Controller) HandleEvent(evt event.DomainEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRegistered {
		c.log.Debug("event before registration dropped", "kind", evt.Kind())
		return
	}

	switch e := evt.(type) {
	case event.PresenceSnapshot:
		c.online = e.Users
		c.renderer.RenderPresence(c.onlineLocked())
	case event.MessageDelivered:
		c.handleDeliveryLocked(e)
	case event.RecipientOffline:
		c.renderer.RenderNotice(fmt.Sprintf("user %d is offline, message not delivered", e.RecipientID))
	case event.ProtocolError:
		c.renderer.RenderNotice(fmt.Sprintf("server rejected the operation: %s", e.Code))
	}
}

func (c *Controller) onlineLocked() []domain.OnlineUser {
	users := make([]domain.OnlineUser, 0, len(c.online))
	for _, user := range c.online {
		if user.UserID == c.self.UserID {
			continue
		}
		users = append(users, user)
	}
	return users
}

// handleDeliveryLocked files one live delivery. The echo flag decides
// which side of the exchange the line belongs to; deliveries for an
// inactive partner only feed the cache and the unread marker.
func (c *Controller) handleDeliveryLocked(e event.MessageDelivered) {
	var partner domain.UserID
	var entry Entry
	if e.Echo {
		partner = e.Message.RecipientID
		entry = Entry{Text: "You: " + e.Message.Body, Outgoing: true}
	} else {
		partner = e.Message.SenderID
		entry = Entry{Text: e.Message.SenderName + ": " + e.Message.Body}
	}

	c.transcripts[partner] = append(c.transcripts[partner], entry)

	if partner == c.active && c.active != 0 {
		c.renderer.RenderEntry(entry)
		return
	}
	c.unread[partner] = true
	c.renderer.NotifyUnread(partner)
}

// OpenConversation (re)opens the view on one partner: the cached
// transcript is discarded, the history store is queried fresh, the
// result rendered, and the partner's unread marker cleared. Subsequent
// live deliveries for that partner append in arrival order.
//
// A history fetch failure is non-fatal: a banner is shown and the
// conversation stays usable for new live messages.
func (c *Controller) OpenConversation(ctx context.Context, partner domain.UserID) error {
	c.mu.Lock()
	if c.state != StateRegistered {
		c.mu.Unlock()
		return errors.ErrNotRegistered
	}
	self := c.self
	c.active = partner
	delete(c.transcripts, partner)
	delete(c.unread, partner)
	c.mu.Unlock()

	// The query runs outside the lock: a slow history store must not
	// freeze live event handling.
	messages, err := c.history.GetHistory(ctx, self.UserID, partner)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != partner {
		// The user moved on while the query was in flight.
		return nil
	}

	if err != nil {
		c.log.Warn("history fetch failed", "partner", partner, "error", err)
		c.renderer.RenderNotice("could not load history, showing live messages only")
		c.renderer.RenderTranscript(partner, c.transcripts[partner])
		return nil
	}

	entries := make([]Entry, 0, len(messages))
	for _, message := range messages {
		if message.SenderID == self.UserID {
			entries = append(entries, Entry{Text: "You: " + message.Body, Outgoing: true})
		} else {
			entries = append(entries, Entry{Text: message.SenderName + ": " + message.Body})
		}
	}
	// Live deliveries that raced the fetch stay on top of the fresh
	// history, in arrival order.
	entries = append(entries, c.transcripts[partner]...)
	c.transcripts[partner] = entries
	c.renderer.RenderTranscript(partner, entries)
	return nil
}

// Unread reports whether a partner has messages not yet on screen.
func (c *Controller) Unread(partner domain.UserID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unread[partner]
}
