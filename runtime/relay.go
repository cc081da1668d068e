package runtime

import (
	"context"
	"log/slog"
	"time"

	"forum-chat/domain"
	"forum-chat/domain/event"
	"forum-chat/errors"
	"forum-chat/observability"
)

// Relay routes point-to-point messages between live sessions using the
// presence directory. Delivery is at-most-once and lossy: a recipient
// without an open registered session only produces an offline notice
// for the sender. There is no acknowledgment beyond the echo and no
// retry of any kind.
type Relay struct {
	log       *slog.Logger
	monitor   *observability.Monitor
	directory *Directory
	history   chan<- domain.Message
}

// NewRelay wires the relay to the directory and to the history channel
// drained by the history writer worker. A nil history channel disables
// persistence, which mirrors the lossy reference behavior.
func NewRelay(log *slog.Logger, monitor *observability.Monitor, directory *Directory, history chan<- domain.Message) *Relay {
	return &Relay{log: log, monitor: monitor, directory: directory, history: history}
}

// Route forwards one message from a registered session.
//
// Online recipient: exactly two deliveries happen — the recipient's
// copy and the sender's echo (the echo alone carries the recipient id).
// Offline recipient: the sender gets a RecipientOffline notice and
// nobody else hears anything. A session that never registered cannot
// send; the call fails with ErrUnregisteredSender.
func (r *Relay) Route(ctx context.Context, from domain.SessionID, recipient domain.UserID, body string) error {
	sender, ok := r.directory.Identity(from)
	if !ok {
		r.monitor.IncrRejectedSends()
		return errors.ErrUnregisteredSender
	}

	// The sender's own sink is needed for both the echo and the
	// offline notice.
	_, senderSink, ok := r.directory.Lookup(sender.UserID)
	if !ok {
		r.monitor.IncrRejectedSends()
		return errors.ErrUnregisteredSender
	}

	message := domain.NewMessage(sender, recipient, body, time.Now().UTC())

	_, recipientSink, online := r.directory.Lookup(recipient)
	if !online {
		r.monitor.IncrOfflineNotices()
		if err := senderSink.Consume(ctx, event.RecipientOffline{RecipientID: recipient}); err != nil {
			r.log.Warn("offline notice lost", "sender_id", sender.UserID, "error", err)
		}
		return nil
	}

	if err := recipientSink.Consume(ctx, event.MessageDelivered{Message: message}); err != nil {
		r.log.Warn("delivery lost", "recipient_id", recipient, "error", err)
	}
	if err := senderSink.Consume(ctx, event.MessageDelivered{Message: message, Echo: true}); err != nil {
		r.log.Warn("echo lost", "sender_id", sender.UserID, "error", err)
	}
	r.monitor.IncrMessagesRelayed()

	r.persist(message)
	return nil
}

// persist hands the routed message to the history writer without ever
// blocking the routing path. A full channel drops the write and counts
// it; live delivery already happened.
func (r *Relay) persist(message domain.Message) {
	if r.history == nil {
		return
	}
	select {
	case r.history <- message:
	default:
		r.monitor.IncrHistoryErrors()
		r.log.Warn("history channel full, dropping write",
			"sender_id", message.SenderID,
			"recipient_id", message.RecipientID)
	}
}
