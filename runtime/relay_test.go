package runtime

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"forum-chat/domain"
	"forum-chat/domain/event"
	"forum-chat/errors"
)

func deliveries(sink *recordingSink) []event.MessageDelivered {
	var out []event.MessageDelivered
	for _, e := range sink.events {
		if delivered, ok := e.(event.MessageDelivered); ok {
			out = append(out, delivered)
		}
	}
	return out
}

func TestRelay_Route_DeliversToRecipientAndEchoesToSender(t *testing.T) {
	req := require.New(t)
	directory := NewDirectory(slog.Default(), nil)
	relay := NewRelay(slog.Default(), nil, directory, nil)

	aliceSession := domain.NewSessionID()
	aliceSink := &recordingSink{}
	bobSink := &recordingSink{}
	directory.Register(domain.PresenceEntry{UserID: 1, SessionID: aliceSession, DisplayName: "alice"}, aliceSink)
	directory.Register(domain.PresenceEntry{UserID: 2, SessionID: domain.NewSessionID(), DisplayName: "bob"}, bobSink)

	// When alice sends bob a message
	err := relay.Route(context.Background(), aliceSession, 2, "hello bob")
	req.NoError(err)

	// Then bob received the plain copy
	bobDeliveries := deliveries(bobSink)
	req.Len(bobDeliveries, 1)
	req.False(bobDeliveries[0].Echo)
	req.Equal(domain.UserID(1), bobDeliveries[0].Message.SenderID)
	req.Equal("alice", bobDeliveries[0].Message.SenderName)
	req.Equal("hello bob", bobDeliveries[0].Message.Body)

	// And alice received the echo, marked as her own
	aliceDeliveries := deliveries(aliceSink)
	req.Len(aliceDeliveries, 1)
	req.True(aliceDeliveries[0].Echo)
	req.Equal(domain.UserID(2), aliceDeliveries[0].Message.RecipientID)

	// And both copies are the very same message
	req.Equal(bobDeliveries[0].Message.ID, aliceDeliveries[0].Message.ID)
}

func TestRelay_Route_OfflineRecipientNotifiesSenderOnly(t *testing.T) {
	req := require.New(t)
	directory := NewDirectory(slog.Default(), nil)
	relay := NewRelay(slog.Default(), nil, directory, nil)

	aliceSession := domain.NewSessionID()
	aliceSink := &recordingSink{}
	directory.Register(domain.PresenceEntry{UserID: 1, SessionID: aliceSession, DisplayName: "alice"}, aliceSink)

	// When alice messages someone who is not online
	err := relay.Route(context.Background(), aliceSession, 7, "anyone there?")
	req.NoError(err)

	// Then alice got an offline notice and no echo
	req.Empty(deliveries(aliceSink))
	var notices []event.RecipientOffline
	for _, e := range aliceSink.events {
		if notice, ok := e.(event.RecipientOffline); ok {
			notices = append(notices, notice)
		}
	}
	req.Len(notices, 1)
	req.Equal(domain.UserID(7), notices[0].RecipientID)
}

func TestRelay_Route_UnregisteredSenderIsRejected(t *testing.T) {
	req := require.New(t)
	directory := NewDirectory(slog.Default(), nil)
	relay := NewRelay(slog.Default(), nil, directory, nil)

	// When a session that never registered tries to send
	err := relay.Route(context.Background(), domain.NewSessionID(), 2, "sneaky")

	// Then the send is refused
	req.ErrorIs(err, errors.ErrUnregisteredSender)
}

func TestRelay_Route_SupersededSessionCannotSend(t *testing.T) {
	req := require.New(t)
	directory := NewDirectory(slog.Default(), nil)
	relay := NewRelay(slog.Default(), nil, directory, nil)

	oldSession := domain.NewSessionID()
	directory.Register(domain.PresenceEntry{UserID: 1, SessionID: oldSession, DisplayName: "alice"}, &recordingSink{})
	directory.Register(domain.PresenceEntry{UserID: 1, SessionID: domain.NewSessionID(), DisplayName: "alice"}, &recordingSink{})

	// When the superseded session tries to send
	err := relay.Route(context.Background(), oldSession, 2, "from the past")

	// Then it is treated like any unregistered sender
	req.ErrorIs(err, errors.ErrUnregisteredSender)
}

func TestRelay_Route_HandsDeliveredMessageToHistory(t *testing.T) {
	req := require.New(t)
	directory := NewDirectory(slog.Default(), nil)
	history := make(chan domain.Message, 1)
	relay := NewRelay(slog.Default(), nil, directory, history)

	aliceSession := domain.NewSessionID()
	directory.Register(domain.PresenceEntry{UserID: 1, SessionID: aliceSession, DisplayName: "alice"}, &recordingSink{})
	directory.Register(domain.PresenceEntry{UserID: 2, SessionID: domain.NewSessionID(), DisplayName: "bob"}, &recordingSink{})

	// When a message is delivered
	req.NoError(relay.Route(context.Background(), aliceSession, 2, "for the record"))

	// Then it landed on the history channel
	select {
	case message := <-history:
		req.Equal(domain.UserID(1), message.SenderID)
		req.Equal(domain.UserID(2), message.RecipientID)
		req.Equal("for the record", message.Body)
	default:
		req.Fail("expected one message queued for history")
	}
}

func TestRelay_Route_OfflineMessageIsNotPersisted(t *testing.T) {
	req := require.New(t)
	directory := NewDirectory(slog.Default(), nil)
	history := make(chan domain.Message, 1)
	relay := NewRelay(slog.Default(), nil, directory, history)

	aliceSession := domain.NewSessionID()
	directory.Register(domain.PresenceEntry{UserID: 1, SessionID: aliceSession, DisplayName: "alice"}, &recordingSink{})

	// When the recipient is offline
	req.NoError(relay.Route(context.Background(), aliceSession, 9, "lost"))

	// Then nothing reached the history channel
	req.Empty(history)
}
