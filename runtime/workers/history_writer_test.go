package workers

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"forum-chat/domain"
	"forum-chat/mocks"
	"forum-chat/repositories"
)

func TestHistoryWriter_StoresEveryMessage(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repository := mocks.NewMockIMessageRepository(ctrl)
	messages := make(chan domain.Message, 4)

	stored := make(chan repositories.DiskMessage, 4)
	repository.EXPECT().
		StoreMessage(gomock.Any()).
		DoAndReturn(func(message repositories.DiskMessage) error {
			stored <- message
			return nil
		}).
		Times(2)

	writer := NewHistoryWriter(slog.Default(), nil, messages, repository)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- writer.Run(ctx) }()

	// When two routed messages arrive
	sender := domain.PresenceEntry{UserID: 1, SessionID: domain.NewSessionID(), DisplayName: "alice"}
	at := time.Now().UTC()
	messages <- domain.NewMessage(sender, 2, "first", at)
	messages <- domain.NewMessage(sender, 2, "second", at.Add(time.Second))

	// Then both end up in the repository
	first := <-stored
	second := <-stored
	req.Equal("first", first.Body)
	req.Equal("second", second.Body)
	req.Equal(domain.UserID(1), first.SenderID)
	req.Equal(domain.UserID(2), first.RecipientID)

	cancel()
	req.ErrorIs(<-done, context.Canceled)
}

func TestHistoryWriter_DrainsBacklogOnShutdown(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repository := mocks.NewMockIMessageRepository(ctrl)
	repository.EXPECT().StoreMessage(gomock.Any()).Return(nil).Times(3)

	// Given a backlog queued before the writer ever runs
	messages := make(chan domain.Message, 4)
	sender := domain.PresenceEntry{UserID: 1, SessionID: domain.NewSessionID(), DisplayName: "alice"}
	at := time.Now().UTC()
	for i := 0; i < 3; i++ {
		messages <- domain.NewMessage(sender, 2, fmt.Sprintf("queued %d", i), at)
	}

	writer := NewHistoryWriter(slog.Default(), nil, messages, repository)

	// When Run starts with an already canceled context
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := writer.Run(ctx)

	// Then the backlog was flushed before returning
	req.ErrorIs(err, context.Canceled)
}

func TestHistoryWriter_KeepsGoingAfterWriteFailure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repository := mocks.NewMockIMessageRepository(ctrl)
	gomock.InOrder(
		repository.EXPECT().StoreMessage(gomock.Any()).Return(fmt.Errorf("disk full")),
		repository.EXPECT().StoreMessage(gomock.Any()).Return(nil),
	)

	messages := make(chan domain.Message, 2)
	sender := domain.PresenceEntry{UserID: 1, SessionID: domain.NewSessionID(), DisplayName: "alice"}
	at := time.Now().UTC()
	messages <- domain.NewMessage(sender, 2, "doomed", at)
	messages <- domain.NewMessage(sender, 2, "fine", at.Add(time.Second))
	close(messages)

	writer := NewHistoryWriter(slog.Default(), nil, messages, repository)

	// A failed write is logged, not fatal; the writer finishes the queue
	req.NoError(writer.Run(context.Background()))
}
