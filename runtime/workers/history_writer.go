package workers

import (
	"context"
	"log/slog"

	"forum-chat/domain"
	"forum-chat/observability"
	"forum-chat/repositories"
)

// HistoryWriter drains the relay's history channel and appends every
// routed message to the persisted log. It runs off the routing path so
// a slow disk can never delay presence broadcasts or deliveries. A
// failed write is logged and counted, never retried: the live delivery
// already happened and history stays best-effort.
type HistoryWriter struct {
	log        *slog.Logger
	monitor    *observability.Monitor
	messages   <-chan domain.Message
	repository repositories.IMessageRepository
}

func NewHistoryWriter(log *slog.Logger, monitor *observability.Monitor,
	messages <-chan domain.Message, repository repositories.IMessageRepository) *HistoryWriter {
	return &HistoryWriter{log: log, monitor: monitor, messages: messages, repository: repository}
}

func (w *HistoryWriter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			// Drain what the relay already handed over before stopping,
			// so an orderly shutdown loses nothing that was delivered.
			for {
				select {
				case message := <-w.messages:
					w.store(message)
				default:
					return ctx.Err()
				}
			}
		case message, ok := <-w.messages:
			if !ok {
				return nil
			}
			w.store(message)
		}
	}
}

func (w *HistoryWriter) store(message domain.Message) {
	if err := w.repository.StoreMessage(repositories.ToDiskMessage(message)); err != nil {
		w.monitor.IncrHistoryErrors()
		w.log.Error("history write failed",
			"sender_id", message.SenderID,
			"recipient_id", message.RecipientID,
			"error", err)
		return
	}
	w.monitor.IncrHistoryWrites()
}
