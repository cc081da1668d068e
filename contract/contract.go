//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"forum-chat/domain"
	"forum-chat/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes, avoiding the need
// for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is one session's delivery endpoint. Consume must never
// block the caller: the presence directory broadcasts while holding
// its lock.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IChatService is the transport-facing surface of the chat core.
type IChatService interface {
	// Register authenticates a connect ticket and binds the session to
	// the user it names. A second registration for the same user
	// supersedes the first.
	Register(ctx context.Context, ticket string, session domain.SessionID, sink EventSink) (domain.PresenceEntry, error)
	// Route forwards a point-to-point message from a registered session.
	Route(ctx context.Context, from domain.SessionID, recipient domain.UserID, body string) error
	// Disconnect releases whatever presence the session holds. Safe to
	// call for sessions that never registered.
	Disconnect(session domain.SessionID)
	// GetHistory returns the persisted exchange between two users,
	// ascending by timestamp, regardless of who sent what.
	GetHistory(a, b domain.UserID) ([]domain.Message, error)
}
