package client

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"forum-chat/domain"
	"forum-chat/domain/event"
	"forum-chat/ws"
)

// Transport is the client-side websocket wrapper: it frames outgoing
// events and decodes the incoming stream into domain events.
type Transport struct {
	mu   sync.Mutex // serializes writes; gorilla allows one writer
	log  *slog.Logger
	conn *websocket.Conn
}

// Dial connects to the chat server's websocket endpoint.
func Dial(ctx context.Context, url string, log *slog.Logger) (*Transport, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &Transport{log: log, conn: conn}, nil
}

// Register presents the connect ticket.
func (t *Transport) Register(ticket string) error {
	return t.write(ws.TypeRegister, ws.RegisterPayload{Ticket: ticket})
}

// Send routes a message to one recipient.
func (t *Transport) Send(recipient domain.UserID, body string) error {
	return t.write(ws.TypeSendMessage, ws.SendMessagePayload{
		RecipientID: int64(recipient),
		Body:        body,
	})
}

func (t *Transport) write(eventType string, payload any) error {
	data, err := ws.EncodeClientEvent(eventType, payload)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

// Events reads the server stream until the connection dies, decoding
// each frame. The returned channel closes on disconnect.
func (t *Transport) Events(ctx context.Context) <-chan event.DomainEvent {
	events := make(chan event.DomainEvent)
	go func() {
		defer close(events)
		for {
			_, data, err := t.conn.ReadMessage()
			if err != nil {
				t.log.Debug("server stream closed", "error", err)
				return
			}
			evt, err := ws.DecodeServerEvent(data)
			if err != nil {
				t.log.Warn("undecodable server event", "error", err)
				continue
			}
			select {
			case events <- evt:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events
}

func (t *Transport) Close() {
	_ = t.conn.Close()
}
