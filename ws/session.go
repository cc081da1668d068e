package ws

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/gorilla/websocket"

	"forum-chat/domain"
	"forum-chat/domain/event"
	"forum-chat/errors"
)

// session is the per-connection context: the opaque handle minted at
// accept time plus, once registered, the user bound to it. All identity
// resolution goes through this struct and the directory, never through
// state hung off the raw connection.
type session struct {
	id     domain.SessionID
	userID *domain.UserID
	conn   *websocket.Conn
	sink   *Sink
	server *Server
	done   chan struct{}
}

func newSession(server *Server, conn *websocket.Conn) *session {
	return &session{
		id:     domain.NewSessionID(),
		conn:   conn,
		sink:   NewSink(server.options.SinkBuffer, server.monitor),
		server: server,
		done:   make(chan struct{}),
	}
}

// readPump consumes client frames until the connection dies. Transport
// disconnect is a lifecycle event, not an error: the deferred cleanup
// releases the session's presence (triggering a broadcast when an entry
// was actually removed) and stops the write pump.
func (s *session) readPump(ctx context.Context) {
	defer func() {
		s.server.service.Disconnect(s.id)
		close(s.done)
		_ = s.conn.Close()
		s.server.monitor.IncrConnectionsClosed()
		if s.userID != nil {
			s.server.log.Info("session closed", "session", s.id, "user_id", *s.userID)
		} else {
			s.server.log.Info("session closed", "session", s.id)
		}
	}()

	s.conn.SetReadLimit(s.server.options.MaxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(s.server.options.PongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.server.options.PongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				s.server.log.Warn("unexpected close", "session", s.id, "error", err)
			}
			return
		}
		s.handle(ctx, data)
	}
}

func (s *session) handle(ctx context.Context, data []byte) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		s.reject(ctx, CodeMalformedEvent)
		return
	}

	switch envelope.Type {
	case TypeRegister:
		s.handleRegister(ctx, envelope.Payload)
	case TypeSendMessage:
		s.handleSendMessage(ctx, envelope.Payload)
	default:
		s.reject(ctx, CodeMalformedEvent)
	}
}

func (s *session) handleRegister(ctx context.Context, raw json.RawMessage) {
	var payload RegisterPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		s.reject(ctx, CodeMalformedEvent)
		return
	}
	if err := s.server.validate.Struct(payload); err != nil {
		s.reject(ctx, CodeMalformedEvent)
		return
	}

	entry, err := s.server.service.Register(ctx, payload.Ticket, s.id, s.sink)
	if err != nil {
		s.server.log.Warn("register rejected", "session", s.id, "error", err)
		s.reject(ctx, CodeInvalidTicket)
		return
	}
	s.userID = &entry.UserID
	s.server.log.Info("session registered",
		"session", s.id,
		"user_id", entry.UserID,
		"display_name", entry.DisplayName)
}

func (s *session) handleSendMessage(ctx context.Context, raw json.RawMessage) {
	var payload SendMessagePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		s.reject(ctx, CodeMalformedEvent)
		return
	}
	if err := s.server.validate.Struct(payload); err != nil {
		s.reject(ctx, CodeMalformedEvent)
		return
	}

	err := s.server.service.Route(ctx, s.id, domain.UserID(payload.RecipientID), payload.Body)
	if stderrors.Is(err, errors.ErrUnregisteredSender) {
		s.reject(ctx, CodeUnregisteredSender)
		return
	}
	if err != nil {
		s.server.log.Error("route failed", "session", s.id, "error", err)
	}
}

// reject reports a refused operation to this session only.
func (s *session) reject(ctx context.Context, code string) {
	if err := s.sink.Consume(ctx, event.ProtocolError{Code: code}); err != nil {
		s.server.log.Warn("error notice lost", "session", s.id, "code", code)
	}
}

// writePump serializes everything the session must hear: domain events
// from the sink and keepalive pings. It owns all writes on the
// connection.
func (s *session) writePump() {
	ticker := time.NewTicker(s.server.options.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case evt := <-s.sink.Events():
			data, err := EncodeEvent(evt)
			if err != nil {
				s.server.log.Error("event encoding failed", "session", s.id, "error", err)
				continue
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.server.options.WriteWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				// The read pump will observe the dead connection and
				// run the cleanup path.
				s.server.log.Debug("write failed", "session", s.id)
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.server.options.WriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
