package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"forum-chat/contract"
	"forum-chat/domain"
	"forum-chat/observability"
)

// Options bound the transport behavior; zero values are replaced by
// DefaultOptions.
type Options struct {
	SinkBuffer     int
	MaxMessageSize int64
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
}

func DefaultOptions() Options {
	return Options{
		SinkBuffer:     64,
		MaxMessageSize: 8192,
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     54 * time.Second,
	}
}

// Server upgrades connections, runs one session per connection, and
// answers the history query over plain HTTP.
type Server struct {
	log      *slog.Logger
	monitor  *observability.Monitor
	service  contract.IChatService
	options  Options
	validate *validator.Validate
	upgrader websocket.Upgrader
}

func NewServer(log *slog.Logger, monitor *observability.Monitor,
	service contract.IChatService, options Options) *Server {
	if options.SinkBuffer == 0 {
		options = DefaultOptions()
	}
	return &Server{
		log:      log,
		monitor:  monitor,
		service:  service,
		options:  options,
		validate: validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Routes exposes the transport surface:
//
//	GET /ws                      websocket upgrade
//	GET /chat/history/{a}/{b}    persisted conversation, ascending
//	GET /healthz                 liveness probe
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleConnect)
	mux.HandleFunc("GET /chat/history/{a}/{b}", s.handleHistory)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	sess := newSession(s, conn)
	s.monitor.IncrConnectionsOpened()
	s.log.Info("session opened", "session", sess.id, "remote", r.RemoteAddr)

	go sess.writePump()
	// The read pump owns the connection's lifecycle; it returns when
	// the client goes away and runs the disconnect path.
	sess.readPump(r.Context())
}

// HistoryEntry is one line of the history reply.
type HistoryEntry struct {
	SenderID          int64     `json:"sender_id"`
	SenderDisplayName string    `json:"sender_display_name"`
	Body              string    `json:"body"`
	At                time.Time `json:"at"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	a, errA := strconv.ParseInt(r.PathValue("a"), 10, 64)
	b, errB := strconv.ParseInt(r.PathValue("b"), 10, 64)
	if errA != nil || errB != nil {
		http.Error(w, `{"error":"user ids must be integers"}`, http.StatusBadRequest)
		return
	}

	messages, err := s.service.GetHistory(domain.UserID(a), domain.UserID(b))
	if err != nil {
		// Non-fatal for the client: it keeps the conversation usable
		// for live messages and shows a banner.
		s.log.Error("history query failed", "a", a, "b", b, "error", err)
		http.Error(w, `{"error":"history unavailable"}`, http.StatusInternalServerError)
		return
	}

	entries := lo.Map(messages, func(m domain.Message, _ int) HistoryEntry {
		return HistoryEntry{
			SenderID:          int64(m.SenderID),
			SenderDisplayName: m.SenderName,
			Body:              m.Body,
			At:                m.At,
		}
	})

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		s.log.Warn("history reply aborted", "error", err)
	}
}
