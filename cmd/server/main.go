package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"forum-chat/domain"
	"forum-chat/internal"
	"forum-chat/observability"
	"forum-chat/repositories"
	"forum-chat/runtime"
	"forum-chat/runtime/workers"
	"forum-chat/services"
	"forum-chat/ws"
)

// Exit codes to provide meaningful status to the operating system or
// service manager (e.g. systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper. Its only responsibility
	// is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so every defer (database close, worker
// drain) executes before the process exits.
func run() (int, error) {
	// 1. Configuration & logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	logger := internal.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Message log (BadgerDB)
	options := badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(options)
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	monitor := observability.NewMonitor()
	repository := repositories.NewMessageRepository(db, logger)

	if logger.Enabled(ctx, slog.LevelDebug) {
		endpoint := "/inspect"
		internal.StartDebugServer(db, config.DebugPort, endpoint, internal.MessageMapper, monitor.Stats)
		logger.Info("Debug inspector available",
			"url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
	}

	// 3. Chat core: directory, relay, history writer
	directory := runtime.NewDirectory(logger, monitor)
	history := make(chan domain.Message, config.HistoryBuffer)
	relay := runtime.NewRelay(logger, monitor, directory, history)
	service := services.NewChatService([]byte(config.TicketSecret), directory, relay, repository)

	supervisor := workers.NewSupervisor(logger)
	supervisor.Add(workers.NewHistoryWriter(logger, monitor, history, repository))
	supervisorDone := make(chan struct{})
	go func() {
		defer close(supervisorDone)
		supervisor.Run(ctx)
	}()

	// 4. Transport
	server := ws.NewServer(logger, monitor, service, ws.Options{
		SinkBuffer:     config.SinkBufferSize,
		MaxMessageSize: config.MaxMessageSize,
		WriteWait:      config.WriteTimeout,
		PongWait:       config.PongTimeout,
		PingPeriod:     config.PingInterval,
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler: server.Routes(),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Chat server listening", "addr", httpServer.Addr)
		serveErr <- httpServer.ListenAndServe()
	}()

	// 5. Wait for a shutdown signal or a transport failure
	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return exitRuntime, fmt.Errorf("transport failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}

	// Workers stop via the signal context; wait so the history writer
	// finishes draining before Badger closes.
	<-supervisorDone
	logger.Info("Server stopped")
	return exitOK, nil
}
