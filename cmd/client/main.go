package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"

	"forum-chat/client"
	"forum-chat/domain"
	"forum-chat/internal"
	"forum-chat/services"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL   string `envconfig:"CHAT_SERVER_URL" default:"ws://localhost:3000/ws"`
	HistoryURL  string `envconfig:"CHAT_HISTORY_URL" default:"http://localhost:3000"`
	Ticket      string `envconfig:"CHAT_TICKET"`
	UserID      int64  `envconfig:"CHAT_USER_ID"`
	DisplayName string `envconfig:"CHAT_DISPLAY_NAME"`
	Secret      string `envconfig:"TICKET_SECRET"`
	TicketTTL   string `envconfig:"TICKET_DURATION" default:"24h"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"WARN"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := internal.GetLoggerFromString(config.LogLevel)

	ticket, err := resolveTicket(config)
	if err != nil {
		return exitConfig, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	transport, err := client.Dial(ctx, config.ServerURL, log)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", config.ServerURL, err)
	}
	defer transport.Close()

	controller := client.NewController(log, client.NewHTTPHistory(config.HistoryURL), terminalRenderer{})
	controller.OnConnect()

	if err := transport.Register(ticket); err != nil {
		return exitRuntime, fmt.Errorf("register failed: %w", err)
	}
	controller.OnRegistered(domain.OnlineUser{
		UserID:      domain.UserID(config.UserID),
		DisplayName: config.DisplayName,
	})
	fmt.Printf("Connected as %s (%d). Commands: /who, /open <id>, /quit\n",
		config.DisplayName, config.UserID)

	// Server events feed the controller until the stream dies.
	events := transport.Events(ctx)
	streamDone := make(chan struct{})
	go func() {
		defer close(streamDone)
		for evt := range events {
			controller.HandleEvent(evt)
		}
		controller.OnDisconnect()
	}()

	// Stdin drives the conversation.
	lines := readLines(ctx)
	for {
		select {
		case <-ctx.Done():
			return exitOK, nil
		case <-streamDone:
			return exitRuntime, fmt.Errorf("server connection lost")
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			if done := dispatch(ctx, line, controller, transport); done {
				return exitOK, nil
			}
		}
	}
}

// dispatch interprets one input line; returns true on /quit.
func dispatch(ctx context.Context, line string, controller *client.Controller, transport *client.Transport) bool {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
	case line == "/quit":
		return true
	case line == "/who":
		terminalRenderer{}.RenderPresence(controller.Online())
	case strings.HasPrefix(line, "/open "):
		id, err := strconv.ParseInt(strings.TrimSpace(strings.TrimPrefix(line, "/open ")), 10, 64)
		if err != nil {
			terminalRenderer{}.RenderNotice("usage: /open <user id>")
			return false
		}
		if err := controller.OpenConversation(ctx, domain.UserID(id)); err != nil {
			terminalRenderer{}.RenderNotice(err.Error())
		}
	default:
		partner := controller.Active()
		if partner == 0 {
			terminalRenderer{}.RenderNotice("open a conversation first: /open <user id>")
			return false
		}
		if err := transport.Send(partner, line); err != nil {
			terminalRenderer{}.RenderNotice("send failed: " + err.Error())
		}
	}
	return false
}

// resolveTicket uses the provided ticket, or mints a local one when the
// shared secret is available (development convenience; in production
// the account service hands the ticket out at login).
func resolveTicket(config Config) (string, error) {
	if config.Ticket != "" {
		return config.Ticket, nil
	}
	if config.Secret == "" || config.UserID == 0 || config.DisplayName == "" {
		return "", fmt.Errorf("set CHAT_TICKET, or TICKET_SECRET with CHAT_USER_ID and CHAT_DISPLAY_NAME")
	}
	ttl, err := time.ParseDuration(config.TicketTTL)
	if err != nil {
		return "", fmt.Errorf("invalid TICKET_DURATION: %w", err)
	}
	ticket, err := services.NewTicketService([]byte(config.Secret), ttl).
		Issue(domain.UserID(config.UserID), config.DisplayName)
	return string(ticket), err
}

// readLines pumps stdin into a channel so input can race the event
// stream and shutdown signals.
func readLines(ctx context.Context) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}
