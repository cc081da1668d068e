package internal

import "time"

// Config is the server's environment surface. Defaults keep a local
// run working with nothing but a ticket secret.
type Config struct {
	Host            string        `env:"HOST,default=0.0.0.0"`
	Port            int           `env:"PORT,default=3000"`
	DebugPort       int           `env:"DEBUG_PORT,default=8081"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO"`
	BadgerFilepath  string        `env:"BADGER_FILEPATH,default=./data/messages"`
	TicketSecret    string        `env:"TICKET_SECRET,required=true"`
	TicketDuration  time.Duration `env:"TICKET_DURATION,default=24h"`
	SinkBufferSize  int           `env:"SINK_BUFFER_SIZE,default=64"`
	HistoryBuffer   int           `env:"HISTORY_BUFFER_SIZE,default=256"`
	MaxMessageSize  int64         `env:"MAX_MESSAGE_SIZE,default=8192"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	PongTimeout     time.Duration `env:"PONG_TIMEOUT,default=60s"`
	PingInterval    time.Duration `env:"PING_INTERVAL,default=54s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

// ViewerConfig is the read-only inspector's surface: it only needs to
// find the message log and a port, so no ticket secret is required.
type ViewerConfig struct {
	DebugPort      int    `env:"DEBUG_PORT,default=8081"`
	BadgerFilepath string `env:"BADGER_FILEPATH,default=./data/messages"`
}
