package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything the sync engine needs from the environment.
type Config struct {
	APIBaseURL string
	WSURL      string
	// Token is the session bearer credential. The engine does not manage
	// authentication; a token must be supplied.
	Token string

	HTTPAddr   string
	DebugToken string

	AMQPURL      string
	AMQPExchange string
	ArchiveDSN   string
	OTLPEndpoint string
	Environment  string

	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val != "" {
		return val
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	if ms, err := strconv.Atoi(val); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	return def
}

// Load reads configuration from the environment, with a .env file as
// fallback source when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		APIBaseURL:   getenv("API_BASE_URL", "http://localhost:8000"),
		WSURL:        getenv("WS_URL", "ws://localhost:8000/ws/chat/"),
		Token:        getenv("SESSION_TOKEN", ""),
		HTTPAddr:     getenv("HTTP_ADDR", ":8090"),
		DebugToken:   getenv("DEBUG_TOKEN", ""),
		AMQPURL:      getenv("AMQP_URL", ""),
		AMQPExchange: getenv("AMQP_EXCHANGE", "chatsync.events"),
		ArchiveDSN:   getenv("ARCHIVE_DSN", ""),
		OTLPEndpoint: getenv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Environment:  getenv("ENVIRONMENT", "development"),
		ReconnectMin: getenvDuration("WS_RECONNECT_MIN_MS", time.Second),
		ReconnectMax: getenvDuration("WS_RECONNECT_MAX_MS", 30*time.Second),
	}
}

// Validate checks the preconditions the engine cannot start without.
func (c Config) Validate() error {
	if c.Token == "" {
		return errors.New("SESSION_TOKEN is required: the sync engine does not authenticate on its own")
	}
	if c.APIBaseURL == "" {
		return errors.New("API_BASE_URL is required")
	}
	if c.WSURL == "" {
		return errors.New("WS_URL is required")
	}
	return nil
}
