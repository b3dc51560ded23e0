package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/epeers/marketsync/internal/gate"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds application configuration loaded from environment variables
type Config struct {
	PGURL string
	AVKey string
	Port  string

	LogLevel  string
	LogFormat string

	SyncMinInterval  time.Duration
	SyncPenalty      time.Duration
	SyncErrorCeiling int

	// AdminToken guards /admin. Empty leaves it open.
	AdminToken string

	NasdaqFile  string
	NYSEFile    string
	DigitalFile string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first; variables already set in the shell win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	pgURL := os.Getenv("PG_URL")
	if pgURL == "" {
		return nil, fmt.Errorf("PG_URL environment variable is required")
	}

	avKey := os.Getenv("AV_KEY")
	if avKey == "" {
		return nil, fmt.Errorf("AV_KEY environment variable is required")
	}

	minInterval, err := envMillis("SYNC_MIN_INTERVAL_MS", 350)
	if err != nil {
		return nil, err
	}
	penalty, err := envMillis("SYNC_PENALTY_MS", 1000)
	if err != nil {
		return nil, err
	}
	ceiling, err := envInt("SYNC_ERROR_CEILING", 50)
	if err != nil {
		return nil, err
	}

	return &Config{
		PGURL:            pgURL,
		AVKey:            avKey,
		Port:             envOr("PORT", "8080"),
		LogLevel:         envOr("LOG_LEVEL", "info"),
		LogFormat:        envOr("LOG_FORMAT", "text"),
		SyncMinInterval:  minInterval,
		SyncPenalty:      penalty,
		SyncErrorCeiling: ceiling,
		AdminToken:       os.Getenv("ADMIN_TOKEN"),
		NasdaqFile:       os.Getenv("NASDAQ_FILE"),
		NYSEFile:         os.Getenv("NYSE_FILE"),
		DigitalFile:      os.Getenv("DIGITAL_FILE"),
	}, nil
}

// GateOptions configures the request gate each sync run gets.
func (c *Config) GateOptions() []gate.Option {
	return []gate.Option{
		gate.WithMinInterval(c.SyncMinInterval),
		gate.WithPenalty(c.SyncPenalty),
		gate.WithCeiling(c.SyncErrorCeiling),
	}
}

// ConfigureLogging applies LOG_LEVEL and LOG_FORMAT to the standard logrus logger.
func (c *Config) ConfigureLogging() error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	log.SetLevel(level)

	switch strings.ToLower(c.LogFormat) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("invalid LOG_FORMAT: %s", c.LogFormat)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, v)
	}
	return n, nil
}

func envMillis(key string, def int) (time.Duration, error) {
	n, err := envInt(key, def)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Millisecond, nil
}
