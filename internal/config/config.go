package config

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/seantiz/soundbatch/internal/model"
)

const (
	defaultListenAddr  = ":8080"
	defaultDBPath      = ":memory:"
	defaultWaitTimeout = 30 * time.Second

	envListenAddr      = "SOUNDBATCH_LISTEN_ADDR"
	envDBPath          = "SOUNDBATCH_DB_PATH"
	envLogLevel        = "SOUNDBATCH_LOG_LEVEL"
	envDefaultChannels = "SOUNDBATCH_DEFAULT_CHANNELS"
	envWaitTimeout     = "SOUNDBATCH_WAIT_TIMEOUT"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	ListenAddr string

	// DBPath is the batch history database. The default keeps history in
	// memory for the lifetime of the process.
	DBPath   string
	LogLevel slog.Level

	// DefaultChannels is attached to requests that carry no data payload.
	DefaultChannels int

	// WaitTimeout bounds how long POST /v1/batches waits for settlement
	// before answering 202.
	WaitTimeout time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	cfg := Config{
		ListenAddr:      defaultListenAddr,
		DBPath:          defaultDBPath,
		LogLevel:        slog.LevelInfo,
		DefaultChannels: model.DefaultChannels,
		WaitTimeout:     defaultWaitTimeout,
	}

	if v := os.Getenv(envListenAddr); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv(envDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}
	if v := os.Getenv(envDefaultChannels); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DefaultChannels = n
		}
	}
	if v := os.Getenv(envWaitTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.WaitTimeout = d
		}
	}

	return cfg
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a structured JSON logger writing to w at the configured level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
