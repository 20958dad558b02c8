package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the client settings for one livelog server.
type Config struct {
	ServerURL      string
	Token          string
	PollInterval   time.Duration
	RequestTimeout time.Duration
	BufferLimit    int
	LogLevel       string
	LogFile        string
}

const (
	defaultConfigPath     = "~/.config/livelog/config.toml"
	defaultLogFile        = "~/.local/state/livelog/livelog.log"
	defaultServerURL      = "127.0.0.1:8080/livelog/"
	defaultPollInterval   = time.Second
	defaultRequestTimeout = 5 * time.Second
	defaultBufferLimit    = 0 // keep every line
	defaultLogLevel       = "info"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		ServerURL:      defaultServerURL,
		PollInterval:   defaultPollInterval,
		RequestTimeout: defaultRequestTimeout,
		BufferLimit:    defaultBufferLimit,
		LogLevel:       defaultLogLevel,
		LogFile:        mustExpand(defaultLogFile),
	}
}

// Load locates and parses the livelog config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		ServerURL        string `toml:"server_url"`
		Token            string `toml:"token"`
		PollIntervalMS   *int64 `toml:"poll_interval_ms"`
		RequestTimeoutMS *int64 `toml:"request_timeout_ms"`
		BufferLimit      *int   `toml:"buffer_limit"`
		LogLevel         string `toml:"log_level"`
		LogFile          string `toml:"log_file"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.ServerURL); v != "" {
		cfg.ServerURL = v
	}
	cfg.Token = strings.TrimSpace(raw.Token)
	if raw.PollIntervalMS != nil {
		if *raw.PollIntervalMS <= 0 {
			return Config{}, fmt.Errorf("parse config: poll_interval_ms must be positive, got %d", *raw.PollIntervalMS)
		}
		cfg.PollInterval = time.Duration(*raw.PollIntervalMS) * time.Millisecond
	}
	if raw.RequestTimeoutMS != nil {
		if *raw.RequestTimeoutMS <= 0 {
			return Config{}, fmt.Errorf("parse config: request_timeout_ms must be positive, got %d", *raw.RequestTimeoutMS)
		}
		cfg.RequestTimeout = time.Duration(*raw.RequestTimeoutMS) * time.Millisecond
	}
	if raw.BufferLimit != nil {
		if *raw.BufferLimit < 0 {
			return Config{}, fmt.Errorf("parse config: buffer_limit must not be negative, got %d", *raw.BufferLimit)
		}
		cfg.BufferLimit = *raw.BufferLimit
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}

	return cfg, nil
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return defaultConfigPath
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
