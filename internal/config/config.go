// Package config loads the relay's startup configuration from a JSON file,
// applying defaults for omitted fields.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config is the daemon's startup configuration. Fields omitted from the
// JSON file keep their defaults, so partial configs are safe.
type Config struct {
	// TrackerURL is the delivery URL template. It must contain the "{}"
	// placeholder where the encoded query string is substituted.
	TrackerURL string `json:"tracker_url"`

	// Token is the tracker's fixed authentication token ("pass" parameter).
	Token string `json:"token"`

	// RedisAddr is the feed transport address.
	RedisAddr string `json:"redis_addr"`

	// Stream is the Redis stream name carrying feed entries.
	Stream string `json:"stream"`

	// ResumeFrom is the starting resume position used when no checkpoint
	// exists. "$" subscribes to new entries only.
	ResumeFrom string `json:"resume_from"`

	// HeartbeatMS bounds a single blocking feed read, in milliseconds.
	HeartbeatMS int `json:"heartbeat_ms"`

	// Workers is the upload worker pool size.
	Workers int `json:"workers"`

	// DedupWindow is the number of recent vehicle events tracked for
	// contributor dedup.
	DedupWindow int `json:"dedup_window"`

	// CheckpointPath is the SQLite file persisting the resume position.
	CheckpointPath string `json:"checkpoint_path"`

	// Listen is the status server address.
	Listen string `json:"listen"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		TrackerURL:     "http://localhost:8096/track.php?{}",
		Token:          "aurora",
		RedisAddr:      "localhost:6379",
		Stream:         "telemetry",
		ResumeFrom:     "$",
		HeartbeatMS:    1000,
		Workers:        5,
		DedupWindow:    30,
		CheckpointPath: "skyrelay.db",
		Listen:         ":8090",
	}
}

// Load reads a JSON config file over the defaults. The file must have a
// .json extension and is size-capped as a sanity check.
func Load(path string) (Config, error) {
	cfg := Default()

	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return cfg, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return cfg, fmt.Errorf("stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if info.Size() > maxFileSize {
		return cfg, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	raw, err := os.ReadFile(cleanPath)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the fields that have no workable fallback.
func (c Config) Validate() error {
	if !strings.Contains(c.TrackerURL, "{}") {
		return fmt.Errorf("tracker_url must contain the {} placeholder, got %q", c.TrackerURL)
	}
	if c.Stream == "" {
		return fmt.Errorf("stream must not be empty")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// Heartbeat returns the feed read timeout as a duration.
func (c Config) Heartbeat() time.Duration {
	if c.HeartbeatMS <= 0 {
		return time.Second
	}
	return time.Duration(c.HeartbeatMS) * time.Millisecond
}
