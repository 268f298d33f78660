// Manages server configuration stored in config.json.

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/maruel/boarddb/internal/kv"
)

// ConfigFile is the name of the configuration file in the data directory.
const ConfigFile = "config.json"

// Config stores all server-wide configuration.
// Loaded from config.json, created with defaults if missing.
type Config struct {
	// Backend selects the kv store: file, sqlite, redis or memory.
	Backend kv.Backend `json:"backend"`

	// RedisURL is used by the redis backend.
	RedisURL string `json:"redis_url,omitempty"`

	// RedisPrefix namespaces every key in redis.
	RedisPrefix string `json:"redis_prefix,omitempty"`

	// DebounceMS is the payload debounce window in milliseconds.
	DebounceMS int `json:"debounce_ms"`

	// Keys names the storage keys.
	Keys Keys `json:"keys"`

	// RateLimits defines rate limiting configuration.
	RateLimits RateLimits `json:"rate_limits"`
}

// RateLimits defines rate limiting configuration (requests per minute).
type RateLimits struct {
	// WriteRatePerMin limits write operations (POST/PUT/DELETE).
	// 0 means unlimited.
	WriteRatePerMin int `json:"write_rate_per_min"`
}

// Validate checks that rate limit values are non-negative.
func (r *RateLimits) Validate() error {
	if r.WriteRatePerMin < 0 {
		return errors.New("write_rate_per_min must be non-negative")
	}
	return nil
}

// DefaultConfig returns the configuration written on first start.
func DefaultConfig() Config {
	return Config{
		Backend:     kv.BackendFile,
		RedisPrefix: "boarddb:",
		DebounceMS:  int(DefaultDebounce / time.Millisecond),
		Keys:        DefaultKeys(),
		RateLimits:  RateLimits{WriteRatePerMin: 600},
	}
}

// Debounce returns the payload debounce window.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// KV returns the kv configuration rooted at dataDir.
func (c *Config) KV(dataDir string) kv.Config {
	return kv.Config{
		Backend:     c.Backend,
		Dir:         dataDir,
		RedisURL:    c.RedisURL,
		RedisPrefix: c.RedisPrefix,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if !slices.Contains(kv.Backends, c.Backend) {
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Backend == kv.BackendRedis && c.RedisURL == "" {
		return errors.New("redis_url is required with the redis backend")
	}
	if c.DebounceMS <= 0 {
		return errors.New("debounce_ms must be positive")
	}
	if err := c.Keys.Validate(); err != nil {
		return fmt.Errorf("keys: %w", err)
	}
	if err := c.RateLimits.Validate(); err != nil {
		return fmt.Errorf("rate_limits: %w", err)
	}
	return nil
}

// LoadConfig loads configuration from dataDir/config.json.
// Creates the file with defaults if it doesn't exist.
func LoadConfig(dataDir string) (*Config, error) {
	path := filepath.Join(dataDir, ConfigFile)
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // G304: path is constructed from dataDir, not user input
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := cfg.Save(dataDir); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", ConfigFile, err)
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", ConfigFile, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ConfigFile, err)
	}
	return &cfg, nil
}

// Save saves configuration to dataDir/config.json.
func (c *Config) Save(dataDir string) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dataDir, err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(filepath.Join(dataDir, ConfigFile), data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", ConfigFile, err)
	}
	return nil
}
