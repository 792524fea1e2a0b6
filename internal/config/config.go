package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caira-ai/caira-engine/internal/consts"
)

const defaultBaseURL = "https://api.together.xyz/v1"
const defaultModel = "mistralai/Mistral-7B-Instruct-v0.1"

// Config represents the engine configuration
type Config struct {
	APIKey  string `json:"-"` // never persisted; env only
	Model   string `json:"model"`
	BaseURL string `json:"base_url"`

	ListenAddr string `json:"listen_addr"`

	CacheTTLSeconds     int `json:"cache_ttl_seconds"`
	MaxHistoryTurns     int `json:"max_history_turns"`
	CompletionAttempts  int `json:"completion_attempts"`
	AttemptTimeoutSecs  int `json:"attempt_timeout_seconds"`
	BackoffBaseMillis   int `json:"backoff_base_millis"`
	CacheSweepIntervalS int `json:"cache_sweep_interval_seconds"`

	LogLevel string `json:"log_level"` // debug, info, warn, error, none
	LogPath  string `json:"-"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Model:               defaultModel,
		BaseURL:             defaultBaseURL,
		ListenAddr:          ":8000",
		CacheTTLSeconds:     int(consts.ResponseCacheTTL / time.Second),
		MaxHistoryTurns:     consts.MaxHistoryTurns,
		CompletionAttempts:  consts.CompletionMaxAttempts,
		AttemptTimeoutSecs:  int(consts.CompletionAttemptTimeout / time.Second),
		BackoffBaseMillis:   int(consts.CompletionBackoffBase / time.Millisecond),
		CacheSweepIntervalS: int(consts.ResponseCacheSweepInterval / time.Second),
		LogLevel:            "info",
	}
}

// Load loads configuration from file, then applies environment overrides.
// A missing file is not an error; defaults are used.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		} else if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.MaxHistoryTurns <= 0 {
		cfg.MaxHistoryTurns = consts.MaxHistoryTurns
	}
	if cfg.CompletionAttempts <= 0 {
		cfg.CompletionAttempts = consts.CompletionMaxAttempts
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("TOGETHER_API_KEY")); v != "" {
		c.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("TOGETHER_MODEL")); v != "" {
		c.Model = v
	}
	if v := strings.TrimSpace(os.Getenv("TOGETHER_BASE_URL")); v != "" {
		c.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CAIRA_LISTEN_ADDR")); v != "" {
		c.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("CAIRA_LOG_LEVEL")); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("CAIRA_LOG_PATH")); v != "" {
		c.LogPath = v
	}
	if v := strings.TrimSpace(os.Getenv("CAIRA_CACHE_TTL_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.CacheTTLSeconds = n
		}
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("TOGETHER_API_KEY environment variable is required")
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("model name must not be empty")
	}
	if c.CacheTTLSeconds <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %d", c.CacheTTLSeconds)
	}
	return nil
}

// CacheTTL returns the response cache TTL as a duration
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// AttemptTimeout returns the per-attempt completion timeout
func (c *Config) AttemptTimeout() time.Duration {
	return time.Duration(c.AttemptTimeoutSecs) * time.Second
}

// BackoffBase returns the base delay between completion attempts
func (c *Config) BackoffBase() time.Duration {
	return time.Duration(c.BackoffBaseMillis) * time.Millisecond
}

// CacheSweepInterval returns the periodic purge interval
func (c *Config) CacheSweepInterval() time.Duration {
	return time.Duration(c.CacheSweepIntervalS) * time.Second
}
