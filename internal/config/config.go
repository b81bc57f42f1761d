// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and PITCHTAG_* env vars over the defaults.
// - Validation errors wrap ErrInvalidConfig; loading errors wrap ErrLoadConfig.
package config

import "fmt"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// PitchWidth and PitchHeight are the default canvas size in pixels.
	PitchWidth  int `koanf:"pitch_width"`
	PitchHeight int `koanf:"pitch_height"`

	// MaxSessions caps concurrent tagging sessions; 0 means no cap.
	MaxSessions int `koanf:"max_sessions"`

	// SessionTTLMinutes expires sessions idle for this long; 0 disables expiry.
	SessionTTLMinutes int `koanf:"session_ttl_minutes"`

	// SweepIntervalSeconds is how often idle sessions are looked for.
	SweepIntervalSeconds int `koanf:"sweep_interval_seconds"`

	// PossessionStart is the counter value of a new or cleared session.
	PossessionStart int `koanf:"possession_start"`

	// PossessionReset is the counter value after a manual reset.
	PossessionReset int `koanf:"possession_reset"`

	// CommitKeyCacheSize bounds the remembered commit idempotency keys.
	CommitKeyCacheSize int `koanf:"commit_key_cache_size"`

	// RateLimit* configure the per-client request limiter.
	RateLimitEnabled bool    `koanf:"rate_limit_enabled"`
	RateLimitRPS     float64 `koanf:"rate_limit_rps"`
	RateLimitBurst   int     `koanf:"rate_limit_burst"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		PitchWidth:           840,
		PitchHeight:          544,
		MaxSessions:          1_000,
		SessionTTLMinutes:    120,
		SweepIntervalSeconds: 60,
		PossessionStart:      0,
		PossessionReset:      1,
		CommitKeyCacheSize:   10_000,
		RateLimitEnabled:     false,
		RateLimitRPS:         20,
		RateLimitBurst:       40,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	case c.PitchWidth <= 0 || c.PitchHeight <= 0:
		return fmt.Errorf("%w: pitch size must be positive, got %dx%d", ErrInvalidConfig, c.PitchWidth, c.PitchHeight)
	case c.MaxSessions < 0:
		return fmt.Errorf("%w: max_sessions must not be negative", ErrInvalidConfig)
	case c.SessionTTLMinutes < 0:
		return fmt.Errorf("%w: session_ttl_minutes must not be negative", ErrInvalidConfig)
	case c.SessionTTLMinutes > 0 && c.SweepIntervalSeconds <= 0:
		return fmt.Errorf("%w: sweep_interval_seconds must be positive when sessions expire", ErrInvalidConfig)
	case c.PossessionStart < 0 || c.PossessionReset < 0:
		return fmt.Errorf("%w: possession counter values must not be negative", ErrInvalidConfig)
	case c.CommitKeyCacheSize <= 0:
		return fmt.Errorf("%w: commit_key_cache_size must be positive", ErrInvalidConfig)
	case c.RateLimitEnabled && (c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0):
		return fmt.Errorf("%w: rate_limit_rps and rate_limit_burst must be positive when enabled", ErrInvalidConfig)
	}
	return nil
}
