// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Relay     RelayConfig
	Hub       HubConfig
	Auth      AuthConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port      string `envconfig:"PORT" default:"8080"`
	Host      string `envconfig:"HOST" default:"0.0.0.0"`
	StaticDir string `envconfig:"STATIC_DIR" default:"./static"`
}

// RelayConfig holds outbound relay configuration.
type RelayConfig struct {
	Timeout       time.Duration `envconfig:"RELAY_TIMEOUT" default:"10s"`
	MaxBodyBytes  int64         `envconfig:"RELAY_MAX_BODY_BYTES" default:"10485760"`
	EmbedOverride bool          `envconfig:"RELAY_EMBED_OVERRIDE" default:"true"`
}

// HubConfig holds broadcast hub configuration.
type HubConfig struct {
	HistorySize    int `envconfig:"HUB_HISTORY_SIZE" default:"50"`
	SendBufferSize int `envconfig:"HUB_SEND_BUFFER" default:"256"`
}

// AuthConfig holds credential store configuration.
type AuthConfig struct {
	DataDir  string        `envconfig:"AUTH_DATA_DIR" default:"/tmp/proxy-desktop/auth"`
	JWTKey   string        `envconfig:"AUTH_JWT_KEY" default:""`
	TokenTTL time.Duration `envconfig:"AUTH_TOKEN_TTL" default:"168h"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:      "8080",
			Host:      "0.0.0.0",
			StaticDir: "./static",
		},
		Relay: RelayConfig{
			Timeout:       10 * time.Second,
			MaxBodyBytes:  10 << 20,
			EmbedOverride: true,
		},
		Hub: HubConfig{
			HistorySize:    50,
			SendBufferSize: 256,
		},
		Auth: AuthConfig{
			DataDir:  "/tmp/proxy-desktop/auth",
			TokenTTL: 168 * time.Hour,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
