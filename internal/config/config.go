package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultJWTSecret is the development signing secret; the server warns when
// it is still in use.
const DefaultJWTSecret = "change-me"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr" validate:"required"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn warning error"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path" validate:"required"`

	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret" validate:"required"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL      time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl" validate:"gt=0"`

	// MessageKey is the base64 encoded 32-byte key of the message codec.
	MessageKey     string `mapstructure:"message_key" yaml:"message_key" validate:"omitempty,base64"`
	CodecMode      string `mapstructure:"codec_mode" yaml:"codec_mode" validate:"oneof=legacy sealed"`
	BroadcastScope string `mapstructure:"broadcast_scope" yaml:"broadcast_scope" validate:"oneof=room all"`
	// HistoryLimit must stay within core.MaxHistoryLimit.
	HistoryLimit   int    `mapstructure:"history_limit" yaml:"history_limit" validate:"gt=0,lte=200"`

	MaxMessageBytes    int64    `mapstructure:"max_message_bytes" yaml:"max_message_bytes" validate:"gt=0"`
	RateLimitPerSecond float64  `mapstructure:"rate_limit_per_second" yaml:"rate_limit_per_second" validate:"gte=0"`
	RateLimitBurst     int      `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst" validate:"gte=1"`
	AllowedOrigins     []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:               ":8080",
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		LogLevel:           "info",
		DatabasePath:       "roomhub.db",
		JWTSecret:          DefaultJWTSecret,
		JWTIssuer:          "roomhub",
		JWTAudience:        "roomhub",
		JWTTTL:             24 * time.Hour,
		CodecMode:          "sealed",
		BroadcastScope:     "room",
		HistoryLimit:       50,
		MaxMessageBytes:    64 << 10,
		RateLimitPerSecond: 10,
		RateLimitBurst:     20,
	}
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
}
