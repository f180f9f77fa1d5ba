package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr" validate:"required"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" validate:"oneof=console json"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path" validate:"required"`

	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret" validate:"required,min=8"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL      time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl" validate:"gt=0"`

	// WebSocket chat limits.
	MaxMessageBytes    int64 `mapstructure:"max_message_bytes" yaml:"max_message_bytes" validate:"gt=0"`
	RateLimitPerMinute int   `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute" validate:"gte=0"`
	SessionBuffer      int   `mapstructure:"session_buffer" yaml:"session_buffer" validate:"gt=0"`
	MaxChatMessageLen  int   `mapstructure:"max_chat_message_len" yaml:"max_chat_message_len" validate:"gt=0"`
	PersistenceWorkers int   `mapstructure:"persistence_workers" yaml:"persistence_workers" validate:"gt=0"`

	CensorWords []string `mapstructure:"censor_words" yaml:"censor_words"`
	CensorMask  string   `mapstructure:"censor_mask" yaml:"censor_mask" validate:"len=1"`

	UploadDir      string `mapstructure:"upload_dir" yaml:"upload_dir" validate:"required"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes" validate:"gt=0"`

	SiteName string        `mapstructure:"site_name" yaml:"site_name"`
	SMTP     SMTPConfig    `mapstructure:"smtp" yaml:"smtp"`
	LiveKit  LiveKitConfig `mapstructure:"livekit" yaml:"livekit"`
}

// SMTPConfig configures outgoing mail. Mail is only logged when Host is empty.
type SMTPConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port" validate:"gte=0,lte=65535"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	From     string `mapstructure:"from" yaml:"from" validate:"omitempty,email"`
}

// LiveKitConfig configures the media server used for stream video.
type LiveKitConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	URL       string `mapstructure:"url" yaml:"url" validate:"required_if=Enabled true"`
	APIKey    string `mapstructure:"api_key" yaml:"api_key" validate:"required_if=Enabled true"`
	APISecret string `mapstructure:"api_secret" yaml:"api_secret" validate:"required_if=Enabled true"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:               ":8080",
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		LogLevel:           "info",
		LogFormat:          "console",
		DatabasePath:       "streamchat.db",
		JWTSecret:          "change-me-in-production",
		JWTIssuer:          "streamchat",
		JWTAudience:        "streamchat",
		JWTTTL:             24 * time.Hour,
		MaxMessageBytes:    1 << 16,
		RateLimitPerMinute: 120,
		SessionBuffer:      32,
		MaxChatMessageLen:  500,
		PersistenceWorkers: 16,
		CensorWords:        []string{},
		CensorMask:         "*",
		UploadDir:          "uploads",
		MaxUploadBytes:     5 << 20,
		SiteName:           "StreamChat",
		SMTP: SMTPConfig{
			Port: 587,
		},
		LiveKit: LiveKitConfig{
			URL: "ws://localhost:7880",
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// It is used for command line overrides.
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

// Mask returns the rune used to hide censored words.
func (c *Config) Mask() rune {
	for _, r := range c.CensorMask {
		return r
	}
	return '*'
}

var validate = validator.New()

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
}
