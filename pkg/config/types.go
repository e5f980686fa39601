package config

import (
	"fmt"
	"time"
)

// Config is the main configuration struct.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Hub       HubConfig       `yaml:"hub"`
	Fanout    FanoutConfig    `yaml:"fanout"`
	Limits    LimitsConfig    `yaml:"limits"`
	Backbone  BackboneConfig  `yaml:"backbone"`
	Retention RetentionConfig `yaml:"retention"`
	Media     MediaConfig     `yaml:"media"`
}

// ServerConfig holds http/tls and storage settings.
type ServerConfig struct {
	Address string    `yaml:"address"`
	Port    int       `yaml:"port"`
	DBPath  string    `yaml:"db_path"`
	TLS     TLSConfig `yaml:"tls"`
	// AllowedOrigins restricts websocket upgrades; empty allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// TLSConfig holds TLS certificate configuration.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// HubConfig tunes the in-process broadcast router.
type HubConfig struct {
	// SendQueue is the per-connection outbound buffer; a connection that
	// falls this far behind is dropped.
	SendQueue int `yaml:"send_queue"`
}

// FanoutConfig tunes the notification fanout workers.
type FanoutConfig struct {
	Workers int `yaml:"workers"`
	Queue   int `yaml:"queue"`
}

// LimitsConfig bounds inbound event processing per connection.
type LimitsConfig struct {
	EventRPS   float64 `yaml:"event_rps"`
	EventBurst int     `yaml:"event_burst"`
}

// BackboneConfig configures the optional multi-process broadcast backbone.
// When enabled, broadcasts are mirrored over a zeromq pub/sub channel so
// peer processes deliver to their own local connections.
type BackboneConfig struct {
	Enabled bool   `yaml:"enabled"`
	Publish string `yaml:"publish"` // e.g. tcp://*:7401
	// Peers are the publish endpoints of the other server processes.
	Peers []string `yaml:"peers"`
}

// RetentionConfig holds configuration for the notification purge runner.
type RetentionConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
	// Period is how long read notifications are kept, e.g. "720h".
	Period string `yaml:"period"`
}

// MediaConfig tunes attachment handling.
type MediaConfig struct {
	// ThumbnailMaxPx bounds the longest edge of generated image thumbnails.
	ThumbnailMaxPx int `yaml:"thumbnail_max_px"`
	// MaxUploadBytes rejects larger inline attachments as invalid.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// Addr returns the host:port string for the server.
func (c *Config) Addr() string {
	host := c.Server.Address
	port := c.Server.Port
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// RetentionPeriod parses Retention.Period, defaulting to 30 days.
func (c *Config) RetentionPeriod() time.Duration {
	if c.Retention.Period == "" {
		return 30 * 24 * time.Hour
	}
	d, err := time.ParseDuration(c.Retention.Period)
	if err != nil || d <= 0 {
		return 30 * 24 * time.Hour
	}
	return d
}
