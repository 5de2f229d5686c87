// Package config loads server settings from defaults, an optional yaml
// file and ACTIONENGINE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/milk9111/actionengine/logging"
	"github.com/spf13/viper"
)

const EnvPrefix = "ACTIONENGINE"

var ErrInvalid = errors.New("config: invalid")

// Config is the complete server configuration.
type Config struct {
	// TickRate is the number of simulation ticks per second.
	TickRate int `mapstructure:"tick_rate"`
	// CatalogDir loads action content from disk. Empty uses the embedded
	// content.
	CatalogDir string `mapstructure:"catalog_dir"`
	// WatchCatalog reloads CatalogDir when its files change.
	WatchCatalog bool   `mapstructure:"watch_catalog"`
	ListenAddr   string `mapstructure:"listen_addr"`
	LogLevel     string `mapstructure:"log_level"`
	// JournalSize is how many replication messages the diagnostics journal
	// keeps.
	JournalSize int `mapstructure:"journal_size"`
	// MaxQueueDepth bounds queued blocking requests per character.
	MaxQueueDepth int `mapstructure:"max_queue_depth"`
	// SubscriberBuffer is the per-websocket outbound buffer, in messages.
	SubscriberBuffer int `mapstructure:"subscriber_buffer"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		TickRate:         30,
		ListenAddr:       ":8080",
		LogLevel:         logging.LevelInfo,
		JournalSize:      1024,
		MaxQueueDepth:    4,
		SubscriberBuffer: 256,
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("tick_rate", d.TickRate)
	v.SetDefault("catalog_dir", d.CatalogDir)
	v.SetDefault("watch_catalog", d.WatchCatalog)
	v.SetDefault("listen_addr", d.ListenAddr)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("journal_size", d.JournalSize)
	v.SetDefault("max_queue_depth", d.MaxQueueDepth)
	v.SetDefault("subscriber_buffer", d.SubscriberBuffer)
}

// Load reads configuration. path may be empty.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.TickRate <= 0 || c.TickRate > 240 {
		return fmt.Errorf("%w: tick_rate %d out of range 1..240", ErrInvalid, c.TickRate)
	}
	if c.WatchCatalog && c.CatalogDir == "" {
		return fmt.Errorf("%w: watch_catalog needs catalog_dir", ErrInvalid)
	}
	if c.MaxQueueDepth < 0 {
		return fmt.Errorf("%w: max_queue_depth %d < 0", ErrInvalid, c.MaxQueueDepth)
	}
	if c.JournalSize < 0 {
		return fmt.Errorf("%w: journal_size %d < 0", ErrInvalid, c.JournalSize)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// TickSeconds is the fixed simulation step.
func (c *Config) TickSeconds() float64 {
	return 1.0 / float64(c.TickRate)
}
