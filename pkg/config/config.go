// Package config loads the bot configuration from an optional YAML file
// overlaid with environment variables. Environment always wins, so a
// deployment can keep tokens out of the file entirely.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// TelegramConfig configures the Telegram channel.
type TelegramConfig struct {
	Enabled     bool   `yaml:"enabled" env:"SLONOGRAM_TELEGRAM_ENABLED"`
	Token       string `yaml:"token" env:"SLONOGRAM_TELEGRAM_TOKEN"`
	PollTimeout int    `yaml:"poll_timeout" env:"SLONOGRAM_TELEGRAM_POLL_TIMEOUT"`
}

// DiscordConfig configures the Discord channel.
type DiscordConfig struct {
	Enabled bool   `yaml:"enabled" env:"SLONOGRAM_DISCORD_ENABLED"`
	Token   string `yaml:"token" env:"SLONOGRAM_DISCORD_TOKEN"`
}

// ConsoleConfig configures the interactive console channel.
type ConsoleConfig struct {
	Enabled bool   `yaml:"enabled" env:"SLONOGRAM_CONSOLE_ENABLED"`
	Prompt  string `yaml:"prompt" env:"SLONOGRAM_CONSOLE_PROMPT"`
}

// InspectConfig configures the websocket inspector.
type InspectConfig struct {
	Enabled bool   `yaml:"enabled" env:"SLONOGRAM_INSPECT_ENABLED"`
	Addr    string `yaml:"addr" env:"SLONOGRAM_INSPECT_ADDR"`
}

// Config is the full bot configuration.
type Config struct {
	LogLevel string `yaml:"log_level" env:"SLONOGRAM_LOG_LEVEL"`
	BusSize  int    `yaml:"bus_size" env:"SLONOGRAM_BUS_SIZE"`

	Telegram TelegramConfig `yaml:"telegram"`
	Discord  DiscordConfig  `yaml:"discord"`
	Console  ConsoleConfig  `yaml:"console"`
	Inspect  InspectConfig  `yaml:"inspect"`
}

// Default returns the configuration used when nothing is specified:
// console channel only, info logging.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		BusSize:  100,
		Telegram: TelegramConfig{PollTimeout: 30},
		Console:  ConsoleConfig{Enabled: true, Prompt: "> "},
		Inspect:  InspectConfig{Addr: "127.0.0.1:8793"},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty the file must exist), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every enabled channel is usable.
func (c *Config) Validate() error {
	if c.Telegram.Enabled && c.Telegram.Token == "" {
		return errors.New("config: telegram enabled but no token set")
	}
	if c.Discord.Enabled && c.Discord.Token == "" {
		return errors.New("config: discord enabled but no token set")
	}
	if !c.Telegram.Enabled && !c.Discord.Enabled && !c.Console.Enabled {
		return errors.New("config: no channel enabled")
	}
	return nil
}
