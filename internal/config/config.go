package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rs/zerolog"
)

// Config holds the application configuration
type Config struct {
	WhatsApp WhatsAppConfig `yaml:"whatsapp"`
	Group    GroupConfig    `yaml:"group"`
	Link     LinkConfig     `yaml:"link"`
	Log      LogConfig      `yaml:"log"`
}

// WhatsAppConfig holds the chat transport settings
type WhatsAppConfig struct {
	DataDir string `yaml:"data_dir" env:"WHATSAPP_DATA_DIR" env-default:"data"`
}

// GroupConfig holds what users see about the gift group
type GroupConfig struct {
	Name string `yaml:"name" env:"GROUP_NAME" env-default:"Gift Group"`
}

// LinkConfig holds the account linking settings. A zero Timeout waits forever.
type LinkConfig struct {
	Delay   time.Duration `yaml:"delay"   env:"LINK_DELAY"   env-default:"1500ms"`
	Timeout time.Duration `yaml:"timeout" env:"LINK_TIMEOUT" env-default:"0s"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"console"`
}

// LoadConfig reads an optional YAML file and then environment variables.
// The file is CONFIG_PATH, or ./config.yaml when that exists.
func LoadConfig() (*Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	explicitPath := path != ""
	if !explicitPath {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate checks values cleanenv cannot check by itself
func (c *Config) Validate() error {
	var errs []error
	if c.WhatsApp.DataDir == "" {
		errs = append(errs, errors.New("whatsapp.data_dir is required"))
	}
	if c.Link.Delay < 0 {
		errs = append(errs, fmt.Errorf("link.delay must not be negative, got %s", c.Link.Delay))
	}
	if c.Link.Timeout < 0 {
		errs = append(errs, fmt.Errorf("link.timeout must not be negative, got %s", c.Link.Timeout))
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
