package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"
)

// Environment variables that override the config file. Credentials are
// normally supplied this way and never written to disk.
const (
	EnvPracticumToken = "PRACTICUM_TOKEN"
	EnvTelegramToken  = "TELEGRAM_TOKEN"
	EnvChatID         = "CHAT_ID"
)

const (
	DefaultEndpoint     = "https://practicum.yandex.ru/api/user_api/homework_statuses/"
	DefaultPollInterval = 600 * time.Second
)

type Config struct {
	Practicum PracticumConfig `yaml:"practicum"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Watcher   WatcherConfig   `yaml:"watcher"`
	Logging   LoggingConfig   `yaml:"logging"`
	Digest    DigestConfig    `yaml:"digest"`

	chatID int64 // parsed by Validate
}

type PracticumConfig struct {
	Endpoint string `yaml:"endpoint"`
	Token    string `yaml:"token"`

	// RequestTimeout is a Go duration string (e.g. "30s").
	RequestTimeout string `yaml:"request_timeout"`
}

type TelegramConfig struct {
	Token string `yaml:"token"`

	// ChatID is kept as a string so it can come straight from CHAT_ID.
	ChatID string `yaml:"chat_id"`

	// RatePerSec caps outgoing messages (Telegram is strict about floods).
	RatePerSec int `yaml:"rate_per_sec"`
}

type WatcherConfig struct {
	// PollInterval is a Go duration string (e.g. "10m"). Reloadable.
	PollInterval string `yaml:"poll_interval"`
}

type LoggingConfig struct {
	Level   string     `yaml:"level"`
	Console bool       `yaml:"console"`
	File    FileConfig `yaml:"file"`
}

type FileConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DigestConfig controls the optional periodic activity summary.
type DigestConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"` // cron spec, e.g. "0 9 * * *"
}

func Default() *Config {
	return &Config{
		Practicum: PracticumConfig{
			Endpoint:       DefaultEndpoint,
			RequestTimeout: "30s",
		},
		Telegram: TelegramConfig{RatePerSec: 3},
		Watcher:  WatcherConfig{PollInterval: "10m"},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			File:    FileConfig{Enabled: true, Path: "./hwbot.log"},
		},
		Digest: DigestConfig{Schedule: "0 9 * * *"},
	}
}

// Parse decodes YAML into a Config on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config decode: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides credentials from the environment. Environment always
// wins over the file so deployments can keep secrets out of it entirely.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvPracticumToken)); v != "" {
		c.Practicum.Token = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelegramToken)); v != "" {
		c.Telegram.Token = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvChatID)); v != "" {
		c.Telegram.ChatID = v
	}
}

// Validate checks the startup preconditions. A missing credential here is
// the one fatal, uncontained failure the daemon has.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Practicum.Token) == "" {
		missing = append(missing, EnvPracticumToken)
	}
	if strings.TrimSpace(c.Telegram.Token) == "" {
		missing = append(missing, EnvTelegramToken)
	}
	if strings.TrimSpace(c.Telegram.ChatID) == "" {
		missing = append(missing, EnvChatID)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	id, err := strconv.ParseInt(strings.TrimSpace(c.Telegram.ChatID), 10, 64)
	if err != nil {
		return fmt.Errorf("telegram.chat_id: not a numeric chat id: %q", c.Telegram.ChatID)
	}
	c.chatID = id

	if strings.TrimSpace(c.Practicum.Endpoint) == "" {
		return errors.New("practicum.endpoint is empty")
	}
	if _, err := ParseDurationField("watcher.poll_interval", c.Watcher.PollInterval); err != nil {
		return err
	}
	if _, err := ParseDurationField("practicum.request_timeout", c.Practicum.RequestTimeout); err != nil {
		return err
	}
	return nil
}

// ChatID returns the numeric chat id. Valid only after Validate.
func (c *Config) ChatID() int64 { return c.chatID }

// PollInterval returns the watcher interval, defaulting to 600s.
func (c *Config) PollInterval() time.Duration {
	d, err := ParseDurationOrDefault("watcher.poll_interval", c.Watcher.PollInterval, DefaultPollInterval)
	if err != nil {
		return DefaultPollInterval
	}
	return d
}

// RequestTimeout returns the HTTP client timeout, defaulting to 30s.
func (c *Config) RequestTimeout() time.Duration {
	d, err := ParseDurationOrDefault("practicum.request_timeout", c.Practicum.RequestTimeout, 30*time.Second)
	if err != nil {
		return 30 * time.Second
	}
	return d
}
