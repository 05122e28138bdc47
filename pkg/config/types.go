package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent partchat configuration stored as
// config.toml in the .partchat/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version int          `toml:"version"`
	Client  ClientConfig `toml:"client"`
	Chat    ChatConfig   `toml:"chat"`
	Events  EventsConfig `toml:"events"`
}

// ClientConfig holds settings for reaching the assistant backend.
type ClientConfig struct {
	// BackendURL is the API root including scheme, e.g. http://localhost:8000/api/v1.
	BackendURL string `toml:"backend_url,omitempty"`

	// Timeout is a Go duration string bounding one request.
	Timeout string `toml:"timeout,omitempty"`
}

// ChatConfig holds conversation settings.
type ChatConfig struct {
	HistoryLimit uint   `toml:"history_limit,omitempty"`
	Greeting     string `toml:"greeting,omitempty"`
	Markdown     bool   `toml:"markdown,omitempty"`
}

// EventsConfig holds turn event publishing settings.
type EventsConfig struct {
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
	Workers  uint     `toml:"workers,omitempty"`
}

// TimeoutDuration parses Client.Timeout.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Client.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Client.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid client.timeout: %w", err)
	}
	return d, nil
}

// SplitList splits a comma separated value, dropping blanks.
func SplitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

var validProviders = []string{"nop", "kafka"}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"client.backend_url": {
		get: func(c *Config) string { return c.Client.BackendURL },
		set: func(c *Config, v string) error { c.Client.BackendURL = v; return nil },
	},
	"client.timeout": {
		get: func(c *Config) string { return c.Client.Timeout },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for client.timeout: %w", err)
			}
			c.Client.Timeout = v
			return nil
		},
	},
	"chat.history_limit": {
		get: func(c *Config) string {
			if c.Chat.HistoryLimit == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Chat.HistoryLimit), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for chat.history_limit: %w", err)
			}
			if n == 0 {
				return fmt.Errorf("invalid value for chat.history_limit: must be at least 1")
			}
			c.Chat.HistoryLimit = uint(n)
			return nil
		},
	},
	"chat.greeting": {
		get: func(c *Config) string { return c.Chat.Greeting },
		set: func(c *Config, v string) error { c.Chat.Greeting = v; return nil },
	},
	"chat.markdown": {
		get: func(c *Config) string { return strconv.FormatBool(c.Chat.Markdown) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for chat.markdown: %w", err)
			}
			c.Chat.Markdown = b
			return nil
		},
	},
	"events.provider": {
		get: func(c *Config) string { return c.Events.Provider },
		set: func(c *Config, v string) error {
			for _, p := range validProviders {
				if v == p {
					c.Events.Provider = v
					return nil
				}
			}
			return fmt.Errorf("invalid value for events.provider: %q (available: %s)", v, strings.Join(validProviders, ", "))
		},
	},
	"events.brokers": {
		get: func(c *Config) string { return strings.Join(c.Events.Brokers, ",") },
		set: func(c *Config, v string) error { c.Events.Brokers = SplitList(v); return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
	"events.workers": {
		get: func(c *Config) string {
			if c.Events.Workers == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Events.Workers), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for events.workers: %w", err)
			}
			c.Events.Workers = uint(n)
			return nil
		},
	},
}
