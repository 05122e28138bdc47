package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/partchat/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the PARTCHAT_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (PARTCHAT_CLIENT_BACKEND_URL, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("PARTCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("client.backend_url", d.Client.BackendURL)
	v.SetDefault("client.timeout", d.Client.Timeout)

	v.SetDefault("chat.history_limit", d.Chat.HistoryLimit)
	v.SetDefault("chat.greeting", d.Chat.Greeting)
	v.SetDefault("chat.markdown", d.Chat.Markdown)

	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)
	v.SetDefault("events.workers", d.Events.Workers)
}

// FromViper resolves the effective Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Version: v.GetInt("version"),
		Client: ClientConfig{
			BackendURL: v.GetString("client.backend_url"),
			Timeout:    v.GetString("client.timeout"),
		},
		Chat: ChatConfig{
			HistoryLimit: v.GetUint("chat.history_limit"),
			Greeting:     v.GetString("chat.greeting"),
			Markdown:     v.GetBool("chat.markdown"),
		},
		Events: EventsConfig{
			Provider: v.GetString("events.provider"),
			Topic:    v.GetString("events.topic"),
			Workers:  v.GetUint("events.workers"),
		},
	}

	// Env vars and flags arrive as one comma separated string.
	for _, b := range v.GetStringSlice("events.brokers") {
		cfg.Events.Brokers = append(cfg.Events.Brokers, SplitList(b)...)
	}

	if _, err := cfg.TimeoutDuration(); err != nil {
		return nil, err
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	return cfg, nil
}
