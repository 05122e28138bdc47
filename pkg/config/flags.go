package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g. --backend
// on both "partchat chat" and "partchat ask").
type Flag struct {
	// Name is the long flag name (e.g. "backend").
	Name string

	// Shorthand is the one-letter short flag (e.g. "b"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "client.backend_url").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag, AddBoolFlag
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagBackendURL     = "backend"
	FlagTimeout        = "timeout"
	FlagHistoryLimit   = "history-limit"
	FlagMarkdown       = "markdown"
	FlagEventsProvider = "events-provider"
	FlagEventsBrokers  = "events-brokers"
	FlagEventsTopic    = "events-topic"
)

// ChatFlags are the flags shared by the commands that talk to the backend.
var ChatFlags = FlagSet{
	FlagBackendURL:     {Name: "backend", Shorthand: "b", ViperKey: "client.backend_url", Description: "Assistant backend API root URL"},
	FlagTimeout:        {Name: "timeout", ViperKey: "client.timeout", Description: "Request timeout (e.g. 30s, 5m)"},
	FlagHistoryLimit:   {Name: "history-limit", ViperKey: "chat.history_limit", Description: "Number of recent messages sent as context"},
	FlagMarkdown:       {Name: "markdown", ViperKey: "chat.markdown", Description: "Render answers as markdown once complete"},
	FlagEventsProvider: {Name: "events-provider", ViperKey: "events.provider", Description: "Turn event publisher (nop, kafka)"},
	FlagEventsBrokers:  {Name: "events-brokers", ViperKey: "events.brokers", Description: "Comma separated Kafka broker addresses"},
	FlagEventsTopic:    {Name: "events-topic", ViperKey: "events.topic", Description: "Kafka topic for turn events"},
}

// ChatFlagKeys lists every key in ChatFlags.
var ChatFlagKeys = []string{
	FlagBackendURL,
	FlagTimeout,
	FlagHistoryLimit,
	FlagMarkdown,
	FlagEventsProvider,
	FlagEventsBrokers,
	FlagEventsTopic,
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultViper().GetUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *bool) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultViper().GetBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddChatFlags registers every flag in ChatFlags on cmd. The values are
// only read back through viper after BindRegisteredFlags.
func AddChatFlags(cmd *cobra.Command) {
	for _, key := range ChatFlagKeys {
		switch key {
		case FlagHistoryLimit:
			AddUintFlag(cmd, ChatFlags, key, new(uint))
		case FlagMarkdown:
			AddBoolFlag(cmd, ChatFlags, key, new(bool))
		default:
			AddStringFlag(cmd, ChatFlags, key, new(string))
		}
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

func defaultViper() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	return defaultViper().GetString(viperKey)
}
