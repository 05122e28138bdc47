// Package configcmder provides the config command for managing persistent
// partchat configuration stored in the .partchat/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent partchat configuration.

Configuration is stored as config.toml in the .partchat/ directory and
provides default values for command flags. CLI flags and PARTCHAT_*
environment variables always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  client.backend_url, client.timeout,
  chat.history_limit, chat.greeting, chat.markdown,
  events.provider, events.brokers, events.topic, events.workers

Use subcommands to get, set, or list configuration values:
  partchat config set <key> <value>    Set a configuration value
  partchat config get <key>            Get a configuration value
  partchat config list                 List all configuration values

Examples:
  partchat config set client.backend_url https://parts.example.com/api/v1
  partchat config set events.brokers kafka-1:9092,kafka-2:9092
  partchat config get chat.history_limit
  partchat config list`

const configShortDesc string = "Manage persistent partchat configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return configKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}
