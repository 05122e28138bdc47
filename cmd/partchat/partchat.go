// Package partchatcmder
package partchatcmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/partchat/cmd/partchat/ask"
	chatcmder "github.com/papercomputeco/partchat/cmd/partchat/chat"
	configcmder "github.com/papercomputeco/partchat/cmd/partchat/config"
	versioncmder "github.com/papercomputeco/partchat/cmd/version"
)

const partchatLongDesc string = `Partchat is a terminal client for the PartSelect parts assistant.

Ask about refrigerator and dishwasher parts, check whether a part fits
your model, and get repair help:
  partchat chat        Start an interactive session
  partchat ask <q>     Ask a single question
  partchat config      Manage persistent configuration`

const partchatShortDesc string = "Partchat - PartSelect parts assistant"

func NewPartchatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "partchat",
		Short:        partchatShortDesc,
		Long:         partchatLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .partchat/ config directory")
	cmd.PersistentFlags().String("log-file", "", "Also write debug logs as JSON to this file")

	// Add subcommands
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
