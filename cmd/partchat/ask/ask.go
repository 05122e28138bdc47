// Package askcmder provides the ask command for one-shot questions.
package askcmder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/partchat/cmd/partchat/cmdutil"
	"github.com/papercomputeco/partchat/pkg/cliui"
	"github.com/papercomputeco/partchat/pkg/config"
	"github.com/papercomputeco/partchat/pkg/turn"
)

const askLongDesc string = `Ask the parts assistant a single question and print the answer.

By default the answer is streamed as it is generated. With --no-stream the
complete answer is fetched in one request and printed at once.

The command exits non-zero when the assistant could not answer.

Examples:
  partchat ask "Is PS11752778 compatible with WDT780SAEM1?"
  partchat ask --no-stream how do I fix an ice maker that stopped working`

const askShortDesc string = "Ask the parts assistant a single question"

// ErrTurnFailed is returned when the answer was replaced by the apology.
var ErrTurnFailed = errors.New("assistant could not answer")

type askCommander struct {
	noStream bool
}

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, strings.Join(args, " "))
		},
	}

	config.AddChatFlags(cmd)
	cmd.Flags().BoolVar(&cmder.noStream, "no-stream", false, "Fetch the complete answer in one request")

	return cmd
}

func (c *askCommander) run(cmd *cobra.Command, query string) error {
	cfg, err := cmdutil.LoadConfig(cmd)
	if err != nil {
		return err
	}

	rt, err := cmdutil.NewRuntime(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			rt.Logger.Warn("closing runtime", "error", err)
		}
	}()

	out := cmd.OutOrStdout()
	p := cliui.NewTurnPrinter(out,
		cliui.WithInteractive(cliui.IsTerminal(out)),
		cliui.WithMarkdown(cfg.Chat.Markdown),
	)

	var snap turn.Snapshot
	if c.noStream {
		err = cliui.Step(cmd.ErrOrStderr(), "Asking the assistant", func() error {
			var askErr error
			snap, askErr = rt.Session.Ask(cmd.Context(), query, nil)
			if askErr == nil && snap.Error {
				return ErrTurnFailed
			}
			return askErr
		})
		if err != nil && !errors.Is(err, ErrTurnFailed) {
			return err
		}
		p.Observe(snap)
	} else {
		p.Begin()
		snap, err = rt.Session.Submit(cmd.Context(), query, p.Observe)
		if err != nil {
			return err
		}
	}

	if snap.Error {
		return fmt.Errorf("%w: %s", ErrTurnFailed, snap.Cause)
	}
	return nil
}
