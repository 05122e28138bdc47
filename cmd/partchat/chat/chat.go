// Package chatcmder provides the chat command: an interactive session with
// the parts assistant over its streaming endpoint.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/partchat/cmd/partchat/cmdutil"
	"github.com/papercomputeco/partchat/pkg/cliui"
	"github.com/papercomputeco/partchat/pkg/config"
	"github.com/papercomputeco/partchat/pkg/session"
)

const chatLongDesc string = `Start an interactive chat session with the parts assistant.

Each message is streamed from the backend as it is generated: the assistant's
current activity is shown while it works, followed by the answer text,
product cards and compatibility verdicts as they arrive.

The most recent messages of the session are replayed to the backend as
context (see chat.history_limit). Press Ctrl+C to abandon the turn in
progress without leaving the session.

Commands:
  /reset   Forget the conversation so far
  /exit    Quit (Ctrl+D works too)

Examples:
  partchat chat
  partchat chat --backend https://parts.example.com/api/v1
  partchat chat --markdown`

const chatShortDesc string = "Interactive chat with the parts assistant"

type chatCommander struct {
	in          io.Reader
	out         io.Writer
	errOut      io.Writer
	interactive bool
	markdown    bool

	session *session.Session
}

func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			cmder := &chatCommander{
				in:          cmd.InOrStdin(),
				out:         cmd.OutOrStdout(),
				errOut:      cmd.ErrOrStderr(),
				interactive: cliui.IsTerminal(cmd.OutOrStdout()),
				markdown:    cfg.Chat.Markdown,
				session:     rt.Session,
			}
			return cmder.run(cmd.Context(), rt.Client.BaseURL())
		},
	}

	config.AddChatFlags(cmd)

	return cmd
}

func (c *chatCommander) run(ctx context.Context, backend string) error {
	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "  %s %s\n",
		cliui.KeyStyle.Render("Backend:"),
		cliui.NameStyle.Render(backend),
	)
	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /exit or Ctrl+D to quit."))

	if greeting := c.session.Greeting(); greeting != "" {
		fmt.Fprintf(c.out, "%s%s\n\n", cliui.AssistantPrompt, greeting)
	}

	scanner := bufio.NewScanner(c.in)

	for {
		fmt.Fprint(c.out, cliui.UserPrompt)
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "/exit":
			fmt.Fprintln(c.out)
			return nil
		case "/reset":
			c.session.Reset()
			fmt.Fprintf(c.out, "  %s %s\n\n", cliui.SuccessMark, cliui.DimStyle.Render("Conversation cleared"))
			continue
		}

		c.turn(ctx, input)
		fmt.Fprintln(c.out)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(c.out)
	return nil
}

// turn runs one query. Ctrl+C cancels only this turn.
func (c *chatCommander) turn(parent context.Context, input string) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	fmt.Fprint(c.out, cliui.AssistantPrompt)

	p := cliui.NewTurnPrinter(c.out,
		cliui.WithInteractive(c.interactive),
		cliui.WithMarkdown(c.markdown),
	)
	p.Begin()

	_, err := c.session.Submit(ctx, input, p.Observe)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		fmt.Fprintf(c.out, "\n  %s %s\n", cliui.FailMark, cliui.DimStyle.Render("cancelled"))
	default:
		fmt.Fprintf(c.errOut, "\n  %s %v\n", cliui.FailMark, err)
	}
}
