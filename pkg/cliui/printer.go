package cliui

import (
	"fmt"
	"io"
	"strings"

	"github.com/papercomputeco/partchat/pkg/parts"
	"github.com/papercomputeco/partchat/pkg/turn"
)

// pendingText is shown while a turn has not received any event yet.
const pendingText = "Thinking..."

// clearLine returns the cursor to column zero and erases the line.
const clearLine = "\r\x1b[2K"

// eraseDown clears from the cursor to the end of the screen.
const eraseDown = "\x1b[J"

// discardedText marks an apology that replaces output already printed.
const discardedText = "(partial answer discarded)"

// PrinterOption configures a TurnPrinter.
type PrinterOption func(*TurnPrinter)

// WithInteractive enables the transient thinking indicator. It should only
// be set when the output is a terminal.
func WithInteractive(interactive bool) PrinterOption {
	return func(p *TurnPrinter) {
		p.interactive = interactive
	}
}

// WithMarkdown buffers the answer and renders it with glamour once the turn
// is done instead of printing deltas as they arrive.
func WithMarkdown(markdown bool) PrinterOption {
	return func(p *TurnPrinter) {
		p.markdown = markdown
	}
}

// TurnPrinter writes a turn to a terminal incrementally. Its Observe method
// is a turn.Observer. A TurnPrinter renders a single turn.
type TurnPrinter struct {
	w           io.Writer
	interactive bool
	markdown    bool
	width       int

	printed  int
	products int
	compat   *parts.Compatibility

	// lines counts newlines written for the current turn.
	lines int

	indicator bool
	midLine   bool
	finished  bool
}

// NewTurnPrinter returns a printer writing to w.
func NewTurnPrinter(w io.Writer, opts ...PrinterOption) *TurnPrinter {
	p := &TurnPrinter{w: w, width: Width(w)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Begin shows the pending indicator.
func (p *TurnPrinter) Begin() {
	p.showIndicator(pendingText)
}

// Observe renders the difference between s and what was already printed.
func (p *TurnPrinter) Observe(s turn.Snapshot) {
	if p.finished {
		return
	}

	if s.Status == turn.StatusErrored {
		p.clearIndicator()
		p.discardPartial()
		fmt.Fprintf(p.w, "%s %s\n", FailMark, ErrorStyle.Render(s.Content))
		p.finished = true
		return
	}

	for _, prod := range s.Products[min(p.products, len(s.Products)):] {
		p.clearIndicator()
		p.breakLine()
		p.write(ProductCard(prod) + "\n")
	}
	p.products = len(s.Products)

	if s.Compatibility != nil && (p.compat == nil || *p.compat != *s.Compatibility) {
		p.clearIndicator()
		p.breakLine()
		p.write(CompatibilityBadge(s.Compatibility) + "\n")
		c := *s.Compatibility
		p.compat = &c
	}

	if !p.markdown && len(s.Content) > p.printed {
		p.clearIndicator()
		delta := s.Content[p.printed:]
		p.write(delta)
		p.printed = len(s.Content)
		p.midLine = !strings.HasSuffix(delta, "\n")
	}

	switch s.Status {
	case turn.StatusThinking:
		p.showIndicator(s.Thinking)

	case turn.StatusDone:
		p.clearIndicator()
		if p.markdown {
			p.renderMarkdown(s.Content)
		}
		p.breakLine()
		p.finished = true
	}
}

func (p *TurnPrinter) renderMarkdown(content string) {
	if strings.TrimSpace(content) == "" {
		return
	}

	rendered, err := RenderMarkdown(content, p.width)
	if err != nil {
		rendered = content
	}
	fmt.Fprint(p.w, rendered)
	p.midLine = !strings.HasSuffix(rendered, "\n")
}

// showIndicator replaces the current indicator with text. It is a no-op for
// non-interactive output and while the cursor sits inside streamed content.
func (p *TurnPrinter) showIndicator(text string) {
	if !p.interactive || p.midLine {
		return
	}
	if text == "" {
		text = pendingText
	}
	fmt.Fprint(p.w, clearLine+DimStyle.Render(text))
	p.indicator = true
}

func (p *TurnPrinter) clearIndicator() {
	if !p.indicator {
		return
	}
	fmt.Fprint(p.w, clearLine)
	p.indicator = false
}

func (p *TurnPrinter) breakLine() {
	if p.midLine {
		p.write("\n")
		p.midLine = false
	}
}

func (p *TurnPrinter) write(text string) {
	fmt.Fprint(p.w, text)
	p.lines += strings.Count(text, "\n")
}

// discardPartial takes back what a failed turn already printed. A terminal
// has it erased; other output gets a note marking the apology as its
// replacement.
func (p *TurnPrinter) discardPartial() {
	if p.printed == 0 && p.products == 0 && p.compat == nil {
		p.breakLine()
		return
	}

	if p.interactive {
		fmt.Fprint(p.w, "\r")
		if p.lines > 0 {
			fmt.Fprintf(p.w, "\x1b[%dA", p.lines)
		}
		fmt.Fprint(p.w, eraseDown)
		p.midLine = false
		p.lines = 0
		return
	}

	p.breakLine()
	fmt.Fprintln(p.w, DimStyle.Render(discardedText))
}
