// Package cliui renders partchat output for the terminal: styles, the wait
// spinner, product cards and markdown answers.
package cliui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	SuccessMark  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")
	StepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	KeyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Bold(true)
	ValueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	NameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	DimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	PriceStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	UserPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	AssistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("assistant> ")
)

const (
	spinnerInterval = 100 * time.Millisecond

	// defaultWrap is used when the output width is unknown.
	defaultWrap = 80
)

var spinnerFrames = []string{"◜", "◠", "◝", "◞", "◡", "◟"}

// Spinner shows msg while the assistant is working. On a terminal it
// animates in place; elsewhere only the final outcome line is written.
type Spinner struct {
	w       io.Writer
	msg     string
	animate bool

	start    time.Time
	stop     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewSpinner returns a stopped spinner writing to w.
func NewSpinner(w io.Writer, msg string) *Spinner {
	return &Spinner{
		w:       w,
		msg:     msg,
		animate: IsTerminal(w),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start begins timing and, on a terminal, the animation.
func (s *Spinner) Start() {
	s.start = time.Now()
	if !s.animate {
		close(s.stopped)
		return
	}

	go func() {
		defer close(s.stopped)

		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()

		for frame := 0; ; frame++ {
			fmt.Fprintf(s.w, "%s  %s %s", clearLine,
				spinnerStyle.Render(spinnerFrames[frame%len(spinnerFrames)]),
				s.msg,
			)

			select {
			case <-s.stop:
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop ends the animation and replaces it with the outcome of err and the
// elapsed time, which it returns. Calls after the first only return the
// elapsed time. A spinner that was never started reports zero.
func (s *Spinner) Stop(err error) time.Duration {
	var elapsed time.Duration
	if !s.start.IsZero() {
		elapsed = time.Since(s.start)
	}

	s.stopOnce.Do(func() {
		close(s.stop)
		if !s.start.IsZero() {
			<-s.stopped
		}

		prefix := ""
		if s.animate {
			prefix = clearLine
		}
		fmt.Fprintf(s.w, "%s  %s %s %s\n", prefix,
			Mark(err),
			s.msg,
			StepStyle.Render(fmt.Sprintf("(%s)", FormatDuration(elapsed))),
		)
	})

	return elapsed
}

// Step runs fn behind a spinner and returns fn's error.
func Step(w io.Writer, msg string, fn func() error) error {
	s := NewSpinner(w, msg)
	s.Start()
	err := fn()
	s.Stop(err)
	return err
}

// Mark returns a ✓ for nil errors or ✗ for non-nil errors.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// FormatDuration formats a duration for display (e.g. "12ms" or "3.2s").
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// RenderMarkdown renders an answer with glamour, wrapped to width columns.
// A width of zero or less wraps at 80. On failure the content is returned
// unchanged alongside the error.
func RenderMarkdown(content string, width int) (string, error) {
	if width <= 0 {
		width = defaultWrap
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
		glamour.WithPreservedNewLines(),
	)
	if err != nil {
		return content, err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content, err
	}
	return rendered, nil
}
