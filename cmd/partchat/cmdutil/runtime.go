// Package cmdutil wires configuration, logging, the backend client and the
// event publisher into a chat session for the partchat commands.
package cmdutil

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/partchat/pkg/client"
	"github.com/papercomputeco/partchat/pkg/config"
	"github.com/papercomputeco/partchat/pkg/eventstream"
	eventstreamutils "github.com/papercomputeco/partchat/pkg/eventstream/utils"
	"github.com/papercomputeco/partchat/pkg/logger"
	"github.com/papercomputeco/partchat/pkg/session"
	"github.com/papercomputeco/partchat/pkg/worker"
)

// LoadConfig resolves the effective config for cmd: defaults, config.toml,
// PARTCHAT_* environment, then any of config.ChatFlags registered on cmd.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	config.BindRegisteredFlags(v, cmd, config.ChatFlags, config.ChatFlagKeys)

	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// NewLogger builds the command logger. Records go to stderr at warn level,
// or debug with --debug. With --log-file every debug record is also written
// as JSON to that file; the returned closer releases it.
func NewLogger(cmd *cobra.Command) (*slog.Logger, func() error, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	logFile, _ := cmd.Flags().GetString("log-file")

	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}

	console := logger.New(
		logger.WithWriter(cmd.ErrOrStderr()),
		logger.WithPretty(true),
		logger.WithLevel(level),
	)

	if logFile == "" {
		return console, func() error { return nil }, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	file := logger.New(
		logger.WithWriter(f),
		logger.WithJSON(true),
		logger.WithDebug(true),
	)
	return logger.Multi(console, file), f.Close, nil
}

// Runtime holds everything a chat command needs for its lifetime.
type Runtime struct {
	Config  *config.Config
	Logger  *slog.Logger
	Client  *client.Client
	Session *session.Session

	publisher eventstream.Publisher
	closeLog  func() error
}

// NewRuntime builds a Runtime for cmd from cfg. Close must be called once the
// command is done so queued turn events are flushed.
func NewRuntime(cmd *cobra.Command, cfg *config.Config) (*Runtime, error) {
	l, closeLog, err := NewLogger(cmd)
	if err != nil {
		return nil, err
	}

	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		_ = closeLog()
		return nil, err
	}

	c, err := client.New(client.Config{
		BaseURL: cfg.Client.BackendURL,
		Timeout: timeout,
		Logger:  l,
	})
	if err != nil {
		_ = closeLog()
		return nil, err
	}

	pub, err := newPublisher(cfg, l)
	if err != nil {
		_ = closeLog()
		return nil, err
	}

	s := session.New(&session.Config{
		Client:       c,
		HistoryLimit: int(cfg.Chat.HistoryLimit),
		Greeting:     cfg.Chat.Greeting,
		Publisher:    pub,
		Logger:       l,
	})

	l.Debug("runtime ready",
		"backend", c.BaseURL(),
		"events_provider", cfg.Events.Provider,
		"session_id", s.ID(),
	)

	return &Runtime{
		Config:    cfg,
		Logger:    l,
		Client:    c,
		Session:   s,
		publisher: pub,
		closeLog:  closeLog,
	}, nil
}

// newPublisher returns the configured publisher. Anything other than the
// no-op publisher is put behind a worker pool so delivery never blocks a turn.
func newPublisher(cfg *config.Config, l *slog.Logger) (eventstream.Publisher, error) {
	pub, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: cfg.Events.Provider,
		Brokers:      cfg.Events.Brokers,
		Topic:        cfg.Events.Topic,
		Logger:       l,
	})
	if err != nil {
		return nil, fmt.Errorf("creating event publisher: %w", err)
	}

	if cfg.Events.Provider == "" || cfg.Events.Provider == eventstreamutils.ProviderNop {
		return pub, nil
	}

	pool, err := worker.NewPool(&worker.Config{
		Publisher:  pub,
		NumWorkers: cfg.Events.Workers,
		Logger:     l,
	})
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("creating publish pool: %w", err)
	}
	return pool, nil
}

// Close flushes pending turn events and releases the log file.
func (r *Runtime) Close() error {
	return errors.Join(r.publisher.Close(), r.closeLog())
}
