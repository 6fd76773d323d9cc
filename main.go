package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"linae/config"
	"linae/model"
	"linae/prompt"
	"linae/provider"
	"linae/sequencer"
	"linae/storage"
	"linae/ui"
)

const (
	Version = "v0.01.00"
	License = "Apache-2.0"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "linae",
	Short: "Linae - three-layer safe AGI console",
	Long: `Linae routes every message through a three-layer stack: a fast reflex
draft, an alignment pass that scores it for resonance, and a witness that
vetoes drifting answers.

Run without arguments to start the terminal console.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConsole()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging for non-interactive commands")
	rootCmd.AddCommand(askCmd, serveCmd, doctorCmd)
}

func main() {
	if err := config.LoadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func showError(title, message string) {
	p := tea.NewProgram(ui.NewErrorModal(title, message), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}

func runConsole() error {
	cfg, err := config.Load()
	if err != nil {
		showError("Configuration Error", err.Error())
		return nil
	}

	logger, err := config.NewDebugLogger(cfg.DataDir())
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	session, cleanup, err := newSession(cfg, logger, cfg.Pacing)
	if err != nil {
		showError("Archive Error", err.Error())
		return nil
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := ui.NewAppView(ui.Options{
		Session: session.Session,
		Gateway: session.gateway,
		Config:  cfg,
		Logger:  logger,
		Context: ctx,
		Version: Version,
		License: License,
	})

	p := tea.NewProgram(app, tea.WithAltScreen())
	unbridge := session.Bridge(p.Send)
	defer unbridge()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("console: %w", err)
	}
	return nil
}

// wiredSession is a session together with the gateway it resolves through.
type wiredSession struct {
	*model.Session
	gateway *provider.Gateway
	archive *storage.Archive
}

// newSession wires the configured provider, request builder and optional
// archive into a session. cleanup closes the session, then the archive.
func newSession(cfg *config.Config, logger *zap.Logger, pacing sequencer.Pacing) (*wiredSession, func(), error) {
	gw := provider.NewGatewayFromConfig(cfg, logger)

	sessOpts := model.SessionOptions{
		Builder:  prompt.NewBuilder(cfg.PromptOptions(), logger.Named("prompt")),
		Resolver: gw,
		Pacing:   pacing,
		Logger:   logger.Named("session"),
	}

	var archive *storage.Archive
	if cfg.ArchiveEnabled {
		a, err := storage.OpenArchive(config.GetArchivePath(cfg.DataDir()))
		if err != nil {
			return nil, nil, fmt.Errorf("open archive: %w", err)
		}
		archive = a
		sessionID := uuid.New().String()
		sessOpts.Sink = archive.Sink(sessionID)
		logger.Info("archiving turns", zap.String("session", sessionID))
	}

	s := &wiredSession{Session: model.NewSession(sessOpts), gateway: gw, archive: archive}
	cleanup := func() {
		s.Close()
		if archive != nil {
			if err := archive.Close(); err != nil {
				logger.Warn("failed to close archive", zap.Error(err))
			}
		}
	}
	return s, cleanup, nil
}
