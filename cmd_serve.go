package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"linae/config"
	"linae/server"
)

var (
	serveAddr    string
	serveOrigins []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the session over a local HTTP API",
	Long: `Starts the HTTP API used by browser front-ends. Turns, metrics, the
concept dictionary and a websocket state stream are served under /api.
When the archive is enabled in config.toml, /api/archive exposes past
sessions.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config.toml)")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "origin", nil, "Allowed CORS origin (repeatable, default *)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := config.NewCLILogger(verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	session, cleanup, err := newSession(cfg, logger, cfg.Pacing)
	if err != nil {
		return err
	}
	defer cleanup()

	addr := serveAddr
	if addr == "" {
		addr = cfg.ServerAddr
	}

	srv := server.New(server.Options{
		Session:        session.Session,
		Archive:        session.archive,
		Gateway:        session.gateway,
		Logger:         logger.Named("server"),
		AllowedOrigins: serveOrigins,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting server",
		zap.String("addr", addr),
		zap.String("provider", cfg.Provider),
		zap.Bool("archive", session.archive != nil))
	return srv.Run(ctx, addr)
}
