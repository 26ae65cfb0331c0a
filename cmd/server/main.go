package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sus-party/internal/config"
	"sus-party/internal/db"
	"sus-party/internal/logging"
	"sus-party/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cobra.CheckErr(newCmd().Execute())
}

func newCmd() *cobra.Command {
	var envFile string
	var port int
	cmd := &cobra.Command{
		Use:           "sus-party",
		Short:         "Runs the Sus Party game server.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.LoadDotEnv(envFile); err != nil {
				fmt.Fprintf(os.Stderr, "env file ignored: %v\n", err)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Port = port
			}
			return run(cmd.Context(), cfg)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	fs.IntVarP(&port, "port", "p", 0, "port to listen on, overrides PORT")
	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	var conn *gorm.DB
	if cfg.DatabaseURL != "" {
		conn, err = db.Open(cfg.DatabaseURL, db.Pool{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime(),
		})
		if err != nil {
			return err
		}
		logger.Info("match archive enabled")
	} else {
		logger.Warn("DATABASE_URL is not set; finished games will not be archived")
	}

	srv := server.New(conn, cfg, logger)
	janitor, err := server.StartJanitor(srv.Registry(), cfg.JanitorSchedule, cfg.IdleTimeout(), logger.Named("janitor"))
	if err != nil {
		return fmt.Errorf("janitor schedule %q: %w", cfg.JanitorSchedule, err)
	}
	defer janitor.Stop()

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("sus-party server listening", zap.String("addr", httpServer.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
