package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hyperjump/docqa/internal/server"
	"github.com/hyperjump/docqa/internal/watcher"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the HTTP API server. Files dropped into watch.directories, or into
directories added with POST /watch/directories, are ingested automatically.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := root.setup(true)
			if err != nil {
				return err
			}
			defer func() { _ = env.logger.Sync() }()
			if cmd.Flags().Changed("host") {
				env.cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				env.cfg.Server.Port = port
			}
			return runServer(env)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "override server.host")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "override server.port")
	return cmd
}

func runServer(env *commandEnv) error {
	cfg, logger := env.cfg, env.logger
	if env.configPath != "" {
		logger.Info("Loaded config", zap.String("path", env.configPath))
	} else {
		logger.Info("No config file found, using defaults")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	if err := os.MkdirAll(cfg.Storage.UploadDir, 0755); err != nil {
		return err
	}

	// The watcher always runs so directories can be added over the API.
	w := watcher.NewWatcher(cfg.Watch.Directories, cfg.Watch.RecursiveOrDefault(), components.Service,
		watcher.WithLogger(logger),
		watcher.WithDebounce(cfg.Watch.Debounce))
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	srv := server.NewServer(components.Service, cfg, logger,
		server.WithWatcher(w),
		server.WithConfigPath(env.configPath))
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Info("Shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Warn("Server shutdown failed", zap.Error(err))
	}
	return nil
}
