package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/daybook-app/daybook/internal/cloud"
	"github.com/daybook-app/daybook/internal/config"
	"github.com/daybook-app/daybook/internal/httpapi"
	"github.com/daybook-app/daybook/internal/store"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP API",
	Long: `serve exposes the note store over a local HTTP API, streams change
events over a WebSocket, picks up external edits of the records file, and,
when sync is enabled in the config, keeps the store synchronized with
daybook cloud on a timer.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	addr := cfg.Serve.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	logger := newLogger()
	if !verbose {
		logger.SetLevel(logrus.InfoLevel)
	}

	s := openStore()

	watcher, err := store.Watch(s, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer watcher.Stop()

	ctx := context.Background()

	// Cloud sync is best-effort: serve runs local-only when not signed in
	// or when the session cannot be restored.
	var svc *cloud.Service
	if cloud.HasToken() {
		svc, err = newSyncService(ctx, cfg, s, logger)
		if err != nil {
			logger.WithError(err).Warn("serve: cloud sync disabled")
			svc = nil
		}
	}
	if svc != nil {
		svc.Watch()
		defer svc.Stop()

		if cfg.Sync.Enabled {
			go func() {
				if _, err := svc.SyncNow(ctx); err != nil {
					logger.WithError(err).Warn("serve: startup sync failed")
				}
			}()

			scheduler, err := cloud.NewScheduler(svc,
				time.Duration(cfg.Sync.IntervalMinutes)*time.Minute, logger)
			if err != nil {
				logger.WithError(err).Warn("serve: sync scheduler disabled")
			} else {
				defer scheduler.Stop()
			}
		}
	}

	var syncer httpapi.Syncer
	if svc != nil {
		syncer = svc
	}
	api := httpapi.NewServer(s, syncer, cfg.Serve.AllowedOrigins, logger)

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", addr).Info("serve: listening")
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.WithField("signal", sig.String()).Info("serve: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("serve: shutdown error")
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}
	return nil
}
