// Package main boots the Catalog Editor HTTP server.
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

	"github.com/spf13/cobra"

	"github.com/fairyhunter13/product-catalog-editor/internal/catalog/remote"
	"github.com/fairyhunter13/product-catalog-editor/internal/config"
	httpapi "github.com/fairyhunter13/product-catalog-editor/internal/http"
	"github.com/fairyhunter13/product-catalog-editor/internal/obs"
	"github.com/fairyhunter13/product-catalog-editor/internal/session"
	"github.com/fairyhunter13/product-catalog-editor/internal/summary"
)

func newRootCmd() *cobra.Command {
	var configPath string
	serve := func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}
		return runServe(cfg)
	}
	root := &cobra.Command{
		Use:           "catalog-editor",
		Short:         "Edit a remote product catalog through operator sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file; environment variables override its values")
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server (default)",
			Args:  cobra.NoArgs,
			RunE:  serve,
		},
		newColumnsCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runServe(cfg config.Config) error {
	obs.InitLogger(cfg.LogLevel)
	obs.Logger.Info("service_starting", "catalog", cfg.CatalogBaseURL, "flush_concurrency", cfg.FlushConcurrency)

	client := remote.New(cfg.CatalogBaseURL, remote.Options{
		Timeout:     cfg.CatalogTimeout,
		DialTimeout: cfg.CatalogDialTimeout,
	})
	sessions := session.NewStore(client, session.Options{
		FlushConcurrency: cfg.FlushConcurrency,
		NotifyBacklog:    cfg.NotifyBacklog,
		IdleTimeout:      cfg.SessionIdleTimeout,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sessions.Start(ctx, cfg.SessionSweepInterval)

	app := httpapi.NewApp(cfg, sessions, summary.New(client))
	mux := httpapi.NewRouter(app)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.CatalogTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		obs.Logger.Info("http_listen", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sigc:
		obs.Logger.Info("shutdown_signal", "signal", s.String())
	case err := <-errc:
		obs.Logger.Error("http_server_error", "error", err)
		return err
	}

	app.StartShutdown()
	obs.Logger.Info("shutdown_begin", "sessions", sessions.Len())

	ctxSrv, cancelSrv := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelSrv()
	if err := srv.Shutdown(ctxSrv); err != nil {
		obs.Logger.Error("http_shutdown_error", "error", err)
	}
	cancel()
	obs.Logger.Info("service_stopped")
	return nil
}
