// Command reseller-server runs the ops HTTP server: health checks, the
// prometheus scrape endpoint and on-demand job triggers.
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
	"golang.org/x/sync/errgroup"

	"reseller/internal/app"
	"reseller/internal/platform/config"
	"reseller/internal/platform/httpserver"
	httptransport "reseller/internal/transport/http"
)

var version = "dev"

const dependencyProbeInterval = 30 * time.Second

func main() {
	var configFile string
	cmd := &cobra.Command{
		Use:           "reseller-server",
		Short:         "Serve health checks, metrics and job triggers",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configFile)
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "path to the configuration file")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, version)
	if err != nil {
		return err
	}
	defer a.Close()
	log := a.Logger

	var jobsHandler *httptransport.JobsHandler
	if cfg.Server.AdminToken != "" {
		jobsHandler = httptransport.NewJobsHandler(a, cfg.Server.AdminToken, log)
	} else {
		log.WarnContext(ctx, "server.admin_token not set, job trigger endpoints disabled")
	}
	router := httptransport.NewRouter(log,
		httptransport.NewHealthHandler(a, a.Registrars, log),
		jobsHandler,
	)
	srv := httpserver.New(cfg.Server, router, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(gctx, "starting reseller server", "addr", cfg.Server.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(dependencyProbeInterval)
		defer ticker.Stop()
		for {
			a.Check(gctx)
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down reseller server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
