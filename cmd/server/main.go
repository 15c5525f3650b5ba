package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"pidstore/internal/app"
	"pidstore/internal/audit"
	jwttoken "pidstore/internal/jwt_token"
	"pidstore/internal/pid/handler"
	"pidstore/internal/platform/config"
	"pidstore/internal/platform/httpserver"
	"pidstore/internal/platform/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:           "pidstore",
		Short:         "DOI registration service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(config.NewViper(), configPath)
			if err != nil {
				slog.Error("invalid configuration", "error", err)
				return err
			}
			log := logger.New(cfg.Log.Level, cfg.Log.Format)
			if err := run(cmd.Context(), cfg, log); err != nil {
				log.Error("server stopped", "error", err)
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	return cmd
}

// run wires dependencies and serves until SIGINT/SIGTERM.
func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	a, err := app.New(ctx, cfg, log, app.WithRegisterer(reg))
	if err != nil {
		return fmt.Errorf("assemble service: %w", err)
	}

	jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience)
	h := handler.New(a.Service, jwttoken.NewJWTServiceAdapter(jwtService), log)
	mounts := []routes{h}
	if cfg.Server.AdminTokenHash != "" {
		mounts = append(mounts, audit.NewHandler(a.Audit, cfg.Server.AdminTokenHash, log))
	}
	srv := httpserver.New(cfg.Server.Addr, newRouter(a, reg, mounts...))

	log.Info("starting pidstore", "addr", cfg.Server.Addr, "test_mode", cfg.Crossref.TestMode)
	err = serve(ctx, srv, a.Worker, log)
	if cerr := a.Close(); cerr != nil {
		log.Warn("failed to close backends", "error", cerr)
	}
	return err
}

type listener interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

type auditRunner interface {
	Run(ctx context.Context) error
}

// serve runs the HTTP listener and the audit worker under one errgroup. On
// cancellation the listener is shut down first; the worker is stopped only
// once in-flight handlers have returned, so the events they emit are written.
func serve(ctx context.Context, srv listener, worker auditRunner, log *slog.Logger) error {
	workerCtx, stopWorker := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWorker()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return worker.Run(workerCtx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		err := srv.Shutdown(shutdownCtx)
		stopWorker()
		return err
	})
	return g.Wait()
}
