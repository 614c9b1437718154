package cmd

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isometry/ncm-webhook-relay/internal/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds the HTTP shutdown and the drain of scheduled webhooks.
const shutdownTimeout = 30 * time.Second

func cmdService() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "service",
		Aliases: []string{"s", "serve", "standalone", "server"},
		PreRun: func(_ *cobra.Command, _ []string) {
			config.Global.Mode = config.ModeService
			initLogger()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runService(cmd)
		},
	}

	return cmd
}

func runService(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := newRelay(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to setup service")
	}

	logger.Debug("creating HTTP server...")
	s := &http.Server{
		Handler:           r.Handler(),
		Addr:              net.JoinHostPort(config.Service.Addr, config.Service.Port),
		ReadHeaderTimeout: config.Service.Timeout,
		ReadTimeout:       config.Service.Timeout,
		WriteTimeout:      config.Service.Timeout,
		IdleTimeout:       config.Service.Timeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("serving...",
			slog.String("address", s.Addr),
			slog.String("path", config.Listener.Webhook.Endpoint),
			slog.String("metrics", config.Service.MetricsPath),
			slog.String("timeout", config.Service.Timeout.String()))
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server failed")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shut down http server", slog.Any("error", err))
		}
		return r.Close(shutdownCtx)
	})
	return g.Wait()
}
