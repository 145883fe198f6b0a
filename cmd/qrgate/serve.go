package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/BrandonDHaskell/qrgate/internal/config"
	"github.com/BrandonDHaskell/qrgate/internal/httpapi"
	"github.com/BrandonDHaskell/qrgate/internal/logging"
	"github.com/BrandonDHaskell/qrgate/internal/qrgate/service"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run a station and its HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg config.Config) error {
	logger := logging.New(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	fo, err := openFanout(cfg.Fanout, cfg.InboxSize, logger)
	if err != nil {
		return err
	}
	defer func() { _ = fo.Close() }()

	station := service.NewStation(service.StationConfig{
		ID:        cfg.StationID,
		Store:     st,
		Fanout:    fo,
		Policy:    service.AccessPolicy{AuditDenied: cfg.AuditDenied},
		InboxSize: cfg.InboxSize,
		Logger:    logger,
		Location:  cfg.Location(),
	})
	if err := station.Boot(ctx); err != nil {
		return err
	}
	if err := station.Watch(ctx); err != nil {
		// Broadcasts are advisory; the station still works without them.
		logger.Warn().Err(err).Msg("fanout subscribe failed, inbox disabled")
	}

	refresher := service.NewRefresher(station, time.Duration(cfg.RefreshIntervalSeconds)*time.Second, logger)
	refresher.Start(ctx)
	defer refresher.Stop()

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:  logger,
		Addr:    cfg.HTTPAddr,
		Station: station,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Str("station", cfg.StationID).Msg("listening")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
	logger.Info().Msg("stopped")
	return nil
}
