package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/qrgate/internal/config"
	"github.com/BrandonDHaskell/qrgate/internal/db"
	"github.com/BrandonDHaskell/qrgate/internal/qrgate/fanout"
	"github.com/BrandonDHaskell/qrgate/internal/qrgate/store"
	"github.com/BrandonDHaskell/qrgate/internal/qrgate/store/memory"
	redisstore "github.com/BrandonDHaskell/qrgate/internal/qrgate/store/redis"
	sqlitestore "github.com/BrandonDHaskell/qrgate/internal/qrgate/store/sqlite"
)

// openStore builds the configured collection store. The returned close func
// is never nil.
func openStore(ctx context.Context, cfg config.StoreConfig, logger zerolog.Logger) (store.Store, func(), error) {
	switch cfg.Backend {
	case config.StoreMemory:
		logger.Warn().Msg("memory store: data is lost on exit and not shared between stations")
		return memory.New(), func() {}, nil

	case config.StoreSQLite:
		conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath})
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		writer := db.NewWorker(conn)
		logger.Info().Str("path", cfg.DBPath).Msg("sqlite store ready")
		return sqlitestore.NewCollectionStore(conn, writer, nil), func() {
			writer.Close()
			_ = conn.Close()
		}, nil

	case config.StoreRedis:
		rs := redisstore.NewStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisPrefix)
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, nil, fmt.Errorf("redis store ping %s: %w", cfg.RedisAddr, err)
		}
		logger.Info().Str("addr", cfg.RedisAddr).Str("prefix", cfg.RedisPrefix).Msg("redis store ready")
		return rs, func() { _ = rs.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

func openFanout(cfg config.FanoutConfig, inbox int, logger zerolog.Logger) (*fanout.Fanout, error) {
	switch cfg.Backend {
	case config.FanoutLocal:
		return fanout.New(fanout.NewLocal(inbox)), nil

	case config.FanoutRedis:
		logger.Info().Str("addr", cfg.RedisAddr).Msg("redis fanout")
		return fanout.New(fanout.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.ExchangePrefix)), nil

	case config.FanoutAMQP:
		a, err := fanout.NewAMQP(cfg.AMQPURL, cfg.ExchangePrefix)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("prefix", cfg.ExchangePrefix).Msg("amqp fanout")
		return fanout.New(a), nil
	}
	return nil, fmt.Errorf("unknown fanout backend %q", cfg.Backend)
}
