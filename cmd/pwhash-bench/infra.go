package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/MrEthical07/pwhash"
	"github.com/MrEthical07/pwhash/credstore"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// newRedisClient connects to cfg.RedisAddr, or starts a miniredis when it is
// empty.
func newRedisClient(lc fx.Lifecycle, cfg benchConfig, logger *slog.Logger) (redis.UniversalClient, error) {
	addr := cfg.RedisAddr

	var mr *miniredis.Miniredis
	if addr == "" {
		var err error
		mr, err = miniredis.Run()
		if err != nil {
			return nil, errors.Wrap(err, "failed to start miniredis")
		}
		addr = mr.Addr()
		logger.Info("Using miniredis", slog.String("addr", addr))
	} else {
		logger.Info("Using redis", slog.String("addr", addr))
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{addr},
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return errors.Wrap(client.Ping(ctx).Err(), "redis ping failed")
		},
		OnStop: func(context.Context) error {
			err := client.Close()
			if mr != nil {
				mr.Close()
			}
			return errors.WithStack(err)
		},
	})

	return client, nil
}

func newCredentialStore(client redis.UniversalClient, cfg benchConfig) *credstore.Store {
	return credstore.NewStore(client, cfg.Prefix, 0)
}

// newService loads the pwhash config and turns on every metric the bench
// reports.
func newService(lc fx.Lifecycle, cfg benchConfig, logger *slog.Logger) (*pwhash.Service, error) {
	conf, err := pwhash.LoadConfig(cfg.ConfigPath)
	if err != nil {
		return nil, err
	}
	conf.Metrics.Enabled = true
	conf.Metrics.EnableLatencyHistograms = true

	svc, err := pwhash.New().WithConfig(conf).WithLogger(logger).Build()
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			svc.Close()
			return nil
		},
	})
	return svc, nil
}
