// Command pwhash-bench drives concurrent logins against a credential table in
// Redis and reports verify latency, rehash-on-login and Redis contention.
//
// With no -redis-addr (and no REDIS_ADDR) it runs against an in-process
// miniredis. Users are seeded at a deliberately weak cost so that the first
// successful login for each user upgrades the stored hash.
//
// While it runs, /metrics serves the service counters in Prometheus text
// format on -metrics-addr.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.uber.org/fx"
)

type benchConfig struct {
	Users       int
	Concurrency int
	Logins      int
	WrongRatio  float64
	SeedOps     uint64
	SeedMem     string
	RedisAddr   string
	Prefix      string
	ConfigPath  string
	MetricsAddr string
	Hold        bool

	Out io.Writer
}

type startBenchParams struct {
	fx.In
	fx.Lifecycle
	fx.Shutdowner

	Config benchConfig
	Runner *runner
	Logger *slog.Logger
}

func main() {
	cfg, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}
	cfg.Out = os.Stdout

	fx.New(
		appOptions(cfg),
		fx.NopLogger,
	).Run()
}

func parseFlags(args []string, stderr io.Writer) (benchConfig, error) {
	fs := flag.NewFlagSet("pwhash-bench", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var cfg benchConfig
	fs.IntVar(&cfg.Users, "users", 200, "number of users to seed")
	fs.IntVar(&cfg.Concurrency, "concurrency", 16, "number of concurrent workers")
	fs.IntVar(&cfg.Logins, "logins", 2000, "number of login attempts")
	fs.Float64Var(&cfg.WrongRatio, "wrong", 0.1, "fraction of logins using a wrong password")
	fs.Uint64Var(&cfg.SeedOps, "seed-ops", 1, "time cost of seeded hashes")
	fs.StringVar(&cfg.SeedMem, "seed-mem", "8MiB", "memory cost of seeded hashes")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	fs.StringVar(&cfg.Prefix, "prefix", "pwbench", "credential key prefix")
	fs.StringVar(&cfg.ConfigPath, "config", "", "pwhash YAML config file (PWHASH_* env vars also apply)")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", ":9464", "listen address for /metrics; empty disables")
	fs.BoolVar(&cfg.Hold, "hold", false, "keep serving /metrics after the run until interrupted")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if cfg.Users <= 0 || cfg.Concurrency <= 0 || cfg.Logins <= 0 {
		fmt.Fprintln(stderr, "users, concurrency, and logins must be > 0")
		return cfg, flag.ErrHelp
	}
	if cfg.WrongRatio < 0 || cfg.WrongRatio > 1 {
		fmt.Fprintln(stderr, "wrong must be within [0, 1]")
		return cfg, flag.ErrHelp
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	}
	return cfg, nil
}

func appOptions(cfg benchConfig) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		injectInfra(),
		injectService(),
		injectDelivery(),
		fx.Invoke(
			startBench,
		),
	)
}

func injectInfra() fx.Option {
	return fx.Provide(
		newLogger,
		newRedisClient,
		newCredentialStore,
	)
}

func injectService() fx.Option {
	return fx.Provide(
		newService,
		newRunner,
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			newExporter,
			newHTTPServer,
		),
		fx.Invoke(func(*httpServer) {}),
	)
}

func startBench(params startBenchParams) {
	params.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				code := 0
				report, err := params.Runner.Run(context.Background())
				if err != nil {
					params.Logger.Error("Benchmark failed", slog.Any("error", err))
					code = 1
				} else {
					report.Print(params.Config.Out)
				}

				if params.Config.Hold && err == nil {
					params.Logger.Info("Run finished; serving metrics until interrupted")
					return
				}
				if shutdownErr := params.Shutdown(fx.ExitCode(code)); shutdownErr != nil {
					params.Logger.Error("Failed to shutdown gracefully", slog.Any("error", shutdownErr))
					os.Exit(1)
				}
			}()
			return nil
		},
	})
}
