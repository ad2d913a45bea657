// cmd/historian/main.go drains the Redis action queue into PostgreSQL.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/kombio/internal/cache"
	"github.com/jason-s-yu/kombio/internal/config"
	"github.com/jason-s-yu/kombio/internal/database"
	"github.com/jason-s-yu/kombio/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	logger := logrus.New()
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			logger.WithError(err).Fatal("invalid configuration")
		}
	}
	if err := config.FromEnv(cfg); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	logger.SetLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.ConnectDB(ctx, database.DSN(cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.Database))
	if err != nil {
		logger.WithError(err).Fatal("connect postgres")
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		logger.WithError(err).Fatal("migrate")
	}
	rdb, err := cache.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.DB)
	if err != nil {
		logger.WithError(err).Fatal("connect redis")
	}
	defer rdb.Close()

	svc := historian.New(rdb, database.NewActionRepo(pool), historian.Config{
		Queue:         cfg.Historian.Queue,
		BatchSize:     cfg.Historian.BatchSize,
		FlushInterval: cfg.FlushInterval(),
		Inactivity:    cfg.Inactivity(),
	}, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.Run(gctx) })
	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("historian exited")
	}
	logger.Info("Historian shutdown complete.")
}
