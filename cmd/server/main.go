// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/kombio/internal/auth"
	"github.com/jason-s-yu/kombio/internal/cache"
	"github.com/jason-s-yu/kombio/internal/config"
	"github.com/jason-s-yu/kombio/internal/database"
	"github.com/jason-s-yu/kombio/internal/handlers"
	"github.com/jason-s-yu/kombio/internal/service"
	"github.com/jason-s-yu/kombio/internal/store"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	logger := logrus.New()
	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	logger.SetLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("server exited")
	}
	logger.Info("server stopped")
}

func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if err := config.FromEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func newAuthenticator(cfg *config.Config) (*auth.Authenticator, error) {
	expire, err := auth.ParseExpire(cfg.Auth.TokenExpire)
	if err != nil {
		return nil, err
	}
	if cfg.Auth.PrivateKeyPath != "" {
		return auth.FromKeyFiles(cfg.Auth.PrivateKeyPath, cfg.Auth.PublicKeyPath, expire)
	}
	return auth.New(expire)
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	authn, err := newAuthenticator(cfg)
	if err != nil {
		return err
	}

	opts := service.Options{
		Retries:   cfg.Game.ConflictRetries,
		MaxRounds: cfg.Game.MaxRounds,
		Rules:     cfg.HouseRules(),
		Logger:    logger,
	}

	var svc *service.Service
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		pool, err := database.ConnectDB(ctx, database.DSN(cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.Database))
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool); err != nil {
			return err
		}
		rdb, err := cache.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		svc = service.New(database.NewPgStore(pool), database.NewProfileRepo(pool), cache.NewNotifier(rdb), cache.NewActionLog(rdb, cfg.Historian.Queue), opts)
		logger.WithFields(logrus.Fields{"postgres": cfg.Postgres.Host, "redis": cfg.Redis.Addr}).Info("using postgres store")
	default:
		svc = service.New(store.NewMemoryStore(), store.NewMemoryProfiles(), store.NewMemoryNotifier(), nil, opts)
		logger.Info("using in-memory store")
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handlers.NewServer(svc, authn, logger, cfg.PollInterval()).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
