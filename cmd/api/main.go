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

	"golang.org/x/sync/errgroup"

	"github.com/baharkarakas/point-service/internal/api"
	"github.com/baharkarakas/point-service/internal/auth"
	"github.com/baharkarakas/point-service/internal/config"
	"github.com/baharkarakas/point-service/internal/db"
	"github.com/baharkarakas/point-service/internal/lock"
	"github.com/baharkarakas/point-service/internal/logger"
	"github.com/baharkarakas/point-service/internal/metrics"
	"github.com/baharkarakas/point-service/internal/repository"
	"github.com/baharkarakas/point-service/internal/repository/memory"
	"github.com/baharkarakas/point-service/internal/repository/postgres"
	"github.com/baharkarakas/point-service/internal/repository/redis"
	"github.com/baharkarakas/point-service/internal/services"
	"github.com/baharkarakas/point-service/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("exit", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	repos, closeStore, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	wp := worker.NewPool(cfg.Workers)
	defer wp.Stop()

	locks := lock.NewManager(cfg.LockTimeout)
	svc := services.NewPointService(repos.UserPoints, repos.PointHistories, repos.AuditLogs, locks, wp)

	var tm *auth.TokenManager
	if cfg.AuthEnabled() {
		tm = auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTTL, cfg.RefreshTTL)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.NewRouter(cfg, svc, tm),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting",
			"port", cfg.HTTPPort,
			"storage", cfg.Storage,
			"lock_timeout", cfg.LockTimeout,
			"auth", cfg.AuthEnabled(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openStorage picks the backend named by STORAGE. The returned func releases
// its connections.
func openStorage(ctx context.Context, cfg config.Config) (repository.Repositories, func(), error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return memory.NewRepositories(memory.WithLatency(cfg.StoreLatency)), func() {}, nil

	case config.StoragePostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return repository.Repositories{}, nil, fmt.Errorf("db connect: %w", err)
		}
		if cfg.Migrate {
			if err := db.RunMigrations(ctx, pool); err != nil {
				pool.Close()
				return repository.Repositories{}, nil, fmt.Errorf("migrations: %w", err)
			}
		}
		return postgres.NewRepositories(pool), pool.Close, nil

	case config.StorageRedis:
		rdb, err := redis.NewClient(ctx, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return repository.Repositories{}, nil, err
		}
		return redis.NewRepositories(rdb), func() { _ = rdb.Close() }, nil

	default:
		return repository.Repositories{}, nil, fmt.Errorf("unknown STORAGE %q", cfg.Storage)
	}
}
