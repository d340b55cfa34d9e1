package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kandev/kanban/internal/board/cache"
	"github.com/kandev/kanban/internal/board/repository"
	"github.com/kandev/kanban/internal/board/repository/sqlrepo"
	"github.com/kandev/kanban/internal/common/config"
	"github.com/kandev/kanban/internal/common/logger"
	"github.com/kandev/kanban/internal/db"
)

// provideBackend builds the configured storage backend, wrapped in the Redis
// tree cache when redis.addr is set.
func provideBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.Backend, []func() error, error) {
	var cleanups []func() error
	var backend repository.Backend

	if cfg.Database.Driver == "memory" {
		log.Info("Using in-memory board storage")
		backend = repository.NewMemoryBackend()
	} else {
		pool, err := db.Open(cfg.Database, log)
		if err != nil {
			return nil, nil, err
		}
		cleanups = append(cleanups, pool.Close)
		backend = sqlrepo.New(pool)
	}

	if cfg.Redis.Addr == "" {
		return backend, cleanups, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		runCleanups(cleanups, log)
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	cleanups = append(cleanups, rdb.Close)
	log.Info("Board cache enabled", zap.String("redis_addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.TTL()))
	return cache.New(backend, rdb, cfg.Redis.TTL(), log), cleanups, nil
}

// runCleanups runs cleanups in reverse order.
func runCleanups(cleanups []func() error, log *logger.Logger) {
	for i := len(cleanups) - 1; i >= 0; i-- {
		if err := cleanups[i](); err != nil {
			log.Error("cleanup failed", zap.Error(err))
		}
	}
}
