// Package cache puts a Redis read-through cache in front of a Backend.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kandev/kanban/internal/board/models"
	"github.com/kandev/kanban/internal/board/repository"
	"github.com/kandev/kanban/internal/common/logger"
)

const keyPrefix = "kanban:boards:"

// Backend caches each owner's loaded tree as one JSON value and drops it
// after every successful write. Redis errors never fail a load; they fall
// through to the wrapped backend.
type Backend struct {
	next   repository.Backend
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger *logger.Logger
}

var _ repository.Backend = (*Backend)(nil)

func New(next repository.Backend, rdb redis.UniversalClient, ttl time.Duration, log *logger.Logger) *Backend {
	return &Backend{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		logger: log.WithFields(zap.String("component", "board-cache")),
	}
}

func key(ownerID string) string {
	return keyPrefix + ownerID
}

func (b *Backend) Load(ctx context.Context, ownerID string) ([]models.Board, error) {
	raw, err := b.rdb.Get(ctx, key(ownerID)).Bytes()
	switch {
	case err == nil:
		var boards []models.Board
		jsonErr := json.Unmarshal(raw, &boards)
		if jsonErr == nil {
			return boards, nil
		}
		b.logger.Warn("discarding undecodable cache entry", zap.String("owner_id", ownerID), zap.Error(jsonErr))
	case errors.Is(err, redis.Nil):
	default:
		b.logger.Warn("cache read failed", zap.String("owner_id", ownerID), zap.Error(err))
	}

	boards, err := b.next.Load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	b.store(ctx, ownerID, boards)
	return boards, nil
}

// Apply writes through and invalidates the owner's entry.
func (b *Backend) Apply(ctx context.Context, cs *repository.ChangeSet) error {
	if err := b.next.Apply(ctx, cs); err != nil {
		return err
	}
	if err := b.rdb.Del(ctx, key(cs.OwnerID)).Err(); err != nil {
		b.logger.Warn("cache invalidation failed", zap.String("owner_id", cs.OwnerID), zap.Error(err))
	}
	return nil
}

func (b *Backend) store(ctx context.Context, ownerID string, boards []models.Board) {
	raw, err := json.Marshal(boards)
	if err != nil {
		b.logger.Warn("cache encode failed", zap.String("owner_id", ownerID), zap.Error(err))
		return
	}
	if err := b.rdb.Set(ctx, key(ownerID), raw, b.ttl).Err(); err != nil {
		b.logger.Warn("cache write failed", zap.String("owner_id", ownerID), zap.Error(err))
	}
}
