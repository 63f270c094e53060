// Package cache хранит готовые снапшоты дашборда в Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/ddos-dashboard/internal/domain"
	"github.com/xela07ax/ddos-dashboard/internal/infra"
	"go.uber.org/zap"
)

const warmupLockTTL = 30 * time.Second

// SnapshotCache кэширует снапшот целиком, поэтому карточки и графики
// из кэша всегда относятся к одному окну.
type SnapshotCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisClient создает клиент Redis. Пустой Addr — кэш выключен, возвращается nil.
func NewRedisClient(cfg infra.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewSnapshotCache возвращает nil, если кэш выключен (нет клиента или ttl <= 0).
func NewSnapshotCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *SnapshotCache {
	if rdb == nil || ttl <= 0 {
		return nil
	}
	return &SnapshotCache{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger.Named("snapshot-cache"),
	}
}

// Get возвращает снапшот для окна в days суток. Промах — (nil, false, nil).
func (c *SnapshotCache) Get(ctx context.Context, days int) (*domain.DashboardSnapshot, bool, error) {
	raw, err := c.rdb.Get(ctx, infra.SnapshotKey(days)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get snapshot: %w", err)
	}

	var snap domain.DashboardSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		// Битую запись не отдаем, она перезапишется при следующем Set
		c.logger.Warn("corrupted snapshot in cache", zap.Int("days", days), zap.Error(err))
		return nil, false, nil
	}
	return &snap, true, nil
}

// Set сохраняет снапшот с TTL.
func (c *SnapshotCache) Set(ctx context.Context, snap *domain.DashboardSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("cache: encode snapshot: %w", err)
	}
	if err := c.rdb.Set(ctx, infra.SnapshotKey(snap.Window.Days), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set snapshot: %w", err)
	}
	return nil
}

// AcquireWarmupLock Распределенная блокировка (SetNX), чтобы только один инстанс прогревал кэш
func (c *SnapshotCache) AcquireWarmupLock(ctx context.Context, days int) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, infra.WarmupLockKey(days), "processing", warmupLockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("cache: warmup lock: %w", err)
	}
	return ok, nil
}
