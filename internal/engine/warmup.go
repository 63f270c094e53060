package engine

import (
	"context"

	"go.uber.org/zap"
)

// WarmupLocker — распределенная блокировка прогрева.
type WarmupLocker interface {
	AcquireWarmupLock(ctx context.Context, days int) (bool, error)
}

// WarmupSnapshot прогревает кэш снапшотом окна по умолчанию при старте.
func WarmupSnapshot(
	ctx context.Context,
	locker WarmupLocker,
	logger *zap.Logger,
	days int,
	refresh func(ctx context.Context, days int) error, // Callback, который считает и кладет снапшот в кэш
) error {
	// 1. Кэш выключен — греть нечего
	if locker == nil {
		return nil
	}

	// 2. SetNX, чтобы только один инстанс ходил в хранилище
	ok, err := locker.AcquireWarmupLock(ctx, days)
	if err != nil || !ok {
		if err != nil {
			logger.Warn("warm-up lock unavailable, skipping", zap.Error(err))
		}
		return nil // Либо ошибка сети, либо другой уже греет кэш
	}

	// 3. Заливаем
	logger.Info("warming up snapshot cache", zap.Int("days", days))
	return refresh(ctx, days)
}
