package infra

import "fmt"

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "ddosdash"
)

// SnapshotKey Ключ снапшота дашборда для окна в days суток
func SnapshotKey(days int) string {
	return fmt.Sprintf("%s:snapshot:%d", RedisNamespace, days)
}

// WarmupLockKey Ключ блокировки прогрева, чтобы только один инстанс ходил в хранилище
func WarmupLockKey(days int) string {
	return fmt.Sprintf("%s:lock:warmup:%d", RedisNamespace, days)
}
