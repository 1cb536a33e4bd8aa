package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/xxh3"
)

// AdvisoryLocker dùng pg_try_advisory_lock làm import lock khi không có Redis.
// Lock gắn với session nên giữ riêng một connection cho tới khi release.
type AdvisoryLocker struct {
	pool *pgxpool.Pool
}

func NewAdvisoryLocker(pool *pgxpool.Pool) *AdvisoryLocker {
	return &AdvisoryLocker{pool: pool}
}

// AdvisoryKey map tên lock sang int64 key của Postgres.
func AdvisoryKey(name string) int64 {
	return int64(xxh3.HashString(name))
}

// TryLock: ttl bị bỏ qua, lock sống cùng connection.
func (l *AdvisoryLocker) TryLock(ctx context.Context, key string, _ time.Duration) (func(context.Context) error, bool, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire connection for lock: %w", err)
	}

	lockID := AdvisoryKey(key)
	var acquired bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, lockID).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("failed to try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	log.Debug().Str("key", key).Int64("lock_id", lockID).Msg("[LOCK] Advisory lock acquired")

	release := func(ctx context.Context) error {
		defer conn.Release()
		var unlocked bool
		if err := conn.QueryRow(ctx, `SELECT pg_advisory_unlock($1)`, lockID).Scan(&unlocked); err != nil {
			return fmt.Errorf("failed to release advisory lock: %w", err)
		}
		if !unlocked {
			log.Warn().Str("key", key).Msg("[LOCK] Advisory lock was not held at release")
		}
		return nil
	}
	return release, true, nil
}
