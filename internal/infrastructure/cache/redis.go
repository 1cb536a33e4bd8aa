package cache

import (
	"context"
	"fmt"
	"time"

	"inventory-backend/internal/config"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	connectAttempts = 3
	connectBackoff  = time.Second
)

// RedisClient dùng cho import lock. Asynq tự mở connection riêng
// từ cùng config (Config.RedisClientOpt).
type RedisClient struct {
	Client *redis.Client
}

func NewRedisClient(cfg config.RedisConfig) *RedisClient {
	return &RedisClient{
		Client: redis.NewClient(&redis.Options{
			Addr:         cfg.Host,
			Password:     cfg.Password,
			DB:           cfg.DB,
			PoolSize:     4,
			MinIdleConns: 1,
			MaxRetries:   2,
			DialTimeout:  3 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
		}),
	}
}

// Connect ping vài lần trước khi bỏ cuộc; caller quyết định Redis
// có bắt buộc hay không (API/CLI fallback sang advisory lock).
func (r *RedisClient) Connect(ctx context.Context) error {
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if err = r.ping(ctx); err == nil {
			log.Info().Str("addr", r.Client.Options().Addr).Msg("[REDIS] Connected successfully")
			return nil
		}

		log.Warn().Err(err).Int("attempt", attempt).Msg("[REDIS] Ping failed")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(connectBackoff * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("redis unreachable after %d attempts: %w", connectAttempts, err)
}

func (r *RedisClient) HealthCheck(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.ping(ctx)
}

// Locker trả về distributed lock dùng chung client này
func (r *RedisClient) Locker() *RedisLocker {
	return NewRedisLocker(r.Client)
}

func (r *RedisClient) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

func (r *RedisClient) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
