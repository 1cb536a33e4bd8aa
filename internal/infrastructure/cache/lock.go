package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// releaseScript chỉ xóa key khi token còn khớp, tránh xóa lock của
// người khác sau khi lock cũ đã hết TTL.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// refreshScript gia hạn TTL (ms) khi token còn khớp
var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker là distributed mutex: SET key token NX PX ttl.
// Trong lúc giữ lock, một goroutine gia hạn TTL mỗi ttl/3 cho tới khi
// release; TTL chỉ còn tác dụng khi process chết giữa chừng.
type RedisLocker struct {
	client redis.Cmdable
	prefix string

	// refreshEvery = 0 => ttl/3
	refreshEvery time.Duration
}

func NewRedisLocker(client redis.Cmdable) *RedisLocker {
	return &RedisLocker{client: client, prefix: "lock:"}
}

// TryLock trả về acquired=false (không lỗi) khi lock đang bị giữ.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	fullKey := l.prefix + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	log.Debug().Str("key", fullKey).Dur("ttl", ttl).Msg("[LOCK] Acquired")

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		l.keepAlive(fullKey, token, ttl, stop)
	}()

	var once sync.Once
	release := func(ctx context.Context) error {
		once.Do(func() {
			close(stop)
			wg.Wait()
		})

		n, err := releaseScript.Run(ctx, l.client, []string{fullKey}, token).Int()
		if err != nil {
			return fmt.Errorf("failed to release lock %s: %w", key, err)
		}
		if n == 0 {
			log.Warn().Str("key", fullKey).Msg("[LOCK] Lock expired before release")
		}
		return nil
	}
	return release, true, nil
}

// keepAlive chạy tới khi stop bị đóng. Lỗi mạng tạm thời chỉ log,
// lần tick sau thử lại; token không còn khớp => lock đã mất, dừng.
func (l *RedisLocker) keepAlive(key, token string, ttl time.Duration, stop <-chan struct{}) {
	every := l.refreshEvery
	if every <= 0 {
		every = ttl / 3
	}
	if every <= 0 {
		return
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), every)
		n, err := refreshScript.Run(ctx, l.client, []string{key}, token, ttl.Milliseconds()).Int()
		cancel()

		switch {
		case err != nil:
			log.Warn().Err(err).Str("key", key).Msg("[LOCK] Failed to refresh lock TTL")
		case n == 0:
			log.Error().Str("key", key).Msg("[LOCK] Lock lost while held, another import may start")
			return
		}
	}
}
