package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis chỉ implement các lệnh mà RedisLocker dùng
type fakeRedis struct {
	redis.Cmdable

	mu        sync.Mutex
	values    map[string]string
	ttls      map[string]int64
	refreshes int
	setErr    error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: make(map[string]string), ttls: make(map[string]int64)}
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.setErr != nil {
		return redis.NewBoolResult(false, f.setErr)
	}
	if _, ok := f.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.values[key] = value.(string)
	f.ttls[key] = ttl.Milliseconds()
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) EvalSha(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	if sha1 == refreshScript.Hash() {
		return f.refresh(keys[0], args[0].(string), args[1].(int64))
	}
	return f.release(keys[0], args[0].(string))
}

func (f *fakeRedis) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return f.EvalSha(ctx, redis.NewScript(script).Hash(), keys, args...)
}

func (f *fakeRedis) release(key, token string) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.values[key] == token {
		delete(f.values, key)
		delete(f.ttls, key)
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func (f *fakeRedis) refresh(key, token string, ttlMs int64) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.values[key] != token {
		return redis.NewCmdResult(int64(0), nil)
	}
	f.ttls[key] = ttlMs
	f.refreshes++
	return redis.NewCmdResult(int64(1), nil)
}

func (f *fakeRedis) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshes
}

func (f *fakeRedis) set(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
}

func (f *fakeRedis) get(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[key]
}

func TestRedisLocker_MutualExclusion(t *testing.T) {
	fake := newFakeRedis()
	locker := NewRedisLocker(fake)
	ctx := context.Background()

	release, ok, err := locker.TryLock(ctx, "item-import", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = locker.TryLock(ctx, "item-import", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second caller must not get the lock")

	require.NoError(t, release(ctx))
	assert.Empty(t, fake.get("lock:item-import"))

	_, ok, err = locker.TryLock(ctx, "item-import", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLocker_ReleaseKeepsForeignToken(t *testing.T) {
	fake := newFakeRedis()
	locker := NewRedisLocker(fake)
	ctx := context.Background()

	release, ok, err := locker.TryLock(ctx, "item-import", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// lock hết hạn và bị người khác lấy
	fake.set("lock:item-import", "someone-else")

	require.NoError(t, release(ctx))
	assert.Equal(t, "someone-else", fake.get("lock:item-import"))
}

func TestRedisLocker_RefreshesTTLWhileHeld(t *testing.T) {
	fake := newFakeRedis()
	locker := NewRedisLocker(fake)
	locker.refreshEvery = 5 * time.Millisecond
	ctx := context.Background()

	release, ok, err := locker.TryLock(ctx, "item-import", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Eventually(t, func() bool { return fake.refreshCount() >= 2 },
		time.Second, 5*time.Millisecond, "lock TTL must be extended while held")

	require.NoError(t, release(ctx))
	after := fake.refreshCount()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, fake.refreshCount(), "refresh must stop after release")
}

func TestRedisLocker_RefreshStopsWhenLockLost(t *testing.T) {
	fake := newFakeRedis()
	locker := NewRedisLocker(fake)
	locker.refreshEvery = 5 * time.Millisecond
	ctx := context.Background()

	release, ok, err := locker.TryLock(ctx, "item-import", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	fake.set("lock:item-import", "someone-else")
	time.Sleep(30 * time.Millisecond)
	stopped := fake.refreshCount()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, fake.refreshCount(), "no refresh once the token no longer matches")
	assert.Equal(t, "someone-else", fake.get("lock:item-import"))
	require.NoError(t, release(ctx))
}

func TestRedisLocker_Error(t *testing.T) {
	fake := newFakeRedis()
	fake.setErr = errors.New("connection refused")

	_, ok, err := NewRedisLocker(fake).TryLock(context.Background(), "k", time.Second)
	assert.Error(t, err)
	assert.False(t, ok)
}
