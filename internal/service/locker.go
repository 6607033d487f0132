package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker serializes pay/cancel traffic per booking slot across
// instances with a Redis SET NX lock. Correctness never depends on it:
// the conditional SQL statements stay the arbiter, the lock just keeps
// concurrent retries from burning conflicts. When Redis is not
// configured or unreachable the locker degrades to a no-op.
type Locker struct {
	rdb *redis.Client
	ttl time.Duration
}

// releaseScript deletes the lock only if the caller still owns it, so
// an expired-then-reacquired lock is never released by the old owner.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// NewLocker returns a Locker over the given client. A nil client
// disables locking.
func NewLocker(rdb *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Locker{rdb: rdb, ttl: ttl}
}

// Acquire takes the lock for key and returns a release function. ok is
// false only when another holder currently owns the key; Redis being
// down counts as acquired.
func (l *Locker) Acquire(ctx context.Context, key string) (release func(), ok bool) {
	if l == nil || l.rdb == nil {
		return func() {}, true
	}
	token := randomToken()
	set, err := l.rdb.SetNX(ctx, "lock:"+key, token, l.ttl).Result()
	if err != nil {
		// Degrade to unlocked operation rather than failing the request.
		return func() {}, true
	}
	if !set {
		return func() {}, false
	}
	return func() {
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(rctx, l.rdb, []string{"lock:" + key}, token).Err()
	}, true
}

func randomToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "fallback"
	}
	return hex.EncodeToString(b)
}
