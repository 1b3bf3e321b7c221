package middlewares

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/you/trip-booking/pkg/web"
)

// Counter counts requests per key within the current fixed window.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimit rejects a client exceeding max requests per window. The key
// is the client IP; counter errors fail open.
func RateLimit(counter Counter, max int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := counter.Incr(c.Request.Context(), "ratelimit:"+c.ClientIP(), window)
		if err != nil {
			log.Printf("[gateway] rate counter: %v", err)
			c.Next()
			return
		}
		if n > int64(max) {
			web.Error(c, http.StatusTooManyRequests, "too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RedisCounter is the shared fixed-window counter. EXPIRE is set when
// the key is first created so the window starts at the first hit.
type RedisCounter struct {
	rdb *redis.Client
}

func NewRedisCounter(addr string) *RedisCounter {
	return &RedisCounter{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

func (rc *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	n, err := rc.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := rc.rdb.Expire(ctx, key, window).Err(); err != nil {
			return 0, err
		}
	}
	return n, nil
}

// MemoryCounter is the single-instance fallback when no redis address
// is configured.
type MemoryCounter struct {
	mu      sync.Mutex
	windows map[string]*memWindow
}

type memWindow struct {
	count   int64
	resetAt time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{windows: map[string]*memWindow{}}
}

func (mc *MemoryCounter) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	now := time.Now()
	mc.mu.Lock()
	defer mc.mu.Unlock()
	w, ok := mc.windows[key]
	if !ok || now.After(w.resetAt) {
		// opening a window also drops every expired one, so the map
		// stays bounded by the set of currently active clients
		for k, old := range mc.windows {
			if now.After(old.resetAt) {
				delete(mc.windows, k)
			}
		}
		w = &memWindow{resetAt: now.Add(window)}
		mc.windows[key] = w
	}
	w.count++
	return w.count, nil
}
