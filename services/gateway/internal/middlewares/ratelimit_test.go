package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

func newLimitedEngine(counter Counter, max int, window time.Duration) *gin.Engine {
	r := gin.New()
	r.Use(RateLimit(counter, max, window))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func get(r *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":51234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRejectsBeyondWindowMax(t *testing.T) {
	r := newLimitedEngine(NewMemoryCounter(), 3, time.Minute)

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, get(r, "10.0.0.1").Code)
	}
	w := get(r, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"too many requests"}`, w.Body.String())
}

func TestClientsAreCountedSeparately(t *testing.T) {
	r := newLimitedEngine(NewMemoryCounter(), 1, time.Minute)

	assert.Equal(t, http.StatusOK, get(r, "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, get(r, "10.0.0.2").Code)
}

func TestWindowResets(t *testing.T) {
	r := newLimitedEngine(NewMemoryCounter(), 1, 10*time.Millisecond)

	require.Equal(t, http.StatusOK, get(r, "10.0.0.1").Code)
	require.Equal(t, http.StatusTooManyRequests, get(r, "10.0.0.1").Code)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, http.StatusOK, get(r, "10.0.0.1").Code)
}

type brokenCounter struct{}

func (brokenCounter) Incr(context.Context, string, time.Duration) (int64, error) {
	return 0, assert.AnError
}

func TestCounterErrorFailsOpen(t *testing.T) {
	r := newLimitedEngine(brokenCounter{}, 1, time.Minute)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, get(r, "10.0.0.1").Code)
	}
}

func TestMemoryCounterEvictsExpiredWindows(t *testing.T) {
	mc := NewMemoryCounter()
	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		_, err := mc.Incr(context.Background(), "ratelimit:"+ip, 10*time.Millisecond)
		require.NoError(t, err)
	}
	require.Len(t, mc.windows, 3)

	time.Sleep(20 * time.Millisecond)
	_, err := mc.Incr(context.Background(), "ratelimit:10.0.0.9", time.Minute)
	require.NoError(t, err)

	assert.Len(t, mc.windows, 1, "expired client windows must not accumulate")
}

func TestMemoryCounterIncrements(t *testing.T) {
	mc := NewMemoryCounter()
	for want := int64(1); want <= 3; want++ {
		n, err := mc.Incr(context.Background(), "ratelimit:10.0.0.1", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
}
