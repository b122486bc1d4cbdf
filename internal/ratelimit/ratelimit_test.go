package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chefwise/chefwise-api/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(cfg Config) (*Limiter, *time.Time) {
	l := New(cfg)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLimiterAllowsUpToMax(t *testing.T) {
	l, _ := newTestLimiter(Config{Window: time.Minute, Max: 5})
	defer l.Stop()

	for i := 0; i < 5; i++ {
		res := l.Check("user-a")
		assert.True(t, res.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 5, res.Limit)
		assert.Equal(t, 4-i, res.Remaining)
	}

	res := l.Check("user-a")
	assert.False(t, res.Allowed, "6th request in the window should be rejected")
	assert.Equal(t, 0, res.Remaining)
	assert.Greater(t, res.RetryAfter, time.Duration(0))
}

func TestLimiterResetsAfterWindow(t *testing.T) {
	l, now := newTestLimiter(Config{Window: time.Minute, Max: 5})
	defer l.Stop()

	for i := 0; i < 6; i++ {
		l.Check("user-a")
	}

	*now = now.Add(time.Minute + time.Second)

	res := l.Check("user-a")
	assert.True(t, res.Allowed, "request after window expiry should start a new window")
	assert.Equal(t, 4, res.Remaining)
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(Config{Window: time.Minute, Max: 1})
	defer l.Stop()

	assert.True(t, l.Check("user-a").Allowed)
	assert.False(t, l.Check("user-a").Allowed)
	assert.True(t, l.Check("user-b").Allowed)
}

func TestSweepDropsIdleEntries(t *testing.T) {
	l, now := newTestLimiter(Config{Window: time.Minute, Max: 5})
	defer l.Stop()

	l.Check("user-a")
	l.Check("user-b")
	require.Equal(t, 2, l.EntryCount())

	*now = now.Add(2*time.Minute + time.Second)
	l.sweep()

	assert.Equal(t, 0, l.EntryCount())
}

func TestMiddlewareHeadersAndRejection(t *testing.T) {
	gin.SetMode(gin.TestMode)

	l, _ := newTestLimiter(Config{Window: time.Minute, Max: 2})
	defer l.Stop()

	log := logger.New(logger.ERROR)
	key := func(c *gin.Context) string { return "fixed" }

	r := gin.New()
	r.GET("/x", Middleware(l, "test", key, nil, log), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "Too many requests. Please try again later.")
	assert.Contains(t, w.Body.String(), "retryAfter")
}

func TestClientKeyFallbacks(t *testing.T) {
	gin.SetMode(gin.TestMode)

	key := ClientKey(func(c *gin.Context) string {
		uid, _ := c.Get("uid")
		s, _ := uid.(string)
		return s
	})

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "anonymous", key(c))

	c.Request.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", key(c))

	c.Set("uid", "abcdefghijklmnopqrst")
	assert.Equal(t, "abcdefghijklmnopqrst", key(c))
}
