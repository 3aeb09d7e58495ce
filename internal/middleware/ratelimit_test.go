package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestAllowEnforcesLimitPerKey(t *testing.T) {
	l := NewInMemoryRateLimiter(2, time.Minute)
	assert.True(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))
	// other clients keep their own budget
	assert.True(t, l.Allow("5.6.7.8"))
}

func TestAllowRecoversAfterWindow(t *testing.T) {
	l := NewInMemoryRateLimiter(1, 30*time.Millisecond)
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))
	time.Sleep(50 * time.Millisecond)
	assert.True(t, l.Allow("1.2.3.4"))
}

func TestRateLimitMiddlewareRejectsWith429(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(NewInMemoryRateLimiter(1, time.Minute)))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate limit exceeded")
}
