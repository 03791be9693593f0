package middlewarectx

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_ForgetsIdleVisitors(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(1, 1, time.Minute)
	l.now = func() time.Time { return now }
	l.lastSweep = now

	for i := range 100 {
		assert.True(t, l.Allow(fmt.Sprintf("10.0.0.%d", i)))
	}
	assert.Len(t, l.visitors, 100)

	// До истечения ttl с прошлой очистки карта не просматривается.
	now = now.Add(30 * time.Second)
	assert.True(t, l.Allow("10.0.1.1"))
	assert.Len(t, l.visitors, 101)

	now = now.Add(45 * time.Second)
	assert.True(t, l.Allow("10.0.1.2"))
	assert.Len(t, l.visitors, 2, "only visitors seen within ttl survive the sweep")
	assert.Equal(t, now, l.lastSweep)
}

func TestRateLimiter_LimitsPerAddress(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(1, 2, time.Minute)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("a"))
}
