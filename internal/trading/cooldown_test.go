package trading

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock은 테스트용 시계입니다
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestCooldown(t *testing.T) {
	clock := newFakeClock()
	cd := NewCooldown(12*time.Hour, clock.Now)

	t.Run("초기 상태", func(t *testing.T) {
		assert.Equal(t, 12*time.Hour, cd.Window())
		assert.False(t, cd.Active())
		assert.Zero(t, cd.Remaining())
		_, ok := cd.LastTrade()
		assert.False(t, ok)
	})

	t.Run("거래 후 쿨다운", func(t *testing.T) {
		at := cd.MarkTrade()
		assert.Equal(t, clock.Now(), at)

		clock.Advance(2 * time.Hour)
		assert.True(t, cd.Active())
		assert.Equal(t, 10*time.Hour, cd.Remaining())

		last, ok := cd.LastTrade()
		assert.True(t, ok)
		assert.Equal(t, at, last)
	})

	t.Run("정확히 기간이 지나면 해제", func(t *testing.T) {
		clock.Advance(10 * time.Hour)
		assert.False(t, cd.Active())
		assert.Zero(t, cd.Remaining())
	})
}
