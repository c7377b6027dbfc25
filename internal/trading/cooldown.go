package trading

import (
	"sync"
	"time"
)

// Cooldown은 마지막 성공 거래 시각을 보관합니다.
// 쓰기는 Processor만 하며, 헬스 체크 등은 읽기만 합니다.
type Cooldown struct {
	mu     sync.RWMutex
	window time.Duration
	last   time.Time
	now    func() time.Time
}

// NewCooldown은 새 쿨다운 상태를 생성합니다. now가 nil이면 time.Now를 사용합니다.
func NewCooldown(window time.Duration, now func() time.Time) *Cooldown {
	if now == nil {
		now = time.Now
	}
	return &Cooldown{window: window, now: now}
}

// Window는 쿨다운 기간을 반환합니다
func (c *Cooldown) Window() time.Duration {
	return c.window
}

// Remaining은 남은 쿨다운 시간을 반환합니다. 쿨다운이 아니면 0입니다.
func (c *Cooldown) Remaining() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.last.IsZero() {
		return 0
	}
	elapsed := c.now().Sub(c.last)
	if elapsed >= c.window {
		return 0
	}
	return c.window - elapsed
}

// Active는 쿨다운 중인지 확인합니다
func (c *Cooldown) Active() bool {
	return c.Remaining() > 0
}

// MarkTrade는 현재 시각을 마지막 거래 시각으로 기록하고 그 시각을 반환합니다
func (c *Cooldown) MarkTrade() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = c.now()
	return c.last
}

// LastTrade는 마지막 거래 시각을 반환합니다. 거래가 없었으면 false입니다.
func (c *Cooldown) LastTrade() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last, !c.last.IsZero()
}
