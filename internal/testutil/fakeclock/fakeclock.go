// Package fakeclock provides a deterministic clock for timeout-heavy
// tests: every Sleep advances virtual time instead of blocking, so retry
// budgets and receive windows elapse instantly.
package fakeclock

import (
	"sync"
	"time"
)

type Clock struct {
	mu  sync.Mutex
	now int64
}

func New() *Clock {
	return &Clock{}
}

func (c *Clock) NowMillis() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Sleep(d time.Duration) {
	c.Advance(d)
}

func (c *Clock) Advance(d time.Duration) {
	ms := d.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	c.mu.Lock()
	c.now += ms
	c.mu.Unlock()
}
