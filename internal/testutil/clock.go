package testutil

import (
	"sync"
	"time"
)

// ManualClock is a playback clock that only moves when told to.
//
// Scheduled callbacks fire synchronously inside Advance, in time order,
// on the caller's goroutine. This makes tick-driven tests deterministic.
//
// Thread-safety: all methods are safe for concurrent use. Callbacks run
// without the clock's lock held, so they may stop their own schedule.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	nextID  int
	tickers map[int]*manualTicker
}

type manualTicker struct {
	id       int
	interval time.Duration
	next     time.Time
	fn       func()
}

// NewManualClock creates a clock reading start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{
		now:     start,
		tickers: make(map[int]*manualTicker),
	}
}

// Now returns the clock's current reading.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Every schedules fn every d starting d from now.
func (c *ManualClock) Every(d time.Duration, fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.tickers[id] = &manualTicker{id: id, interval: d, next: c.now.Add(d), fn: fn}

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.tickers, id)
			c.mu.Unlock()
		})
	}
}

// Advance moves the clock forward by d, firing every callback that falls
// due along the way. Returns the number of callbacks fired.
func (c *ManualClock) Advance(d time.Duration) int {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	fired := 0
	for {
		c.mu.Lock()
		var due *manualTicker
		for _, t := range c.tickers {
			if t.next.After(target) {
				continue
			}
			if due == nil || t.next.Before(due.next) || (t.next.Equal(due.next) && t.id < due.id) {
				due = t
			}
		}
		if due == nil {
			c.now = target
			c.mu.Unlock()
			return fired
		}
		c.now = due.next
		due.next = due.next.Add(due.interval)
		fn := due.fn
		c.mu.Unlock()

		fn()
		fired++
	}
}

// Pending returns the number of active schedules.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}
