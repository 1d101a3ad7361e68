package playback

import (
	"sync"
	"time"
)

// Clock supplies the current time and a cancellable periodic schedule.
type Clock interface {
	// Now returns the current time. Implementations backed by the wall clock
	// must include a monotonic reading so elapsed time is immune to clock steps.
	Now() time.Time

	// Every calls fn every d until the returned stop function is called.
	// stop is idempotent and may be called from inside fn.
	Every(d time.Duration, fn func()) (stop func())
}

// SystemClock is the real-time Clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Every runs fn on a goroutine driven by a time.Ticker.
func (SystemClock) Every(d time.Duration, fn func()) func() {
	ticker := time.NewTicker(d)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}
