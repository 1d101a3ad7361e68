package playback

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/roach88/georeplay/internal/policy"
)

// State is the playback state.
type State string

const (
	StateStopped State = "stopped"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
)

// DefaultTickInterval is the real-time period between ticks.
const DefaultTickInterval = 100 * time.Millisecond

// ChangeEvent is emitted on every cursor or state change.
type ChangeEvent struct {
	Time         time.Time `json:"time"`
	PreviousTime time.Time `json:"previous_time"`
	State        State     `json:"state"`
	Speed        Speed     `json:"speed"`
}

// Listener receives change events. A panicking listener is logged and
// skipped; remaining listeners are still notified.
type Listener func(ChangeEvent)

// Token identifies a subscription.
type Token uint64

type subscriber struct {
	token Token
	fn    Listener
}

// Snapshot is a read-only view of the controller.
type Snapshot struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Current time.Time `json:"current"`
	State   State     `json:"state"`
	Speed   Speed     `json:"speed"`
	Percent float64   `json:"percent"`
}

// Controller moves a cursor through [start, end].
//
// Thread-safety: all methods are safe for concurrent use. Listeners run
// without the controller lock held.
type Controller struct {
	mu sync.Mutex

	clock    Clock
	interval time.Duration
	logger   *slog.Logger

	start, end, current time.Time
	state               State
	speed               Speed

	stopTick func()
	tickGen  uint64
	lastTick time.Time

	subscribers []subscriber
	nextToken   Token
	pending     []ChangeEvent
	draining    bool
	destroyed   bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(ctl *Controller) {
		ctl.clock = c
	}
}

// WithTickInterval sets the real-time tick period. Non-positive values are ignored.
func WithTickInterval(d time.Duration) Option {
	return func(ctl *Controller) {
		if d > 0 {
			ctl.interval = d
		}
	}
}

// WithSpeed sets the initial speed. Unsupported values are ignored.
func WithSpeed(s Speed) Option {
	return func(ctl *Controller) {
		if s.Valid() {
			ctl.speed = s
		}
	}
}

// WithLogger sets the logger used for listener failures.
func WithLogger(l *slog.Logger) Option {
	return func(ctl *Controller) {
		ctl.logger = l
	}
}

// New creates a stopped controller bound to the mode context's time range,
// with the cursor at the context's current time.
func New(mc policy.ModeContext, opts ...Option) (*Controller, error) {
	if res := policy.ValidateTimeContext(mc.Time); !res.Valid {
		return nil, &policy.ActivationError{
			Code:       policy.ErrCodeInvalidTimeContext,
			Mode:       mc.Mode(),
			Violations: res.Violations,
		}
	}

	c := &Controller{
		clock:    SystemClock{},
		interval: DefaultTickInterval,
		logger:   slog.Default(),
		start:    mc.Time.Start,
		end:      mc.Time.End,
		current:  mc.Time.Current,
		state:    StateStopped,
		speed:    Speed1x,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Subscribe registers l and returns its token. Listeners are notified in
// subscription order.
func (c *Controller) Subscribe(l Listener) Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextToken++
	if !c.destroyed {
		c.subscribers = append(c.subscribers, subscriber{token: c.nextToken, fn: l})
	}
	return c.nextToken
}

// Unsubscribe removes the listener registered under tok. Reports whether it
// was registered.
func (c *Controller) Unsubscribe(tok Token) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := slices.IndexFunc(c.subscribers, func(s subscriber) bool { return s.token == tok })
	if i < 0 {
		return false
	}
	c.subscribers = slices.Delete(c.subscribers, i, i+1)
	return true
}

// Play starts playback. It is a no-op while playing. A cursor at or past
// end is rewound to start first.
func (c *Controller) Play() {
	c.mutate(func() {
		if c.state == StatePlaying {
			return
		}
		prev := c.current
		if !c.current.Before(c.end) {
			c.current = c.start
		}
		c.state = StatePlaying
		c.startTickLocked()
		c.emitLocked(prev)
	})
}

// Pause stops the tick and keeps the cursor. Only valid while playing.
func (c *Controller) Pause() {
	c.mutate(func() {
		if c.state != StatePlaying {
			return
		}
		c.pauseLocked()
		c.emitLocked(c.current)
	})
}

// Stop cancels playback. If playback was active (playing or paused) the
// cursor returns to start.
func (c *Controller) Stop() {
	c.mutate(func() {
		if c.state == StateStopped {
			return
		}
		c.stopTickLocked()
		prev := c.current
		c.current = c.start
		c.state = StateStopped
		c.emitLocked(prev)
	})
}

// Toggle pauses while playing and plays otherwise.
func (c *Controller) Toggle() {
	c.mu.Lock()
	playing := c.state == StatePlaying
	c.mu.Unlock()

	if playing {
		c.Pause()
		return
	}
	c.Play()
}

// SetTime moves the cursor to t clamped into [start, end]. It always emits.
func (c *Controller) SetTime(t time.Time) {
	c.mutate(func() {
		c.setTimeLocked(t)
	})
}

// SetTimeByPercent moves the cursor to start + p*(end-start), p clamped to [0, 1].
func (c *Controller) SetTimeByPercent(p float64) {
	if math.IsNaN(p) {
		p = 0
	}
	p = math.Max(0, math.Min(1, p))

	c.mutate(func() {
		span := c.end.Sub(c.start)
		c.setTimeLocked(c.start.Add(time.Duration(p * float64(span))))
	})
}

// TimePercent returns the cursor position as a fraction of the range.
func (c *Controller) TimePercent() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.percentLocked()
}

// SetSpeed changes the multiplier. A running tick is restarted so the new
// rate applies from the next full interval.
func (c *Controller) SetSpeed(s Speed) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %v", ErrUnsupportedSpeed, float64(s))
	}
	c.mutate(func() {
		c.speed = s
		if c.state == StatePlaying {
			c.stopTickLocked()
			c.startTickLocked()
		}
		c.emitLocked(c.current)
	})
	return nil
}

// StepForward moves the cursor forward by d regardless of state.
func (c *Controller) StepForward(d time.Duration) {
	c.mutate(func() {
		c.setTimeLocked(c.current.Add(d))
	})
}

// StepBackward moves the cursor back by d regardless of state.
func (c *Controller) StepBackward(d time.Duration) {
	c.mutate(func() {
		c.setTimeLocked(c.current.Add(-d))
	})
}

// Snapshot returns the current controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Start:   c.start,
		End:     c.end,
		Current: c.current,
		State:   c.state,
		Speed:   c.speed,
		Percent: c.percentLocked(),
	}
}

// Current returns the cursor.
func (c *Controller) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// State returns the playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Destroy cancels the tick and drops all subscribers. It is idempotent and
// the controller ignores every later mutation.
func (c *Controller) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return
	}
	c.stopTickLocked()
	c.destroyed = true
	c.subscribers = nil
	c.pending = nil
}

// mutate runs fn under the lock and then delivers queued events.
func (c *Controller) mutate(fn func()) {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	fn()
	c.mu.Unlock()
	c.flush()
}

func (c *Controller) setTimeLocked(t time.Time) {
	prev := c.current
	switch {
	case t.Before(c.start):
		t = c.start
	case t.After(c.end):
		t = c.end
	}
	c.current = t
	c.emitLocked(prev)
}

func (c *Controller) percentLocked() float64 {
	span := c.end.Sub(c.start)
	if span <= 0 {
		return 0
	}
	return float64(c.current.Sub(c.start)) / float64(span)
}

func (c *Controller) pauseLocked() {
	c.stopTickLocked()
	c.state = StatePaused
}

func (c *Controller) startTickLocked() {
	c.tickGen++
	gen := c.tickGen
	c.lastTick = c.clock.Now()
	c.stopTick = c.clock.Every(c.interval, func() { c.tick(gen) })
}

// stopTickLocked cancels the schedule and invalidates any tick in flight.
func (c *Controller) stopTickLocked() {
	c.tickGen++
	if c.stopTick != nil {
		c.stopTick()
		c.stopTick = nil
	}
}

// tick advances the cursor by elapsed real time times speed. Reaching end
// clamps the cursor and pauses. Each accepted tick emits exactly one event.
//
// The advance is measured from the previous tick's clock reading, not from
// the configured tick interval. A ticker that fires late or skips a beat
// still moves the cursor by the wall time that actually passed, so a replay
// at 4x covers four minutes of history per real minute however often tick
// runs. A clock that steps backwards yields no advance rather than a rewind.
//
// gen is the schedule that queued this call. Stopping or restarting the
// schedule bumps tickGen, so a tick already in flight from an old schedule
// is dropped.
func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	if c.destroyed || gen != c.tickGen || c.state != StatePlaying {
		c.mu.Unlock()
		return
	}

	now := c.clock.Now()
	elapsed := now.Sub(c.lastTick)
	c.lastTick = now
	if elapsed < 0 {
		elapsed = 0
	}
	advance := time.Duration(float64(elapsed) * float64(c.speed))

	prev := c.current
	next := c.current.Add(advance)
	if !next.Before(c.end) {
		c.current = c.end
		c.pauseLocked()
	} else {
		c.current = next
	}
	c.emitLocked(prev)
	c.mu.Unlock()

	c.flush()
}

func (c *Controller) emitLocked(prev time.Time) {
	c.pending = append(c.pending, ChangeEvent{
		Time:         c.current,
		PreviousTime: prev,
		State:        c.state,
		Speed:        c.speed,
	})
}

// flush delivers queued events unless another caller is already doing so.
func (c *Controller) flush() {
	c.mu.Lock()
	if c.draining {
		c.mu.Unlock()
		return
	}
	c.draining = true

	for len(c.pending) > 0 {
		ev := c.pending[0]
		c.pending = c.pending[1:]
		subs := slices.Clone(c.subscribers)

		c.mu.Unlock()
		for _, s := range subs {
			c.notify(s, ev)
		}
		c.mu.Lock()
	}

	c.draining = false
	c.mu.Unlock()
}

func (c *Controller) notify(s subscriber, ev ChangeEvent) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("playback listener failed",
				"token", s.token,
				"time", ev.Time,
				"state", ev.State,
				"panic", r,
			)
		}
	}()
	s.fn(ev)
}
