package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/georeplay/internal/playback"
	"github.com/roach88/georeplay/internal/policy"
	"github.com/roach88/georeplay/internal/replay"
)

// DefaultStep is the cursor movement of one step forward or backward.
const DefaultStep = time.Minute

// ErrNotActive is returned by playback callbacks after Close.
var ErrNotActive = errors.New("session is not active")

// Sink is the render layer. It receives the derived cells and entity
// positions of the frame at every cursor change.
type Sink interface {
	UpdateCells(cells []replay.GridCellState)
	UpdateEntities(entities []replay.EntityPosition)
}

// ControlState is what the playback UI renders.
type ControlState struct {
	CurrentTime time.Time      `json:"current_time"`
	StartTime   time.Time      `json:"start_time"`
	EndTime     time.Time      `json:"end_time"`
	IsPlaying   bool           `json:"is_playing"`
	Speed       playback.Speed `json:"speed"`
	State       playback.State `json:"state"`
	Percent     float64        `json:"percent"`
}

// Session is an active replay mode instance.
//
// Thread-safety: all methods are safe for concurrent use.
type Session struct {
	id     string
	mode   policy.ModeContext
	engine *replay.Engine
	ctl    *playback.Controller
	sink   Sink
	step   time.Duration
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

type options struct {
	sink        Sink
	ids         IDGenerator
	step        time.Duration
	logger      *slog.Logger
	engineOpts  []replay.EngineOption
	controlOpts []playback.Option
}

// Option configures Activate.
type Option func(*options)

// WithSink sets the render sink. Without one, frames are still
// reconstructed and cached but not pushed anywhere.
func WithSink(s Sink) Option {
	return func(o *options) {
		o.sink = s
	}
}

// WithIDGenerator replaces the UUIDv7 session id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(o *options) {
		o.ids = g
	}
}

// WithStep sets the step duration. Non-positive values are ignored.
func WithStep(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.step = d
		}
	}
}

// WithLogger sets the logger passed down to the engine and controller.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithEngineOptions passes options to the reconstruction engine.
func WithEngineOptions(opts ...replay.EngineOption) Option {
	return func(o *options) {
		o.engineOpts = append(o.engineOpts, opts...)
	}
}

// WithControllerOptions passes options to the playback controller.
func WithControllerOptions(opts ...playback.Option) Option {
	return func(o *options) {
		o.controlOpts = append(o.controlOpts, opts...)
	}
}

// Activate enters replay mode over src bounded by tc.
//
// Activation is refused with a *policy.ActivationError when tc fails
// validation; nothing is loaded in that case. On success the sink has
// already received the frame at tc.Current.
func Activate(src replay.DataSource, tc policy.TimeContext, opts ...Option) (*Session, error) {
	o := options{
		ids:    UUIDv7Generator{},
		step:   DefaultStep,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	mc, err := policy.Activate(tc)
	if err != nil {
		o.logger.Warn("replay activation refused", "violations", policy.Violations(err))
		return nil, err
	}

	engine := replay.NewEngine(append([]replay.EngineOption{replay.WithLogger(o.logger)}, o.engineOpts...)...)
	engine.LoadData(src)

	ctl, err := playback.New(mc, append([]playback.Option{playback.WithLogger(o.logger)}, o.controlOpts...)...)
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:     o.ids.Generate(),
		mode:   mc,
		engine: engine,
		ctl:    ctl,
		sink:   o.sink,
		step:   o.step,
		logger: o.logger,
	}
	ctl.Subscribe(func(ev playback.ChangeEvent) { s.render(ev.Time) })
	s.render(mc.Time.Current)

	o.logger.Info("replay session activated",
		"session", s.id,
		"start", mc.Time.Start,
		"end", mc.Time.End,
		"current", mc.Time.Current,
	)
	return s, nil
}

// render pushes the frame at t to the sink.
func (s *Session) render(t time.Time) {
	if s.sink == nil {
		return
	}
	f := s.engine.FrameAt(t)
	if f == nil {
		return
	}
	s.sink.UpdateCells(f.Cells)
	s.sink.UpdateEntities(f.Entities)
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Mode returns the mode context the session was activated with.
func (s *Session) Mode() policy.ModeContext { return s.mode }

// Engine returns the session's reconstruction engine.
func (s *Session) Engine() *replay.Engine { return s.engine }

// Step returns the step duration.
func (s *Session) Step() time.Duration { return s.step }

// Subscribe registers an additional playback listener.
func (s *Session) Subscribe(l playback.Listener) playback.Token {
	return s.ctl.Subscribe(l)
}

// Unsubscribe removes a listener registered with Subscribe.
func (s *Session) Unsubscribe(tok playback.Token) bool {
	return s.ctl.Unsubscribe(tok)
}

func (s *Session) active() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrNotActive
	}
	return nil
}

// PlayPause toggles playback.
func (s *Session) PlayPause() error {
	if err := s.active(); err != nil {
		return err
	}
	s.ctl.Toggle()
	return nil
}

// Stop cancels playback and rewinds to start.
func (s *Session) Stop() error {
	if err := s.active(); err != nil {
		return err
	}
	s.ctl.Stop()
	return nil
}

// Seek moves the cursor to t, clamped into the session range.
func (s *Session) Seek(t time.Time) error {
	if err := s.active(); err != nil {
		return err
	}
	s.ctl.SetTime(t)
	return nil
}

// SeekPercent moves the cursor to a fraction of the session range.
func (s *Session) SeekPercent(p float64) error {
	if err := s.active(); err != nil {
		return err
	}
	s.ctl.SetTimeByPercent(p)
	return nil
}

// SetSpeed changes the playback multiplier.
func (s *Session) SetSpeed(sp playback.Speed) error {
	if err := s.active(); err != nil {
		return err
	}
	return s.ctl.SetSpeed(sp)
}

// StepForward moves the cursor forward by one step.
func (s *Session) StepForward() error {
	if err := s.active(); err != nil {
		return err
	}
	s.ctl.StepForward(s.step)
	return nil
}

// StepBackward moves the cursor back by one step.
func (s *Session) StepBackward() error {
	if err := s.active(); err != nil {
		return err
	}
	s.ctl.StepBackward(s.step)
	return nil
}

// ControlState returns the playback UI state.
func (s *Session) ControlState() ControlState {
	snap := s.ctl.Snapshot()
	return ControlState{
		CurrentTime: snap.Current,
		StartTime:   snap.Start,
		EndTime:     snap.End,
		IsPlaying:   snap.State == playback.StatePlaying,
		Speed:       snap.Speed,
		State:       snap.State,
		Percent:     snap.Percent,
	}
}

// Frame returns the frame at the cursor.
func (s *Session) Frame() *replay.Frame {
	return s.engine.FrameAt(s.ctl.Current())
}

// Close destroys the controller and stops any running tick. It is
// idempotent; playback callbacks return ErrNotActive afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.ctl.Destroy()
	s.logger.Info("replay session closed", "session", s.id)
}
