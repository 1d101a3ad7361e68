package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/spf13/cobra"

	"github.com/roach88/georeplay/internal/playback"
	"github.com/roach88/georeplay/internal/policy"
	"github.com/roach88/georeplay/internal/replay"
	"github.com/roach88/georeplay/internal/session"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	WindowOptions
	Speed string
	From  string

	// Clock overrides the playback clock (for testing).
	// If nil, the system clock is used.
	Clock playback.Clock
}

// PlayResult reports a finished playback.
type PlayResult struct {
	Session   string              `json:"session"`
	Speed     string              `json:"speed"`
	Ticks     int                 `json:"ticks"`
	Completed bool                `json:"completed"`
	Final     replay.FrameSummary `json:"final"`
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	return newPlayCommand(&PlayOptions{RootOptions: rootOpts})
}

func newPlayCommand(opts *PlayOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play the window back in real time",
		Long: `Activate a replay session over the window and play it at --speed until
the cursor reaches window end or the process is interrupted. Text output
prints one summary line per cursor change.

Examples:
  georeplay play --db ./audit.db --speed 10x
  georeplay play --db ./audit.db --from 2024-03-01T00:20:00Z --speed 2`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, cmd)
		},
	}

	opts.WindowOptions.register(cmd)
	cmd.Flags().StringVar(&opts.Speed, "speed", "1x", "playback speed (0.5x, 1x, 2x, 5x, 10x)")
	cmd.Flags().StringVar(&opts.From, "from", "", "initial cursor, RFC 3339 (default: window start)")

	return cmd
}

func runPlay(opts *PlayOptions, cmd *cobra.Command) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	cfg := opts.settings()
	f := newFormatter(cmd, opts.RootOptions)

	speed, err := playback.ParseSpeed(opts.Speed)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --speed", err)
	}

	rw, err := openWindow(ctx, opts.RootOptions, &opts.WindowOptions)
	if err != nil {
		return err
	}
	defer rw.Store.Close()

	from, err := parseTimeFlag("from", opts.From)
	if err != nil {
		return err
	}
	if from.IsZero() {
		from = rw.Start
	}

	src, err := rw.source(ctx)
	if err != nil {
		return err
	}

	ctlOpts := []playback.Option{
		playback.WithSpeed(speed),
		playback.WithTickInterval(cfg.TickInterval),
	}
	if opts.Clock != nil {
		ctlOpts = append(ctlOpts, playback.WithClock(opts.Clock))
	}

	s, err := session.Activate(src, policy.TimeContext{Start: rw.Start, End: rw.End, Current: from},
		session.WithSink(logSink{logger: slog.Default()}),
		session.WithStep(cfg.Step),
		session.WithEngineOptions(replay.WithCacheCapacity(cfg.CacheCapacity)),
		session.WithControllerOptions(ctlOpts...),
	)
	if err != nil {
		return refusal(f, err)
	}
	defer s.Close()

	var (
		mu    sync.Mutex
		ticks int
		once  sync.Once
	)
	done := make(chan struct{})
	out := cmd.OutOrStdout()
	s.Subscribe(func(ev playback.ChangeEvent) {
		mu.Lock()
		ticks++
		if opts.Format != "json" {
			writeSummaryLine(out, replay.Summarize(s.Engine().FrameAt(ev.Time)))
		}
		mu.Unlock()
		if ev.State == playback.StatePaused && ev.Time.Equal(rw.End) {
			once.Do(func() { close(done) })
		}
	})

	if err := s.PlayPause(); err != nil {
		return WrapExitError(ExitCommandError, "failed to start playback", err)
	}

	completed := false
	select {
	case <-done:
		completed = true
	case <-ctx.Done():
	}
	s.Close()

	mu.Lock()
	result := PlayResult{
		Session:   s.ID(),
		Speed:     speed.String(),
		Ticks:     ticks,
		Completed: completed,
		Final:     replay.Summarize(s.Frame()),
	}
	mu.Unlock()

	return f.Success(result, func(w io.Writer) {
		state := "interrupted"
		if result.Completed {
			state = "reached end"
		}
		fmt.Fprintf(w, "session %s %s after %d updates at %s\n", result.Session, state, result.Ticks, result.Speed)
	})
}

// logSink records render updates at debug level.
type logSink struct {
	logger *slog.Logger
}

func (l logSink) UpdateCells(cells []replay.GridCellState) {
	l.logger.Debug("render cells", "count", len(cells))
}

func (l logSink) UpdateEntities(entities []replay.EntityPosition) {
	l.logger.Debug("render entities", "count", len(entities))
}
