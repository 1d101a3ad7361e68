package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/georeplay/internal/dataset"
	"github.com/roach88/georeplay/internal/policy"
	"github.com/roach88/georeplay/internal/replay"
	"github.com/roach88/georeplay/internal/store"
)

// CheckResult is the outcome of one check.
type CheckResult struct {
	Type    string    `json:"type"`
	At      time.Time `json:"at"`
	Pass    bool      `json:"pass"`
	Message string    `json:"message,omitempty"`
}

// FrameSnapshot is a captured frame for golden comparison.
type FrameSnapshot struct {
	Summary replay.FrameSummary `json:"summary"`
	Frame   *replay.Frame       `json:"frame"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every check held.
	Pass bool `json:"pass"`

	Checks []CheckResult `json:"checks"`

	// Errors holds the messages of failed checks.
	Errors []string `json:"errors,omitempty"`

	// Frames holds one snapshot per scenario snapshot time, in order.
	Frames []FrameSnapshot `json:"frames"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Checks: []CheckResult{},
		Errors: []string{},
		Frames: []FrameSnapshot{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Run executes a scenario and returns the result.
//
// The dataset is imported into a fresh in-memory store, the window is read
// back and activated through the replay policy, and every check runs
// against the frame at its time. An error is returned only when the
// scenario cannot execute at all.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	ds, err := dataset.Load(scenario.Dataset)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if _, err := st.ImportDataSource(ctx, ds); err != nil {
		return nil, fmt.Errorf("import dataset: %w", err)
	}

	start, end := ds.StartTime, ds.EndTime
	if scenario.Window != nil {
		if start, err = parseTime(scenario.Window.Start); err != nil {
			return nil, fmt.Errorf("window.start: %w", err)
		}
		if end, err = parseTime(scenario.Window.End); err != nil {
			return nil, fmt.Errorf("window.end: %w", err)
		}
	}

	if _, err := policy.Activate(policy.TimeContext{Start: start, End: end, Current: start}); err != nil {
		return nil, fmt.Errorf("activate window: %w", err)
	}

	src, err := st.ReadDataSource(ctx, start, end)
	if err != nil {
		return nil, err
	}

	eng := replay.NewEngine(replay.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	eng.LoadData(src)

	result := NewResult()
	for i, c := range scenario.Checks {
		at, err := parseTime(c.At)
		if err != nil {
			return nil, fmt.Errorf("checks[%d].at: %w", i, err)
		}

		msg := evaluateCheck(c, eng.FrameAt(at))
		result.Checks = append(result.Checks, CheckResult{Type: c.Type, At: at, Pass: msg == "", Message: msg})
		if msg != "" {
			result.AddError(fmt.Sprintf("checks[%d] %s at %s: %s", i, c.Type, c.At, msg))
		}
	}

	for i, v := range scenario.Snapshots {
		at, err := parseTime(v)
		if err != nil {
			return nil, fmt.Errorf("snapshots[%d]: %w", i, err)
		}
		f := eng.FrameAt(at)
		result.Frames = append(result.Frames, FrameSnapshot{Summary: replay.Summarize(f), Frame: f})
	}

	return result, nil
}
