package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/georeplay/internal/policy"
	"github.com/roach88/georeplay/internal/replay"
	"github.com/roach88/georeplay/internal/store"
)

// WindowOptions are the flags shared by commands that replay a window of
// the audit store.
type WindowOptions struct {
	Database string
	Start    string
	End      string
}

func (w *WindowOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&w.Database, "db", "", "path to SQLite audit store (default $GEOREPLAY_DB)")
	cmd.Flags().StringVar(&w.Start, "start", "", "window start, RFC 3339 (default: earliest record)")
	cmd.Flags().StringVar(&w.End, "end", "", "window end, RFC 3339 (default: latest record)")
}

// replayWindow is an opened store and the resolved window bounds.
type replayWindow struct {
	Store *store.Store
	Start time.Time
	End   time.Time
}

// openWindow opens the audit store and resolves the window. Missing bounds
// default to the earliest and latest stored records. The caller closes the
// store.
func openWindow(ctx context.Context, opts *RootOptions, w *WindowOptions) (*replayWindow, error) {
	path := w.Database
	if path == "" {
		path = opts.settings().DBPath
	}
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "database not found", err)
	}

	start, err := parseTimeFlag("start", w.Start)
	if err != nil {
		return nil, err
	}
	end, err := parseTimeFlag("end", w.End)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	if start.IsZero() || end.IsZero() {
		bounds, ok, err := st.Bounds(ctx)
		if err != nil {
			st.Close()
			return nil, WrapExitError(ExitCommandError, "failed to read store bounds", err)
		}
		if !ok {
			st.Close()
			return nil, NewExitError(ExitCommandError, "database has no records; pass --start and --end")
		}
		if start.IsZero() {
			start = bounds.Start
		}
		if end.IsZero() {
			end = bounds.End
		}
	}

	return &replayWindow{Store: st, Start: start, End: end}, nil
}

// activate validates the window with cursor at current. A refusal is
// reported through f and returned as an ExitFailure.
func (rw *replayWindow) activate(f *OutputFormatter, current time.Time) (policy.ModeContext, error) {
	mc, err := policy.Activate(policy.TimeContext{Start: rw.Start, End: rw.End, Current: current})
	if err != nil {
		return policy.ModeContext{}, refusal(f, err)
	}
	return mc, nil
}

// source materializes the window as a closed data source.
func (rw *replayWindow) source(ctx context.Context) (replay.DataSource, error) {
	src, err := rw.Store.ReadDataSource(ctx, rw.Start, rw.End)
	if err != nil {
		return replay.DataSource{}, WrapExitError(ExitCommandError, "failed to read window", err)
	}
	return src, nil
}

// refusal reports an activation error and converts it to an exit error.
func refusal(f *OutputFormatter, err error) error {
	if !policy.IsActivationError(err) {
		return WrapExitError(ExitCommandError, "activation failed", err)
	}
	if ferr := f.Error(CodeActivation, "replay activation refused", policy.Violations(err)); ferr != nil {
		return ferr
	}
	return WrapExitError(ExitFailure, "replay activation refused", err)
}

// parseTimeFlag parses an RFC 3339 flag value. Empty means unset.
func parseTimeFlag(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, WrapExitError(ExitCommandError, fmt.Sprintf("invalid --%s", name), err)
	}
	return t.UTC(), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
