package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/georeplay/internal/replay"
)

// FrameOptions holds flags for the frame command.
type FrameOptions struct {
	*RootOptions
	WindowOptions
	At string
}

// FrameResult is a reconstructed frame with its summary and fingerprint.
type FrameResult struct {
	Summary     replay.FrameSummary `json:"summary"`
	Fingerprint string              `json:"fingerprint"`
	Frame       *replay.Frame       `json:"frame"`
}

// NewFrameCommand creates the frame command.
func NewFrameCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FrameOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "frame",
		Short: "Reconstruct the frame at one instant",
		Long: `Reconstruct entity positions, active zones, cell risk and events as of
--at inside the replay window.

Exit codes:
  0 - Frame reconstructed
  1 - Replay activation refused (invalid window or --at outside it)
  2 - Command error (database not found, bad flags, etc.)

Examples:
  georeplay frame --db ./audit.db --at 2024-03-01T00:15:00Z
  georeplay frame --db ./audit.db --start 2024-03-01T00:00:00Z --end 2024-03-01T01:00:00Z --at 2024-03-01T00:30:00Z --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFrame(opts, cmd)
		},
	}

	opts.WindowOptions.register(cmd)
	cmd.Flags().StringVar(&opts.At, "at", "", "frame time, RFC 3339 (default: window start)")

	return cmd
}

func runFrame(opts *FrameOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	f := newFormatter(cmd, opts.RootOptions)

	rw, err := openWindow(ctx, opts.RootOptions, &opts.WindowOptions)
	if err != nil {
		return err
	}
	defer rw.Store.Close()

	at, err := parseTimeFlag("at", opts.At)
	if err != nil {
		return err
	}
	if at.IsZero() {
		at = rw.Start
	}

	if _, err := rw.activate(f, at); err != nil {
		return err
	}
	src, err := rw.source(ctx)
	if err != nil {
		return err
	}

	eng := newEngine(opts.RootOptions)
	eng.LoadData(src)

	result, err := frameResult(eng.FrameAt(at))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to fingerprint frame", err)
	}
	return f.Success(result, func(w io.Writer) { writeFrameText(w, result) })
}

// newEngine builds an engine sized from the configuration.
func newEngine(opts *RootOptions) *replay.Engine {
	return replay.NewEngine(
		replay.WithCacheCapacity(opts.settings().CacheCapacity),
		replay.WithLogger(slog.Default()),
	)
}

func frameResult(fr *replay.Frame) (FrameResult, error) {
	fp, err := replay.Fingerprint(fr)
	if err != nil {
		return FrameResult{}, err
	}
	return FrameResult{Summary: replay.Summarize(fr), Fingerprint: fp, Frame: fr}, nil
}

func writeSummaryLine(w io.Writer, s replay.FrameSummary) {
	fmt.Fprintf(w, "%s  entities=%d zones=%d cells=%d events=%d risk=%s\n",
		formatTime(s.Timestamp), s.Entities, s.Zones, s.Cells, s.Events, s.MaxRisk)
}

func writeFrameText(w io.Writer, r FrameResult) {
	writeSummaryLine(w, r.Summary)
	fmt.Fprintf(w, "fingerprint %s\n", r.Fingerprint)

	for _, e := range r.Frame.Entities {
		fmt.Fprintf(w, "  entity %s (%s) cell=%s at %s\n", e.EntityID, e.EntityKind, e.CellIndex, formatTime(e.Timestamp))
	}
	for _, z := range r.Frame.Zones {
		fmt.Fprintf(w, "  zone %s %q cells=[%s] tags=[%s]\n", z.ID, z.Name, strings.Join(z.GridCells, ","), strings.Join(z.Tags, ","))
	}
	for _, c := range r.Frame.Cells {
		fmt.Fprintf(w, "  cell %s risk=%s zones=[%s]\n", c.CellIndex, c.RiskLevel, strings.Join(c.ZoneIDs, ","))
	}
	for _, ev := range r.Frame.Events {
		fmt.Fprintf(w, "  event %s at %s\n", ev.ID, formatTime(ev.Timestamp))
	}
}
