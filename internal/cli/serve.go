package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/georeplay/internal/httpapi"
	"github.com/roach88/georeplay/internal/playback"
	"github.com/roach88/georeplay/internal/policy"
	"github.com/roach88/georeplay/internal/replay"
	"github.com/roach88/georeplay/internal/session"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	WindowOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a replay session over HTTP",
		Long: `Activate a replay session over the window and expose frames, the mode
policy and the playback controls under /api/v1 until interrupted.

Examples:
  georeplay serve --db ./audit.db
  georeplay serve --db ./audit.db --addr 127.0.0.1:9000 -v`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	opts.WindowOptions.register(cmd)
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default $GEOREPLAY_HTTP_ADDR)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	cfg := opts.settings()
	f := newFormatter(cmd, opts.RootOptions)
	addr := opts.Addr
	if addr == "" {
		addr = cfg.HTTPAddr
	}

	rw, err := openWindow(ctx, opts.RootOptions, &opts.WindowOptions)
	if err != nil {
		return err
	}
	defer rw.Store.Close()

	src, err := rw.source(ctx)
	if err != nil {
		return err
	}

	logger := slog.Default()
	s, err := session.Activate(src, policy.TimeContext{Start: rw.Start, End: rw.End, Current: rw.Start},
		session.WithLogger(logger),
		session.WithStep(cfg.Step),
		session.WithEngineOptions(replay.WithCacheCapacity(cfg.CacheCapacity)),
		session.WithControllerOptions(playback.WithTickInterval(cfg.TickInterval)),
	)
	if err != nil {
		return refusal(f, err)
	}
	defer s.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "Replay session %s serving on %s\n", s.ID(), addr)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	router := httpapi.NewRouter(httpapi.NewHandler(s), logger)
	if err := httpapi.Serve(ctx, addr, router, logger); err != nil {
		return WrapExitError(ExitCommandError, "http server error", err)
	}
	return nil
}
