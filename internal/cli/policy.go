package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/georeplay/internal/policy"
)

// NewPolicyCommand creates the policy command.
func NewPolicyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "policy",
		Short:         "Print the replay mode policy",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := policy.Replay()
			return newFormatter(cmd, rootOpts).Success(p, func(w io.Writer) {
				fmt.Fprintf(w, "mode:              %s\n", p.Mode)
				fmt.Fprintf(w, "read only:         %t\n", p.ReadOnly)
				fmt.Fprintf(w, "live data:         %t\n", p.ReceivesLiveData)
				fmt.Fprintf(w, "time context:      %t\n", p.RequiresTimeContext)
				fmt.Fprintf(w, "interaction:       %s\n", joinValues(p.AllowedStates))
				fmt.Fprintf(w, "allowed layers:    %s\n", joinValues(p.AllowedLayers))
				fmt.Fprintf(w, "forbidden layers:  %s\n", joinValues(p.ForbiddenLayers))
			})
		},
	}
	return cmd
}

func joinValues[T ~string](vs []T) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
