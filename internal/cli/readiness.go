package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newReadinessCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "readiness",
		Short: "Report feedback volume against the training threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.openEngine(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer e.Close()

			r, err := e.Rerank.Readiness(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), r, func(w io.Writer) {
				fmt.Fprintf(w, "explicit %d / %d (total %d, implicit %d)\n",
					r.Volume.Explicit, r.Threshold, r.Volume.Total, r.Volume.Implicit)
				if r.Ready {
					fmt.Fprintln(w, "ready for fine-tuning")
				}
			})
		},
	}
}
