package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/motif/pkg/types"
)

func newPatternCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pattern",
		Short: "Track structural patterns in generated markup",
	}
	cmd.AddCommand(newPatternObserveCmd(a), newPatternCandidatesCmd(a))
	return cmd
}

func newPatternObserveCmd(a *app) *cobra.Command {
	var score float64
	cmd := &cobra.Command{
		Use:   "observe <file>",
		Short: "Fingerprint markup and record one scored sighting",
		Long: `Observe reduces the markup to its structural skeleton, ignoring copy and
styling, and counts one sighting with the given score. A skeleton seen at
least three times with an average above 0.5 is promoted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := os.ReadFile(args[0])
			if err != nil {
				return usagef("reading %s: %v", args[0], err)
			}
			e, err := a.openEngine(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer e.Close()

			p, err := e.Patterns.Observe(cmd.Context(), string(code), score)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), p, func(w io.Writer) {
				fmt.Fprintf(w, "%s  %s\nseen %d times, avg %.2f, promoted %t\n",
					p.SkeletonHash, p.Skeleton, p.Frequency, p.AvgScore, p.Promoted)
			})
		},
	}
	cmd.Flags().Float64Var(&score, "score", 0, "score of this sighting")
	return cmd
}

func newPatternCandidatesCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "candidates",
		Short: "List promoted patterns, most frequent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.openEngine(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer e.Close()

			var pats []types.CodePattern
			if all {
				pats, err = e.Patterns.Patterns(cmd.Context())
			} else {
				pats, err = e.Patterns.Candidates(cmd.Context())
			}
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), pats, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "HASH\tFREQ\tAVG\tPROMOTED\tSKELETON")
				for _, p := range pats {
					fmt.Fprintf(tw, "%s\t%d\t%.2f\t%t\t%s\n", p.SkeletonHash, p.Frequency, p.AvgScore, p.Promoted, p.Skeleton)
				}
				tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include patterns not yet promoted")
	return cmd
}
