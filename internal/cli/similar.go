package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/motif/pkg/types"
)

func newSimilarCmd(a *app) *cobra.Command {
	var (
		k          int
		minSim     float64
		sourceType string
	)
	cmd := &cobra.Command{
		Use:   "similar <text>",
		Short: "Find stored sources semantically close to text",
		Long: `Similar embeds the text and returns the nearest indexed sources. Run
"motif index catalog" first to embed the components.

Example:
  motif similar "calm editorial hero for a fintech landing page" -k 5`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if k < 0 {
				return usagef("k must not be negative")
			}
			if minSim > 1 {
				return usagef("min similarity must be at most 1")
			}
			e, err := a.openEngine(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer e.Close()

			ix, err := e.Semantic()
			if err != nil {
				return err
			}
			matches, err := ix.Similar(cmd.Context(), strings.Join(args, " "), sourceType, k, minSim)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), matches, func(w io.Writer) {
				if len(matches) == 0 {
					fmt.Fprintln(w, "no similar sources")
				}
				for _, m := range matches {
					fmt.Fprintf(w, "%.3f  %s/%s\n", m.Similarity, m.SourceType, m.SourceID)
				}
			})
		},
	}
	cmd.Flags().IntVarP(&k, "k", "k", 10, "number of neighbors (0 for all above the threshold)")
	cmd.Flags().Float64Var(&minSim, "min", -1, "minimum similarity (negative uses the configured default)")
	cmd.Flags().StringVar(&sourceType, "source", types.SourceComponent, "source type to search")
	return cmd
}
