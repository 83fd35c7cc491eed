package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/motif/pkg/types"
)

// queryFlags binds the shared query flags of search and rerank.
type queryFlags struct {
	q types.Query
}

func (f *queryFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.q.Category, "category", "", "atom, molecule or organism")
	fs.StringVar(&f.q.Type, "type", "", "component type (button, card, hero...)")
	fs.StringVar(&f.q.Variant, "variant", "", "variant")
	fs.StringVar(&f.q.Mood, "mood", "", "mood")
	fs.StringVar(&f.q.Industry, "industry", "", "industry")
	fs.StringVar(&f.q.VisualStyle, "style", "", "visual style")
	fs.StringSliceVar(&f.q.Tags, "tag", nil, "tag (repeatable)")
	fs.StringVar(&f.q.Text, "text", "", "free text for semantic similarity")
	fs.IntVar(&f.q.Limit, "limit", 10, "maximum results (0 for all)")
	fs.BoolVar(&f.q.IncludeContent, "content", false, "include class maps and templates")
}

func newSearchCmd(a *app) *cobra.Command {
	var f queryFlags
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Rank components by attribute match",
		Long: `Search filters components by category and type, then ranks them by
mood, industry, visual style, variant and tag overlap.

Example:
  motif search --type button --mood bold --tag cta`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.q.Validate(); err != nil {
				return usagef("%v", err)
			}
			e, err := a.openEngine(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer e.Close()

			res, err := e.Search.Search(cmd.Context(), f.q)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), res, func(w io.Writer) { printScored(w, res, false) })
		},
	}
	f.bind(cmd)
	return cmd
}

func newRerankCmd(a *app) *cobra.Command {
	var f queryFlags
	cmd := &cobra.Command{
		Use:   "rerank",
		Short: "Rank components with feedback boosts applied",
		Long: `Rerank runs the attribute search and multiplies each score by a boost
learned from feedback on the component's type and the requested style.

Example:
  motif rerank --type card --style glass`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.q.Validate(); err != nil {
				return usagef("%v", err)
			}
			e, err := a.openEngine(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer e.Close()

			res, err := e.Rerank.Rerank(cmd.Context(), f.q)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), res, func(w io.Writer) { printScored(w, res, true) })
		},
	}
	f.bind(cmd)
	return cmd
}

func printScored(w io.Writer, res []types.ScoredComponent, boosts bool) {
	if len(res) == 0 {
		fmt.Fprintln(w, "no matching components")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if boosts {
		fmt.Fprintln(tw, "ID\tTYPE\tSCORE\tBASE\tBOOST\tTAGS")
	} else {
		fmt.Fprintln(tw, "ID\tTYPE\tSCORE\tSIMILARITY\tTAGS")
	}
	for _, r := range res {
		c := r.Component
		if boosts {
			fmt.Fprintf(tw, "%s\t%s\t%.3f\t%.3f\t%+.3f\t%s\n", c.ID, c.Type, r.Score, r.BaseScore, r.Boost, strings.Join(c.Tags, ","))
		} else {
			fmt.Fprintf(tw, "%s\t%s\t%.3f\t%.3f\t%s\n", c.ID, c.Type, r.Score, r.Similarity, strings.Join(c.Tags, ","))
		}
	}
	tw.Flush()
}
