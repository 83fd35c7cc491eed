package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/motif/pkg/types"
)

func newFeedbackCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Record and inspect generation feedback",
	}
	cmd.AddCommand(
		newFeedbackRecordCmd(a),
		newFeedbackAggregateCmd(a),
		newFeedbackListCmd(a),
		newFeedbackExportCmd(a),
		newFeedbackImportCmd(a),
	)
	return cmd
}

func newFeedbackRecordCmd(a *app) *cobra.Command {
	var (
		rec      types.FeedbackRecord
		style    string
		codeFile string
	)
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Append one feedback record",
		Long: `Record appends a scored outcome for a generated component. Scores range
from -1 (rejected) to 2 (strongly preferred). With --code the generated
markup is also observed by the pattern detector.

Example:
  motif feedback record --type card --style glass --score 1.5 --code out.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("style") {
				rec.Style = types.StringPtr(style)
			}
			if err := rec.Validate(); err != nil {
				return usagef("%v", err)
			}
			var code []byte
			if codeFile != "" {
				var err error
				if code, err = os.ReadFile(codeFile); err != nil {
					return usagef("reading %s: %v", codeFile, err)
				}
			}

			e, err := a.openEngine(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer e.Close()

			out := map[string]any{}
			if code != nil {
				id, p, err := e.Patterns.ObserveFeedback(cmd.Context(), rec, string(code))
				if err != nil {
					return err
				}
				out["id"], out["pattern"] = id, p
			} else {
				id, err := e.Feedback.Record(cmd.Context(), rec)
				if err != nil {
					return err
				}
				out["id"] = id
			}
			return a.print(cmd.OutOrStdout(), out, func(w io.Writer) {
				fmt.Fprintf(w, "recorded %s\n", out["id"])
				if p, ok := out["pattern"].(*types.CodePattern); ok && p != nil {
					fmt.Fprintf(w, "pattern %s seen %d times (avg %.2f)\n", p.SkeletonHash, p.Frequency, p.AvgScore)
				}
			})
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&rec.GenerationID, "generation", "", "generation ID")
	fs.StringVar(&rec.Prompt, "prompt", "", "prompt that produced the output")
	fs.StringVar(&rec.ComponentType, "type", "", "component type")
	fs.StringVar(&rec.Variant, "variant", "", "variant")
	fs.StringVar(&rec.Mood, "mood", "", "mood")
	fs.StringVar(&rec.Industry, "industry", "", "industry")
	fs.StringVar(&style, "style", "", "visual style")
	fs.Float64Var(&rec.Score, "score", 0, "score in [-1, 2]")
	fs.StringVar(&rec.FeedbackType, "kind", types.FeedbackExplicit, "explicit or implicit")
	fs.StringVar(&codeFile, "code", "", "file with the generated markup")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("score")
	return cmd
}

func newFeedbackAggregateCmd(a *app) *cobra.Command {
	var (
		componentType string
		style         string
	)
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Average score and count for a component type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.openEngine(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer e.Close()

			var sp *string
			if cmd.Flags().Changed("style") {
				sp = types.StringPtr(style)
			}
			agg, err := e.Feedback.Aggregate(cmd.Context(), componentType, sp)
			if err != nil {
				return err
			}
			factor, err := e.Rerank.BoostFactor(cmd.Context(), componentType)
			if err != nil {
				return err
			}
			out := map[string]any{"type": componentType, "aggregate": agg, "boost_factor": factor}
			return a.print(cmd.OutOrStdout(), out, func(w io.Writer) {
				fmt.Fprintf(w, "%s: avg %.3f over %d records, boost factor %.3f\n", componentType, agg.AvgScore, agg.Count, factor)
			})
		},
	}
	cmd.Flags().StringVar(&componentType, "type", "", "component type")
	cmd.Flags().StringVar(&style, "style", "", "restrict to one visual style")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newFeedbackListCmd(a *app) *cobra.Command {
	var (
		componentType string
		limit         int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent feedback, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return usagef("limit must not be negative")
			}
			e, err := a.openEngine(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer e.Close()

			store, err := e.Durable()
			if err != nil {
				return err
			}
			recs, err := store.ListFeedback(cmd.Context(), componentType, limit)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), recs, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTYPE\tSTYLE\tSCORE\tKIND\tCREATED")
				for _, r := range recs {
					style := "-"
					if r.Style != nil {
						style = *r.Style
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%+.2f\t%s\t%s\n", r.ID, r.ComponentType, style, r.Score, r.FeedbackType, r.CreatedAt.Format("2006-01-02 15:04"))
				}
				tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&componentType, "type", "", "only this component type")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum records (0 for all)")
	return cmd
}

func newFeedbackExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "Write feedback and patterns as JSONL files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.openEngine(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer e.Close()

			store, err := e.Durable()
			if err != nil {
				return err
			}
			fb, pats, err := store.ExportLearned(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := map[string]int{"feedback": fb, "patterns": pats}
			return a.print(cmd.OutOrStdout(), out, func(w io.Writer) {
				fmt.Fprintf(w, "exported %d feedback records and %d patterns to %s\n", fb, pats, args[0])
			})
		},
	}
}

func newFeedbackImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Merge exported feedback and patterns into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.openEngine(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer e.Close()

			store, err := e.Durable()
			if err != nil {
				return err
			}
			res, err := store.ImportLearned(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), res, func(w io.Writer) {
				fmt.Fprintf(w, "imported %d feedback records and %d patterns (%d skipped)\n", res.Feedback, res.Patterns, res.Skipped)
			})
		},
	}
}
