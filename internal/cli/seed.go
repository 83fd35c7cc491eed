package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/motif/internal/catalog"
)

type seedResult struct {
	Catalog      string `json:"catalog"`
	Components   int    `json:"components"`
	Compositions int    `json:"compositions"`
	Fallback     bool   `json:"fallback"`
	Indexed      int    `json:"indexed"`
}

func newSeedCmd(a *app) *cobra.Command {
	var index bool
	cmd := &cobra.Command{
		Use:   "seed <catalog>",
		Short: "Load a catalog file into an empty store",
		Long: `Seed reads a YAML, JSON or JSONL catalog and loads it into the graph
store. A store that already holds components is left unchanged.

Example:
  motif seed catalog.yaml --index`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cat, err := catalog.ReadFile(args[0])
			if err != nil {
				return err
			}
			e, err := a.openEngine(ctx, cat)
			if err != nil {
				return err
			}
			defer e.Close()

			res := e.Loaded
			out := seedResult{
				Catalog:      args[0],
				Components:   res.Components,
				Compositions: res.Compositions,
				Fallback:     res.Fallback,
			}
			if index {
				if out.Indexed, err = e.IndexCatalog(ctx); err != nil {
					return err
				}
			}
			return a.print(cmd.OutOrStdout(), out, func(w io.Writer) {
				if out.Components == 0 && out.Compositions == 0 {
					fmt.Fprintln(w, "store already populated, nothing seeded")
				} else {
					fmt.Fprintf(w, "seeded %d components and %d compositions\n", out.Components, out.Compositions)
				}
				if index {
					fmt.Fprintf(w, "indexed %d components\n", out.Indexed)
				}
			})
		},
	}
	cmd.Flags().BoolVar(&index, "index", false, "embed the catalog after seeding")
	return cmd
}
