package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newComposeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compose <composition-id>",
		Short: "Resolve a composition's sections to components",
		Long: `Compose resolves each section query of a registered composition to the
first eligible component, relaxing the query one dimension at a time
until a component matches.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.openEngine(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer e.Close()

			sections, err := e.Resolver.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if sections == nil {
				return usagef("unknown composition %q", args[0])
			}
			return a.print(cmd.OutOrStdout(), sections, func(w io.Writer) {
				for _, s := range sections {
					if s.Component == nil {
						fmt.Fprintf(w, "%-12s (no component)\n", s.Section.Name)
						continue
					}
					fmt.Fprintf(w, "%-12s %s", s.Section.Name, s.Component.ID)
					if len(s.Relaxed) > 0 {
						fmt.Fprintf(w, "  relaxed: %v", s.Relaxed)
					}
					fmt.Fprintln(w)
				}
			})
		},
	}
}
