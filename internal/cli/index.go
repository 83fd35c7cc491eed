package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newIndexCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the embedding index",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "catalog",
			Short: "Embed every component and rebuild the index",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				e, err := a.openEngine(cmd.Context(), nil)
				if err != nil {
					return err
				}
				defer e.Close()

				n, err := e.IndexCatalog(cmd.Context())
				if err != nil {
					return err
				}
				out := map[string]any{"indexed": n, "backend": e.Index.Backend()}
				return a.print(cmd.OutOrStdout(), out, func(w io.Writer) {
					fmt.Fprintf(w, "indexed %d components (%s)\n", n, e.Index.Backend())
				})
			},
		},
		&cobra.Command{
			Use:   "rebuild",
			Short: "Rebuild the vector backend from stored embeddings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				e, err := a.openEngine(cmd.Context(), nil)
				if err != nil {
					return err
				}
				defer e.Close()

				ix, err := e.Semantic()
				if err != nil {
					return err
				}
				if err := ix.Rebuild(cmd.Context()); err != nil {
					return err
				}
				out := map[string]string{"backend": ix.Backend()}
				return a.print(cmd.OutOrStdout(), out, func(w io.Writer) {
					fmt.Fprintf(w, "rebuilt %s index\n", ix.Backend())
				})
			},
		},
	)
	return cmd
}
