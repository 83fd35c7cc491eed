package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/motif/pkg/motif"
)

// Version is the CLI version.
const Version = motif.Version

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the motif version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "motif v%s\nmodule: %s\n", motif.Version, motif.ModulePath)
			return nil
		},
	}
}
