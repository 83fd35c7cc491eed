package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/motif/internal/sqlite"
	"github.com/mesh-intelligence/motif/pkg/types"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize motif storage",
		Long:  "Create the configuration and data directories, write a default\nconfig.yaml and apply the database schema.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			cfg.Backend = types.BackendSQLite

			store := sqlite.NewBackend(sqlite.WithLogger(a.logger))
			if err := store.Attach(cfg); err != nil {
				return fmt.Errorf("initializing storage: %w", err)
			}
			if err := store.Detach(); err != nil {
				return fmt.Errorf("finalizing storage: %w", err)
			}

			out := map[string]string{"config_dir": a.configDir, "data_dir": cfg.DataDir}
			return a.print(cmd.OutOrStdout(), out, func(w io.Writer) {
				fmt.Fprintf(w, "motif initialized\nconfig: %s\ndata:   %s\n", a.configDir, cfg.DataDir)
			})
		},
	}
}
