// Package cli implements the motif command-line interface.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/motif/internal/logging"
	"github.com/mesh-intelligence/motif/internal/paths"
	"github.com/mesh-intelligence/motif/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// errUsage marks errors caused by bad input rather than the system.
var errUsage = errors.New("usage error")

// app holds the state shared by every subcommand of one invocation.
type app struct {
	configDir string
	dataDir   string
	jsonMode  bool
	logLevel  string

	v      *viper.Viper
	logger *zap.Logger
}

// NewRootCmd creates the top-level "motif" command with global flags and
// every subcommand registered.
func NewRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}
	root := &cobra.Command{
		Use:           "motif",
		Short:         "Component retrieval with feedback-driven ranking",
		Long:          "motif stores a UI component catalog, ranks components for structured\nqueries and learns from feedback on generated output.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Sync(a.logger)
		},
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	root.PersistentFlags().BoolVar(&a.jsonMode, "json", false, "output as JSON")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newSeedCmd(a),
		newSearchCmd(a),
		newRerankCmd(a),
		newSimilarCmd(a),
		newComposeCmd(a),
		newIndexCmd(a),
		newFeedbackCmd(a),
		newPatternCmd(a),
		newReadinessCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the matching code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "motif:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

func exitCode(err error) int {
	var integrity *types.IntegrityError
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, errUsage), errors.As(err, &integrity),
		errors.Is(err, types.ErrInvalidScore), errors.Is(err, types.ErrInvalidFeedbackType),
		errors.Is(err, types.ErrInvalidLimit), errors.Is(err, types.ErrCatalogMissing):
		return exitUserError
	default:
		return exitSysError
	}
}

// setup resolves the configuration directory, loads config.yaml and .env,
// and builds the logger.
func (a *app) setup() error {
	dir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return fmt.Errorf("resolving config dir: %w", err)
	}
	a.configDir = dir

	v, err := loadConfig(dir)
	if err != nil {
		return err
	}
	a.v = v

	level := a.logLevel
	if level == "" {
		level = v.GetString(cfgKeyLogLevel)
	}
	logger, err := logging.New(v.GetString(cfgKeyEnv), level)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	a.logger = logger
	return nil
}

// usagef returns an error that exits with the user-error code.
func usagef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// print writes v as indented JSON in --json mode and calls text otherwise.
func (a *app) print(w io.Writer, v any, text func(io.Writer)) error {
	if a.jsonMode {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}
