package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/droplab/recipe-runner/internal/config"
	"github.com/droplab/recipe-runner/internal/service/builder"
	"github.com/droplab/recipe-runner/internal/service/setupgen"
	"github.com/droplab/recipe-runner/internal/version"
)

var (
	// configPath to the installer settings YAML file.
	configPath string

	// rootCmd represents the base command for building and installing the
	// current source tree.
	rootCmd = &cobra.Command{
		Use:   "recipe-build",
		Short: "Build the source tree into the target prefix and deploy menu resources",
		Long: "Derive a package version from GIT_DESCRIBE_TAG and GIT_DESCRIBE_NUMBER, " +
			"regenerate the packaging manifest from the source tree's build definition, " +
			"install SRC_DIR into the PREFIX environment, then copy the recipe's icon and " +
			"shortcut resources into <prefix>/Menu.",
		// Build tools invoking the legacy generation script name pass one
		// stray positional argument; it is discarded, everything else is
		// rejected.
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rest := setupgen.NormalizeArgs(os.Args[0], args); len(rest) > 0 {
				return cobra.NoArgs(cmd, rest)
			}

			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &builder.Options{
				ConfigPath: configPath,
			}

			return builder.RunSourceBuild(ctx, options)
		},
	}
)

// Execute runs the recipe-build CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
}
