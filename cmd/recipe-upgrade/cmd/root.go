package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/droplab/recipe-runner/internal/config"
	"github.com/droplab/recipe-runner/internal/service/upgrade"
	"github.com/droplab/recipe-runner/internal/version"
)

var (
	// configPath to the installer settings YAML file.
	configPath string

	// checkOnly skips applying the upgrade.
	checkOnly bool

	// rootCmd represents the base command for checking and applying upgrades.
	rootCmd = &cobra.Command{
		Use:   "recipe-upgrade [package]",
		Short: "Check the package index for a newer version and upgrade",
		Long: "Look up the newest available version of the package (PKG_NAME or the " +
			"optional argument), cache the answer in the latest-version file and apply " +
			"the upgrade unless --check-only is set. An unreachable index is reported " +
			"as a warning, not a failure.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &upgrade.Options{
				ConfigPath: configPath,
				CheckOnly:  checkOnly,
			}
			if len(args) > 0 {
				options.PackageName = args[0]
			}

			return upgrade.Run(ctx, options)
		},
	}
)

// Execute runs the recipe-upgrade CLI and exits with non-zero status on error.
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
	rootCmd.Flags().BoolVar(&checkOnly, "check-only", false, "look up and cache the latest version without installing it")
}
