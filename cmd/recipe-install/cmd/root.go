package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/droplab/recipe-runner/internal/config"
	"github.com/droplab/recipe-runner/internal/service/builder"
	"github.com/droplab/recipe-runner/internal/version"
)

var (
	// configPath to the installer settings YAML file.
	configPath string

	// rootCmd represents the base command for installing the recipe package
	// from the package index into the target prefix.
	rootCmd = &cobra.Command{
		Use:   "recipe-install",
		Short: "Install the recipe package into the target prefix and deploy menu resources",
		Long: "Install the package named by PKG_NAME at PKG_VERSION from the configured " +
			"package index into the PREFIX environment, then copy the recipe's icon and " +
			"shortcut resources into <prefix>/Menu. All inputs arrive via environment " +
			"variables supplied by the build orchestrator.",
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &builder.Options{
				ConfigPath: configPath,
			}

			return builder.RunInstall(ctx, options)
		},
	}
)

// Execute runs the recipe-install CLI and exits with non-zero status on error.
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
