package builder

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/droplab/recipe-runner/internal/config"
	"github.com/droplab/recipe-runner/internal/logger"
	"github.com/droplab/recipe-runner/internal/service/installer"
	"github.com/droplab/recipe-runner/internal/service/menu"
	"github.com/droplab/recipe-runner/internal/service/setupgen"
)

// Options contains inputs for the build entry points.
type Options struct {
	// ConfigPath is an optional path to installer settings (defaults to
	// recipe-runner-settings.yaml next to the binary).
	ConfigPath string
	// Environment overrides the orchestrator environment snapshot.
	// When nil the process environment is read. Used by tests.
	Environment *config.Environment
	// Runner overrides the installer command runner. Used by tests.
	Runner installer.Runner
}

// errBuildAlreadyRunning indicates another recipe build holds the marker.
var errBuildAlreadyRunning = errors.New("a build is already running")

// builder holds the state for a single build execution.
// It is unexported, callers use RunInstall or RunSourceBuild.
type builder struct {
	cfg  *config.Config
	env  *config.Environment
	inst *installer.Installer
}

// RunInstall executes the index-install recipe: install the named package at
// its pinned version into the prefix, then deploy the menu resources.
func RunInstall(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "recipe-install")

	b, err := newBuilder(ctx, opts, (*config.Environment).ValidateForInstall)
	if err != nil {
		return err
	}

	defer b.cleanup(ctx)

	if err = b.inst.InstallPackage(ctx, b.env.PackageName, b.env.PackageVersion); err != nil {
		return err
	}

	if err = menu.Deploy(ctx, b.env.RecipeDir, b.env.Prefix); err != nil {
		return fmt.Errorf("deploy menu resources: %w", err)
	}

	logger.Info(ctx, "Recipe install completed successfully")

	return nil
}

// RunSourceBuild executes the source-build recipe: derive the version from
// git-describe data, regenerate the packaging manifest, install the source
// tree into the prefix, then deploy the menu resources.
func RunSourceBuild(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "recipe-build")

	b, err := newBuilder(ctx, opts, (*config.Environment).ValidateForSourceBuild)
	if err != nil {
		return err
	}

	defer b.cleanup(ctx)

	version, err := setupgen.DeriveVersion(b.env.GitDescribeTag, b.env.GitDescribeNumber)
	if err != nil {
		return fmt.Errorf("derive version: %w", err)
	}

	logger.InfoKV(ctx, "Derived package version",
		"tag", b.env.GitDescribeTag, "commits", b.env.GitDescribeNumber, "version", version)

	if err = setupgen.Generate(ctx, b.env.SourceDir, version); err != nil {
		return fmt.Errorf("generate packaging manifest: %w", err)
	}

	if err = b.inst.InstallSource(ctx, b.env.SourceDir); err != nil {
		return err
	}

	if err = menu.Deploy(ctx, b.env.RecipeDir, b.env.Prefix); err != nil {
		return fmt.Errorf("deploy menu resources: %w", err)
	}

	logger.Info(ctx, "Recipe build completed successfully")

	return nil
}

// newBuilder validates the environment, loads settings and writes the marker
// guarding against concurrent builds.
func newBuilder(ctx context.Context, opts *Options, validate func(*config.Environment) error) (*builder, error) {
	env := opts.Environment
	if env == nil {
		env = config.FromEnvironment()
	}

	if err := validate(env); err != nil {
		return nil, err
	}

	if IsBuildRunningNow(ctx) {
		return nil, errBuildAlreadyRunning
	}

	marker, err := os.Create(MarkerFilename)
	if err != nil {
		return nil, fmt.Errorf("create build marker: %w", err)
	}

	if err = marker.Close(); err != nil {
		_ = os.Remove(MarkerFilename)

		return nil, fmt.Errorf("close build marker: %w", err)
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		// The marker must not outlive a failed setup, later runs would
		// wait out the stale lifetime for nothing.
		_ = os.Remove(MarkerFilename)

		return nil, err
	}

	instOpts := make([]installer.Option, 0, 1)
	if opts.Runner != nil {
		instOpts = append(instOpts, installer.WithRunner(opts.Runner))
	}

	return &builder{
		cfg:  cfg,
		env:  env,
		inst: installer.New(env.Python, cfg, instOpts...),
	}, nil
}

// cleanup removes the build marker.
func (b *builder) cleanup(ctx context.Context) {
	if _, err := os.Stat(MarkerFilename); err == nil {
		_ = os.Remove(MarkerFilename)
	}

	logger.Info(ctx, "The build has been stopped")
}
