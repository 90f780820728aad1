package upgrade

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/droplab/recipe-runner/internal/config"
	domain "github.com/droplab/recipe-runner/internal/domain/upgrade"
	"github.com/droplab/recipe-runner/internal/logger"
	"github.com/droplab/recipe-runner/internal/repository/state"
	"github.com/droplab/recipe-runner/internal/service/installer"
)

// Options contains inputs for the upgrade entry point.
type Options struct {
	// ConfigPath is an optional path to installer settings.
	ConfigPath string
	// PackageName overrides PKG_NAME from the environment.
	PackageName string
	// CheckOnly skips applying the upgrade; the latest version is still
	// looked up and cached.
	CheckOnly bool
	// Environment overrides the orchestrator environment snapshot. Used by tests.
	Environment *config.Environment
	// Runner overrides the installer command runner. Used by tests.
	Runner installer.Runner
	// Repository overrides the latest-version cache store. Used by tests.
	Repository state.Repository
	// Processes overrides process enumeration. Used by tests.
	Processes ProcessLister
}

// ProcessLister enumerates the running processes.
type ProcessLister func() ([]ps.Process, error)

var (
	errPackageNameRequired = errors.New("package name must be provided (PKG_NAME or argument)")
	errAppRunning          = errors.New("the application is running, close it before upgrading")
)

// checker holds the state for a single upgrade check.
type checker struct {
	inst    *installer.Installer
	repo    state.Repository
	procs   ProcessLister
	pkgName string
	apply   bool
}

// Run executes the upgrade check and is the public entry point for the CLI.
// An unreachable package index is not an error: the check logs a warning and
// reports success, so an offline machine still launches.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "recipe-upgrade")

	c, err := newChecker(opts)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Checking for updates", "package", c.pkgName)

	latest, err := c.inst.LatestVersion(ctx, c.pkgName)
	if err != nil {
		logger.WarnKV(ctx, "Error checking for updates - package index unreachable",
			"package", c.pkgName, "error", err)

		return nil
	}

	installed, err := c.inst.InstalledVersion(ctx, c.pkgName)
	if err != nil {
		logger.InfoKV(ctx, "Package not installed yet", "package", c.pkgName)
	}

	if err = c.processVersions(ctx, installed, latest); err != nil {
		return err
	}

	return c.saveState(ctx, installed, latest)
}

// newChecker validates inputs and wires the installer and cache store.
func newChecker(opts *Options) (*checker, error) {
	env := opts.Environment
	if env == nil {
		env = config.FromEnvironment()
	}

	pkgName := opts.PackageName
	if pkgName == "" {
		pkgName = env.PackageName
	}

	if pkgName == "" {
		return nil, errPackageNameRequired
	}

	if env.Python == "" {
		env.Python = "python"
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	repo := opts.Repository
	if repo == nil {
		repo = state.NewFileRepository(cfg.StateFile)
	}

	instOpts := make([]installer.Option, 0, 1)
	if opts.Runner != nil {
		instOpts = append(instOpts, installer.WithRunner(opts.Runner))
	}

	procs := opts.Processes
	if procs == nil {
		procs = ps.Processes
	}

	return &checker{
		inst:    installer.New(env.Python, cfg, instOpts...),
		repo:    repo,
		procs:   procs,
		pkgName: pkgName,
		apply:   !opts.CheckOnly,
	}, nil
}

// processVersions decides whether to upgrade and applies the upgrade when allowed.
func (c *checker) processVersions(ctx context.Context, installed, latest string) error {
	newer, err := IsNewer(installed, latest)
	if err != nil {
		return fmt.Errorf("compare versions: %w", err)
	}

	if !newer {
		logger.InfoKV(ctx, "Up to date", "package", c.pkgName, "version", installed)
		return nil
	}

	logger.InfoKV(ctx, "New version available",
		"package", c.pkgName, "installed", installed, "latest", latest)

	cached, err := c.repo.Load(ctx)
	if err != nil && !errors.Is(err, state.ErrNotFound) {
		logger.WarnKV(ctx, "Dropping unreadable version cache", "error", err)
		cached = nil
	}

	if cached.IgnoresVersion(latest) {
		logger.InfoKV(ctx, "Version is ignored by user preference, skipping upgrade",
			"version", latest)

		return nil
	}

	if !c.apply {
		return nil
	}

	if c.isProcessRunning(c.pkgName) {
		return fmt.Errorf("%s: %w", c.pkgName, errAppRunning)
	}

	return c.inst.UpgradePackage(ctx, c.pkgName)
}

// saveState rewrites the latest-version cache, preserving the ignore flag
// while the ignored version is still current.
func (c *checker) saveState(ctx context.Context, installed, latest string) error {
	cached, err := c.repo.Load(ctx)
	if err != nil && !errors.Is(err, state.ErrNotFound) {
		cached = nil
	}

	next := &domain.State{
		Timestamp:        time.Now().UTC(),
		InstalledVersion: installed,
		LatestVersion:    latest,
		Ignore:           cached.IgnoresVersion(latest),
	}

	if err = c.repo.Save(ctx, next); err != nil {
		return fmt.Errorf("cache latest version: %w", err)
	}

	logger.DebugKV(ctx, "Cached latest version", "version", latest)

	return nil
}

// isProcessRunning reports whether a process with the package's executable
// name is currently running.
func (c *checker) isProcessRunning(name string) bool {
	if strings.Contains(strings.ToLower(runtime.GOOS), "windows") {
		name += ".exe"
	}

	processList, err := c.procs()
	if err != nil {
		return false
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() == name {
			return true
		}
	}

	return false
}
