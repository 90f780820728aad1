package installer

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/droplab/recipe-runner/internal/config"
	"github.com/droplab/recipe-runner/internal/logger"
)

var (
	// ErrInstallerFailed indicates the external installer exited non-zero.
	// The recipe entry points translate it into process exit code 1.
	ErrInstallerFailed = errors.New("installer failed")

	errNoVersionOutput = errors.New("no version found in index output")
	errNotInstalled    = errors.New("package is not installed")
)

// Installer wraps the Python package installer (`<python> -m pip`).
// All invocations carry the fixed flag set from the recipe scripts:
// cache disabled, optional extra index, optional trusted host.
type Installer struct {
	// python is the interpreter path of the target environment.
	python string
	// cfg supplies the index URL and trusted host.
	cfg *config.Config
	// runner executes the actual commands.
	runner Runner
}

// Option customizes a new Installer.
type Option func(*Installer)

// WithRunner substitutes the command runner. Used by tests.
func WithRunner(r Runner) Option {
	return func(i *Installer) {
		i.runner = r
	}
}

// New creates an Installer bound to the given interpreter and settings.
func New(python string, cfg *config.Config, opts ...Option) *Installer {
	inst := &Installer{
		python: python,
		cfg:    cfg,
		runner: NewExecRunner(),
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// InstallPackage installs the named package pinned to the given version.
func (i *Installer) InstallPackage(ctx context.Context, name, version string) error {
	spec := name
	if version != "" {
		spec = name + "==" + version
	}

	logger.InfoKV(ctx, "Installing package", "spec", spec)

	return i.install(ctx, spec)
}

// InstallSource installs the package from the given source tree.
func (i *Installer) InstallSource(ctx context.Context, dir string) error {
	logger.InfoKV(ctx, "Installing source tree", "dir", dir)

	return i.install(ctx, dir)
}

// UpgradePackage installs the newest available version of the named package.
func (i *Installer) UpgradePackage(ctx context.Context, name string) error {
	logger.InfoKV(ctx, "Upgrading package", "package", name)

	args := append(i.installArgs(), "--upgrade", name)

	return i.wrapExit(i.runner.Run(ctx, i.python, args...))
}

// InstalledVersion reports the version of the named package in the target
// environment, or errNotInstalled when the package is absent.
func (i *Installer) InstalledVersion(ctx context.Context, name string) (string, error) {
	ctx, cancel := i.queryContext(ctx)
	defer cancel()

	output, err := i.runner.Output(ctx, i.python, "-m", "pip", "show", name)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, errNotInstalled)
	}

	for _, line := range strings.Split(string(output), "\n") {
		if v, ok := strings.CutPrefix(line, "Version:"); ok {
			return strings.TrimSpace(v), nil
		}
	}

	return "", fmt.Errorf("%s: %w", name, errNotInstalled)
}

// LatestVersion queries the package index for the newest release of the
// named package. It parses `pip index versions` output of the form:
//
//	launcher (1.2.4)
//	Available versions: 1.2.4, 1.2.3
//	  INSTALLED: 1.2.3
//	  LATEST:    1.2.4
func (i *Installer) LatestVersion(ctx context.Context, name string) (string, error) {
	ctx, cancel := i.queryContext(ctx)
	defer cancel()

	args := []string{"-m", "pip", "index", "versions", name}
	args = append(args, i.indexArgs()...)

	output, err := i.runner.Output(ctx, i.python, args...)
	if err != nil {
		return "", fmt.Errorf("query index for %s: %w", name, err)
	}

	version, err := parseLatestVersion(string(output))
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}

	return version, nil
}

// queryContext bounds short installer queries by the configured timeout.
// Installation runs are not bounded, large packages may take a while.
func (i *Installer) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if i.cfg == nil || i.cfg.Timeout <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, i.cfg.Timeout)
}

// install runs `pip install` for the given spec with the fixed flag set.
func (i *Installer) install(ctx context.Context, spec string) error {
	args := append(i.installArgs(), spec)

	return i.wrapExit(i.runner.Run(ctx, i.python, args...))
}

// installArgs builds the shared `pip install` prefix.
func (i *Installer) installArgs() []string {
	args := []string{"-m", "pip", "install", "--no-cache-dir"}

	return append(args, i.indexArgs()...)
}

// indexArgs returns the index-related flags when an extra index is configured.
func (i *Installer) indexArgs() []string {
	if i.cfg == nil || i.cfg.IndexURL == "" {
		return nil
	}

	args := []string{"--extra-index-url", i.cfg.IndexURL}
	if i.cfg.TrustedHost != "" {
		args = append(args, "--trusted-host", i.cfg.TrustedHost)
	}

	return args
}

// wrapExit maps a non-zero installer exit into ErrInstallerFailed, keeping
// the original exit status in the message.
func (i *Installer) wrapExit(err error) error {
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%w: exit status %d", ErrInstallerFailed, exitErr.ExitCode())
	}

	return fmt.Errorf("%w: %v", ErrInstallerFailed, err)
}

// parseLatestVersion extracts the newest version from `pip index versions` output.
func parseLatestVersion(output string) (string, error) {
	for _, line := range strings.Split(output, "\n") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(line), "LATEST:"); ok {
			return strings.TrimSpace(v), nil
		}
	}

	// Older pip prints only the header line: `name (version)`.
	header := strings.SplitN(output, "\n", 2)[0]
	if open := strings.LastIndexByte(header, '('); open != -1 {
		if end := strings.LastIndexByte(header, ')'); end > open {
			return strings.TrimSpace(header[open+1 : end]), nil
		}
	}

	return "", errNoVersionOutput
}
