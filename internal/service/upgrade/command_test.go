package upgrade

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/require"

	"github.com/droplab/recipe-runner/internal/config"
	domain "github.com/droplab/recipe-runner/internal/domain/upgrade"
	"github.com/droplab/recipe-runner/internal/repository/state"
)

// fakeRunner scripts installer behavior per command verb.
type fakeRunner struct {
	calls        [][]string
	indexOutput  []byte
	indexErr     error
	showOutput   []byte
	showErr      error
	installCalls int
	installErr   error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	f.calls = append(f.calls, append([]string{name}, args...))
	f.installCalls++

	return f.installErr
}

func (f *fakeRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))

	joined := strings.Join(args, " ")
	if strings.Contains(joined, "index versions") {
		return f.indexOutput, f.indexErr
	}

	return f.showOutput, f.showErr
}

// memoryRepository keeps state in memory for tests.
type memoryRepository struct {
	state *domain.State
}

func (m *memoryRepository) Load(_ context.Context) (*domain.State, error) {
	if m.state == nil {
		return nil, state.ErrNotFound
	}

	return m.state.Clone(), nil
}

func (m *memoryRepository) Save(_ context.Context, s *domain.State) error {
	m.state = s.Clone()
	return nil
}

func testOptions(runner *fakeRunner, repo state.Repository) *Options {
	return &Options{
		PackageName: "launcher",
		Environment: &config.Environment{Python: "python"},
		Runner:      runner,
		Repository:  repo,
	}
}

// TestRun_UpgradesWhenNewer applies the upgrade and rewrites the cache.
func TestRun_UpgradesWhenNewer(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{
		indexOutput: []byte("launcher (1.2.4)\n  LATEST:    1.2.4\n"),
		showOutput:  []byte("Name: launcher\nVersion: 1.2.3\n"),
	}
	repo := &memoryRepository{}

	require.NoError(t, Run(context.Background(), testOptions(runner, repo)))
	require.Equal(t, 1, runner.installCalls)

	require.NotNil(t, repo.state)
	require.Equal(t, "1.2.4", repo.state.LatestVersion)
	require.Equal(t, "1.2.3", repo.state.InstalledVersion)
}

// TestRun_UpToDate performs no install and still refreshes the cache.
func TestRun_UpToDate(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{
		indexOutput: []byte("launcher (1.2.3)\n  LATEST:    1.2.3\n"),
		showOutput:  []byte("Version: 1.2.3\n"),
	}
	repo := &memoryRepository{}

	require.NoError(t, Run(context.Background(), testOptions(runner, repo)))
	require.Zero(t, runner.installCalls)
	require.Equal(t, "1.2.3", repo.state.LatestVersion)
}

// TestRun_OfflineIsNotAnError degrades to a warning when the index is unreachable.
func TestRun_OfflineIsNotAnError(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{indexErr: errors.New("network unreachable")}
	repo := &memoryRepository{}

	require.NoError(t, Run(context.Background(), testOptions(runner, repo)))
	require.Zero(t, runner.installCalls)
	require.Nil(t, repo.state)
}

// TestRun_IgnoredVersionSkipsUpgrade honors the cached ignore flag.
func TestRun_IgnoredVersionSkipsUpgrade(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{
		indexOutput: []byte("launcher (1.2.4)\n  LATEST:    1.2.4\n"),
		showOutput:  []byte("Version: 1.2.3\n"),
	}
	repo := &memoryRepository{state: &domain.State{LatestVersion: "1.2.4", Ignore: true}}

	require.NoError(t, Run(context.Background(), testOptions(runner, repo)))
	require.Zero(t, runner.installCalls)

	// The ignore flag survives the cache rewrite.
	require.True(t, repo.state.Ignore)
}

// fakeProcess satisfies ps.Process for scripted process lists.
type fakeProcess struct {
	pid  int
	name string
}

func (p fakeProcess) Pid() int           { return p.pid }
func (p fakeProcess) PPid() int          { return 0 }
func (p fakeProcess) Executable() string { return p.name }

// TestRun_RefusesWhileAppRunning refuses the upgrade while the launcher
// process is still alive and performs no install.
func TestRun_RefusesWhileAppRunning(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{
		indexOutput: []byte("launcher (1.2.4)\n  LATEST:    1.2.4\n"),
		showOutput:  []byte("Version: 1.2.3\n"),
	}
	repo := &memoryRepository{}

	opts := testOptions(runner, repo)
	opts.Processes = func() ([]ps.Process, error) {
		return []ps.Process{
			fakeProcess{pid: 4242, name: "launcher"},
			fakeProcess{pid: 4243, name: "launcher.exe"},
		}, nil
	}

	err := Run(context.Background(), opts)
	require.ErrorIs(t, err, errAppRunning)
	require.Zero(t, runner.installCalls)
}

// TestRun_CheckOnly looks up and caches without installing.
func TestRun_CheckOnly(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{
		indexOutput: []byte("launcher (2.0.0)\n  LATEST:    2.0.0\n"),
		showOutput:  []byte("Version: 1.2.3\n"),
	}
	repo := &memoryRepository{}

	opts := testOptions(runner, repo)
	opts.CheckOnly = true

	require.NoError(t, Run(context.Background(), opts))
	require.Zero(t, runner.installCalls)
	require.Equal(t, "2.0.0", repo.state.LatestVersion)
}

// TestRun_RequiresPackageName fails fast without a package name.
func TestRun_RequiresPackageName(t *testing.T) {
	t.Parallel()

	opts := &Options{Environment: &config.Environment{Python: "python"}}
	err := Run(context.Background(), opts)
	require.ErrorIs(t, err, errPackageNameRequired)
}
