package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/droplab/recipe-runner/internal/config"
	domain "github.com/droplab/recipe-runner/internal/domain/upgrade"
)

// Repository defines persistence operations for the upgrade-check state.
type Repository interface {
	Load(ctx context.Context) (*domain.State, error)
	Save(ctx context.Context, state *domain.State) error
}

// FileRepository persists the upgrade-check state to a YAML file on disk.
// The on-disk shape matches the original launcher's latest-version cache.
type FileRepository struct {
	// path is the filesystem location of the YAML state file.
	path string
	// mu protects concurrent access to the state file.
	mu sync.Mutex
}

// ErrNotFound is returned when the state file does not exist yet.
var ErrNotFound = errors.New("state not found")

// fileState is the YAML representation of the cached state.
type fileState struct {
	CheckedAt        time.Time `yaml:"checked_at"`
	InstalledVersion string    `yaml:"installed_version,omitempty"`
	Version          string    `yaml:"version"`
	Ignore           bool      `yaml:"ignore,omitempty"`
}

// NewFileRepository creates a repository that reads/writes YAML at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the state from disk.
func (r *FileRepository) Load(_ context.Context) (*domain.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read state file: %w", err)
	}

	var fs fileState
	if err = yaml.Unmarshal(contents, &fs); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	return fromFile(&fs), nil
}

// Save writes the state to disk using YAML representation.
func (r *FileRepository) Save(_ context.Context, state *domain.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := yaml.Marshal(toFile(state))
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	return nil
}

// Delete removes the state file. A corrupted or stale cache is simply dropped,
// matching the original launcher behavior.
func (r *FileRepository) Delete(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove state file: %w", err)
	}

	return nil
}

// fromFile converts the YAML representation into the domain State model.
func fromFile(fs *fileState) *domain.State {
	return &domain.State{
		Timestamp:        fs.CheckedAt,
		InstalledVersion: fs.InstalledVersion,
		LatestVersion:    fs.Version,
		Ignore:           fs.Ignore,
	}
}

// toFile converts the domain State model into its YAML representation.
func toFile(state *domain.State) *fileState {
	return &fileState{
		CheckedAt:        state.Timestamp,
		InstalledVersion: state.InstalledVersion,
		Version:          state.LatestVersion,
		Ignore:           state.Ignore,
	}
}
