package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds installer settings shared by the recipe binaries.
type Config struct {
	// IndexURL is the extra package index the installer should consult.
	IndexURL string `yaml:"index_url"`
	// TrustedHost is the host passed to the installer as trusted.
	// When empty it is derived from IndexURL.
	TrustedHost string `yaml:"trusted_host"`
	// StateFile is the path to the YAML file caching the latest known
	// version of the installed package.
	StateFile string `yaml:"state_file"`
	// Timeout is the duration allotted to short installer queries.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for installer settings.
	DefaultConfigFilename = "recipe-runner-settings.yaml"

	// DefaultStateFilename is the default filename for the latest-version cache.
	DefaultStateFilename = "latest-version.yaml"

	// DefaultTimeout is the default duration for installer queries.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

// errConfigIsNotSet is returned when a nil configuration is provided.
var errConfigIsNotSet = errors.New("configuration is not set")

// Default returns a configuration populated with defaults only.
func Default() *Config {
	cfg := new(Config)
	// Validate never fails on an empty config, it only fills defaults.
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates essential fields.
// A missing file is not an error: the recipe scripts run fine without settings,
// so defaults are returned instead.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for formatting and fills defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	// Set default timeout if not specified.
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	// Set default state file if not specified.
	if cfg.StateFile == "" {
		cfg.StateFile = DefaultStateFilename
	}

	if cfg.IndexURL == "" {
		return nil
	}

	indexURL, err := url.ParseRequestURI(cfg.IndexURL)
	if err != nil {
		return fmt.Errorf("invalid index URL: %w", err)
	}

	// Derive the trusted host from the index when not set explicitly.
	if cfg.TrustedHost == "" {
		cfg.TrustedHost = indexURL.Hostname()
	}

	return nil
}
