package menu

import (
	"bytes"
	"context"
	"crypto"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/droplab/recipe-runner/internal/logger"

	// Ensure SHA512 available for checksum calculation.
	_ "crypto/sha512"
)

const (
	// DirectoryName is the menu-integration directory under the prefix.
	DirectoryName = "Menu"

	// DefaultDirMode is used when creating the menu directory.
	DefaultDirMode os.FileMode = 0o755

	// resourceFileMode is applied to deployed resource files.
	resourceFileMode os.FileMode = 0o644

	// checksumFunction is used to verify deployed resources against their sources.
	checksumFunction crypto.Hash = crypto.SHA512
)

var (
	errHashUnavailable  = errors.New("hash function unavailable")
	errResourceMissing  = errors.New("recipe resource missing")
	errPrefixRequired   = errors.New("installation prefix must not be empty")
	errRecipeDirMissing = errors.New("recipe directory does not exist")
)

// Resources returns the fixed set of files deployed into the menu directory:
// two icons and one shortcut definition. The set is part of the recipe
// contract and is not configurable.
func Resources() []string {
	return []string{
		"launcher.ico",
		"launcher-settings.ico",
		"launcher-menu.json",
	}
}

// Deploy ensures <prefix>/Menu exists and places the resource files from the
// recipe directory into it. Every file is applied with a checksum computed
// from its source, so the deployed copy is byte-identical or the deployment
// fails.
func Deploy(ctx context.Context, recipeDir, prefix string) error {
	if prefix == "" {
		return errPrefixRequired
	}

	if _, err := os.Stat(recipeDir); err != nil {
		return fmt.Errorf("%s: %w", recipeDir, errRecipeDirMissing)
	}

	menuDir := filepath.Join(prefix, DirectoryName)
	if err := os.MkdirAll(menuDir, DefaultDirMode); err != nil {
		return fmt.Errorf("create menu directory: %w", err)
	}

	for _, name := range Resources() {
		if err := deployResource(ctx, filepath.Join(recipeDir, name), filepath.Join(menuDir, name)); err != nil {
			return err
		}
	}

	logger.InfoKV(ctx, "Deployed menu resources", "dir", menuDir, "count", len(Resources()))

	return nil
}

// deployResource places a single file with checksum verification.
func deployResource(ctx context.Context, source, target string) error {
	data, err := os.ReadFile(filepath.Clean(source))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", source, errResourceMissing)
		}

		return fmt.Errorf("read resource: %w", err)
	}

	checksum, err := checksumBytes(data)
	if err != nil {
		return err
	}

	// go-update replaces existing targets only, so make sure one exists.
	// The placeholder handle is closed right away, an open handle would
	// break the replacing rename on Windows.
	if _, err = os.Stat(target); err != nil && errors.Is(err, os.ErrNotExist) {
		placeholder, createErr := os.Create(target)
		if createErr != nil {
			return fmt.Errorf("create target: %w", createErr)
		}

		if err = placeholder.Close(); err != nil {
			return fmt.Errorf("close target: %w", err)
		}
	}

	options := goupdate.Options{
		TargetPath: target,
		TargetMode: resourceFileMode,
		Checksum:   checksum,
		Hash:       checksumFunction,
	}

	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		return fmt.Errorf("deploy %s: %w", filepath.Base(target), err)
	}

	// Drop the backup go-update leaves behind.
	oldTarget := target + ".old"
	if _, err = os.Stat(oldTarget); err == nil {
		_ = os.Remove(oldTarget)
	}

	logger.DebugKV(ctx, "Deployed resource", "target", target)

	return nil
}

// GetFileChecksum returns checksum bytes for a file using the package hash function.
func GetFileChecksum(path string) ([]byte, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	return checksumBytes(contents)
}

// checksumBytes hashes the given contents with the package hash function.
func checksumBytes(contents []byte) ([]byte, error) {
	if !checksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := checksumFunction.New()
	if _, err := hasher.Write(contents); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}
