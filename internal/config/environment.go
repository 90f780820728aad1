package config

import (
	"errors"
	"os"
)

// Environment is a snapshot of the variables supplied by the invoking
// build orchestrator. Every knob of the recipe scripts arrives this way,
// there are no positional arguments on the entry points.
type Environment struct {
	// Prefix is the target installation root directory (PREFIX).
	Prefix string
	// Python is the path to the Python interpreter of the target
	// environment (PYTHON).
	Python string
	// PackageName is the name of the package to install (PKG_NAME).
	PackageName string
	// PackageVersion is the pinned version to install (PKG_VERSION).
	PackageVersion string
	// RecipeDir is the directory containing the recipe and its static
	// resources (RECIPE_DIR).
	RecipeDir string
	// SourceDir is the package source tree for source builds (SRC_DIR).
	SourceDir string
	// GitDescribeTag is the most recent tag reported by git describe
	// (GIT_DESCRIBE_TAG).
	GitDescribeTag string
	// GitDescribeNumber is the number of commits since that tag
	// (GIT_DESCRIBE_NUMBER).
	GitDescribeNumber string
}

var (
	errPrefixRequired      = errors.New("installation prefix must be provided (PREFIX)")
	errPythonRequired      = errors.New("python interpreter must be provided (PYTHON)")
	errRecipeDirRequired   = errors.New("recipe directory must be provided (RECIPE_DIR)")
	errPackageRequired     = errors.New("package name and version must be provided (PKG_NAME, PKG_VERSION)")
	errSourceDirRequired   = errors.New("source directory must be provided (SRC_DIR)")
	errGitDescribeRequired = errors.New("git describe data must be provided (GIT_DESCRIBE_TAG, GIT_DESCRIBE_NUMBER)")
)

// FromEnvironment reads the orchestrator-supplied variables from the process
// environment.
func FromEnvironment() *Environment {
	return &Environment{
		Prefix:            os.Getenv("PREFIX"),
		Python:            os.Getenv("PYTHON"),
		PackageName:       os.Getenv("PKG_NAME"),
		PackageVersion:    os.Getenv("PKG_VERSION"),
		RecipeDir:         os.Getenv("RECIPE_DIR"),
		SourceDir:         os.Getenv("SRC_DIR"),
		GitDescribeTag:    os.Getenv("GIT_DESCRIBE_TAG"),
		GitDescribeNumber: os.Getenv("GIT_DESCRIBE_NUMBER"),
	}
}

// validateCommon checks the variables every entry point needs.
func (e *Environment) validateCommon() error {
	if e.Prefix == "" {
		return errPrefixRequired
	}

	if e.Python == "" {
		return errPythonRequired
	}

	if e.RecipeDir == "" {
		return errRecipeDirRequired
	}

	return nil
}

// ValidateForInstall checks the variables required to install a named
// package from the index.
func (e *Environment) ValidateForInstall() error {
	if err := e.validateCommon(); err != nil {
		return err
	}

	if e.PackageName == "" || e.PackageVersion == "" {
		return errPackageRequired
	}

	return nil
}

// ValidateForSourceBuild checks the variables required to build and install
// the current source tree.
func (e *Environment) ValidateForSourceBuild() error {
	if err := e.validateCommon(); err != nil {
		return err
	}

	if e.SourceDir == "" {
		return errSourceDirRequired
	}

	if e.GitDescribeTag == "" || e.GitDescribeNumber == "" {
		return errGitDescribeRequired
	}

	return nil
}
