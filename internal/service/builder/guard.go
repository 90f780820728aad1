package builder

import (
	"context"
	"errors"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/droplab/recipe-runner/internal/logger"
)

const (
	// MarkerFilename marks that a build is running right now to avoid parallel execution.
	MarkerFilename = "recipe-runner-build-marker.bin"

	// Base executable names; platform helpers append extension when needed.
	baseInstallExecutable = "recipe-install"
	baseBuildExecutable   = "recipe-build"

	// markerLifetime is the period after which a stale build marker is ignored.
	markerLifetime = 30 * time.Second
)

// IsBuildRunningNow checks presence of a marker file and attempts recovery if it looks stale.
func IsBuildRunningNow(ctx context.Context) bool {
	logger.Info(ctx, "Checking for the presence of a build marker")

	fileInfo, err := os.Stat(MarkerFilename)
	if err == nil {
		if time.Since(fileInfo.ModTime()) <= markerLifetime {
			return true
		}

		logger.Info(ctx, "The build marker is too old, attempting cleanup")

		if err = terminateBuildProcesses(); err != nil {
			return true
		}

		if err = os.Remove(MarkerFilename); err != nil {
			return true
		}

		return false
	}

	if errors.Is(err, os.ErrNotExist) {
		logger.Info(ctx, "Build marker not found, continuing")
		return false
	}

	logger.Infof(ctx, "Unable to read build marker: %v", err)

	return false
}

// terminateBuildProcesses tries to kill any other running recipe build binaries.
func terminateBuildProcesses() error {
	names := map[string]struct{}{
		installExecutable(): {},
		buildExecutable():   {},
	}

	processList, err := ps.Processes()
	if err != nil {
		return err
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if _, found := names[process.Executable()]; !found {
			continue
		}

		var runningProcess *os.Process

		runningProcess, err = os.FindProcess(process.Pid())
		if err != nil {
			return err
		}

		if err = runningProcess.Kill(); err != nil {
			return err
		}
	}

	return nil
}

// getExecutableExtension returns ".exe" on Windows and "" elsewhere.
func getExecutableExtension() string {
	if strings.Contains(strings.ToLower(runtime.GOOS), "windows") {
		return ".exe"
	}

	return ""
}

func installExecutable() string {
	return baseInstallExecutable + getExecutableExtension()
}

func buildExecutable() string {
	return baseBuildExecutable + getExecutableExtension()
}
