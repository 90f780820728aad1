package menu

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeResources populates a recipe directory with the three fixed resources.
func writeResources(t *testing.T, dir string) map[string][]byte {
	t.Helper()

	contents := map[string][]byte{
		"launcher.ico":          {0x00, 0x00, 0x01, 0x00, 0xde, 0xad},
		"launcher-settings.ico": {0x00, 0x00, 0x01, 0x00, 0xbe, 0xef},
		"launcher-menu.json":    []byte(`{"menu_name": "Launcher"}`),
	}
	for name, data := range contents {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o600))
	}

	return contents
}

// TestDeploy places exactly the three resources byte-identical to their sources.
func TestDeploy(t *testing.T) {
	t.Parallel()

	recipeDir := t.TempDir()
	prefix := t.TempDir()
	want := writeResources(t, recipeDir)

	require.NoError(t, Deploy(context.Background(), recipeDir, prefix))

	menuDir := filepath.Join(prefix, DirectoryName)
	entries, err := os.ReadDir(menuDir)
	require.NoError(t, err)
	require.Len(t, entries, len(Resources()))

	for name, data := range want {
		got, readErr := os.ReadFile(filepath.Join(menuDir, name))
		require.NoError(t, readErr)
		require.Equal(t, data, got)
	}
}

// TestDeploy_Redeploy overwrites stale copies and leaves no backup files.
func TestDeploy_Redeploy(t *testing.T) {
	t.Parallel()

	recipeDir := t.TempDir()
	prefix := t.TempDir()
	writeResources(t, recipeDir)

	menuDir := filepath.Join(prefix, DirectoryName)
	require.NoError(t, os.MkdirAll(menuDir, DefaultDirMode))
	require.NoError(t, os.WriteFile(filepath.Join(menuDir, "launcher.ico"), []byte("stale"), 0o600))

	require.NoError(t, Deploy(context.Background(), recipeDir, prefix))

	got, err := os.ReadFile(filepath.Join(menuDir, "launcher.ico"))
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0x00, 0x01, 0x00, 0xde, 0xad}, got)

	entries, err := os.ReadDir(menuDir)
	require.NoError(t, err)
	require.Len(t, entries, len(Resources()))
}

// TestDeploy_LeavesNoOpenHandles checks that placeholder targets are closed,
// an open handle would break the replacing rename on Windows. Not parallel,
// descriptor accounting needs a quiet process.
func TestDeploy_LeavesNoOpenHandles(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("descriptor accounting relies on /proc")
	}

	recipeDir := t.TempDir()
	prefix := t.TempDir()
	writeResources(t, recipeDir)

	before := openDescriptors(t)
	require.NoError(t, Deploy(context.Background(), recipeDir, prefix))
	require.Equal(t, before, openDescriptors(t))
}

func openDescriptors(t *testing.T) int {
	t.Helper()

	entries, err := os.ReadDir("/proc/self/fd")
	require.NoError(t, err)

	return len(entries)
}

// TestDeploy_MissingResource fails when a recipe file is absent.
func TestDeploy_MissingResource(t *testing.T) {
	t.Parallel()

	recipeDir := t.TempDir()
	writeResources(t, recipeDir)
	require.NoError(t, os.Remove(filepath.Join(recipeDir, "launcher-menu.json")))

	err := Deploy(context.Background(), recipeDir, t.TempDir())
	require.ErrorIs(t, err, errResourceMissing)
}

// TestDeploy_Validation rejects an empty prefix and a missing recipe directory.
func TestDeploy_Validation(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Deploy(context.Background(), t.TempDir(), ""), errPrefixRequired)

	err := Deploy(context.Background(), filepath.Join(t.TempDir(), "absent"), t.TempDir())
	require.ErrorIs(t, err, errRecipeDirMissing)
}

// TestGetFileChecksum hashes file contents deterministically.
func TestGetFileChecksum(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "launcher.ico")
	require.NoError(t, os.WriteFile(path, []byte("icon"), 0o600))

	first, err := GetFileChecksum(path)
	require.NoError(t, err)
	require.Len(t, first, 64)

	second, err := GetFileChecksum(path)
	require.NoError(t, err)
	require.Equal(t, first, second)
}
