package upgrade

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// splitPost separates a ".postN" suffix from a version string.
// Post-release versions sort after their base version:
// 1.2.3 < 1.2.3.post1 < 1.2.3.post5 < 1.2.4.
func splitPost(version string) (base string, post int, err error) {
	base = strings.TrimSpace(version)

	idx := strings.LastIndex(base, ".post")
	if idx == -1 {
		return base, 0, nil
	}

	post, err = strconv.Atoi(base[idx+len(".post"):])
	if err != nil || post < 0 {
		return "", 0, fmt.Errorf("invalid post-release suffix in %q", version)
	}

	return base[:idx], post, nil
}

// IsNewer reports whether remote is a newer version than local.
// An empty local version always counts as older.
func IsNewer(local, remote string) (bool, error) {
	if strings.TrimSpace(local) == "" {
		return true, nil
	}

	localBase, localPost, err := splitPost(local)
	if err != nil {
		return false, err
	}

	remoteBase, remotePost, err := splitPost(remote)
	if err != nil {
		return false, err
	}

	localVersion, err := semver.NewVersion(localBase)
	if err != nil {
		return false, fmt.Errorf("parse local version %q: %w", local, err)
	}

	remoteVersion, err := semver.NewVersion(remoteBase)
	if err != nil {
		return false, fmt.Errorf("parse remote version %q: %w", remote, err)
	}

	switch remoteVersion.Compare(localVersion) {
	case 1:
		return true, nil
	case -1:
		return false, nil
	default:
		return remotePost > localPost, nil
	}
}
