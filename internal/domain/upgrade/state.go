package upgrade

import "time"

// State records the outcome of the most recent upgrade check.
type State struct {
	// Timestamp is when the check was performed.
	Timestamp time.Time
	// InstalledVersion is the package version found installed at check time.
	InstalledVersion string
	// LatestVersion is the newest version the package index offered.
	LatestVersion string
	// Ignore indicates the user declined LatestVersion and should not be
	// prompted about it again.
	Ignore bool
}

// Clone returns a copy of the state to avoid leaking internal references.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}

	cloned := *s

	return &cloned
}

// IgnoresVersion reports whether the given version was explicitly declined.
func (s *State) IgnoresVersion(version string) bool {
	return s != nil && s.Ignore && s.LatestVersion == version
}
