package upgrade

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestStateClone verifies that Clone copies fields and handles nil safely.
func TestStateClone(t *testing.T) {
	t.Parallel()
	require.Nil(t, (*State)(nil).Clone())

	ts := time.Now().UTC().Truncate(time.Second)
	s := &State{
		Timestamp:        ts,
		InstalledVersion: "1.2.3",
		LatestVersion:    "1.2.3.post5",
		Ignore:           true,
	}

	c := s.Clone()
	require.Equal(t, s, c)
	require.NotSame(t, s, c)
}

// TestIgnoresVersion covers the declined-version check.
func TestIgnoresVersion(t *testing.T) {
	t.Parallel()

	require.False(t, (*State)(nil).IgnoresVersion("1.2.3"))

	s := &State{LatestVersion: "1.2.3", Ignore: true}
	require.True(t, s.IgnoresVersion("1.2.3"))
	require.False(t, s.IgnoresVersion("1.2.4"))

	s.Ignore = false
	require.False(t, s.IgnoresVersion("1.2.3"))
}
