package upgrade

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestIsNewer covers base, post-release and empty-local orderings.
func TestIsNewer(t *testing.T) {
	t.Parallel()

	cases := []struct {
		local  string
		remote string
		want   bool
	}{
		{"", "1.0.0", true},
		{"1.2.3", "1.2.3", false},
		{"1.2.3", "1.2.4", true},
		{"1.2.4", "1.2.3", false},
		{"1.2.3", "1.2.3.post1", true},
		{"1.2.3.post1", "1.2.3.post5", true},
		{"1.2.3.post5", "1.2.3.post1", false},
		{"1.2.3.post5", "1.2.3", false},
		{"1.2.3.post5", "1.2.4", true},
	}
	for _, tc := range cases {
		got, err := IsNewer(tc.local, tc.remote)
		require.NoError(t, err, "%s vs %s", tc.local, tc.remote)
		require.Equal(t, tc.want, got, "%s vs %s", tc.local, tc.remote)
	}
}

// TestIsNewer_Invalid rejects unparsable versions.
func TestIsNewer_Invalid(t *testing.T) {
	t.Parallel()

	_, err := IsNewer("not-a-version", "1.0.0")
	require.Error(t, err)

	_, err = IsNewer("1.0.0", "1.0.0.postX")
	require.Error(t, err)
}
