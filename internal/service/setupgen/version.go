package setupgen

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	errTagRequired    = errors.New("git describe tag must not be empty")
	errMalformedCount = errors.New("malformed commit count")
)

// DeriveVersion turns a git-describe tag and commit count into a package
// version string. A zero count yields the plain tag version; a positive
// count yields a post-release suffix:
//
//	v1.2.3 + 0 -> 1.2.3
//	v1.2.3 + 5 -> 1.2.3.post5
func DeriveVersion(tag, count string) (string, error) {
	base := strings.TrimPrefix(strings.TrimSpace(tag), "v")
	if base == "" {
		return "", errTagRequired
	}

	n, err := strconv.Atoi(strings.TrimSpace(count))
	if err != nil || n < 0 {
		return "", fmt.Errorf("%w: %q", errMalformedCount, count)
	}

	if n == 0 {
		return base, nil
	}

	return fmt.Sprintf("%s.post%d", base, n), nil
}
