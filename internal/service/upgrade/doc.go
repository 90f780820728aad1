// Package upgrade checks the package index for a newer version of the
// installed package, caches the answer in the latest-version file and,
// unless running in check-only mode, applies the upgrade through the
// installer. An unreachable index degrades to a warning so offline
// machines keep working.
package upgrade
