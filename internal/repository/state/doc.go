// Package state persists the upgrade-check cache to a YAML file.
//
// The file stores the newest version the package index offered, when the
// check happened and whether the user asked to ignore that version.
package state
