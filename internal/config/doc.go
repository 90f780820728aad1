// Package config defines installer settings used by the recipe binaries and
// provides helpers to load, validate and save them in YAML format, plus a
// snapshot of the environment variables supplied by the build orchestrator.
//
// The Config type holds the extra package index URL, the trusted host and
// the path of the latest-version cache file.
package config
