// Package version exposes build metadata for the recipe binaries and a
// helper that attaches a `version` subcommand to a cobra root command.
// The values are injected at build time via ldflags.
package version
