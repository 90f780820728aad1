// Package installer invokes the Python package installer of the target
// environment with the fixed flag set used by the recipe scripts: cache
// disabled, optional extra package index, optional trusted host.
//
// A non-zero installer exit is surfaced as ErrInstallerFailed and stops the
// calling recipe immediately; there are no retries.
package installer
