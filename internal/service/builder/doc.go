// Package builder orchestrates the recipe entry points.
//
// RunInstall installs a named package from the index into the prefix and
// deploys the menu resources. RunSourceBuild additionally derives a version
// from git-describe data and regenerates the packaging manifest before
// installing the source tree. Both are guarded by a marker file so only one
// build touches the prefix at a time; a failing installer stops the recipe
// before any resource is deployed.
package builder
