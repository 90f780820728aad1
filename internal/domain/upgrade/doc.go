// Package upgrade holds the domain model for upgrade checks: the cached
// latest-version state and the decisions that can be derived from it.
package upgrade
