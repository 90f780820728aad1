// Package menu deploys the recipe's icon and shortcut-definition resources
// into the Menu directory under the installation prefix, creating the
// directory when absent. Files are placed with checksum verification so the
// deployed copies are byte-identical to their recipe sources.
package menu
