// Package setupgen regenerates the Python packaging manifest (setup.py)
// from a higher-level YAML build definition, and derives package versions
// from git-describe data (tag plus commits-since-tag), producing either a
// plain version or a .postN suffixed one.
package setupgen
