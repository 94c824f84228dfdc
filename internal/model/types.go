package model

import (
	"fmt"
	"regexp"
	"strings"
)

// EntryKind classifies a filesystem entry found in a target directory.
// Classification is best-effort: when the entry cannot be stat'ed (for
// example a dangling symlink) the kind is EntryUnknown.
type EntryKind string

const (
	// EntryDir is a directory (or a symlink resolving to one).
	EntryDir EntryKind = "dir"

	// EntryFile is anything that stat'ed successfully and is not a directory.
	EntryFile EntryKind = "file"

	// EntryUnknown means the entry could not be stat'ed.
	EntryUnknown EntryKind = "unknown"
)

// String returns the string representation of EntryKind.
func (k EntryKind) String() string {
	return string(k)
}

// IsValid checks whether the EntryKind value is one of the predefined kinds.
func (k EntryKind) IsValid() bool {
	switch k {
	case EntryDir, EntryFile, EntryUnknown:
		return true
	default:
		return false
	}
}

// Conflict is a pre-existing entry in the target directory that is not
// recognized as safe to coexist with a fresh scaffold.
type Conflict struct {
	// Name is the entry name relative to the target directory.
	Name string `json:"name"`

	// Kind tells directories apart from files in the conflict listing.
	Kind EntryKind `json:"kind"`
}

// Display returns the name as shown in the conflict listing.
// Directories get a trailing slash so they stand out from files.
func (c Conflict) Display() string {
	if c.Kind == EntryDir {
		return c.Name + "/"
	}
	return c.Name
}

// Verdict is the outcome of a directory safety check.
type Verdict struct {
	// Safe reports whether scaffolding may proceed in the directory.
	Safe bool `json:"safe"`

	// Conflicts lists the offending entries, sorted by name.
	// Always empty when Safe is true.
	Conflicts []Conflict `json:"conflicts,omitempty"`

	// Removed lists the stale installer logs deleted during cleanup.
	// Cleanup only runs on the safe path.
	Removed []string `json:"removed,omitempty"`

	// CleanupFailures lists stale logs that could not be deleted.
	// These do not affect Safe.
	CleanupFailures []string `json:"cleanupFailures,omitempty"`
}

// Project identifies the scaffold being created.
type Project struct {
	// Name is the package name written to package.json. It is the base
	// name of Root.
	Name string `json:"name"`

	// Root is the absolute path of the project directory.
	Root string `json:"root"`
}

// DependencySet holds the packages passed to the production and development
// installs respectively.
type DependencySet struct {
	Dependencies    []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	DevDependencies []string `json:"devDependencies,omitempty" yaml:"devDependencies,omitempty"`
}

// IsEmpty reports whether neither install has anything to do.
func (d DependencySet) IsEmpty() bool {
	return len(d.Dependencies) == 0 && len(d.DevDependencies) == 0
}

// maxPackageNameLength is the npm registry limit on package name length.
const maxPackageNameLength = 214

// packageNameRegex accepts unscoped npm package names: lowercase,
// URL-safe, and not starting with "." or "_".
var packageNameRegex = regexp.MustCompile(`^[a-z0-9~-][a-z0-9._~-]*$`)

// reservedPackageNames cannot be published regardless of their shape.
var reservedPackageNames = map[string]bool{
	"node_modules": true,
	"favicon.ico":  true,
}

// ValidatePackageName checks whether name can be used as the "name" field of
// the generated package.json.
func ValidatePackageName(name string) error {
	if name == "" {
		return fmt.Errorf("project name must not be empty")
	}
	if len(name) > maxPackageNameLength {
		return fmt.Errorf("invalid project name %q: must be at most %d characters", name, maxPackageNameLength)
	}
	if reservedPackageNames[strings.ToLower(name)] {
		return fmt.Errorf("invalid project name %q: name is reserved", name)
	}
	if !packageNameRegex.MatchString(name) {
		return fmt.Errorf("invalid project name %q: must be lowercase, URL-safe, and not start with '.' or '_'", name)
	}
	return nil
}
