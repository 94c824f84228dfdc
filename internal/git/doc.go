// Package git initializes a Git repository in a freshly scaffolded project.
//
// The package shells out to the git CLI (via os/exec) rather than using a
// Go Git library, so the user's own git configuration (identity, hooks,
// default branch) applies exactly as it would on the command line.
package git
