// Package installer runs the package manager that populates a freshly
// scaffolded project.
//
// The production and development installs are independent: they are started
// together, neither cancels the other, and the caller sees every failure
// once both have finished. Process execution goes through the Runner
// interface so tests never need a real package manager on PATH.
package installer
