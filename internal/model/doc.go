// Package model defines the domain types and value objects for the
// service-express CLI.
//
// This package contains pure data structures with no external dependencies.
// Every entity (Project, Conflict, Verdict, DependencySet) lives only for the
// duration of a single invocation; nothing is persisted besides the scaffold
// itself.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
