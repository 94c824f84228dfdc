package model

import "fmt"

// ExitCode defines the process exit codes of the CLI. Scripts can branch on
// them to tell a dirty target directory apart from a failed install.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitUnsafeDirectory indicates the target directory contains
	// conflicting entries. Nothing was written.
	ExitUnsafeDirectory ExitCode = 2

	// ExitInstallFailed indicates at least one package-manager install
	// exited non-zero. The scaffold files are left in place.
	ExitInstallFailed ExitCode = 3

	// ExitInvalidPreset indicates a preset or configuration file could not
	// be read or failed validation.
	ExitInvalidPreset ExitCode = 4

	// ExitPackageManagerMissing indicates the package manager executable is
	// not installed or is older than the required minimum.
	ExitPackageManagerMissing ExitCode = 5

	// ExitInvalidName indicates the project directory name is not a valid
	// package name.
	ExitInvalidName ExitCode = 6
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
