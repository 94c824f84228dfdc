package installer

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/sync/errgroup"

	"github.com/shinji-kodama/service-express/internal/logging"
	"github.com/shinji-kodama/service-express/internal/model"
)

// Phase names one of the two installs.
type Phase string

const (
	PhaseProduction  Phase = "production"
	PhaseDevelopment Phase = "development"
)

// productionFlags precede the production dependency list.
var productionFlags = []string{"install", "--no-audit", "--save", "--save-exact", "--loglevel", "error"}

// developmentFlags precede the development dependency list.
var developmentFlags = []string{"install", "--no-audit", "--save-dev"}

// ProductionArgs returns the argument vector for the production install.
func ProductionArgs(deps []string) []string {
	return append(append([]string(nil), productionFlags...), deps...)
}

// DevelopmentArgs returns the argument vector for the development install.
func DevelopmentArgs(deps []string) []string {
	return append(append([]string(nil), developmentFlags...), deps...)
}

// ErrPackageManagerNotFound is returned when the executable is not on PATH.
var ErrPackageManagerNotFound = errors.New("package manager not found")

// InstallError reports a failed install phase.
type InstallError struct {
	Phase Phase
	// ExitCode is the child's exit status, or -1 if it never ran to
	// completion (not found, killed, cancelled).
	ExitCode int
	Err      error
}

func (e *InstallError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("%s install exited with code %d", e.Phase, e.ExitCode)
	}
	return fmt.Sprintf("%s install failed: %v", e.Phase, e.Err)
}

func (e *InstallError) Unwrap() error {
	return e.Err
}

// VersionError reports a package manager older than required.
type VersionError struct {
	Have *semver.Version
	Want *semver.Version
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("package manager version %s is older than required %s", e.Have, e.Want)
}

// Installer runs installs with a given package manager executable.
type Installer struct {
	packageManager string
	runner         Runner
	streams        Streams
}

// New creates an Installer. A nil runner means ExecRunner.
func New(packageManager string, runner Runner, streams Streams) *Installer {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Installer{packageManager: packageManager, runner: runner, streams: streams}
}

// PackageManager returns the configured executable.
func (i *Installer) PackageManager() string {
	return i.packageManager
}

// CheckVersion runs "<pm> --version" and verifies the result is at least
// minVersion. It returns the detected version.
func (i *Installer) CheckVersion(ctx context.Context, minVersion string) (*semver.Version, error) {
	want, err := parseSemver(minVersion)
	if err != nil {
		return nil, fmt.Errorf("parsing minimum version %q: %w", minVersion, err)
	}

	out, err := i.runner.Output(ctx, i.packageManager, "--version")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPackageManagerNotFound, i.packageManager)
		}
		return nil, fmt.Errorf("running %s --version: %w", i.packageManager, err)
	}

	have, err := parseSemver(firstLine(out))
	if err != nil {
		return nil, fmt.Errorf("parsing %s version %q: %w", i.packageManager, out, err)
	}
	if have.LessThan(want) {
		return have, &VersionError{Have: have, Want: want}
	}
	return have, nil
}

// Install runs the production and development installs concurrently in dir
// and waits for both. Every failure is returned, joined; an empty list skips
// its install.
func (i *Installer) Install(ctx context.Context, dir string, deps model.DependencySet) error {
	logger := logging.For("installer").With().Str("dir", dir).Str("packageManager", i.packageManager).Logger()

	// Plain Group, not WithContext: one install failing must not cancel
	// the other.
	var g errgroup.Group
	errs := make([]error, 2)

	g.Go(func() error {
		errs[0] = i.runPhase(ctx, dir, PhaseProduction, deps.Dependencies)
		return nil
	})
	g.Go(func() error {
		errs[1] = i.runPhase(ctx, dir, PhaseDevelopment, deps.DevDependencies)
		return nil
	})
	_ = g.Wait()

	err := errors.Join(errs...)
	if err != nil {
		logger.Error().Err(err).Msg("Dependency installation failed")
		return err
	}
	logger.Debug().Msg("Dependencies installed")
	return nil
}

// runPhase runs a single install and converts failures to *InstallError.
func (i *Installer) runPhase(ctx context.Context, dir string, phase Phase, deps []string) error {
	if len(deps) == 0 {
		logger := logging.For("installer")
		logger.Debug().Str("phase", string(phase)).Msg("Nothing to install, skipping")
		return nil
	}

	var args []string
	if phase == PhaseProduction {
		args = ProductionArgs(deps)
	} else {
		args = DevelopmentArgs(deps)
	}

	err := i.runner.Run(ctx, dir, i.streams, i.packageManager, args...)
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return &InstallError{Phase: phase, ExitCode: exitErr.ExitCode(), Err: err}
	}
	if errors.Is(err, exec.ErrNotFound) {
		err = fmt.Errorf("%w: %s", ErrPackageManagerNotFound, i.packageManager)
	}
	return &InstallError{Phase: phase, ExitCode: -1, Err: err}
}

// parseSemver strips a leading "v" and parses the version leniently, so
// "10.2" and "v9.8.1" are both accepted.
func parseSemver(version string) (*semver.Version, error) {
	return semver.NewVersion(strings.TrimPrefix(strings.TrimSpace(version), "v"))
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
