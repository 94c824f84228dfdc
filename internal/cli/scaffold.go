package cli

// scaffold.go orchestrates a scaffold run:
//  1. Resolve settings (flags > env > config file > defaults)
//  2. Resolve the project root and validate its name
//  3. Load the dependency preset
//  4. Create the directory and run the safety check
//  5. Preflight the package manager
//  6. Write package.json, .env and src/
//  7. Run the production and development installs concurrently
//  8. Optionally initialize a Git repository
//  9. Print the result (text or JSON)

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/service-express/internal/config"
	"github.com/shinji-kodama/service-express/internal/git"
	"github.com/shinji-kodama/service-express/internal/installer"
	"github.com/shinji-kodama/service-express/internal/logging"
	"github.com/shinji-kodama/service-express/internal/model"
	"github.com/shinji-kodama/service-express/internal/preset"
	"github.com/shinji-kodama/service-express/internal/safety"
	"github.com/shinji-kodama/service-express/internal/scaffold"
)

// newInstaller builds the installer used by runScaffold. Tests replace it
// to avoid spawning a real package manager.
var newInstaller = func(packageManager string, streams installer.Streams) *installer.Installer {
	return installer.New(packageManager, nil, streams)
}

// scaffoldResult is what a run reports on success.
type scaffoldResult struct {
	Name                  string              `json:"name"`
	Root                  string              `json:"root"`
	Safe                  bool                `json:"safe"`
	CheckOnly             bool                `json:"checkOnly,omitempty"`
	Created               []string            `json:"created,omitempty"`
	Removed               []string            `json:"removed,omitempty"`
	Installed             bool                `json:"installed"`
	GitInitialized        bool                `json:"gitInitialized,omitempty"`
	GitCommitted          bool                `json:"gitCommitted,omitempty"`
	PackageManager        string              `json:"packageManager,omitempty"`
	PackageManagerVersion string              `json:"packageManagerVersion,omitempty"`
	Dependencies          model.DependencySet `json:"dependencies"`
}

// resolveSettings merges explicitly set flags over the config loader.
func resolveSettings(cmd *cobra.Command, opts *options) (config.Settings, error) {
	loader := config.NewLoader(opts.configFile)

	flags := cmd.Flags()
	if flags.Changed("package-manager") {
		loader.Override(config.KeyPackageManager, opts.packageManager)
	}
	if flags.Changed("preset") {
		loader.Override(config.KeyPreset, opts.preset)
	}
	if flags.Changed("skip-install") {
		loader.Override(config.KeySkipInstall, opts.skipInstall)
	}

	return loader.Load()
}

// resolveProject turns the positional argument into an absolute root and a
// package name.
func resolveProject(projectDir string) (model.Project, error) {
	root, err := filepath.Abs(projectDir)
	if err != nil {
		return model.Project{}, model.WrapCLIError(model.ExitGeneralError, "failed to resolve project path", err)
	}
	name := filepath.Base(root)
	if err := model.ValidatePackageName(name); err != nil {
		return model.Project{}, model.WrapCLIError(model.ExitInvalidName, "cannot create a project with this name", err)
	}
	return model.Project{Name: name, Root: root}, nil
}

// loadDependencies returns the preset at path, or the built-in one.
func loadDependencies(path string) (model.DependencySet, error) {
	if path == "" {
		return preset.Default(), nil
	}
	deps, err := preset.Load(path)
	if err != nil {
		return model.DependencySet{}, model.WrapCLIError(model.ExitInvalidPreset, "invalid dependency preset", err)
	}
	return deps, nil
}

// runScaffold is the main orchestration function. projectDir is the
// positional argument exactly as the user typed it.
func runScaffold(cmd *cobra.Command, projectDir string, opts *options) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := newOutput(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts.jsonOutput)
	logger := logging.For("cli")

	settings, err := resolveSettings(cmd, opts)
	if err != nil {
		return model.WrapCLIError(model.ExitInvalidPreset, "invalid configuration", err)
	}

	project, err := resolveProject(projectDir)
	if err != nil {
		return err
	}
	logger.Debug().Str("name", project.Name).Str("root", project.Root).Msg("Resolved project")

	deps, err := loadDependencies(settings.Preset)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(project.Root, 0o755); err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to create project directory", err)
	}

	verdict := safety.NewChecker().Check(project.Root, projectDir)
	if !verdict.Safe {
		out.conflicts(projectDir, verdict.Conflicts)
		return model.WrapCLIError(model.ExitUnsafeDirectory,
			fmt.Sprintf("the directory %s contains files that could conflict", projectDir),
			&conflictError{conflicts: verdict.Conflicts})
	}

	result := scaffoldResult{
		Name:         project.Name,
		Root:         project.Root,
		Safe:         true,
		Removed:      verdict.Removed,
		Dependencies: deps,
	}

	if opts.checkOnly {
		result.CheckOnly = true
		out.result(result)
		return nil
	}

	install := !settings.SkipInstall && !deps.IsEmpty()

	// The installer's own output goes to stderr in JSON mode so stdout
	// stays a single JSON document.
	streams := installer.Streams{Stdin: cmd.InOrStdin(), Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()}
	if opts.jsonOutput {
		streams.Stdout = cmd.ErrOrStderr()
	}
	inst := newInstaller(settings.PackageManager, streams)

	if install {
		v, err := inst.CheckVersion(ctx, settings.MinPackageManagerVersion)
		if err != nil {
			return model.WrapCLIError(model.ExitPackageManagerMissing,
				fmt.Sprintf("cannot use package manager %q", inst.PackageManager()), err)
		}
		result.PackageManager = inst.PackageManager()
		result.PackageManagerVersion = v.String()
	}

	out.creating(project.Root)

	created, err := scaffold.Create(project)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to write scaffold", err)
	}
	result.Created = created

	if install {
		out.installing(inst.PackageManager(), deps)
		if err := inst.Install(ctx, project.Root, deps); err != nil {
			out.aborting()
			return model.WrapCLIError(model.ExitInstallFailed, "dependency installation failed", err)
		}
		result.Installed = true
	}

	// Git init failures are logged, never fatal.
	if opts.gitInit {
		res, err := git.NewManager().InitRepository(project.Root)
		switch {
		case err != nil:
			logger.Warn().Err(err).Msg("Could not initialize a Git repository")
		case res.Skipped:
			logger.Info().Msg("Project is already inside a Git work tree; not creating a repository")
		default:
			result.GitInitialized = true
			result.GitCommitted = res.Committed
		}
	}

	out.result(result)
	return nil
}

// conflictError carries the conflict listing through CLIError so that JSON
// error output can include it.
type conflictError struct {
	conflicts []model.Conflict
}

func (e *conflictError) Error() string {
	return fmt.Sprintf("%d conflicting entries", len(e.conflicts))
}

// conflictsOf extracts the conflict listing from err, if any.
func conflictsOf(err error) []model.Conflict {
	var ce *conflictError
	if errors.As(err, &ce) {
		return ce.conflicts
	}
	return nil
}
