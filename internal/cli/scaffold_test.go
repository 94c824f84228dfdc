package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/service-express/internal/installer"
	"github.com/shinji-kodama/service-express/internal/model"
)

// fakeRunner stands in for the package manager.
type fakeRunner struct {
	mu      sync.Mutex
	runs    [][]string
	version string
	runErr  error
	ctxErrs []error
}

func (f *fakeRunner) Run(ctx context.Context, _ string, _ installer.Streams, _ string, args ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, args)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.runErr
}

func (f *fakeRunner) Output(_ context.Context, _ string, _ ...string) (string, error) {
	return f.version, nil
}

// useFakeInstaller routes runScaffold's installs to f for the duration of
// the test.
func useFakeInstaller(t *testing.T, f *fakeRunner) {
	t.Helper()
	orig := newInstaller
	newInstaller = func(pm string, streams installer.Streams) *installer.Installer {
		return installer.New(pm, f, streams)
	}
	t.Cleanup(func() { newInstaller = orig })
}

// runCLI executes the root command with args and returns stdout, stderr,
// and the exit code the process would have used.
func runCLI(t *testing.T, args ...string) (string, string, model.ExitCode) {
	t.Helper()

	// Keep the developer's own config out of the test.
	if !containsArg(args, "--config") {
		cfg := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(cfg, nil, 0o644))
		args = append(args, "--config", cfg)
	}

	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(&bytes.Buffer{})
	cmd.SetArgs(args)

	code := model.ExitSuccess
	if err := cmd.Execute(); err != nil {
		code = HandleError(cmd, err)
	}
	return stdout.String(), stderr.String(), code
}

func containsArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

func listNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// TestScaffold_DemoSkipInstall scaffolds a fresh "demo" directory and checks
// the produced tree.
func TestScaffold_DemoSkipInstall(t *testing.T) {
	root := filepath.Join(t.TempDir(), "demo")

	stdout, stderr, code := runCLI(t, root, "--skip-install")
	require.Equal(t, model.ExitSuccess, code, "stderr: %s", stderr)

	assert.ElementsMatch(t, []string{".env", "package.json", "src"}, listNames(t, root))
	assert.ElementsMatch(t,
		[]string{"modules", "models", "configs", "middleware", "routes.ts", "server.ts"},
		listNames(t, filepath.Join(root, "src")))

	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name": "demo"`)

	assert.Contains(t, stdout, "Creating a new Express Server in")
	assert.Contains(t, stdout, "Success! Created demo")
	assert.Contains(t, stdout, "Dependencies were not installed")
}

// TestScaffold_UnknownFlagsIgnored verifies that options meant for other
// tools do not break the run.
func TestScaffold_UnknownFlagsIgnored(t *testing.T) {
	root := filepath.Join(t.TempDir(), "demo")

	_, stderr, code := runCLI(t, root, "--use-pnpm", "--template=typescript", "--skip-install")
	require.Equal(t, model.ExitSuccess, code, "stderr: %s", stderr)
	assert.FileExists(t, filepath.Join(root, "package.json"))
}

func TestScaffold_MissingArgument(t *testing.T) {
	_, _, code := runCLI(t)
	assert.Equal(t, model.ExitGeneralError, code)
}

// TestScaffold_ConflictAborts verifies that nothing is written into a
// directory with conflicting files.
func TestScaffold_ConflictAborts(t *testing.T) {
	root := filepath.Join(t.TempDir(), "demo")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "npm-debug.log"), []byte("log"), 0o644))

	_, stderr, code := runCLI(t, root, "--skip-install")

	assert.Equal(t, model.ExitUnsafeDirectory, code)
	assert.Contains(t, stderr, "contains files that could conflict")
	assert.Contains(t, stderr, "  index.html\n")
	assert.Contains(t, stderr, "  lib/\n")
	assert.Contains(t, stderr, "remove the files listed above")

	assert.NoFileExists(t, filepath.Join(root, "package.json"))
	assert.FileExists(t, filepath.Join(root, "npm-debug.log"), "stale log survives an unsafe verdict")
}

func TestScaffold_ConflictJSON(t *testing.T) {
	root := filepath.Join(t.TempDir(), "demo")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<html>"), 0o644))

	stdout, stderr, code := runCLI(t, root, "--json")
	require.Equal(t, model.ExitUnsafeDirectory, code)
	assert.Empty(t, stdout)

	var payload struct {
		Error struct {
			Message   string           `json:"message"`
			Conflicts []model.Conflict `json:"conflicts"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stderr), &payload), "stderr: %s", stderr)
	assert.Contains(t, payload.Error.Message, "could conflict")
	assert.Equal(t, []model.Conflict{{Name: "index.html", Kind: model.EntryFile}}, payload.Error.Conflicts)
}

// TestScaffold_RerunReportsConflicts documents that a second run against a
// populated directory is rejected rather than merged.
func TestScaffold_RerunReportsConflicts(t *testing.T) {
	root := filepath.Join(t.TempDir(), "demo")

	_, _, code := runCLI(t, root, "--skip-install")
	require.Equal(t, model.ExitSuccess, code)

	_, stderr, code := runCLI(t, root, "--skip-install")
	assert.Equal(t, model.ExitUnsafeDirectory, code)
	assert.Contains(t, stderr, "package.json")
	assert.Contains(t, stderr, "src/")
}

func TestScaffold_StaleLogRemoved(t *testing.T) {
	root := filepath.Join(t.TempDir(), "demo")
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "yarn-error.log"), []byte("log"), 0o644))

	stdout, stderr, code := runCLI(t, root, "--skip-install")
	require.Equal(t, model.ExitSuccess, code, "stderr: %s", stderr)

	assert.NoFileExists(t, filepath.Join(root, "yarn-error.log"))
	assert.DirExists(t, filepath.Join(root, ".git"))
	assert.Contains(t, stdout, "yarn-error.log")
}

func TestScaffold_CheckOnlyWritesNothing(t *testing.T) {
	root := filepath.Join(t.TempDir(), "demo")

	stdout, _, code := runCLI(t, root, "--check")
	require.Equal(t, model.ExitSuccess, code)
	assert.Contains(t, stdout, "is safe to scaffold into")
	assert.Empty(t, listNames(t, root))
}

func TestScaffold_InvalidName(t *testing.T) {
	root := filepath.Join(t.TempDir(), "MyApp")

	_, stderr, code := runCLI(t, root, "--skip-install")
	assert.Equal(t, model.ExitInvalidName, code)
	assert.Contains(t, stderr, "MyApp")
	assert.NoDirExists(t, root)
}

func TestScaffold_InvalidPreset(t *testing.T) {
	presetPath := filepath.Join(t.TempDir(), "preset.yaml")
	require.NoError(t, os.WriteFile(presetPath, []byte("peerDependencies: [react]\n"), 0o644))
	root := filepath.Join(t.TempDir(), "demo")

	_, stderr, code := runCLI(t, root, "--preset", presetPath)
	assert.Equal(t, model.ExitInvalidPreset, code)
	assert.Contains(t, stderr, "invalid dependency preset")
	assert.NoDirExists(t, root)
}

// TestScaffold_InstallsBothSets runs the full flow with a fake package
// manager and checks the JSON result.
func TestScaffold_InstallsBothSets(t *testing.T) {
	f := &fakeRunner{version: "10.2.4"}
	useFakeInstaller(t, f)
	root := filepath.Join(t.TempDir(), "demo")

	stdout, stderr, code := runCLI(t, root, "--json")
	require.Equal(t, model.ExitSuccess, code, "stderr: %s", stderr)

	require.Len(t, f.runs, 2)
	var sawProd, sawDev bool
	for _, args := range f.runs {
		switch args[2] {
		case "--save":
			sawProd = true
			assert.Contains(t, args, "express")
		case "--save-dev":
			sawDev = true
			assert.Contains(t, args, "typescript")
			assert.NotContains(t, args, "error", "no stray token in the dev install")
		}
	}
	assert.True(t, sawProd)
	assert.True(t, sawDev)

	var result scaffoldResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &result), "stdout: %s", stdout)
	assert.Equal(t, "demo", result.Name)
	assert.True(t, result.Installed)
	assert.Equal(t, "npm", result.PackageManager)
	assert.Equal(t, "10.2.4", result.PackageManagerVersion)
	assert.Len(t, result.Created, 8)
}

func TestScaffold_PresetOverridesDependencies(t *testing.T) {
	f := &fakeRunner{version: "10.0.0"}
	useFakeInstaller(t, f)
	presetPath := filepath.Join(t.TempDir(), "preset.jsonc")
	require.NoError(t, os.WriteFile(presetPath, []byte(`{
  // only tooling
  "devDependencies": ["typescript"]
}`), 0o644))
	root := filepath.Join(t.TempDir(), "demo")

	_, stderr, code := runCLI(t, root, "--preset", presetPath)
	require.Equal(t, model.ExitSuccess, code, "stderr: %s", stderr)

	require.Len(t, f.runs, 1)
	assert.Equal(t, []string{"install", "--no-audit", "--save-dev", "typescript"}, f.runs[0])
}

// TestScaffold_InstallFailureKeepsScaffold verifies the exit code and that
// written files are not rolled back.
func TestScaffold_InstallFailureKeepsScaffold(t *testing.T) {
	f := &fakeRunner{version: "10.0.0", runErr: errors.New("registry unreachable")}
	useFakeInstaller(t, f)
	root := filepath.Join(t.TempDir(), "demo")

	_, stderr, code := runCLI(t, root)
	assert.Equal(t, model.ExitInstallFailed, code)
	assert.Contains(t, stderr, "Aborting installation.")
	assert.Len(t, f.runs, 2, "both installs run even though both fail")
	assert.FileExists(t, filepath.Join(root, "package.json"))
}

func TestScaffold_PackageManagerTooOld(t *testing.T) {
	f := &fakeRunner{version: "5.6.0"}
	useFakeInstaller(t, f)
	root := filepath.Join(t.TempDir(), "demo")

	_, stderr, code := runCLI(t, root)
	assert.Equal(t, model.ExitPackageManagerMissing, code)
	assert.Contains(t, stderr, "older than required")
	assert.Empty(t, f.runs)
	assert.NoFileExists(t, filepath.Join(root, "package.json"), "preflight runs before anything is written")
}

func TestScaffold_PackageManagerFlagAndEnv(t *testing.T) {
	var gotPM string
	orig := newInstaller
	newInstaller = func(pm string, streams installer.Streams) *installer.Installer {
		gotPM = pm
		return installer.New(pm, &fakeRunner{version: "9.0.0"}, streams)
	}
	t.Cleanup(func() { newInstaller = orig })

	t.Setenv("SERVICE_EXPRESS_PACKAGE_MANAGER", "pnpm")
	_, _, code := runCLI(t, filepath.Join(t.TempDir(), "demo"))
	require.Equal(t, model.ExitSuccess, code)
	assert.Equal(t, "pnpm", gotPM)

	_, _, code = runCLI(t, filepath.Join(t.TempDir(), "demo"), "--package-manager", "yarn")
	require.Equal(t, model.ExitSuccess, code)
	assert.Equal(t, "yarn", gotPM, "flag beats environment")
}

func TestScaffold_GitInit(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	t.Setenv("GIT_AUTHOR_NAME", "Test User")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "Test User")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@example.com")

	root := filepath.Join(t.TempDir(), "demo")

	stdout, stderr, code := runCLI(t, root, "--skip-install", "--git")
	require.Equal(t, model.ExitSuccess, code, "stderr: %s", stderr)
	assert.DirExists(t, filepath.Join(root, ".git"))
	assert.FileExists(t, filepath.Join(root, ".gitignore"))
	assert.Contains(t, stdout, "Initialized a Git repository.")
	assert.NotContains(t, stdout, "initial commit failed")
}

// TestScaffold_GitCommitFailureReported verifies that a repository without
// its initial commit is not reported as fully initialized.
func TestScaffold_GitCommitFailureReported(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	t.Setenv("GIT_AUTHOR_NAME", "")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@example.com")

	root := filepath.Join(t.TempDir(), "demo")

	stdout, stderr, code := runCLI(t, root, "--skip-install", "--git", "--json")
	require.Equal(t, model.ExitSuccess, code, "stderr: %s", stderr)
	assert.DirExists(t, filepath.Join(root, ".git"))

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, true, result["gitInitialized"])
	assert.NotContains(t, result, "gitCommitted")
}

// TestScaffold_MissingConfigFile verifies that a mistyped --config path is
// reported instead of silently falling back to defaults.
func TestScaffold_MissingConfigFile(t *testing.T) {
	root := filepath.Join(t.TempDir(), "demo")
	missing := filepath.Join(t.TempDir(), "cfg.yml")

	_, stderr, code := runCLI(t, root, "--skip-install", "--config", missing)
	assert.Equal(t, model.ExitInvalidPreset, code)
	assert.Contains(t, stderr, "invalid configuration")
	assert.Contains(t, stderr, "cfg.yml")
	assert.NoDirExists(t, root)
}

// TestScaffold_CommandContextReachesInstalls verifies that cancelling the
// command context (as an interrupt does) is seen by both installs.
func TestScaffold_CommandContextReachesInstalls(t *testing.T) {
	f := &fakeRunner{version: "10.2.0"}
	useFakeInstaller(t, f)

	root := filepath.Join(t.TempDir(), "demo")
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfg, nil, 0o644))

	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(&bytes.Buffer{})
	cmd.SetArgs([]string{root, "--config", cfg})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := cmd.ExecuteContext(ctx)
	require.Error(t, err)
	assert.Equal(t, model.ExitInstallFailed, HandleError(cmd, err))

	require.Len(t, f.ctxErrs, 2)
	for _, ctxErr := range f.ctxErrs {
		assert.ErrorIs(t, ctxErr, context.Canceled)
	}
}
