package git

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/shinji-kodama/service-express/internal/logging"
)

// InitialCommitMessage is used for the first commit of a new project.
const InitialCommitMessage = "Initialize project using service-express"

// gitignoreContent keeps installed packages and local secrets out of the
// initial commit.
const gitignoreContent = "node_modules/\n.env\nnpm-debug.log*\nyarn-debug.log*\nyarn-error.log*\n"

// ErrGitNotFound is returned when git is not on PATH.
var ErrGitNotFound = errors.New("git executable not found")

// Manager runs git commands. It is stateless; the struct leaves room for a
// custom git binary path.
type Manager struct {
	bin string
}

// NewManager creates a Manager that uses "git" from PATH.
func NewManager() *Manager {
	return &Manager{bin: "git"}
}

// Available reports whether the git executable can be found.
func (m *Manager) Available() bool {
	_, err := exec.LookPath(m.bin)
	return err == nil
}

// IsInsideWorkTree reports whether path already belongs to a Git work tree,
// in which case a nested repository must not be created.
func (m *Manager) IsInsideWorkTree(path string) bool {
	out, err := m.run(path, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

// InitResult describes what InitRepository did.
type InitResult struct {
	// Skipped is true when path was already inside a work tree.
	Skipped bool

	// Committed is false when the repository was created but the initial
	// commit failed (typically a missing user.name/user.email).
	Committed bool
}

// InitRepository runs "git init" in path, writes a .gitignore if none
// exists, and commits everything.
//
// If the commit fails the repository is kept; only a failed init removes
// the .git directory again so the project is left as it was.
func (m *Manager) InitRepository(path string) (InitResult, error) {
	logger := logging.For("git").With().Str("path", path).Logger()

	if !m.Available() {
		return InitResult{}, ErrGitNotFound
	}
	if m.IsInsideWorkTree(path) {
		logger.Debug().Msg("Already inside a Git work tree, skipping init")
		return InitResult{Skipped: true}, nil
	}

	if _, err := m.run(path, "init"); err != nil {
		_ = os.RemoveAll(filepath.Join(path, ".git"))
		return InitResult{}, err
	}

	if err := writeGitignore(path); err != nil {
		return InitResult{}, err
	}

	if _, err := m.run(path, "add", "-A"); err != nil {
		logger.Warn().Err(err).Msg("Git repository created but staging failed")
		return InitResult{}, nil
	}
	if _, err := m.run(path, "commit", "-m", InitialCommitMessage); err != nil {
		logger.Warn().Err(err).Msg("Git repository created but the initial commit failed")
		return InitResult{}, nil
	}

	logger.Debug().Msg("Initialized Git repository")
	return InitResult{Committed: true}, nil
}

// writeGitignore creates .gitignore unless one already exists.
func writeGitignore(path string) error {
	p := filepath.Join(path, ".gitignore")
	if _, err := os.Stat(p); err == nil {
		return nil
	}
	if err := os.WriteFile(p, []byte(gitignoreContent), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	return nil
}

// run executes git with args in dir and returns stdout. Failures include
// git's stderr in the error message.
func (m *Manager) run(dir string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", dir}, args...)
	logging.LogCommand(dir, m.bin, fullArgs)

	// #nosec G204 -- args are constructed internally
	cmd := exec.Command(m.bin, fullArgs...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		message := fmt.Sprintf("git %s failed", strings.Join(args, " "))
		if s := strings.TrimSpace(stderr.String()); s != "" {
			message = fmt.Sprintf("%s: %s", message, s)
		}
		return "", fmt.Errorf("%s: %w", message, err)
	}
	return stdout.String(), nil
}
