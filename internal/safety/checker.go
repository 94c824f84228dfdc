package safety

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shinji-kodama/service-express/internal/logging"
	"github.com/shinji-kodama/service-express/internal/model"
)

// allowedNames are entries that may coexist with a fresh scaffold.
// Matching is exact and case-sensitive.
var allowedNames = map[string]bool{
	".DS_Store":      true,
	".git":           true,
	".gitattributes": true,
	".gitignore":     true,
	".gitlab-ci.yml": true,
	".hg":            true,
	".hgcheck":       true,
	".hgignore":      true,
	".idea":          true,
	".npmignore":     true,
	".travis.yml":    true,
	"docs":           true,
	"LICENSE":        true,
	"README.md":      true,
	"mkdocs.yml":     true,
	"Thumbs.db":      true,
}

// ideModuleSuffix matches IntelliJ module files (<project>.iml).
const ideModuleSuffix = ".iml"

// errorLogPrefixes identify stale installer logs. Installers append
// suffixes such as ".1234567890" to these names, hence prefix matching.
var errorLogPrefixes = []string{
	"npm-debug.log",
	"yarn-error.log",
	"yarn-debug.log",
}

// IsAllowed reports whether an entry name may coexist with a scaffold
// without being reported as a conflict or cleaned up.
func IsAllowed(name string) bool {
	return allowedNames[name] || strings.HasSuffix(name, ideModuleSuffix)
}

// IsStaleErrorLog reports whether name looks like a leftover installer log.
func IsStaleErrorLog(name string) bool {
	for _, prefix := range errorLogPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// Checker inspects target directories before scaffolding.
//
// The zero value is not usable; call NewChecker. The remove field exists so
// tests can simulate deletion failures.
type Checker struct {
	remove func(path string) error
}

// NewChecker creates a Checker that deletes stale logs with os.RemoveAll.
func NewChecker() *Checker {
	return &Checker{remove: os.RemoveAll}
}

// Check decides whether scaffolding may proceed in dir. displayName is only
// used for log context.
//
// Check never fails: problems listing the directory surface as a conflict,
// and stat failures on individual entries downgrade them to EntryUnknown.
// Stale logs are removed only when the verdict is safe.
func (c *Checker) Check(dir, displayName string) model.Verdict {
	logger := logging.For("safety").With().Str("project", displayName).Str("dir", dir).Logger()

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn().Err(err).Msg("Could not list target directory")
		return model.Verdict{
			Conflicts: []model.Conflict{{Name: ".", Kind: model.EntryUnknown}},
		}
	}

	var conflicts []model.Conflict
	var staleLogs []string

	for _, entry := range entries {
		name := entry.Name()

		switch {
		case IsAllowed(name):
			continue
		case IsStaleErrorLog(name):
			staleLogs = append(staleLogs, name)
		default:
			conflicts = append(conflicts, model.Conflict{
				Name: name,
				Kind: classify(filepath.Join(dir, name)),
			})
		}
	}

	if len(conflicts) > 0 {
		sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].Name < conflicts[j].Name })
		logger.Debug().Int("conflicts", len(conflicts)).Msg("Target directory is not safe")
		return model.Verdict{Conflicts: conflicts}
	}

	verdict := model.Verdict{Safe: true}
	for _, name := range staleLogs {
		path := filepath.Join(dir, name)
		if err := c.remove(path); err != nil {
			logger.Warn().Err(err).Str("file", name).Msg("Failed to remove stale installer log")
			verdict.CleanupFailures = append(verdict.CleanupFailures, name)
			continue
		}
		logger.Debug().Str("file", name).Msg("Removed stale installer log")
		verdict.Removed = append(verdict.Removed, name)
	}
	return verdict
}

// classify stats path (following symlinks) to tell directories from files.
// A dangling symlink or permission problem yields EntryUnknown.
func classify(path string) model.EntryKind {
	info, err := os.Stat(path)
	if err != nil {
		return model.EntryUnknown
	}
	if info.IsDir() {
		return model.EntryDir
	}
	return model.EntryFile
}
