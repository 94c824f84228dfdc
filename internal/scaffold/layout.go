package scaffold

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shinji-kodama/service-express/internal/logging"
	"github.com/shinji-kodama/service-express/internal/model"
)

const (
	// ManifestFile is the package manifest written at the project root.
	ManifestFile = "package.json"

	// EnvFile is the empty environment file written at the project root.
	EnvFile = ".env"

	// SourceDir holds the service skeleton.
	SourceDir = "src"

	// initialVersion is the version written into every new manifest.
	initialVersion = "1.0.0"
)

// sourceEntries is the src/ skeleton in creation order. Names ending in
// ".ts" become empty files; all others become directories.
var sourceEntries = []string{
	"modules",
	"models",
	"configs",
	"middleware",
	"routes.ts",
	"server.ts",
}

// SourceEntries returns a copy of the src/ skeleton entry names.
func SourceEntries() []string {
	return append([]string(nil), sourceEntries...)
}

// Manifest is the package.json written for a new project. Field order here
// is the key order in the written file.
type Manifest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Private bool   `json:"private"`
}

// NewManifest returns the initial manifest for a project name.
func NewManifest(name string) Manifest {
	return Manifest{Name: name, Version: initialVersion, Private: true}
}

// Marshal renders the manifest with two-space indentation and a trailing
// newline, matching what npm itself writes.
func (m Manifest) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", ManifestFile, err)
	}
	return append(data, '\n'), nil
}

// WriteManifest writes package.json for name into root.
func WriteManifest(root, name string) error {
	data, err := NewManifest(name).Marshal()
	if err != nil {
		return err
	}
	path := filepath.Join(root, ManifestFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// WriteEnvFile creates an empty .env in root.
func WriteEnvFile(root string) error {
	path := filepath.Join(root, EnvFile)
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// CreateLayout creates src/ and its skeleton entries under root. It returns
// the created paths relative to root, in creation order.
func CreateLayout(root string) ([]string, error) {
	src := filepath.Join(root, SourceDir)
	if err := os.MkdirAll(src, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", src, err)
	}

	created := make([]string, 0, len(sourceEntries))
	for _, entry := range sourceEntries {
		path := filepath.Join(src, entry)
		if isSourceFile(entry) {
			if err := os.WriteFile(path, nil, 0o644); err != nil {
				return created, fmt.Errorf("failed to write %s: %w", path, err)
			}
		} else {
			if err := os.MkdirAll(path, 0o755); err != nil {
				return created, fmt.Errorf("failed to create directory %s: %w", path, err)
			}
		}
		created = append(created, filepath.Join(SourceDir, entry))
	}
	return created, nil
}

// Create writes the complete scaffold for project and returns every created
// path relative to the project root.
func Create(project model.Project) ([]string, error) {
	logger := logging.For("scaffold").With().Str("root", project.Root).Logger()

	if err := WriteManifest(project.Root, project.Name); err != nil {
		return nil, err
	}
	created := []string{ManifestFile}
	logger.Debug().Str("file", ManifestFile).Msg("Wrote manifest")

	if err := WriteEnvFile(project.Root); err != nil {
		return created, err
	}
	created = append(created, EnvFile)

	layout, err := CreateLayout(project.Root)
	created = append(created, layout...)
	if err != nil {
		return created, err
	}
	logger.Debug().Int("entries", len(created)).Msg("Scaffold written")
	return created, nil
}

func isSourceFile(entry string) bool {
	return strings.HasSuffix(entry, ".ts")
}
