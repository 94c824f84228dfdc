package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/service-express/internal/model"
)

// defaultDependencies are installed with --save --save-exact.
var defaultDependencies = []string{
	"express",
	"dayjs",
	"dotenv",
	"cors",
	"lodash",
}

// defaultDevDependencies are installed with --save-dev.
var defaultDevDependencies = []string{
	"typescript",
	"tsconfig-paths",
	"ts-node",
	"nodemon",
	"@types/express",
	"@types/lodash",
}

// Default returns the built-in dependency set. The slices are fresh copies.
func Default() model.DependencySet {
	return model.DependencySet{
		Dependencies:    append([]string(nil), defaultDependencies...),
		DevDependencies: append([]string(nil), defaultDevDependencies...),
	}
}

// Load reads and validates a preset file. The format is chosen by extension.
// Validation failures are returned as *InvalidPresetError.
func Load(path string) (model.DependencySet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.DependencySet{}, fmt.Errorf("failed to read preset %s: %w", path, err)
	}

	doc, err := decode(path, data)
	if err != nil {
		return model.DependencySet{}, err
	}

	result, err := Validate(doc)
	if err != nil {
		return model.DependencySet{}, err
	}
	if !result.Valid {
		return model.DependencySet{}, &InvalidPresetError{Path: path, Issues: result.Issues}
	}

	// The schema guarantees the shape, so a JSON round trip into the typed
	// struct cannot lose information.
	raw, err := json.Marshal(doc)
	if err != nil {
		return model.DependencySet{}, fmt.Errorf("failed to normalize preset %s: %w", path, err)
	}
	var set model.DependencySet
	if err := json.Unmarshal(raw, &set); err != nil {
		return model.DependencySet{}, fmt.Errorf("failed to decode preset %s: %w", path, err)
	}
	return set, nil
}

// decode parses a preset file into a generic, JSON-compatible document.
func decode(path string, data []byte) (interface{}, error) {
	var doc interface{}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML preset %s: %w", path, err)
		}
		doc = normalizeYAML(doc)
	case ".json", ".jsonc":
		// Presets are hand-edited, so comments and trailing commas are
		// accepted the same way editors accept them in tsconfig.json.
		if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON preset %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported preset format %q (supported: .yaml, .yml, .json, .jsonc)", ext)
	}

	// An empty YAML document decodes to nil; treat it as an empty object so
	// it validates as "no overrides".
	if doc == nil {
		doc = map[string]interface{}{}
	}
	return doc, nil
}

// normalizeYAML converts yaml.v3 output into types encoding/json and the
// schema validator both understand.
func normalizeYAML(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, v := range val {
			m[k] = normalizeYAML(v)
		}
		return m
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, v := range val {
			m[fmt.Sprint(k)] = normalizeYAML(v)
		}
		return m
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, v := range val {
			out[i] = normalizeYAML(v)
		}
		return out
	default:
		return v
	}
}
