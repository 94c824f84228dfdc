package preset

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/preset.schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
	printer        = message.NewPrinter(language.English)
)

// ValidationResult contains the outcome of a schema validation.
type ValidationResult struct {
	Valid  bool
	Issues []ValidationIssue
}

// ValidationIssue represents a single schema violation.
type ValidationIssue struct {
	Path    string // Instance location, e.g. "/devDependencies/2"
	Message string
	Keyword string
}

// String formats the issue as "path: message".
func (i ValidationIssue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// InvalidPresetError is returned by Load when a preset fails validation.
type InvalidPresetError struct {
	Path   string
	Issues []ValidationIssue
}

func (e *InvalidPresetError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.String())
	}
	return fmt.Sprintf("preset %s is invalid: %s", e.Path, strings.Join(parts, "; "))
}

// getSchema compiles the embedded schema once.
func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource("preset.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("preset.schema.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compiling schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// Validate checks a decoded preset document against the preset schema.
// The error return is reserved for schema or encoding failures; violations
// are reported through the result.
func Validate(doc interface{}) (*ValidationResult, error) {
	schema, err := getSchema()
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	// Round-trip through JSON so numbers arrive as json.Number, which is
	// what the validator expects.
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("converting to JSON: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("preparing JSON for validation: %w", err)
	}

	err = schema.Validate(inst)
	if err == nil {
		return &ValidationResult{Valid: true}, nil
	}

	validationErr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return nil, fmt.Errorf("unexpected validation error type: %w", err)
	}
	return &ValidationResult{Valid: false, Issues: extractIssues(validationErr)}, nil
}

// extractIssues flattens the validation error tree into leaf issues.
func extractIssues(ve *jsonschema.ValidationError) []ValidationIssue {
	var issues []ValidationIssue
	collectIssues(ve, &issues)
	if len(issues) == 0 {
		return []ValidationIssue{{Message: ve.Error()}}
	}
	return issues
}

func collectIssues(ve *jsonschema.ValidationError, issues *[]ValidationIssue) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			collectIssues(cause, issues)
		}
		return
	}

	path := ""
	if len(ve.InstanceLocation) > 0 {
		path = "/" + strings.Join(ve.InstanceLocation, "/")
	}

	keyword, msg := "", ""
	if ve.ErrorKind != nil {
		if kwPath := ve.ErrorKind.KeywordPath(); len(kwPath) > 0 {
			keyword = kwPath[len(kwPath)-1]
		}
		msg = ve.ErrorKind.LocalizedString(printer)
	}
	if keyword == "$ref" || keyword == "" {
		return
	}

	*issues = append(*issues, ValidationIssue{Path: path, Message: msg, Keyword: keyword})
}
