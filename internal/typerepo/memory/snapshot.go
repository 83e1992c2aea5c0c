package memory

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed universe.schema.json
var universeSchema string

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

type snapshot struct {
	Types []Entry `yaml:"types"`
}

// Load reads a YAML snapshot of a type universe from path.
func Load(path string) (*Universe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}
	u, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	return u, nil
}

// Parse validates a YAML snapshot against the universe schema and builds a
// Universe from it.
func Parse(data []byte) (*Universe, error) {
	if err := validate(data); err != nil {
		return nil, err
	}

	var snap snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	u := New()
	for _, e := range snap.Types {
		entry := u.Add(e.Type, e.References...)
		entry.Supertypes = append(entry.Supertypes, e.Supertypes...)
	}
	return u, nil
}

// SchemaValidationError lists every schema violation of a snapshot.
type SchemaValidationError struct {
	Errors []string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("invalid snapshot: %d schema error(s): %v", len(e.Errors), e.Errors)
}

func validate(data []byte) error {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(universeSchema))
	})
	if schemaErr != nil {
		return fmt.Errorf("failed to compile snapshot schema: %w", schemaErr)
	}

	// The schema works on JSON values, so round-trip the YAML document.
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse snapshot: %w", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("snapshot is not representable as JSON: %w", err)
	}

	result, err := compiledSchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("failed to validate snapshot: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, validationErr := range result.Errors() {
			errs[i] = validationErr.String()
		}
		return &SchemaValidationError{Errors: errs}
	}
	return nil
}
