// Package schema checks JSON response bodies against a JSON schema.
package schema

import (
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
)

type Validator struct {
	schema *gojsonschema.Schema
}

// Load compiles the schema stored at path.
func Load(path string) (*Validator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	return New(data)
}

// New compiles a schema from its JSON source.
func New(data []byte) (*Validator, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return &Validator{schema: s}, nil
}

// Validate returns one message per violation; an empty slice means body
// conforms. The error is set when body is not JSON at all.
func (v *Validator) Validate(body []byte) ([]string, error) {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("schema validation error: %w", err)
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		violations = append(violations, e.String())
	}
	return violations, nil
}
