// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Summary joins the errors into one line, "field: message; ...".
func (r *ValidationResult) Summary() string {
	parts := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		parts[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return strings.Join(parts, "; ")
}

// ValidateInput validates input against a JSON schema given as a Go value
// (typically an activity's InputSchema). A nil schema accepts anything.
func ValidateInput(input map[string]interface{}, schema map[string]interface{}) (*ValidationResult, error) {
	if schema == nil {
		return &ValidationResult{Valid: true}, nil
	}
	if input == nil {
		input = map[string]interface{}{}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(input))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "(root)" {
			if p, ok := desc.Details()["property"].(string); ok {
				field = p
			}
		}
		out.Errors = append(out.Errors, ValidationError{
			Field:   field,
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out, nil
}

// Schema is a small builder for the flat object schemas activities declare.
type Schema struct {
	properties map[string]interface{}
	required   []string
}

func Object() *Schema {
	return &Schema{properties: map[string]interface{}{}}
}

// Number adds a numeric property; nil bounds are omitted.
func (s *Schema) Number(name string, min, max *float64, required bool) *Schema {
	prop := map[string]interface{}{"type": "number"}
	if min != nil {
		prop["minimum"] = *min
	}
	if max != nil {
		prop["maximum"] = *max
	}
	return s.add(name, prop, required)
}

// Integer adds an integer property with an inclusive lower bound.
func (s *Schema) Integer(name string, min int, required bool) *Schema {
	return s.add(name, map[string]interface{}{"type": "integer", "minimum": min}, required)
}

// Enum adds a string property restricted to values.
func (s *Schema) Enum(name string, values []string, required bool) *Schema {
	enum := make([]interface{}, len(values))
	for i, v := range values {
		enum[i] = v
	}
	return s.add(name, map[string]interface{}{"type": "string", "enum": enum}, required)
}

func (s *Schema) add(name string, prop map[string]interface{}, required bool) *Schema {
	s.properties[name] = prop
	if required {
		s.required = append(s.required, name)
	}
	return s
}

// Build returns the schema as a map ready for gojsonschema or JSON encoding.
func (s *Schema) Build() map[string]interface{} {
	out := map[string]interface{}{
		"type":       "object",
		"properties": s.properties,
	}
	if len(s.required) > 0 {
		req := make([]interface{}, len(s.required))
		for i, r := range s.required {
			req[i] = r
		}
		out["required"] = req
	}
	return out
}

// Float returns a pointer to v, for schema bounds.
func Float(v float64) *float64 { return &v }
