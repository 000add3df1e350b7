// internal/common/validation/decode.go
package validation

import (
	"encoding/json"
	"fmt"
)

// Decode copies validated variables into out, a pointer to a struct with
// json tags. Unknown variables are ignored.
func Decode(variables map[string]interface{}, out interface{}) error {
	raw, err := json.Marshal(variables)
	if err != nil {
		return fmt.Errorf("encode variables: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode variables: %w", err)
	}
	return nil
}

// ValidateAndDecode validates variables against schema and decodes them into
// out. A schema violation is returned as *ValidationResult with Valid false
// and a nil error.
func ValidateAndDecode(variables map[string]interface{}, schema map[string]interface{}, out interface{}) (*ValidationResult, error) {
	result, err := ValidateInput(variables, schema)
	if err != nil || !result.Valid {
		return result, err
	}
	return result, Decode(variables, out)
}
