package display

import (
	"encoding/json"
)

// MarshalJSON marshals a value with indented formatting for terminal output
func MarshalJSON(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
