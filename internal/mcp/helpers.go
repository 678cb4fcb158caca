package mcpserver

import (
	"encoding/json"
	"fmt"

	"docedit/internal/domain"
)

// parseJSON parses a JSON string into the target type.
func parseJSON(data string, target any) error {
	return json.Unmarshal([]byte(data), target)
}

// requiredString reads a non-empty string argument.
func requiredString(args map[string]any, name string) (string, error) {
	v, _ := args[name].(string)
	if v == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return v, nil
}

// requiredNumber reads a numeric argument.
func requiredNumber(args map[string]any, name string) (float64, error) {
	v, ok := args[name].(float64)
	if !ok {
		return 0, fmt.Errorf("%s is required", name)
	}
	return v, nil
}

// optionalNumber returns the numeric argument or def.
func optionalNumber(args map[string]any, name string, def float64) float64 {
	if v, ok := args[name].(float64); ok {
		return v
	}
	return def
}

// parseKind maps a shape type name (Rect, Circle, Line, Text) to its Kind.
func parseKind(name string) (domain.Kind, error) {
	for _, k := range domain.Kinds {
		if string(k) == name {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown shape type %q (expected Rect, Circle, Line or Text)", name)
}
