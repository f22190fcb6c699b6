// Package decode converts between loosely typed maps and tagged structs
// through their JSON encoding.
package decode

import (
	"encoding/json"
	"fmt"
)

// FromMap decodes data into T using T's json tags.
func FromMap[T any](data map[string]any) (T, error) {
	var result T
	b, err := json.Marshal(data)
	if err != nil {
		return result, fmt.Errorf("encode map: %w", err)
	}
	if err := json.Unmarshal(b, &result); err != nil {
		return result, fmt.Errorf("decode %T: %w", result, err)
	}
	return result, nil
}

// ToMap encodes v and decodes the result as a JSON object.
func ToMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode map: %w", err)
	}
	return m, nil
}
