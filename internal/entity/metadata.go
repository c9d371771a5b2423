package entity

import (
	"encoding/json"
	"fmt"
)

// Metadata is free-form message metadata. Values are restricted to what a
// JSON document can carry: string, number, boolean, null, nested objects
// and arrays.
type Metadata map[string]interface{}

func (m Metadata) Validate() error {
	for key, value := range m {
		if err := validateMetadataValue(value); err != nil {
			return fmt.Errorf("metadata %q: %w", key, err)
		}
	}
	return nil
}

// Sanitize returns a copy without the top-level keys whose values fail Validate.
func (m Metadata) Sanitize() Metadata {
	out := make(Metadata, len(m))
	for key, value := range m {
		if validateMetadataValue(value) == nil {
			out[key] = value
		}
	}
	return out
}

func validateMetadataValue(value interface{}) error {
	switch v := value.(type) {
	case nil, string, bool, json.Number,
		float32, float64,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return nil
	case map[string]interface{}:
		return Metadata(v).Validate()
	case Metadata:
		return v.Validate()
	case []interface{}:
		for i, item := range v {
			if err := validateMetadataValue(item); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		return nil
	case []string:
		return nil
	default:
		return fmt.Errorf("unsupported value type %T", value)
	}
}
