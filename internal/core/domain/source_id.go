package domain

import (
	"encoding/json"
)

// MetadataSourceID returns a rule that reads the source id from a metadata key.
//
// String values are used verbatim, JSON null or a missing key yields no
// source id, and any other value is JSON encoded.
func MetadataSourceID(key string) SourceIDFunc {
	return func(doc Document) (string, bool) {
		v, ok := doc.Metadata[key]
		if !ok || v == nil {
			return "", false
		}
		if s, ok := v.(string); ok {
			return s, true
		}
		b, err := json.Marshal(v)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}
