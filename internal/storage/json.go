package storage

import "encoding/json"

// jsonValue lets raw documents round-trip through the file datastore,
// which marshals its whole map on save.
func jsonValue(raw []byte) json.RawMessage {
	return json.RawMessage(append([]byte(nil), raw...))
}

func toJSON(v any) ([]byte, error) {
	if raw, ok := v.(json.RawMessage); ok {
		return append([]byte(nil), raw...), nil
	}
	return json.Marshal(v)
}
