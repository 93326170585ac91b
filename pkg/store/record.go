package store

import "encoding/json"

// normalizeRecord deep-copies a record through the JSON codec. The round trip
// decouples stored state from caller-held maps and canonicalizes value types
// (numbers become float64, nested values become map[string]any / []any),
// matching what the wire layer and the schema validator operate on.
func normalizeRecord(record map[string]any) (map[string]any, error) {
	if record == nil {
		return map[string]any{}, nil
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// cloneRecord copies a record that is already in canonical JSON shape.
func cloneRecord(record map[string]any) map[string]any {
	out, err := normalizeRecord(record)
	if err != nil {
		return map[string]any{}
	}
	return out
}

// stringField reads a string-typed field from a record, tolerating absence.
func stringField(record map[string]any, field string) string {
	if record == nil {
		return ""
	}
	if v, ok := record[field].(string); ok {
		return v
	}
	return ""
}
