// Package schema holds the resource type catalog driving the mock engine.
//
// A ResourceType describes one kind of record (name, identifier field,
// declared fields with semantic kinds). The catalog is built once at startup,
// either from an OpenAPI document or from inline configuration, and is
// immutable afterwards.
package schema

// FieldKind is the semantic kind of a declared field.
// The set is closed: every field resolves to one of these kinds at
// registration time, so no reflection is needed at validation time.
type FieldKind string

// Field kinds.
const (
	KindString  FieldKind = "string"
	KindNumber  FieldKind = "number"
	KindBoolean FieldKind = "boolean"
	KindObject  FieldKind = "object"
	KindList    FieldKind = "list"
)

// ParseFieldKind parses a field kind string. The OpenAPI spellings
// "integer" and "array" are accepted as aliases.
func ParseFieldKind(s string) (FieldKind, bool) {
	switch s {
	case "string":
		return KindString, true
	case "number", "integer":
		return KindNumber, true
	case "boolean":
		return KindBoolean, true
	case "object":
		return KindObject, true
	case "list", "array":
		return KindList, true
	}
	return "", false
}

// ResourceType describes a named kind of record with a fixed field schema.
// Immutable once registered.
type ResourceType struct {
	// Name is the unique resource type name (e.g. "productOffering").
	Name string

	// BasePath is the URL path prefix for the resource's CRUD surface
	// (e.g. "/tmf-api/productCatalogManagement/v4/productOffering").
	// Defaults to "/" + Name.
	BasePath string

	// IDField is the field holding the record identifier. Defaults to "id".
	IDField string

	// Fields maps declared field names to their semantic kinds.
	// An empty map means the type is open: records carry arbitrary fields
	// and no structural validation is applied.
	Fields map[string]FieldKind

	// Required lists fields that must be present on every record.
	Required []string

	// SeedData is the initial record set loaded on startup and on reset.
	SeedData []map[string]any
}

// Open reports whether the type is schema-less (no declared fields).
func (rt *ResourceType) Open() bool {
	return len(rt.Fields) == 0
}

// HasField reports whether the type declares the named field.
// Open types report true for every field.
func (rt *ResourceType) HasField(name string) bool {
	if rt.Open() {
		return true
	}
	_, ok := rt.Fields[name]
	return ok
}
