package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// RecordValidator checks records against a resource type's declared field
// set. Validation is structural only: field presence and semantic kind.
// Open types validate everything successfully.
type RecordValidator struct {
	rt     *ResourceType
	schema *jsonschema.Schema
}

// NewRecordValidator compiles a validator for the given resource type.
func NewRecordValidator(rt *ResourceType) (*RecordValidator, error) {
	v := &RecordValidator{rt: rt}
	if rt.Open() {
		return v, nil
	}

	compiled, err := compileRecordSchema(rt)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema for resource type %q: %w", rt.Name, err)
	}
	v.schema = compiled
	return v, nil
}

// Validate checks one full record. Unknown fields are rejected; required
// fields must be present; declared fields must carry the declared kind.
func (v *RecordValidator) Validate(record map[string]any) error {
	if v.schema == nil {
		return nil
	}
	if record == nil {
		record = map[string]any{}
	}

	err := v.schema.Validate(map[string]any(record))
	if err == nil {
		return nil
	}
	if ve, ok := err.(*jsonschema.ValidationError); ok {
		return fmt.Errorf("%s", leafMessage(ve))
	}
	return err
}

// compileRecordSchema renders the declared field set as a JSON Schema
// document and compiles it. Resolving kinds here, once per type, keeps the
// per-operation validation path free of reflection.
func compileRecordSchema(rt *ResourceType) (*jsonschema.Schema, error) {
	props := make(map[string]any, len(rt.Fields))
	for name, kind := range rt.Fields {
		props[name] = map[string]any{"type": jsonType(kind)}
	}

	doc := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(rt.Required) > 0 {
		doc["required"] = rt.Required
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("record.json", strings.NewReader(string(data))); err != nil {
		return nil, err
	}
	return compiler.Compile("record.json")
}

func jsonType(kind FieldKind) string {
	switch kind {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindList:
		return "array"
	default:
		return "object"
	}
}

// leafMessage walks a validation error to its most specific cause and
// renders it with the offending field name.
func leafMessage(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	field := strings.TrimPrefix(ve.InstanceLocation, "/")
	field = strings.ReplaceAll(field, "/", ".")
	if field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field %q: %s", field, ve.Message)
}
