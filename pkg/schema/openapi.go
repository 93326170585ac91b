package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// LoadSpec loads an OpenAPI document from a file (JSON or YAML).
func LoadSpec(path string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI spec from file: %w", err)
	}
	return doc, nil
}

// LoadSpecFromData loads an OpenAPI document from raw bytes.
func LoadSpecFromData(data []byte) (*openapi3.T, error) {
	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI spec: %w", err)
	}
	return doc, nil
}

// FromOpenAPI derives resource types from an OpenAPI document.
//
// Every collection path (no path parameters) carrying a GET or POST
// operation becomes one resource type named after its last path segment.
// The field set comes from the POST request body schema when present,
// otherwise from the GET 200 response schema (unwrapping arrays). Paths for
// the event hub, notification listeners, and health checks are skipped; they
// are part of the engine itself, not of any resource type.
//
// The returned slice is ordered by path for deterministic registration.
func FromOpenAPI(doc *openapi3.T) ([]*ResourceType, error) {
	if doc == nil || doc.Paths == nil {
		return nil, fmt.Errorf("OpenAPI document has no paths")
	}

	paths := make([]string, 0, doc.Paths.Len())
	for path := range doc.Paths.Map() {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var types []*ResourceType
	seen := make(map[string]bool)

	for _, path := range paths {
		if strings.Contains(path, "{") {
			continue
		}
		name := lastSegment(path)
		if name == "" || name == "hub" || name == "health" || name == "schema" ||
			strings.HasPrefix(path, "/listener") {
			continue
		}
		item := doc.Paths.Map()[path]
		if item == nil || (item.Get == nil && item.Post == nil) {
			continue
		}
		if seen[name] {
			continue
		}

		rt := &ResourceType{
			Name:     name,
			BasePath: path,
			IDField:  "id",
		}
		if s := operationSchema(item); s != nil {
			rt.Fields = fieldsFromSchema(s)
			rt.Required = append([]string(nil), s.Required...)
		}

		seen[name] = true
		types = append(types, rt)
	}

	if len(types) == 0 {
		return nil, fmt.Errorf("no resource types derivable from OpenAPI document")
	}
	return types, nil
}

// operationSchema picks the schema describing the resource's record shape.
func operationSchema(item *openapi3.PathItem) *openapi3.Schema {
	if item.Post != nil && item.Post.RequestBody != nil && item.Post.RequestBody.Value != nil {
		if mt := item.Post.RequestBody.Value.Content.Get("application/json"); mt != nil {
			if s := resolveSchema(mt.Schema); s != nil {
				return s
			}
		}
	}
	if item.Get != nil && item.Get.Responses != nil {
		if ref := item.Get.Responses.Status(200); ref != nil && ref.Value != nil {
			if mt := ref.Value.Content.Get("application/json"); mt != nil {
				s := resolveSchema(mt.Schema)
				// Collection GETs return arrays; the record shape is the item schema.
				if s != nil && s.Type.Is("array") {
					s = resolveSchema(s.Items)
				}
				if s != nil {
					return s
				}
			}
		}
	}
	return nil
}

func resolveSchema(ref *openapi3.SchemaRef) *openapi3.Schema {
	if ref == nil {
		return nil
	}
	return ref.Value
}

// fieldsFromSchema maps OpenAPI property types onto the closed FieldKind set.
func fieldsFromSchema(s *openapi3.Schema) map[string]FieldKind {
	if len(s.Properties) == 0 {
		return nil
	}
	fields := make(map[string]FieldKind, len(s.Properties))
	for name, ref := range s.Properties {
		fields[name] = kindFromSchema(resolveSchema(ref))
	}
	return fields
}

func kindFromSchema(s *openapi3.Schema) FieldKind {
	if s == nil || s.Type == nil {
		return KindObject
	}
	switch {
	case s.Type.Is("string"):
		return KindString
	case s.Type.Is("number"), s.Type.Is("integer"):
		return KindNumber
	case s.Type.Is("boolean"):
		return KindBoolean
	case s.Type.Is("array"):
		return KindList
	default:
		return KindObject
	}
}

func lastSegment(path string) string {
	path = strings.TrimSuffix(path, "/")
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}
