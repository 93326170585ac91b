package schema

import (
	"errors"
	"strings"
)

// Registry is the resource type catalog. Registration happens once at
// startup, before any traffic is served; after that the registry is
// read-only and safe for unsynchronized concurrent reads.
type Registry struct {
	types map[string]*ResourceType
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types: make(map[string]*ResourceType),
	}
}

// Register adds a resource type to the catalog. The type is normalized in
// place: IDField defaults to "id", BasePath to "/"+Name, and for non-open
// types the identifier field is added to the declared field set if absent.
func (r *Registry) Register(rt *ResourceType) error {
	if rt == nil {
		return errors.New("resource type cannot be nil")
	}
	if rt.Name == "" {
		return errors.New("resource type name cannot be empty")
	}
	if _, exists := r.types[rt.Name]; exists {
		return &DuplicateResourceTypeError{Name: rt.Name}
	}

	if rt.IDField == "" {
		rt.IDField = "id"
	}
	if rt.BasePath == "" {
		rt.BasePath = "/" + rt.Name
	}
	if !strings.HasPrefix(rt.BasePath, "/") {
		return errors.New("resource type basePath must start with /")
	}
	if !rt.Open() {
		if _, ok := rt.Fields[rt.IDField]; !ok {
			rt.Fields[rt.IDField] = KindString
		}
	}

	r.types[rt.Name] = rt
	r.order = append(r.order, rt.Name)
	return nil
}

// Lookup returns the resource type with the given name.
func (r *Registry) Lookup(name string) (*ResourceType, error) {
	rt, ok := r.types[name]
	if !ok {
		return nil, &UnknownResourceTypeError{Name: name}
	}
	return rt, nil
}

// Names returns all registered type names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len returns the number of registered resource types.
func (r *Registry) Len() int {
	return len(r.types)
}
