package schema

import "fmt"

// DuplicateResourceTypeError is returned when a resource type name is
// registered twice.
type DuplicateResourceTypeError struct {
	Name string
}

func (e *DuplicateResourceTypeError) Error() string {
	return fmt.Sprintf("resource type %q already registered", e.Name)
}

// UnknownResourceTypeError is returned when a lookup names a resource type
// that was never registered.
type UnknownResourceTypeError struct {
	Name string
}

func (e *UnknownResourceTypeError) Error() string {
	return fmt.Sprintf("resource type %q not registered", e.Name)
}
