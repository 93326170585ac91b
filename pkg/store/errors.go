package store

import (
	"fmt"
	"net/http"
)

// NotFoundError is returned when a resource type or record is not found.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("resource %q record %q not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("resource %q not found", e.Resource)
}

// StatusCode returns the HTTP status code for this error.
func (e *NotFoundError) StatusCode() int {
	return http.StatusNotFound
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *NotFoundError) Hint() string {
	if e.ID != "" {
		return fmt.Sprintf("Check that record %q exists in resource %q.", e.ID, e.Resource)
	}
	return fmt.Sprintf("Resource %q is not registered. Check the loaded specification.", e.Resource)
}

// ConflictError is returned when a record with the same ID already exists.
type ConflictError struct {
	Resource string
	ID       string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("resource %q record %q already exists", e.Resource, e.ID)
}

// StatusCode returns the HTTP status code for this error.
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *ConflictError) Hint() string {
	return fmt.Sprintf("Record %q already exists. Omit the ID to have one assigned, or use PATCH to modify it.", e.ID)
}

// ValidationError is returned when a record fails structural validation.
type ValidationError struct {
	Resource string
	Field    string
	Message  string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid record for %q: field %q: %s", e.Resource, e.Field, e.Message)
	}
	return fmt.Sprintf("invalid record for %q: %s", e.Resource, e.Message)
}

// StatusCode returns the HTTP status code for this error.
func (e *ValidationError) StatusCode() int {
	return http.StatusBadRequest
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *ValidationError) Hint() string {
	if e.Field != "" {
		return fmt.Sprintf("Check the value of field %q against the declared schema.", e.Field)
	}
	return "Check the request body against the declared fields for this resource."
}

// StatusCodeError is implemented by errors that map to an HTTP status code.
type StatusCodeError interface {
	error
	StatusCode() int
}

// HintError is implemented by errors that carry a resolution hint.
type HintError interface {
	error
	Hint() string
}
