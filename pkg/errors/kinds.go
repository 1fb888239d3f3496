package errors

import (
	"fmt"
	"strings"
)

// ConfigurationError is a field-level validation failure or a malformed
// condition. Field holds the offending field or key; several fields are
// joined with "/".
type ConfigurationError struct {
	Field  string
	Reason string
}

// NewConfigurationError returns a ConfigurationError for the given fields.
func NewConfigurationError(reason string, fields ...string) *ConfigurationError {
	return &ConfigurationError{
		Field:  strings.Join(fields, "/"),
		Reason: reason,
	}
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrConfiguration.
func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// Fields returns the individual field names.
func (e *ConfigurationError) Fields() []string {
	if e.Field == "" {
		return nil
	}
	return strings.Split(e.Field, "/")
}

// UnresolvedDependencyError reports that Component needed a collaborator of
// Type and found none, or found several without a way to choose.
type UnresolvedDependencyError struct {
	Component  string
	Type       string
	Candidates []string
}

// Error implements the error interface.
func (e *UnresolvedDependencyError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("component %q requires %s but none is registered", e.Component, e.Type)
	}
	return fmt.Sprintf("component %q requires a single %s but found %d: %s",
		e.Component, e.Type, len(e.Candidates), strings.Join(e.Candidates, ", "))
}

// Unwrap lets errors.Is match ErrUnresolvedDependency.
func (e *UnresolvedDependencyError) Unwrap() error {
	return ErrUnresolvedDependency
}
