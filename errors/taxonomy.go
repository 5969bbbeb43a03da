package errors

import (
	"fmt"
	"sort"
	"strings"
)

// DecodeError is returned when a value could not be decoded as either alternative of a union.
type DecodeError struct {
	// Left and Right name the two alternatives that were attempted.
	Left  string
	Right string
	// LeftErr and RightErr are the failures of each attempt.
	LeftErr  error
	RightErr error
	Line     int
	Column   int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("[%d:%d] unable to decode as either %s (%v) or %s (%v)", e.Line, e.Column, e.Left, e.LeftErr, e.Right, e.RightErr)
}

func (e *DecodeError) Unwrap() []error {
	return []error{e.LeftErr, e.RightErr}
}

// UnknownDiscriminatorError is returned when a discriminator value selects no known subtype and no default exists.
type UnknownDiscriminatorError struct {
	AbstractType string
	Property     string
	Value        string
	Accepted     []string
}

func (e *UnknownDiscriminatorError) Error() string {
	accepted := append([]string(nil), e.Accepted...)
	sort.Strings(accepted)

	if e.Value == "" {
		return fmt.Sprintf("%s: missing discriminator property %q, expected one of [%s]", e.AbstractType, e.Property, strings.Join(accepted, ", "))
	}

	return fmt.Sprintf("%s: unknown %s %q, expected one of [%s]", e.AbstractType, e.Property, e.Value, strings.Join(accepted, ", "))
}

// MissingDiscriminatorBindingError reports a broken type universe: the abstract type has no usable discriminator declaration.
// It is a programming error and should not be retried.
type MissingDiscriminatorBindingError struct {
	AbstractType string
	Reason       string
}

func (e *MissingDiscriminatorBindingError) Error() string {
	return fmt.Sprintf("no discriminator binding for %s: %s", e.AbstractType, e.Reason)
}

// UnresolvableReferenceError is returned when a schema document referenced during bundling cannot be fetched or parsed.
type UnresolvableReferenceError struct {
	URI   string
	Cause error
}

func (e *UnresolvableReferenceError) Error() string {
	return fmt.Sprintf("unable to resolve schema reference %s: %v", e.URI, e.Cause)
}

func (e *UnresolvableReferenceError) Unwrap() error {
	return e.Cause
}

// SchemaIdentifierCollisionError is returned when two distinct schema documents derive the same local identifier.
type SchemaIdentifierCollisionError struct {
	Identifier string
	First      string
	Second     string
}

func (e *SchemaIdentifierCollisionError) Error() string {
	return fmt.Sprintf("schema identifier %q derived from both %s and %s", e.Identifier, e.First, e.Second)
}

// ExternalResourceFetchError is returned when an external workflow definition slot cannot be loaded.
type ExternalResourceFetchError struct {
	Slot  string
	URI   string
	Cause error
}

func (e *ExternalResourceFetchError) Error() string {
	return fmt.Sprintf("failed to load external %s from %s: %v", e.Slot, e.URI, e.Cause)
}

func (e *ExternalResourceFetchError) Unwrap() error {
	return e.Cause
}

// RelativeURINotSupportedError is returned when a relative URI cannot be resolved under the configured mode.
type RelativeURINotSupportedError struct {
	URI    string
	Reason string
}

func (e *RelativeURINotSupportedError) Error() string {
	return fmt.Sprintf("relative uri %q not supported: %s", e.URI, e.Reason)
}

// TransportError is returned for a fetch that reached the remote end but did not succeed.
type TransportError struct {
	URI        string
	StatusCode int
	Cause      error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s failed with status %d", e.URI, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s failed: %v", e.URI, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}
