// Package walk describes where an element sits inside a document tree while it is being walked.
package walk

import (
	"strconv"
	"strings"

	"github.com/speakeasy-api/serverlessworkflow/errors"
	"github.com/speakeasy-api/serverlessworkflow/jsonpointer"
)

const (
	// ErrTerminate is a sentinel error that can be returned from a visitor to stop a walk early.
	ErrTerminate = errors.Error("terminate")
)

// LocationContext represents the context of where an element is located within its parent.
type LocationContext struct {
	ParentField string
	ParentKey   *string
	ParentIndex *int
}

// Field returns the location of a keyword holding a single element.
func Field(field string) LocationContext {
	return LocationContext{ParentField: field}
}

// Key returns the location of an entry of a keyword holding a map of elements.
func Key(field, key string) LocationContext {
	return LocationContext{ParentField: field, ParentKey: &key}
}

// Index returns the location of an item of a keyword holding a list of elements.
func Index(field string, index int) LocationContext {
	return LocationContext{ParentField: field, ParentIndex: &index}
}

// Locations represents a slice of location contexts that can be converted to a JSON pointer.
type Locations []LocationContext

// Append returns a copy of l with loc added, leaving l untouched so siblings can share a prefix.
func (l Locations) Append(loc LocationContext) Locations {
	out := make(Locations, len(l), len(l)+1)
	copy(out, l)
	return append(out, loc)
}

// ToJSONPointer converts the locations to a JSON pointer.
func (l Locations) ToJSONPointer() jsonpointer.JSONPointer {
	var sb strings.Builder
	sb.WriteString("/")

	for _, location := range l {
		if location.ParentField != "" {
			if !strings.HasSuffix(sb.String(), "/") {
				sb.WriteString("/")
			}
			sb.WriteString(jsonpointer.EscapeString(location.ParentField))
		}

		if location.ParentKey != nil {
			sb.WriteString("/")
			sb.WriteString(jsonpointer.EscapeString(*location.ParentKey))
		} else if location.ParentIndex != nil {
			sb.WriteString("/")
			sb.WriteString(strconv.Itoa(*location.ParentIndex))
		}
	}

	return jsonpointer.JSONPointer(sb.String())
}
