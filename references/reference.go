package references

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/speakeasy-api/serverlessworkflow/jsonpointer"
)

// Reference is a location of an external document, optionally followed by a JSON pointer fragment
// selecting a part of it, for example "functions.json#/functions".
type Reference string

var _ fmt.Stringer = (*Reference)(nil)

func (r Reference) GetURI() string {
	uri, _, _ := strings.Cut(string(r), "#")
	return strings.TrimSpace(uri)
}

func (r Reference) HasJSONPointer() bool {
	return strings.Contains(string(r), "#")
}

func (r Reference) GetJSONPointer() jsonpointer.JSONPointer {
	_, pointer, found := strings.Cut(string(r), "#")
	if !found {
		return ""
	}

	pointer = strings.TrimSpace(pointer)
	if decoded, err := url.PathUnescape(pointer); err == nil {
		pointer = decoded
	}

	return jsonpointer.JSONPointer(pointer)
}

func (r Reference) Validate() error {
	uri := r.GetURI()
	if uri == "" {
		return fmt.Errorf("reference %q has no document location", string(r))
	}

	if _, err := url.Parse(uri); err != nil {
		return fmt.Errorf("invalid reference URI: %w", err)
	}

	if jp := r.GetJSONPointer(); jp != "" {
		if err := jp.Validate(); err != nil {
			return fmt.Errorf("invalid reference JSON pointer: %w", err)
		}
	}

	return nil
}

func (r Reference) String() string {
	return string(r)
}
