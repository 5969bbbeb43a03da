// Package jsonpointer provides JSONPointer an implementation of RFC6901 https://datatracker.ietf.org/doc/html/rfc6901
// evaluated against yaml.Node trees.
package jsonpointer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/speakeasy-api/serverlessworkflow/errors"
	"github.com/speakeasy-api/serverlessworkflow/yml"
	"gopkg.in/yaml.v3"
)

const (
	// ErrNotFound is returned when the target is not found.
	ErrNotFound = errors.Error("not found")
	// ErrInvalidPath is returned when the path is invalid.
	ErrInvalidPath = errors.Error("invalid path")
	// ErrValidation is returned when the jsonpointer is invalid.
	ErrValidation = errors.Error("validation error")
)

// JSONPointer represents a JSON Pointer value as defined by RFC6901 https://datatracker.ietf.org/doc/html/rfc6901
type JSONPointer string

var tokenRegex = regexp.MustCompile("^(?:[\x00-\x2E\x30-\x7D\x7F-\uffff]|~[01])*$")

// Validate will validate the JSONPointer is valid as per RFC6901.
func (j JSONPointer) Validate() error {
	_, err := j.parts()
	if err != nil {
		return ErrValidation.Wrap(err)
	}
	return nil
}

func (j JSONPointer) parts() ([]string, error) {
	if j == "" || j == "/" {
		return nil, nil
	}

	if !strings.HasPrefix(string(j), "/") {
		return nil, fmt.Errorf("jsonpointer must start with /: %s", string(j))
	}

	raw := strings.Split(strings.TrimPrefix(string(j), "/"), "/")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		if !tokenRegex.MatchString(part) {
			return nil, fmt.Errorf("jsonpointer part must be a valid token: %s", string(j))
		}
		parts = append(parts, unescape(part))
	}

	return parts, nil
}

// GetNode evaluates the pointer against node and returns the target node.
// An empty pointer, or "/", targets node itself.
func GetNode(node *yaml.Node, pointer JSONPointer) (*yaml.Node, error) {
	parts, err := pointer.parts()
	if err != nil {
		return nil, ErrValidation.Wrap(err)
	}

	current := resolve(node)
	path := ""
	for _, part := range parts {
		if current == nil {
			return nil, ErrNotFound.Wrap(fmt.Errorf("node is nil at %s", orRoot(path)))
		}

		switch current.Kind {
		case yaml.MappingNode:
			_, value, ok := yml.GetMapElementNodes(current, part)
			if !ok {
				return nil, ErrNotFound.Wrap(fmt.Errorf("key %s not found at %s", part, orRoot(path)))
			}
			current = resolve(value)
		case yaml.SequenceNode:
			index, err := strconv.Atoi(part)
			if err != nil || (len(part) > 1 && part[0] == '0') {
				return nil, ErrInvalidPath.Wrap(fmt.Errorf("expected index, got %s at %s", part, orRoot(path)))
			}
			if index < 0 || index >= len(current.Content) {
				return nil, ErrNotFound.Wrap(fmt.Errorf("index %d out of range for sequence of length %d at %s", index, len(current.Content), orRoot(path)))
			}
			current = resolve(current.Content[index])
		default:
			return nil, ErrInvalidPath.Wrap(fmt.Errorf("cannot navigate through %s at %s", yml.NodeKindToString(current.Kind), orRoot(path)))
		}

		path += "/" + escape(part)
	}

	return current, nil
}

// PartsToJSONPointer will convert the exploded parts of a JSONPointer to a JSONPointer.
func PartsToJSONPointer(parts []string) JSONPointer {
	var sb strings.Builder
	for _, part := range parts {
		sb.WriteByte('/')
		sb.WriteString(escape(part))
	}
	return JSONPointer(sb.String())
}

// EscapeString escapes a single reference token.
func EscapeString(s string) string {
	return escape(s)
}

func escape(part string) string {
	part = strings.ReplaceAll(part, "~", "~0")
	return strings.ReplaceAll(part, "/", "~1")
}

func unescape(part string) string {
	part = strings.ReplaceAll(part, "~1", "/")
	return strings.ReplaceAll(part, "~0", "~")
}

func resolve(node *yaml.Node) *yaml.Node {
	node = yml.ResolveAlias(node)
	if node != nil && node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		return yml.ResolveAlias(node.Content[0])
	}
	return node
}

func orRoot(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
