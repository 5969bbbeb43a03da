package utils

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ReferenceType represents the kind of location a reference string points at
type ReferenceType int

const (
	ReferenceTypeUnknown ReferenceType = iota
	ReferenceTypeURL
	ReferenceTypeFilePath
	ReferenceTypeFragment
)

// ReferenceClassification holds the result of classifying a reference string
type ReferenceClassification struct {
	Type     ReferenceType
	Original string
	// Scheme is the lower-cased URL scheme, empty for paths and fragments.
	Scheme string
	// Absolute reports whether the reference can be used without a base location.
	Absolute bool
}

// IsURL reports whether the reference carries a URL scheme.
func (rc *ReferenceClassification) IsURL() bool {
	return rc.Type == ReferenceTypeURL
}

// IsFile reports whether the reference must be read from the file system,
// either because it is a plain path or a file: URL.
func (rc *ReferenceClassification) IsFile() bool {
	return rc.Type == ReferenceTypeFilePath || rc.Scheme == "file"
}

// ClassifyReference determines if a string represents a URL, file path, or JSON Pointer fragment.
func ClassifyReference(ref string) (*ReferenceClassification, error) {
	if ref == "" {
		return nil, errors.New("empty reference")
	}

	result := &ReferenceClassification{
		Original: ref,
	}

	if strings.HasPrefix(ref, "#") {
		result.Type = ReferenceTypeFragment
		return result, nil
	}

	// Windows paths are not URLs even though they parse as one.
	if isWindowsAbsolutePath(ref) {
		result.Type = ReferenceTypeFilePath
		result.Absolute = true
		return result, nil
	}

	u, err := ParseURLCached(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid reference format: %w", err)
	}

	if u.Scheme != "" {
		result.Type = ReferenceTypeURL
		result.Scheme = strings.ToLower(u.Scheme)
		result.Absolute = true
		return result, nil
	}

	result.Type = ReferenceTypeFilePath
	result.Absolute = filepath.IsAbs(ref) || strings.HasPrefix(ref, "/")
	return result, nil
}

// JoinWith resolves relative against this classified reference.
// URLs are resolved per RFC 3986, file paths are joined against the directory of the original path.
func (rc *ReferenceClassification) JoinWith(relative string) (string, error) {
	if relative == "" {
		return rc.Original, nil
	}

	if strings.HasPrefix(relative, "#") {
		base, _ := SplitFragment(rc.Original)
		return base + relative, nil
	}

	switch rc.Type {
	case ReferenceTypeURL:
		baseURL, err := ParseURLCached(rc.Original)
		if err != nil {
			return "", fmt.Errorf("invalid base URL: %w", err)
		}
		relativeURL, err := ParseURLCached(relative)
		if err != nil {
			return "", fmt.Errorf("invalid relative URL: %w", err)
		}
		return baseURL.ResolveReference(relativeURL).String(), nil
	case ReferenceTypeFragment:
		return relative, nil
	default:
		if rel, err := ClassifyReference(relative); err == nil && rel.Absolute {
			return relative, nil
		}
		joined := filepath.Join(filepath.Dir(rc.Original), relative)
		return filepath.ToSlash(joined), nil
	}
}

// JoinReference is a convenience function that classifies the base reference and joins it with a relative reference.
func JoinReference(base, relative string) (string, error) {
	if base == "" {
		return relative, nil
	}

	baseClassification, err := ClassifyReference(base)
	if err != nil {
		return "", fmt.Errorf("invalid base reference: %w", err)
	}

	return baseClassification.JoinWith(relative)
}

// SplitFragment splits a reference into its document part and its fragment (without the leading #).
func SplitFragment(ref string) (string, string) {
	doc, fragment, _ := strings.Cut(ref, "#")
	return doc, fragment
}

func isWindowsAbsolutePath(path string) bool {
	if len(path) >= 3 && path[1] == ':' && (path[2] == '\\' || path[2] == '/') {
		return true
	}
	return strings.HasPrefix(path, "\\\\")
}
