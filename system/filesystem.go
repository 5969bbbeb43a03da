// Package system provides the seams used to reach the outside world: the local file system and HTTP.
package system

import (
	"io/fs"
	"net/http"
	"os"
)

// VirtualFS is the file system external documents are read from.
type VirtualFS interface {
	fs.FS
}

// Client is the HTTP client external documents are fetched with. *http.Client satisfies it.
type Client interface {
	Do(req *http.Request) (*http.Response, error)
}

// FileSystem is a VirtualFS backed by the operating system.
// Unlike os.DirFS it accepts absolute and relative paths as-is.
type FileSystem struct{}

var (
	_ VirtualFS = (*FileSystem)(nil)
	_ Client    = (*http.Client)(nil)
)

func (f *FileSystem) Open(name string) (fs.File, error) {
	return os.Open(name) //nolint:gosec
}
