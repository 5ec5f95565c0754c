package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"regexp"
	"strings"
)

// ErrNotFound is returned when a stored object does not exist.
var ErrNotFound = errors.New("object not found")

// Storage persists uploaded lesson material and hands out download URLs for it.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	URL(ctx context.Context, key string) (string, error)
	// Delete removes key. A missing object is not an error.
	Delete(ctx context.Context, key string) error
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ObjectKey builds the storage key for an upload: <prefix>/<id>-<sanitised name>.
func ObjectKey(prefix, id, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "file"
	}
	if len(name) > 100 {
		name = name[len(name)-100:]
	}
	return path.Join(prefix, id+"-"+name)
}
