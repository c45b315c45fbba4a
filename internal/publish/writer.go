package publish

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Writer is a destination for published files. Paths use forward slashes.
type Writer interface {
	MkdirAll(dir string) error
	WriteFile(name string, data []byte) error
	Close() error
}

// DirWriter writes under a local root directory. Absolute paths are
// resolved below Root.
type DirWriter struct {
	Root string
}

func (w DirWriter) local(p string) (string, error) {
	if w.Root == "" {
		return "", fmt.Errorf("dir writer: no root for %q", p)
	}
	clean := strings.TrimPrefix(path.Clean("/"+p), "/")
	return filepath.Join(w.Root, filepath.FromSlash(clean)), nil
}

// MkdirAll creates dir and any missing parents below Root.
func (w DirWriter) MkdirAll(dir string) error {
	p, err := w.local(dir)
	if err != nil {
		return err
	}
	return os.MkdirAll(p, 0o755)
}

// WriteFile writes data to name below Root.
func (w DirWriter) WriteFile(name string, data []byte) error {
	p, err := w.local(name)
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// Close is a no-op.
func (DirWriter) Close() error { return nil }
