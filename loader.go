package sailfish

import (
	"os"
	"path/filepath"
)

// FileLoader resolves include() paths against a list of template roots,
// adapted from pongo2's LocalFilesystemLoader (virtfs.go): that type
// resolved one relative-to-base path at request time, where FileLoader
// tries each of several configured roots in order, matching this
// "first root that has the file wins" include resolution.
type FileLoader struct {
	Roots []string
}

// NewFileLoader builds a FileLoader searching roots in order.
func NewFileLoader(roots []string) *FileLoader {
	return &FileLoader{Roots: roots}
}

// Abs resolves name to an absolute path: absolute names pass through
// unchanged, relative names are tried under relativeTo's directory first
// (include() paths are conventionally relative to the including file),
// then under each configured root in order.
func (l *FileLoader) Abs(relativeTo, name string) (string, bool) {
	if filepath.IsAbs(name) {
		return name, l.exists(name)
	}

	if relativeTo != "" {
		candidate := filepath.Join(filepath.Dir(relativeTo), name)
		if l.exists(candidate) {
			return candidate, true
		}
	}

	for _, root := range l.Roots {
		candidate := filepath.Join(root, name)
		if l.exists(candidate) {
			return candidate, true
		}
	}

	if relativeTo != "" {
		return filepath.Join(filepath.Dir(relativeTo), name), false
	}
	return name, false
}

// Read loads the contents of the file at path.
func (l *FileLoader) Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", WrapIOError(err)
	}
	return string(data), nil
}

// Exists reports whether path names a regular, readable file.
func (l *FileLoader) Exists(path string) bool {
	return l.exists(path)
}

func (l *FileLoader) exists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}
