// Package resource supplies the compiler's inputs: named byte streams with a
// modification time. The compiler never discovers files itself; an Oracle
// hands it the current set.
package resource

import (
	"bytes"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"jjsdev/internal/core/errors"
)

// Resource is one compiler input.
type Resource interface {
	// Path is the slash-separated path relative to its source root, for
	// example foo/Bar.java. It is the unit cache key.
	Path() string
	// Location is where the bytes live, for diagnostics.
	Location() string
	// LastModified is in Unix milliseconds.
	LastModified() int64
	Open() (io.ReadCloser, error)
}

// ReadAll reads the whole content of r.
func ReadAll(r Resource) ([]byte, error) {
	rc, err := r.Open()
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "opening resource"), errors.CtxPath, r.Location())
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "reading resource"), errors.CtxPath, r.Location())
	}
	return b, nil
}

// ToTypeName turns a resource path into the binary name of the type it
// declares: foo/Bar.java becomes foo.Bar.
func ToTypeName(p string) string {
	p = strings.TrimSuffix(p, path.Ext(p))
	return strings.ReplaceAll(p, "/", ".")
}

// ToPath is the inverse of ToTypeName for Java sources.
func ToPath(typeName string) string {
	return strings.ReplaceAll(typeName, ".", "/") + ".java"
}

// PackageOf returns the package part of a dotted name.
func PackageOf(typeName string) string {
	if i := strings.LastIndexByte(typeName, '.'); i >= 0 {
		return typeName[:i]
	}
	return ""
}

// File is a resource on disk below a source root.
type File struct {
	root string
	rel  string
	mod  int64
}

// NewFile stats root/rel and returns the resource.
func NewFile(root, rel string) (*File, error) {
	rel = filepath.ToSlash(rel)
	info, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "stat resource"), errors.CtxPath, rel)
	}
	return &File{root: root, rel: rel, mod: info.ModTime().UnixMilli()}, nil
}

func (f *File) Path() string        { return f.rel }
func (f *File) LastModified() int64 { return f.mod }

func (f *File) Location() string {
	abs, err := filepath.Abs(filepath.Join(f.root, filepath.FromSlash(f.rel)))
	if err != nil {
		abs = filepath.Join(f.root, f.rel)
	}
	return "file://" + filepath.ToSlash(abs)
}

func (f *File) Open() (io.ReadCloser, error) {
	return os.Open(filepath.Join(f.root, filepath.FromSlash(f.rel)))
}

// Memory is an in-memory resource, used for generated inputs and tests.
type Memory struct {
	path     string
	location string
	mod      int64
	content  []byte
}

func NewMemory(p string, content []byte, lastModified int64) *Memory {
	return &Memory{path: p, location: "mem:" + p, mod: lastModified, content: content}
}

// NewMemoryString stamps the resource with the current time.
func NewMemoryString(p, content string) *Memory {
	return NewMemory(p, []byte(content), time.Now().UnixMilli())
}

func (m *Memory) Path() string        { return m.path }
func (m *Memory) Location() string    { return m.location }
func (m *Memory) LastModified() int64 { return m.mod }

func (m *Memory) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(m.content)), nil
}

// Touched returns a copy with new content and modification time.
func (m *Memory) Touched(content string, lastModified int64) *Memory {
	return &Memory{path: m.path, location: m.location, mod: lastModified, content: []byte(content)}
}
