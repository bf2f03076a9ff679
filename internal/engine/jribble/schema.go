// Package jribble ingests Jribble declarations: protobuf-encoded declared
// types produced by a Scala front end. It owns the wire schema, the codec
// between wire messages and decl values, and the Jribble flavours of the
// reference mapper and AST builder.
package jribble

import (
	"context"
	"embed"
	"io"
	"sync"

	"github.com/bufbuild/protocompile"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"jjsdev/internal/core/errors"
)

const schemaFile = "jribble.proto"

//go:embed jribble.proto
var protoFS embed.FS

// Schema holds the descriptors compiled from the embedded jribble.proto.
type Schema struct {
	file protoreflect.FileDescriptor
}

var (
	schemaOnce sync.Once
	schema     *Schema
	schemaErr  error
)

// LoadSchema compiles the embedded schema once per process.
func LoadSchema(ctx context.Context) (*Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = compileSchema(ctx)
	})
	return schema, schemaErr
}

// MustSchema is LoadSchema for callers that cannot proceed without it.
func MustSchema() *Schema {
	s, err := LoadSchema(context.Background())
	if err != nil {
		panic(err)
	}
	return s
}

func compileSchema(ctx context.Context) (*Schema, error) {
	compiler := protocompile.Compiler{
		Resolver: &protocompile.SourceResolver{
			Accessor: func(path string) (io.ReadCloser, error) {
				return protoFS.Open(path)
			},
		},
	}
	files, err := compiler.Compile(ctx, schemaFile)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternalCompiler, "compiling jribble schema")
	}
	return &Schema{file: files[0]}, nil
}

// Message looks up a message descriptor by its short name.
func (s *Schema) Message(name string) protoreflect.MessageDescriptor {
	md := s.file.Messages().ByName(protoreflect.Name(name))
	if md == nil {
		panic("jribble: schema has no message " + name)
	}
	return md
}

// New allocates an empty dynamic message of the named type.
func (s *Schema) New(name string) *dynamicpb.Message {
	return dynamicpb.NewMessage(s.Message(name))
}
