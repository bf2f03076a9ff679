package jribble

import (
	"bufio"
	"io"
	"strings"

	"google.golang.org/protobuf/encoding/protodelim"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"

	"jjsdev/internal/core/errors"
	"jjsdev/internal/engine/decl"
)

const (
	TextExt   = ".jribble"
	BinaryExt = ".jribblebin"

	// maxMessageSize bounds one length-prefixed declaration.
	maxMessageSize = 64 << 20
)

// IsJribble reports whether location names a Jribble input.
func IsJribble(location string) bool {
	return strings.HasSuffix(location, TextExt) || strings.HasSuffix(location, BinaryExt)
}

// IsBinary reports whether location names the length-prefixed encoding.
func IsBinary(location string) bool {
	return strings.HasSuffix(location, BinaryExt)
}

// ReadText parses one DeclaredType in protobuf text format.
func (s *Schema) ReadText(r io.Reader) (*decl.DeclaredType, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeIO, "reading jribble text")
	}
	m := s.New("DeclaredType")
	if err := prototext.Unmarshal(data, m); err != nil {
		return nil, errors.Wrap(err, errors.CodeCorrupt, "parsing jribble text")
	}
	return s.DecodeType(m)
}

// ReadBinary parses one length-prefixed DeclaredType.
func (s *Schema) ReadBinary(r io.Reader) (*decl.DeclaredType, error) {
	m := s.New("DeclaredType")
	opts := protodelim.UnmarshalOptions{MaxSize: maxMessageSize}
	if err := opts.UnmarshalFrom(bufio.NewReader(r), m); err != nil {
		return nil, errors.Wrap(err, errors.CodeCorrupt, "parsing jribble binary")
	}
	return s.DecodeType(m)
}

// Read picks the text or binary reader from the location's extension.
func (s *Schema) Read(location string, r io.Reader) (*decl.DeclaredType, error) {
	if IsBinary(location) {
		return s.ReadBinary(r)
	}
	return s.ReadText(r)
}

// WriteText renders t in protobuf text format.
func (s *Schema) WriteText(w io.Writer, t *decl.DeclaredType) error {
	data, err := prototext.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(s.EncodeType(t))
	if err != nil {
		return errors.Wrap(err, errors.CodeInternalCompiler, "encoding jribble text")
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, errors.CodeIO, "writing jribble text")
	}
	return nil
}

// WriteBinary writes t with a varint length prefix.
func (s *Schema) WriteBinary(w io.Writer, t *decl.DeclaredType) error {
	opts := protodelim.MarshalOptions{MarshalOptions: proto.MarshalOptions{Deterministic: true}}
	if _, err := opts.MarshalTo(w, s.EncodeType(t)); err != nil {
		return errors.Wrap(err, errors.CodeIO, "writing jribble binary")
	}
	return nil
}
