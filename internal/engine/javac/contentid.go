// Package javac keeps compilation units up to date across builds. It decides
// which resources can be served from the unit cache, drives the Java front
// end over the rest, turns front-end output into immutable
// CompilationUnits, and rebuilds cached units whose dependencies changed.
package javac

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ContentID identifies a unit by its main type and the hash of its source.
// Two units with equal ContentIDs are interchangeable.
type ContentID struct {
	TypeName   string
	StrongHash string
}

// StrongHash is the uppercase hex SHA-256 of content.
func StrongHash(content []byte) string {
	sum := sha256.Sum256(content)
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

func NewContentID(typeName string, content []byte) ContentID {
	return ContentID{TypeName: typeName, StrongHash: StrongHash(content)}
}

func (c ContentID) IsZero() bool { return c.StrongHash == "" }

// String is the "typeName:hash" form used as a cache key.
func (c ContentID) String() string {
	return c.TypeName + ":" + c.StrongHash
}
