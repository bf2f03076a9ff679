// Package classfile holds the class bytes of one compiled type: the
// deterministic encoding of its declaration, the type data read back from
// those bytes, and the structural signature hash used for invalidation.
package classfile

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"jjsdev/internal/engine/decl"
	"jjsdev/internal/engine/jribble"
)

// Encode renders t as class bytes. Equal declarations always produce equal
// bytes.
func Encode(t *decl.DeclaredType) ([]byte, error) {
	return jribble.MustSchema().MarshalType(t)
}

// Decode reads class bytes back into a declaration.
func Decode(b []byte) (*decl.DeclaredType, error) {
	return jribble.MustSchema().UnmarshalType(b)
}

// TypeData is what the compiler needs to know about a class without its
// members.
type TypeData struct {
	// InternalName uses slashes: java/util/Map$Entry.
	InternalName string
	PackageName  string
	// OuterName is the internal name of the enclosing class, empty for top
	// level types.
	OuterName string
	// InnerName is the simple name inside OuterName.
	InnerName   string
	IsInterface bool
	IsLocal     bool
	SuperName   string
	Interfaces  []string
}

// ReadTypeData decodes the header of class bytes.
func ReadTypeData(b []byte) (*TypeData, error) {
	t, err := Decode(b)
	if err != nil {
		return nil, err
	}
	return TypeDataOf(t), nil
}

func TypeDataOf(t *decl.DeclaredType) *TypeData {
	td := &TypeData{
		InternalName: t.Name.InternalName(),
		PackageName:  t.Name.Pkg,
		IsInterface:  t.IsInterface,
		IsLocal:      t.IsLocal,
	}
	if !t.IsInterface && t.Name.JavaName() != "java.lang.Object" {
		td.SuperName = t.SuperName().InternalName()
	}
	for _, i := range t.Implements {
		td.Interfaces = append(td.Interfaces, i.InternalName())
	}
	if t.Outer != nil {
		td.OuterName = t.Outer.InternalName()
		td.InnerName = innerName(t.Name.Name, t.Outer.Name)
	}
	return td
}

// innerName strips the outer prefix and, for local and anonymous classes,
// the compiler-assigned ordinal: Outer$1Local becomes Local.
func innerName(name, outer string) string {
	inner := strings.TrimPrefix(strings.TrimPrefix(name, outer), "$")
	return strings.TrimLeft(inner, "0123456789")
}

// SignatureHash hashes the API shape of class bytes: header, non-private
// fields with their constant values, and non-private method signatures.
// Bodies, parameter names, member order and line numbers do not count.
func SignatureHash(b []byte) (string, error) {
	t, err := Decode(b)
	if err != nil {
		return "", err
	}
	return SignatureHashOf(t), nil
}

func SignatureHashOf(t *decl.DeclaredType) string {
	h := sha256.New()
	for _, line := range canonical(t) {
		h.Write([]byte(line))
		h.Write([]byte{'\n'})
	}
	return fmt.Sprintf("%X", h.Sum(nil))
}

func modifierFlags(m decl.Modifiers) string {
	var b strings.Builder
	for _, f := range []struct {
		set  bool
		flag byte
	}{
		{m.Public, 'u'}, {m.Protected, 'o'}, {m.Static, 's'}, {m.Final, 'f'},
		{m.Abstract, 'a'}, {m.Volatile, 'v'}, {m.Native, 'n'}, {m.Transient, 't'},
	} {
		if f.set {
			b.WriteByte(f.flag)
		}
	}
	return b.String()
}

func canonical(t *decl.DeclaredType) []string {
	td := TypeDataOf(t)
	kind := "class"
	if t.IsInterface {
		kind = "interface"
	}
	header := []string{
		fmt.Sprintf("%s %s %s", kind, td.InternalName, modifierFlags(t.Modifiers)),
		"extends " + td.SuperName,
		"outer " + td.OuterName,
	}
	ifaces := append([]string(nil), td.Interfaces...)
	sort.Strings(ifaces)
	header = append(header, "implements "+strings.Join(ifaces, ","))

	var members []string
	for _, m := range t.Members {
		if !m.Modifiers.Visible() {
			continue
		}
		switch m.Kind {
		case decl.MemberField:
			line := fmt.Sprintf("field %s %s %s", m.Field.Name, m.Field.Type.Descriptor(), modifierFlags(m.Modifiers))
			// constants are inlined by callers, so their value is API
			if lit, ok := m.Field.Initializer.(*decl.Literal); ok && m.Modifiers.Static && m.Modifiers.Final {
				line += " = " + literalText(lit)
			}
			members = append(members, line)
		case decl.MemberMethod:
			members = append(members, fmt.Sprintf("method %s %s", t.Signature(m.Method).Descriptor(), modifierFlags(m.Modifiers)))
		}
	}
	sort.Strings(members)
	return append(header, members...)
}

func literalText(l *decl.Literal) string {
	switch l.Kind {
	case decl.LitBool:
		return fmt.Sprintf("Z%t", l.Bool)
	case decl.LitFloat, decl.LitDouble:
		return fmt.Sprintf("%d:%g", l.Kind, l.Float)
	case decl.LitString:
		return fmt.Sprintf("%q", l.Str)
	default:
		return fmt.Sprintf("%d:%d", l.Kind, l.Int)
	}
}
