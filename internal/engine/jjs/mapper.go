// Package jjs builds the mini-AST from decl values. The ReferenceMapper
// hands out type, field and method nodes in two generations: source nodes
// that belong to the unit being built and external placeholders that
// survive across units. The Builder walks declarations through the fixed
// create, resolve, members and code phases.
package jjs

import (
	"sort"
	"strings"

	"jjsdev/internal/engine/ast"
	"jjsdev/internal/engine/decl"
	"jjsdev/internal/shared/intern"
)

// KindResolver reports whether a type outside the current unit is known to
// be an interface. known is false when the name is not recognised at all.
type KindResolver func(javaName string) (isInterface, known bool)

type Option func(*ReferenceMapper)

// WithInterner interns every type name the mapper stores.
func WithInterner(i *intern.Interner) Option {
	return func(m *ReferenceMapper) { m.interner = i }
}

// WithKindResolver lets Type create interface placeholders for names the
// resolver knows to be interfaces.
func WithKindResolver(r KindResolver) Option {
	return func(m *ReferenceMapper) { m.kinds = r }
}

// ReferenceMapper is not safe for concurrent use; each builder owns one.
type ReferenceMapper struct {
	interner *intern.Interner
	kinds    KindResolver

	// flushed by ClearSource
	sourceTypes   map[string]ast.DeclaredType
	sourceFields  map[string]*ast.Field
	sourceMethods map[string]*ast.Method
	touched       map[string]struct{}

	// external placeholders, kept for the mapper's lifetime
	types   map[string]ast.Type
	fields  map[string]*ast.Field
	methods map[string]*ast.Method
}

func NewReferenceMapper(opts ...Option) *ReferenceMapper {
	m := &ReferenceMapper{
		sourceTypes:   make(map[string]ast.DeclaredType),
		sourceFields:  make(map[string]*ast.Field),
		sourceMethods: make(map[string]*ast.Method),
		touched:       make(map[string]struct{}),
		types:         make(map[string]ast.Type),
		fields:        make(map[string]*ast.Field),
		methods:       make(map[string]*ast.Method),
	}
	for _, opt := range opts {
		opt(m)
	}
	// Primitives are reachable by descriptor and by keyword.
	for _, p := range ast.Primitives() {
		m.types[p.SignatureName()] = p
		m.types[p.Name()] = p
	}
	m.types[ast.Null.SignatureName()] = ast.Null
	m.types[ast.Null.Name()] = ast.Null
	return m
}

// ClearSource drops the source generation and the touched set. External
// placeholders are kept.
func (m *ReferenceMapper) ClearSource() {
	clear(m.sourceTypes)
	clear(m.sourceFields)
	clear(m.sourceMethods)
	clear(m.touched)
}

// TouchedTypes returns the external type names looked up since the last
// ClearSource, sorted.
func (m *ReferenceMapper) TouchedTypes() []string {
	out := make([]string, 0, len(m.touched))
	for name := range m.touched {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (m *ReferenceMapper) intern(s string) string {
	return m.interner.Intern(s)
}

// lookup searches the source generation, then the external one. Finding an
// external declared type marks it touched when touch is set.
func (m *ReferenceMapper) lookup(name string, touch bool) ast.Type {
	if t, ok := m.sourceTypes[name]; ok {
		return t
	}
	t, ok := m.types[name]
	if !ok {
		return nil
	}
	if _, declared := t.(ast.DeclaredType); declared && touch {
		m.touched[m.intern(name)] = struct{}{}
	}
	return t
}

// Type returns the node for a mapper name: a dotted binary name, "[" plus
// an element name for arrays, a primitive descriptor or keyword, or "void".
func (m *ReferenceMapper) Type(name string) ast.Type {
	return m.resolve(name, true)
}

// TypeOf maps a decl type.
func (m *ReferenceMapper) TypeOf(t decl.Type) ast.Type {
	return m.Type(t.MapperName())
}

func (m *ReferenceMapper) resolve(name string, touch bool) ast.Type {
	if t := m.lookup(name, touch); t != nil {
		return t
	}
	if elem, ok := strings.CutPrefix(name, "["); ok {
		// Array components carry no dependency of their own.
		arr := ast.NewArrayType(m.resolve(elem, false))
		m.types[m.intern(name)] = arr
		return arr
	}
	if m.kinds != nil {
		if isInterface, known := m.kinds(name); known && isInterface {
			return m.newExternalInterface(name, touch)
		}
	}
	return m.newExternalClass(name, touch)
}

func (m *ReferenceMapper) newExternalClass(name string, touch bool) *ast.ClassType {
	name = m.intern(name)
	c := ast.NewExternalClassType(name)
	m.types[name] = c
	if touch {
		m.touched[name] = struct{}{}
	}
	return c
}

func (m *ReferenceMapper) newExternalInterface(name string, touch bool) *ast.InterfaceType {
	name = m.intern(name)
	i := ast.NewExternalInterfaceType(name)
	m.types[name] = i
	if touch {
		m.touched[name] = struct{}{}
	}
	return i
}

// ClassType returns a class node, creating an external placeholder when
// the name is unknown. A name already known as an interface is an internal
// error.
func (m *ReferenceMapper) ClassType(name string) *ast.ClassType {
	switch t := m.lookup(name, true).(type) {
	case *ast.ClassType:
		return t
	case nil:
		return m.newExternalClass(name, true)
	default:
		bail("%s is not a class type", name)
		return nil
	}
}

// InterfaceType returns an interface node. An external class placeholder
// for the same name is superseded: an earlier unit may have assumed a class
// before any unit showed the name is an interface.
func (m *ReferenceMapper) InterfaceType(name string) *ast.InterfaceType {
	switch t := m.lookup(name, true).(type) {
	case *ast.InterfaceType:
		return t
	case *ast.ClassType:
		if !t.IsExternal() {
			bail("%s is a class, not an interface", name)
		}
	case nil:
	default:
		bail("%s is not an interface type", name)
	}
	return m.newExternalInterface(name, true)
}

// DeclaredType returns whatever class or interface node the name maps to.
func (m *ReferenceMapper) DeclaredType(name string) ast.DeclaredType {
	t, ok := m.Type(name).(ast.DeclaredType)
	if !ok {
		bail("%s is not a declared type", name)
	}
	return t
}

func fieldKey(owner, name string) string {
	return owner + "." + name + ":"
}

// Field returns the field owner.name, creating an external placeholder of
// the given type when neither generation has it.
func (m *ReferenceMapper) Field(owner, name string, static bool, typ ast.Type) *ast.Field {
	key := fieldKey(owner, name)
	if f, ok := m.sourceFields[key]; ok {
		return f
	}
	if f, ok := m.fields[key]; ok {
		m.lookup(owner, true)
		return f
	}
	f := ast.NewExternalField(m.intern(name), m.DeclaredType(owner), typ, static)
	m.fields[key] = f
	return f
}

// MethodKey renders the lookup key for sig. Constructors are keyed as
// "this" so that callers and declarations agree.
func MethodKey(sig decl.MethodSignature) string {
	var b strings.Builder
	b.WriteString(sig.Owner.JavaName())
	b.WriteByte('.')
	if sig.IsConstructor() {
		b.WriteString("this")
	} else {
		b.WriteString(sig.Name)
	}
	b.WriteByte('(')
	for _, p := range sig.ParamTypes {
		b.WriteString(p.MapperName())
	}
	b.WriteByte(')')
	b.WriteString(sig.ReturnType.MapperName())
	return b.String()
}

// Method returns the method for sig, creating an external placeholder when
// neither generation has it.
func (m *ReferenceMapper) Method(sig decl.MethodSignature, static bool) *ast.Method {
	key := MethodKey(sig)
	if meth, ok := m.sourceMethods[key]; ok {
		return meth
	}
	if meth, ok := m.methods[key]; ok {
		m.touchSignature(sig)
		return meth
	}
	params := make([]ast.Type, len(sig.ParamTypes))
	for i, p := range sig.ParamTypes {
		params[i] = m.TypeOf(p)
	}
	var meth *ast.Method
	if sig.IsConstructor() {
		owner := m.ClassType(sig.Owner.JavaName())
		meth = ast.NewExternalMethod(owner.ShortName(), owner, params, ast.Void, false, true)
	} else {
		owner := m.DeclaredType(sig.Owner.JavaName())
		meth = ast.NewExternalMethod(m.intern(sig.Name), owner, params, m.TypeOf(sig.ReturnType), static, false)
	}
	m.methods[key] = meth
	return meth
}

// touchSignature marks the types a cached placeholder for sig was built
// from, as creating it would have.
func (m *ReferenceMapper) touchSignature(sig decl.MethodSignature) {
	m.lookup(sig.Owner.JavaName(), true)
	for _, p := range sig.ParamTypes {
		m.TypeOf(p)
	}
	if !sig.IsConstructor() {
		m.TypeOf(sig.ReturnType)
	}
}

// SetSourceType registers t as built by the current unit. Any external
// placeholder of the same name is dropped and the name stops counting as
// touched.
func (m *ReferenceMapper) SetSourceType(t ast.DeclaredType) {
	if t.IsExternal() {
		bail("source type %s is external", t.Name())
	}
	name := t.Name()
	m.sourceTypes[name] = t
	delete(m.types, name)
	delete(m.touched, name)
}

func (m *ReferenceMapper) SetSourceField(owner string, f *ast.Field) {
	m.sourceFields[fieldKey(owner, f.Name)] = f
}

func (m *ReferenceMapper) SetSourceMethod(sig decl.MethodSignature, meth *ast.Method) {
	m.sourceMethods[MethodKey(sig)] = meth
}

// IsSource reports whether name was registered by the current unit.
func (m *ReferenceMapper) IsSource(name string) bool {
	_, ok := m.sourceTypes[name]
	return ok
}
