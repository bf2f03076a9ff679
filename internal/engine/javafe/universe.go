package javafe

import (
	"strings"

	"jjsdev/internal/engine/decl"
	"jjsdev/internal/engine/javac"
)

const (
	javaLangObject = "java.lang.Object"
	javaLangString = "java.lang.String"
)

type fieldInfo struct {
	name   string
	typ    decl.Type
	static bool
}

type methodInfo struct {
	name   string
	ctor   bool
	static bool
	params []decl.Type
	ret    decl.Type
}

// typeInfo is the shape of a type as the front end needs it for name and
// member resolution.
type typeInfo struct {
	name        decl.GlobalName
	isInterface bool
	isAbstract  bool
	// super is nil for interfaces and java.lang.Object
	super      *decl.GlobalName
	interfaces []decl.GlobalName
	outer      *decl.GlobalName
	fields     []fieldInfo
	methods    []methodInfo
	// declared is false until the header has been resolved.
	declared bool
}

func (t *typeInfo) javaName() string { return t.name.JavaName() }

func (t *typeInfo) signature(m *methodInfo) decl.MethodSignature {
	sig := decl.MethodSignature{Name: m.name, Owner: t.name, ParamTypes: m.params, ReturnType: m.ret}
	if m.ctor {
		sig.Name = decl.ConstructorName
		sig.ReturnType = decl.Void
	}
	return sig
}

func (t *typeInfo) hasConstructors() bool {
	for i := range t.methods {
		if t.methods[i].ctor {
			return true
		}
	}
	return false
}

func typeInfoOf(d *decl.DeclaredType) *typeInfo {
	ti := &typeInfo{
		name:        d.Name,
		isInterface: d.IsInterface,
		isAbstract:  d.Modifiers.Abstract,
		interfaces:  d.Implements,
		outer:       d.Outer,
		declared:    true,
	}
	if !d.IsInterface && d.Name.JavaName() != javaLangObject {
		super := d.SuperName()
		ti.super = &super
	}
	for _, m := range d.Members {
		switch m.Kind {
		case decl.MemberField:
			ti.fields = append(ti.fields, fieldInfo{
				name:   m.Field.Name,
				typ:    m.Field.Type,
				static: m.Modifiers.Static || d.IsInterface,
			})
		case decl.MemberMethod:
			mi := methodInfo{
				name:   m.Method.Name,
				ctor:   m.Method.IsConstructor,
				static: m.Modifiers.Static,
				ret:    m.Method.ReturnType,
			}
			for _, p := range m.Method.Params {
				mi.params = append(mi.params, p.Type)
			}
			ti.methods = append(ti.methods, mi)
		}
	}
	return ti
}

// fatal carries an error that must abort the whole batch, such as
// unreadable class bytes.
type fatal struct{ err error }

// universe answers type lookups from, in order, the types of the current
// and earlier batches, classes of units compiled before, and the JRE
// stubs. It is used from one goroutine at a time.
type universe struct {
	types   map[string]*typeInfo
	classes map[string]*javac.CompiledClass
	stubs   map[string]*typeInfo
}

func newUniverse(stubs map[string]*typeInfo) *universe {
	return &universe{
		types:   make(map[string]*typeInfo),
		classes: make(map[string]*javac.CompiledClass),
		stubs:   stubs,
	}
}

func (u *universe) declare(ti *typeInfo) {
	name := ti.javaName()
	delete(u.classes, name)
	u.types[name] = ti
}

func (u *universe) addClass(cc *javac.CompiledClass) {
	name := strings.ReplaceAll(cc.InternalName(), "/", ".")
	delete(u.types, name)
	u.classes[name] = cc
}

// lookup returns nil for names no layer knows.
func (u *universe) lookup(javaName string) *typeInfo {
	if ti, ok := u.types[javaName]; ok {
		return ti
	}
	if cc, ok := u.classes[javaName]; ok {
		d, err := cc.Decl()
		if err != nil {
			panic(fatal{err: err})
		}
		ti := typeInfoOf(d)
		delete(u.classes, javaName)
		u.types[javaName] = ti
		return ti
	}
	return u.stubs[javaName]
}

func (u *universe) exists(javaName string) bool {
	if _, ok := u.types[javaName]; ok {
		return true
	}
	if _, ok := u.classes[javaName]; ok {
		return true
	}
	_, ok := u.stubs[javaName]
	return ok
}

func (u *universe) isInterface(javaName string) (isInterface, known bool) {
	if ti, ok := u.types[javaName]; ok {
		return ti.isInterface, true
	}
	if cc, ok := u.classes[javaName]; ok {
		td, err := cc.TypeData()
		if err != nil {
			return false, false
		}
		return td.IsInterface, true
	}
	if ti, ok := u.stubs[javaName]; ok {
		return ti.isInterface, true
	}
	return false, false
}

// supertypes lists the direct supertypes of ti. Interfaces inherit the
// members of java.lang.Object.
func (u *universe) supertypes(ti *typeInfo) []*typeInfo {
	var out []*typeInfo
	if ti.super != nil {
		if s := u.lookup(ti.super.JavaName()); s != nil {
			out = append(out, s)
		}
	}
	for _, i := range ti.interfaces {
		if s := u.lookup(i.JavaName()); s != nil {
			out = append(out, s)
		}
	}
	if ti.isInterface {
		if o := u.lookup(javaLangObject); o != nil {
			out = append(out, o)
		}
	}
	return out
}

// walk visits ti and its supertypes breadth first, each once, until visit
// returns false.
func (u *universe) walk(ti *typeInfo, visit func(*typeInfo) bool) {
	seen := map[string]bool{ti.javaName(): true}
	queue := []*typeInfo{ti}
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		if !visit(t) {
			return
		}
		for _, s := range u.supertypes(t) {
			if !seen[s.javaName()] {
				seen[s.javaName()] = true
				queue = append(queue, s)
			}
		}
	}
}

func (u *universe) isSubtype(sub, super string) bool {
	if sub == super || super == javaLangObject {
		return true
	}
	ti := u.lookup(sub)
	if ti == nil {
		return false
	}
	found := false
	u.walk(ti, func(t *typeInfo) bool {
		found = t.javaName() == super
		return !found
	})
	return found
}

func (u *universe) findField(owner *typeInfo, name string) (*typeInfo, *fieldInfo) {
	var holder *typeInfo
	var field *fieldInfo
	u.walk(owner, func(t *typeInfo) bool {
		for i := range t.fields {
			if t.fields[i].name == name {
				holder, field = t, &t.fields[i]
				return false
			}
		}
		return true
	})
	return holder, field
}

type candidate struct {
	owner  *typeInfo
	method *methodInfo
}

// methods collects the methods named name with arity parameters visible
// in owner, nearest declarations first. Overridden signatures are listed
// once.
func (u *universe) methods(owner *typeInfo, name string, arity int) []candidate {
	var out []candidate
	seen := make(map[string]bool)
	u.walk(owner, func(t *typeInfo) bool {
		for i := range t.methods {
			m := &t.methods[i]
			if m.ctor || m.name != name || len(m.params) != arity {
				continue
			}
			key := paramKey(m.params)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, candidate{owner: t, method: m})
		}
		return true
	})
	return out
}

func (u *universe) constructors(owner *typeInfo, arity int) []candidate {
	var out []candidate
	for i := range owner.methods {
		m := &owner.methods[i]
		if m.ctor && len(m.params) == arity {
			out = append(out, candidate{owner: owner, method: m})
		}
	}
	if len(out) == 0 && arity == 0 && !owner.hasConstructors() {
		out = append(out, candidate{owner: owner, method: &methodInfo{name: decl.ConstructorName, ctor: true}})
	}
	return out
}

func paramKey(params []decl.Type) string {
	key := ""
	for _, p := range params {
		key += p.Descriptor()
	}
	return key
}
