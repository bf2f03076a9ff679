package javafe

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"jjsdev/internal/engine/decl"
)

// declareTypes registers every class and interface of the file, nested
// ones included, so that the whole batch can refer to them.
func (c *unitCtx) declareTypes(root *sitter.Node) {
	for _, n := range namedChildren(root) {
		switch n.Kind() {
		case "class_declaration", "interface_declaration":
			c.declareType(n, nil)
		case "enum_declaration", "record_declaration", "annotation_type_declaration":
			c.guard(func() { c.unsupported(n) })
		}
	}
}

func (c *unitCtx) declareType(n *sitter.Node, outer *pendingType) {
	simple := c.text(n.ChildByFieldName("name"))
	name := decl.GlobalName{Pkg: c.pkg, Name: simple}
	var outerName *decl.GlobalName
	if outer != nil {
		name.Name = outer.info.name.Name + "$" + simple
		on := outer.info.name
		outerName = &on
	}
	if prev, ok := c.u.types[name.JavaName()]; ok && !prev.declared {
		c.errorf(n, "The type %s is already defined", simple)
		return
	}
	info := &typeInfo{
		name:        name,
		isInterface: n.Kind() == "interface_declaration",
		outer:       outerName,
	}
	info.isAbstract = info.isInterface || hasModifier(c, n, "abstract")
	pt := &pendingType{info: info, node: n, mods: c.modifiers(n), parent: outer}
	if info.isInterface {
		pt.mods.Abstract = true
	}
	c.u.declare(info)
	c.types = append(c.types, pt)

	for _, m := range namedChildren(n.ChildByFieldName("body")) {
		switch m.Kind() {
		case "class_declaration", "interface_declaration":
			c.declareType(m, pt)
		case "enum_declaration", "record_declaration", "annotation_type_declaration":
			c.guard(func() { c.unsupported(m) })
		}
	}
}

// resolveHeaders resolves supertypes and member signatures. Types are
// visited outer first so nested scopes can chain to their parent.
func (c *unitCtx) resolveHeaders() {
	for _, pt := range c.types {
		c.resolveHeader(pt)
	}
}

func (c *unitCtx) resolveHeader(pt *pendingType) {
	info := pt.info
	parent := &typeScope{vars: make(map[string]decl.Type)}
	if pt.parent != nil {
		parent = pt.parent.scope
	}
	pt.scope = parent.child(info)
	defer func() { info.declared = true }()

	c.guard(func() {
		c.declareTypeParams(pt.node.ChildByFieldName("type_parameters"), pt.scope)
		if sc := pt.node.ChildByFieldName("superclass"); sc != nil {
			t := c.resolveType(namedChildren(sc)[0], pt.scope)
			if t.Kind != decl.KindNamed {
				c.failf(sc, "The type %s cannot be the superclass", t.SourceName())
			}
			if isIface, known := c.u.isInterface(t.Named.JavaName()); known && isIface {
				c.failf(sc, "The type %s cannot be the superclass of %s; a superclass must be a class", t.SourceName(), info.name.Name)
			}
			g := t.Named
			pt.ext = &g
		}
		list := pt.node.ChildByFieldName("interfaces")
		if list == nil {
			list = childOfKind(pt.node, "extends_interfaces")
		}
		for _, t := range namedChildren(childOfKind(list, "type_list")) {
			it := c.resolveType(t, pt.scope)
			if it.Kind != decl.KindNamed {
				c.failf(t, "The type %s cannot be a superinterface", it.SourceName())
			}
			if isIface, known := c.u.isInterface(it.Named.JavaName()); known && !isIface {
				c.failf(t, "The type %s cannot be a superinterface of %s; a superinterface must be an interface", it.SourceName(), info.name.Name)
			}
			info.interfaces = append(info.interfaces, it.Named)
		}
	})
	if !info.isInterface && info.javaName() != javaLangObject {
		super := decl.GlobalName{Pkg: "java.lang", Name: "Object"}
		if pt.ext != nil {
			super = *pt.ext
		}
		info.super = &super
	}

	for _, m := range namedChildren(pt.node.ChildByFieldName("body")) {
		switch m.Kind() {
		case "field_declaration", "constant_declaration":
			c.guard(func() { c.fieldHeaders(pt, m) })
		case "method_declaration":
			c.guard(func() { c.methodHeader(pt, m, false) })
		case "constructor_declaration":
			c.guard(func() {
				if info.isInterface {
					c.failf(m, "Interfaces cannot have constructors")
				}
				c.methodHeader(pt, m, true)
			})
		case "static_initializer":
			pt.members = append(pt.members, memberHeader{
				kind: decl.MemberInitializer,
				node: childOfKind(m, "block"),
				mods: decl.Modifiers{Static: true},
			})
		case "block":
			pt.members = append(pt.members, memberHeader{kind: decl.MemberInitializer, node: m})
		case "class_declaration", "interface_declaration",
			"enum_declaration", "record_declaration", "annotation_type_declaration":
		default:
			c.guard(func() { c.unsupported(m) })
		}
	}
}

func (c *unitCtx) fieldHeaders(pt *pendingType, n *sitter.Node) {
	info := pt.info
	mods := c.modifiers(n)
	if info.isInterface {
		mods.Public, mods.Static, mods.Final = true, true, true
	}
	typ := c.resolveType(n.ChildByFieldName("type"), pt.scope)
	for _, v := range childrenOfKind(n, "variable_declarator") {
		name := c.text(v.ChildByFieldName("name"))
		for _, f := range info.fields {
			if f.name == name {
				c.failf(v, "Duplicate field %s.%s", info.name.Name, name)
			}
		}
		fi := fieldInfo{
			name:   name,
			typ:    arrayOf(typ, dims(c.text(v.ChildByFieldName("dimensions")))),
			static: mods.Static,
		}
		info.fields = append(info.fields, fi)
		pt.members = append(pt.members, memberHeader{kind: decl.MemberField, node: v, mods: mods, field: fi})
	}
}

func (c *unitCtx) methodHeader(pt *pendingType, n *sitter.Node, ctor bool) {
	info := pt.info
	mods := c.modifiers(n)
	body := n.ChildByFieldName("body")
	name := c.text(n.ChildByFieldName("name"))
	if info.isInterface {
		if !mods.Private {
			mods.Public = true
		}
		if !mods.Static && body == nil {
			mods.Abstract = true
		}
	}
	if ctor && name != simpleName(info.name.Name) {
		c.failf(n, "Return type for the method %s is missing", name)
	}
	if mods.Abstract && body != nil && !info.isInterface {
		c.failf(n, "Abstract methods do not specify a body")
	}
	if mods.Abstract && !info.isAbstract {
		c.failf(n, "The abstract method %s in type %s can only be defined by an abstract class", name, simpleName(info.name.Name))
	}
	if body == nil && !mods.Abstract && !mods.Native && !c.stub {
		c.failf(n, "This method requires a body instead of a semicolon")
	}

	scope := pt.scope.child(nil)
	c.declareTypeParams(n.ChildByFieldName("type_parameters"), scope)
	mi := methodInfo{name: name, ctor: ctor, static: mods.Static, ret: decl.Void}
	if ctor {
		mi.name = decl.ConstructorName
	} else {
		mi.ret = c.resolveType(n.ChildByFieldName("type"), scope)
		mi.ret = arrayOf(mi.ret, dims(c.text(n.ChildByFieldName("dimensions"))))
	}
	var names []string
	for _, p := range namedChildren(n.ChildByFieldName("parameters")) {
		switch p.Kind() {
		case "formal_parameter":
			t := c.resolveType(p.ChildByFieldName("type"), scope)
			t = arrayOf(t, dims(c.text(p.ChildByFieldName("dimensions"))))
			mi.params = append(mi.params, t)
			names = append(names, c.text(p.ChildByFieldName("name")))
		case "spread_parameter":
			var t decl.Type
			for _, ch := range namedChildren(p) {
				switch ch.Kind() {
				case "modifiers":
				case "variable_declarator":
					names = append(names, c.text(ch.ChildByFieldName("name")))
				default:
					t = c.resolveType(ch, scope)
				}
			}
			mi.params = append(mi.params, decl.ArrayOf(t))
		case "receiver_parameter":
		default:
			c.unsupported(p)
		}
	}
	key := paramKey(mi.params)
	for _, other := range info.methods {
		if other.name == mi.name && paramKey(other.params) == key {
			c.failf(n, "Duplicate method %s in type %s", name, simpleName(info.name.Name))
		}
	}
	info.methods = append(info.methods, mi)
	pt.members = append(pt.members, memberHeader{
		kind:   decl.MemberMethod,
		node:   n,
		mods:   mods,
		method: mi,
		params: names,
		scope:  scope,
	})
}

// simpleName strips the enclosing type names of a binary name.
func simpleName(binary string) string {
	for i := len(binary) - 1; i >= 0; i-- {
		if binary[i] == '$' {
			return binary[i+1:]
		}
	}
	return binary
}
