package javafe

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"jjsdev/internal/engine/decl"
	"jjsdev/internal/engine/javac"
)

// compileError aborts lowering of the member being processed and becomes a
// problem on the unit.
type compileError struct {
	line, col int
	msg       string
}

type importDecl struct {
	node     *sitter.Node
	name     string
	static   bool
	onDemand bool
}

type pendingType struct {
	info   *typeInfo
	node   *sitter.Node
	mods   decl.Modifiers
	parent *pendingType
	// scope is the body scope, set when the header is resolved
	scope *typeScope
	// ext is the explicit superclass, if any
	ext     *decl.GlobalName
	members []memberHeader
}

type memberHeader struct {
	kind decl.MemberKind
	// node is the variable declarator for fields, the block for
	// initializers and the declaration otherwise
	node   *sitter.Node
	mods   decl.Modifiers
	field  fieldInfo
	method methodInfo
	params []string
	scope  *typeScope
}

// typeScope resolves simple type names: type variables first, then member
// types of the owner and its supertypes, then the enclosing scope.
type typeScope struct {
	parent *typeScope
	owner  *typeInfo
	vars   map[string]decl.Type
}

func (s *typeScope) child(owner *typeInfo) *typeScope {
	return &typeScope{parent: s, owner: owner, vars: make(map[string]decl.Type)}
}

// unitCtx is the state of one source file during a batch.
type unitCtx struct {
	u    *universe
	src  []byte
	file string
	pkg  string
	// stub files only contribute headers
	stub bool

	imports        []importDecl
	single         map[string]string
	singleNodes    map[string]*sitter.Node
	usedImports    map[string]bool
	onDemand       []string
	staticSingle   map[string][]string
	staticOnDemand []string

	types       []*pendingType
	problems    []javac.Problem
	jsniMethods []javac.JsniMethod

	qualified map[string]struct{}
	simple    map[string]struct{}
}

func newUnitCtx(u *universe, src []byte, file string) *unitCtx {
	return &unitCtx{
		u:            u,
		src:          src,
		file:         file,
		single:       make(map[string]string),
		singleNodes:  make(map[string]*sitter.Node),
		usedImports:  make(map[string]bool),
		staticSingle: make(map[string][]string),
		onDemand:     []string{"java.lang"},
		qualified:    make(map[string]struct{}),
		simple:       make(map[string]struct{}),
	}
}

func (c *unitCtx) text(n *sitter.Node) string { return text(n, c.src) }

func (c *unitCtx) failf(n *sitter.Node, format string, args ...any) {
	panic(compileError{line: lineOf(n), col: columnOf(n), msg: fmt.Sprintf(format, args...)})
}

func (c *unitCtx) errorf(n *sitter.Node, format string, args ...any) {
	c.problems = append(c.problems, javac.Problem{
		Severity: javac.SeverityError,
		Message:  fmt.Sprintf(format, args...),
		Line:     lineOf(n),
		Column:   columnOf(n),
	})
}

func (c *unitCtx) warnf(n *sitter.Node, format string, args ...any) {
	c.problems = append(c.problems, javac.Problem{
		Severity: javac.SeverityWarning,
		Message:  fmt.Sprintf(format, args...),
		Line:     lineOf(n),
		Column:   columnOf(n),
	})
}

func (c *unitCtx) unsupported(n *sitter.Node) {
	c.failf(n, "Unsupported construct: %s", n.Kind())
}

// guard runs f and turns a compileError into a problem.
func (c *unitCtx) guard(f func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ce, isCE := r.(compileError)
			if !isCE {
				panic(r)
			}
			c.problems = append(c.problems, javac.Problem{
				Severity: javac.SeverityError, Message: ce.msg, Line: ce.line, Column: ce.col,
			})
			ok = false
		}
	}()
	f()
	return true
}

func (c *unitCtx) refType(t decl.Type) {
	if c.stub {
		return
	}
	if l := t.Leaf(); l.Kind == decl.KindNamed {
		c.qualified[l.Named.JavaName()] = struct{}{}
	}
}

func (c *unitCtx) refName(javaName string) {
	if !c.stub {
		c.qualified[javaName] = struct{}{}
	}
}

func (c *unitCtx) refSimple(name string) {
	if !c.stub {
		c.simple[name] = struct{}{}
	}
}

// collectHeader reads the package and import declarations.
func (c *unitCtx) collectHeader(root *sitter.Node) {
	for _, n := range namedChildren(root) {
		switch n.Kind() {
		case "package_declaration":
			if name := childOfKind(n, "identifier", "scoped_identifier"); name != nil {
				c.pkg = c.text(name)
			}
		case "import_declaration":
			imp := importDecl{node: n}
			for _, ch := range children(n) {
				switch ch.Kind() {
				case "static":
					imp.static = true
				case "asterisk":
					imp.onDemand = true
				case "identifier", "scoped_identifier":
					imp.name = c.text(ch)
				}
			}
			c.imports = append(c.imports, imp)
		}
	}
}

// resolveImports runs once every type of the batch is declared.
func (c *unitCtx) resolveImports() {
	for _, imp := range c.imports {
		c.guard(func() {
			parts := strings.Split(imp.name, ".")
			switch {
			case imp.static && imp.onDemand:
				c.staticOnDemand = append(c.staticOnDemand, c.mustQualified(imp.node, parts))
			case imp.static:
				owner := c.mustQualified(imp.node, parts[:len(parts)-1])
				member := parts[len(parts)-1]
				c.staticSingle[member] = append(c.staticSingle[member], owner)
			case imp.onDemand:
				if name, ok := c.qualifiedType(parts); ok {
					c.onDemand = append(c.onDemand, name)
				} else {
					c.onDemand = append(c.onDemand, imp.name)
				}
			default:
				name := c.mustQualified(imp.node, parts)
				simple := parts[len(parts)-1]
				c.single[simple] = name
				c.singleNodes[simple] = imp.node
			}
		})
	}
}

// warnUnusedImports reports single-type imports no name resolved through.
func (c *unitCtx) warnUnusedImports() {
	for simple, n := range c.singleNodes {
		if !c.usedImports[simple] {
			c.warnf(n, "The import %s is never used", c.single[simple])
		}
	}
}

func (c *unitCtx) mustQualified(n *sitter.Node, parts []string) string {
	name, ok := c.qualifiedType(parts)
	if !ok {
		c.failf(n, "The import %s cannot be resolved", strings.Join(parts, "."))
	}
	return name
}

// qualifiedType resolves a dotted name whose leading segments form a
// package and whose trailing segments name nested types.
func (c *unitCtx) qualifiedType(parts []string) (string, bool) {
	for i := len(parts); i >= 1; i-- {
		name := strings.Join(parts[:i], ".")
		if !c.u.exists(name) {
			continue
		}
		for _, nested := range parts[i:] {
			name += "$" + nested
		}
		if !c.u.exists(name) {
			return "", false
		}
		c.refName(name)
		return name, true
	}
	return "", false
}

// simpleType resolves a simple type name without reporting failure.
func (c *unitCtx) simpleType(name string, s *typeScope) (decl.Type, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if t, ok := sc.vars[name]; ok {
			return t, true
		}
		if sc.owner == nil {
			continue
		}
		if sc.owner.name.Name == name || strings.HasSuffix(sc.owner.name.Name, "$"+name) {
			return decl.NamedType(sc.owner.name), true
		}
		var found string
		c.u.walk(sc.owner, func(t *typeInfo) bool {
			if candidate := t.javaName() + "$" + name; c.u.exists(candidate) {
				found = candidate
				return false
			}
			return true
		})
		if found != "" {
			return decl.Named(found), true
		}
	}
	if imported, ok := c.single[name]; ok {
		c.usedImports[name] = true
		return decl.Named(imported), true
	}
	local := name
	if c.pkg != "" {
		local = c.pkg + "." + name
	}
	if c.u.exists(local) {
		return decl.NamedType(decl.GlobalName{Pkg: c.pkg, Name: name}), true
	}
	for _, p := range c.onDemand {
		if c.u.exists(p + "$" + name) {
			return decl.Named(p + "$" + name), true
		}
		if c.u.exists(p + "." + name) {
			return decl.NamedType(decl.GlobalName{Pkg: p, Name: name}), true
		}
	}
	return decl.Type{}, false
}

// typeName resolves a possibly qualified type name as written in source.
func (c *unitCtx) typeName(n *sitter.Node, parts []string, s *typeScope) decl.Type {
	c.refSimple(parts[0])
	if len(parts) == 1 {
		t, ok := c.simpleType(parts[0], s)
		if !ok {
			c.failf(n, "%s cannot be resolved to a type", parts[0])
		}
		c.refType(t)
		return t
	}
	if head, ok := c.simpleType(parts[0], s); ok && head.Kind == decl.KindNamed {
		name := head.Named.JavaName()
		for _, nested := range parts[1:] {
			name += "$" + nested
		}
		if c.u.exists(name) {
			t := decl.Named(name)
			c.refType(t)
			return t
		}
	}
	name, ok := c.qualifiedType(parts)
	if !ok {
		c.failf(n, "%s cannot be resolved to a type", strings.Join(parts, "."))
	}
	return decl.Named(name)
}

// resolveType lowers a type node. Generic arguments are resolved for their
// references and then erased.
func (c *unitCtx) resolveType(n *sitter.Node, s *typeScope) decl.Type {
	switch n.Kind() {
	case "integral_type", "floating_point_type", "boolean_type":
		p, ok := decl.PrimitiveByName(strings.TrimSpace(c.text(n)))
		if !ok {
			c.failf(n, "unknown primitive type %s", c.text(n))
		}
		return decl.Prim(p)
	case "void_type":
		return decl.Void
	case "type_identifier":
		return c.typeName(n, []string{c.text(n)}, s)
	case "scoped_type_identifier":
		return c.typeName(n, c.typeParts(n, s), s)
	case "generic_type":
		var base decl.Type
		for _, ch := range namedChildren(n) {
			switch ch.Kind() {
			case "type_arguments":
				for _, arg := range namedChildren(ch) {
					if arg.Kind() != "wildcard" {
						c.resolveType(arg, s)
					}
				}
			default:
				base = c.resolveType(ch, s)
			}
		}
		return base
	case "array_type":
		elem := c.resolveType(n.ChildByFieldName("element"), s)
		return arrayOf(elem, dims(c.text(n.ChildByFieldName("dimensions"))))
	case "annotated_type":
		kids := namedChildren(n)
		return c.resolveType(kids[len(kids)-1], s)
	}
	c.unsupported(n)
	return decl.Type{}
}

// typeParts flattens a scoped type identifier, resolving any type
// arguments along the way.
func (c *unitCtx) typeParts(n *sitter.Node, s *typeScope) []string {
	var parts []string
	for _, ch := range namedChildren(n) {
		switch ch.Kind() {
		case "type_identifier":
			parts = append(parts, c.text(ch))
		case "scoped_type_identifier":
			parts = append(parts, c.typeParts(ch, s)...)
		case "generic_type":
			for _, g := range namedChildren(ch) {
				switch g.Kind() {
				case "type_identifier":
					parts = append(parts, c.text(g))
				case "scoped_type_identifier":
					parts = append(parts, c.typeParts(g, s)...)
				case "type_arguments":
					for _, arg := range namedChildren(g) {
						if arg.Kind() != "wildcard" {
							c.resolveType(arg, s)
						}
					}
				}
			}
		}
	}
	return parts
}

func dims(brackets string) int { return strings.Count(brackets, "[") }

func arrayOf(t decl.Type, n int) decl.Type {
	for range n {
		t = decl.ArrayOf(t)
	}
	return t
}

// declareTypeParams adds the erasures of a type_parameters node to s.
func (c *unitCtx) declareTypeParams(n *sitter.Node, s *typeScope) {
	if n == nil {
		return
	}
	for _, p := range childrenOfKind(n, "type_parameter") {
		name := c.text(childOfKind(p, "type_identifier", "identifier"))
		s.vars[name] = decl.Named(javaLangObject)
	}
	for _, p := range childrenOfKind(n, "type_parameter") {
		name := c.text(childOfKind(p, "type_identifier", "identifier"))
		if bound := childOfKind(p, "type_bound"); bound != nil {
			if kids := namedChildren(bound); len(kids) > 0 {
				s.vars[name] = c.resolveType(kids[0], s)
			}
		}
	}
}

func (c *unitCtx) modifiers(n *sitter.Node) decl.Modifiers {
	var m decl.Modifiers
	mods := childOfKind(n, "modifiers")
	if mods == nil {
		return m
	}
	for _, ch := range children(mods) {
		switch c.text(ch) {
		case "public":
			m.Public = true
		case "protected":
			m.Protected = true
		case "private":
			m.Private = true
		case "static":
			m.Static = true
		case "final":
			m.Final = true
		case "abstract":
			m.Abstract = true
		case "native":
			m.Native = true
		case "synchronized":
			m.Synchronized = true
		case "transient":
			m.Transient = true
		case "volatile":
			m.Volatile = true
		}
	}
	return m
}

func hasModifier(c *unitCtx, n *sitter.Node, word string) bool {
	mods := childOfKind(n, "modifiers")
	for _, ch := range children(mods) {
		if c.text(ch) == word {
			return true
		}
	}
	return false
}
