package javafe

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"jjsdev/internal/engine/decl"
	"jjsdev/internal/engine/javac"
)

// lowerTypes lowers every declared type of the file. A member that fails
// is left out and reported.
func (c *unitCtx) lowerTypes() []*decl.DeclaredType {
	out := make([]*decl.DeclaredType, 0, len(c.types))
	for _, pt := range c.types {
		out = append(out, c.lowerType(pt))
	}
	return out
}

func (c *unitCtx) lowerType(pt *pendingType) *decl.DeclaredType {
	info := pt.info
	dt := &decl.DeclaredType{
		Name:        info.name,
		Modifiers:   pt.mods,
		IsInterface: info.isInterface,
		Ext:         pt.ext,
		Implements:  info.interfaces,
		Outer:       info.outer,
		SourceFile:  c.file,
		Line:        lineOf(pt.node),
	}
	for _, mh := range pt.members {
		c.guard(func() {
			dt.Members = append(dt.Members, c.lowerMember(pt, mh))
		})
	}
	if !info.isInterface && !info.hasConstructors() {
		c.guard(func() {
			dt.Members = append(dt.Members, c.defaultConstructor(pt))
		})
	}
	return dt
}

func (c *unitCtx) lowerMember(pt *pendingType, mh memberHeader) decl.Member {
	member := decl.Member{Kind: mh.kind, Modifiers: mh.mods, Line: lineOf(mh.node)}
	switch mh.kind {
	case decl.MemberField:
		fd := &decl.FieldDef{Name: mh.field.name, Type: mh.field.typ}
		if val := mh.node.ChildByFieldName("value"); val != nil {
			m := c.newMethodCtx(pt, pt.scope, mh.mods.Static, decl.Void)
			fd.Initializer = m.initializer(val, fd.Type)
		}
		member.Field = fd
	case decl.MemberInitializer:
		m := c.newMethodCtx(pt, pt.scope, mh.mods.Static, decl.Void)
		member.Init = m.block(mh.node)
	case decl.MemberMethod:
		member.Method = c.lowerMethod(pt, mh)
	}
	return member
}

func (c *unitCtx) lowerMethod(pt *pendingType, mh memberHeader) *decl.Method {
	mi := mh.method
	out := &decl.Method{
		Name:          mi.name,
		IsConstructor: mi.ctor,
		ReturnType:    mi.ret,
		Params:        []decl.ParamDef{},
	}
	if mi.ctor {
		out.Name = "<init>"
	}
	m := c.newMethodCtx(pt, mh.scope, mh.mods.Static, mi.ret)
	for i, p := range mh.params {
		out.Params = append(out.Params, decl.ParamDef{Name: p, Type: mi.params[i]})
		m.declare(mh.node, p, mi.params[i])
	}
	if mh.mods.Native {
		out.Jsni = c.jsni(pt, mh, out)
		return out
	}
	body := mh.node.ChildByFieldName("body")
	switch {
	case body == nil:
	case mi.ctor:
		out.Body = m.constructorBody(body)
	default:
		out.Body = m.block(body)
	}
	return out
}

func (c *unitCtx) defaultConstructor(pt *pendingType) decl.Member {
	m := c.newMethodCtx(pt, pt.scope, false, decl.Void)
	body := &decl.Block{Stmts: []decl.Stmt{}}
	if s := m.implicitSuperCall(pt.node); s != nil {
		body.Stmts = append(body.Stmts, s)
	}
	ctor := methodInfo{name: decl.ConstructorName, ctor: true, ret: decl.Void}
	pt.info.methods = append(pt.info.methods, ctor)
	return decl.Member{
		Kind:      decl.MemberMethod,
		Modifiers: decl.Modifiers{Public: pt.mods.Public, Protected: pt.mods.Protected, Private: pt.mods.Private},
		Method: &decl.Method{
			Name:          "<init>",
			IsConstructor: true,
			ReturnType:    decl.Void,
			Params:        []decl.ParamDef{},
			Body:          body,
		},
		Line: lineOf(pt.node),
	}
}

const (
	jsniOpen  = "/*-{"
	jsniClose = "}-*/"
)

// jsni extracts the JavaScript body of a native method from the
// /*-{ ... }-*/ comment that precedes its semicolon.
func (c *unitCtx) jsni(pt *pendingType, mh memberHeader, out *decl.Method) string {
	var comment *sitter.Node
	for _, ch := range children(mh.node) {
		if isComment(ch) && strings.HasPrefix(c.text(ch), jsniOpen) {
			comment = ch
		}
	}
	if comment == nil {
		if next := mh.node.NextSibling(); next != nil && isComment(next) && strings.HasPrefix(c.text(next), jsniOpen) {
			comment = next
		}
	}
	if comment == nil {
		if c.stub {
			return ""
		}
		c.failf(mh.node, "Native methods require a JavaScript implementation enclosed with %s and %s", jsniOpen, jsniClose)
	}
	raw := c.text(comment)
	if !strings.HasSuffix(raw, jsniClose) {
		c.failf(comment, "Unterminated JSNI block")
	}
	js := raw[len(jsniOpen) : len(raw)-len(jsniClose)]
	sig := pt.info.signature(&mh.method)
	c.jsniMethods = append(c.jsniMethods, javac.JsniMethod{
		Name:      out.Name,
		Signature: sig.Descriptor(),
		Params:    append([]string(nil), mh.params...),
		Body:      js,
		Line:      lineOf(comment),
	})
	return js
}
