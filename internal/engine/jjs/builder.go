package jjs

import (
	"log/slog"

	"jjsdev/internal/engine/ast"
	"jjsdev/internal/engine/decl"
)

const (
	clinitName   = "$clinit"
	initName     = "$init"
	getClassName = "getClass"
)

// Result is what one Process call produced.
type Result struct {
	Types []ast.DeclaredType
	// APIRefs are the external types the unit dereferenced, sorted.
	APIRefs        []string
	MethodArgNames *MethodArgNames
}

// Builder turns the declarations of one unit into mini-AST types. It keeps
// a mapper across calls so external placeholders are shared between units.
type Builder struct {
	mapper *ReferenceMapper

	// reset on each Process
	types    []ast.DeclaredType
	methods  map[*decl.Method]*ast.Method
	argNames *MethodArgNames
}

func NewBuilder(mapper *ReferenceMapper) *Builder {
	return &Builder{mapper: mapper}
}

func (b *Builder) Mapper() *ReferenceMapper { return b.mapper }

// Process builds every declaration of one unit. An input the builder does
// not understand yields an internal compiler error.
func (b *Builder) Process(decls []*decl.DeclaredType) (res *Result, err error) {
	b.types = nil
	b.methods = make(map[*decl.Method]*ast.Method)
	b.argNames = NewMethodArgNames()
	defer func() {
		b.mapper.ClearSource()
		b.types, b.methods, b.argNames = nil, nil, nil
	}()
	defer catchBailout(&err)

	built := make([]ast.DeclaredType, len(decls))
	for i, t := range decls {
		built[i] = b.createType(t)
	}
	for i, t := range decls {
		b.resolveTypeRefs(t, built[i])
	}
	for i, t := range decls {
		b.createMembers(t, built[i])
	}
	for i, t := range decls {
		b.buildTheCode(t, built[i])
	}
	slog.Debug("built unit types", "count", len(built), "api_refs", len(b.mapper.touched))
	return &Result{
		Types:          b.types,
		APIRefs:        b.mapper.TouchedTypes(),
		MethodArgNames: b.argNames,
	}, nil
}

func infoOf(t *decl.DeclaredType, line int) ast.SourceInfo {
	if line == 0 {
		line = t.Line
	}
	return ast.SourceInfo{File: t.SourceFile, Line: line}
}

func access(m decl.Modifiers) ast.Access {
	switch {
	case m.Public:
		return ast.AccessPublic
	case m.Protected:
		return ast.AccessProtected
	case m.Private:
		return ast.AccessPrivate
	default:
		return ast.AccessDefault
	}
}

func disposition(m decl.Member) ast.Disposition {
	switch {
	case m.Modifiers.Static && m.Modifiers.Final && isConstant(m.Field.Initializer):
		return ast.DispositionCompileTimeConstant
	case m.Modifiers.Final:
		return ast.DispositionFinal
	case m.Modifiers.Volatile:
		return ast.DispositionVolatile
	default:
		return ast.DispositionNone
	}
}

func isConstant(e decl.Expr) bool {
	l, ok := e.(*decl.Literal)
	return ok && l.Kind != decl.LitNull
}

func (b *Builder) createType(t *decl.DeclaredType) ast.DeclaredType {
	name := b.mapper.intern(t.Name.JavaName())
	var out ast.DeclaredType
	if t.IsInterface {
		out = ast.NewInterfaceType(infoOf(t, 0), name)
	} else {
		out = ast.NewClassType(infoOf(t, 0), name, t.Modifiers.Abstract, t.Modifiers.Final)
	}
	b.mapper.SetSourceType(out)
	b.types = append(b.types, out)
	return out
}

func (b *Builder) resolveTypeRefs(t *decl.DeclaredType, out ast.DeclaredType) {
	defer annotate(out.Name())
	if c, ok := out.(*ast.ClassType); ok && c.Name() != javaLangObject {
		c.Super = b.mapper.ClassType(t.SuperName().JavaName())
	}
	for _, name := range t.Implements {
		out.AddImplements(b.mapper.InterfaceType(name.JavaName()))
	}
}

// synthetic adds a compiler-generated method with an empty body.
func synthetic(info ast.SourceInfo, name string, enclosing ast.DeclaredType, ret ast.Type, static, final bool, acc ast.Access) *ast.Method {
	m := ast.NewMethod(info, name, enclosing, ret, false, static, final, acc)
	m.Synthetic = true
	m.Body = ast.NewMethodBody(info)
	m.FreezeParamTypes()
	enclosing.AddMethod(m)
	return m
}

func (b *Builder) createMembers(t *decl.DeclaredType, out ast.DeclaredType) {
	defer annotate(out.Name())
	info := infoOf(t, 0)
	switch x := out.(type) {
	case *ast.ClassType:
		// $clinit, $init and getClass sit at fixed indices 0, 1, 2
		synthetic(info, clinitName, x, ast.Void, true, true, ast.AccessPrivate)
		synthetic(info, initName, x, ast.Void, false, true, ast.AccessPrivate)
		getClass := synthetic(info, getClassName, x, b.mapper.ClassType(javaLangClass), false, false, ast.AccessPublic)
		getClass.Body.Block.AddStmt(&ast.ReturnStatement{Info: info, Expr: &ast.ClassLiteral{
			Info:      info,
			RefType:   x,
			ClassType: getClass.ReturnType,
		}})
	case *ast.InterfaceType:
		if len(t.Fields()) > 0 {
			synthetic(info, clinitName, x, ast.Void, true, true, ast.AccessPrivate)
		}
	}
	for _, m := range t.Members {
		switch m.Kind {
		case decl.MemberField:
			b.createField(t, out, m)
		case decl.MemberMethod:
			b.createMethod(t, out, m)
		case decl.MemberInitializer:
			if t.IsInterface {
				bail("initializer block in interface %s", out.Name())
			}
		default:
			bail("unknown member kind %d", m.Kind)
		}
	}
}

func (b *Builder) createField(t *decl.DeclaredType, out ast.DeclaredType, m decl.Member) {
	if m.Field == nil {
		bail("field member without definition")
	}
	static := m.Modifiers.Static || t.IsInterface
	f := ast.NewField(infoOf(t, m.Line), b.mapper.intern(m.Field.Name), out, b.mapper.TypeOf(m.Field.Type), static, disposition(m))
	f.Access = access(m.Modifiers)
	out.AddField(f)
	b.mapper.SetSourceField(out.Name(), f)
}

func (b *Builder) createMethod(t *decl.DeclaredType, out ast.DeclaredType, m decl.Member) {
	dm := m.Method
	if dm == nil {
		bail("method member without definition")
	}
	info := infoOf(t, m.Line)
	var meth *ast.Method
	if dm.IsConstructor {
		c, ok := out.(*ast.ClassType)
		if !ok {
			bail("constructor in interface %s", out.Name())
		}
		meth = ast.NewConstructor(info, c)
		meth.Access = access(m.Modifiers)
	} else {
		abstract := m.Modifiers.Abstract || t.IsInterface
		meth = ast.NewMethod(info, b.mapper.intern(dm.Name), out, b.mapper.TypeOf(dm.ReturnType),
			abstract, m.Modifiers.Static, m.Modifiers.Final, access(m.Modifiers))
		meth.Native = m.Modifiers.Native
	}
	if dm.Body != nil || (!t.IsInterface && !meth.Abstract && !meth.Native) {
		meth.Body = ast.NewMethodBody(info)
	}
	for _, p := range dm.Params {
		meth.AddParam(&ast.Parameter{Info: info, Name: p.Name, Type: b.mapper.TypeOf(p.Type)})
	}
	meth.FreezeParamTypes()
	out.AddMethod(meth)
	b.argNames.Store(out.Name(), meth)
	b.mapper.SetSourceMethod(t.Signature(dm), meth)
	b.methods[dm] = meth
}

func (b *Builder) buildTheCode(t *decl.DeclaredType, out ast.DeclaredType) {
	defer annotate(out.Name())
	w := &walker{mapper: b.mapper, info: infoOf(t, 0)}

	var clinit, init *ast.Method
	methods := out.Methods()
	if len(methods) > 0 && methods[0].Name == clinitName {
		clinit = methods[0]
	}
	if _, ok := out.(*ast.ClassType); ok {
		init = methods[1]
	}
	var clinitLocals, initLocals *LocalStack
	if clinit != nil {
		clinitLocals = NewLocalStack(out, clinit.Body, nil)
		clinitLocals.PushBlock()
	}
	if init != nil {
		initLocals = NewLocalStack(out, init.Body, nil)
		initLocals.PushBlock()
	}

	for _, m := range t.Members {
		w.info = infoOf(t, m.Line)
		switch m.Kind {
		case decl.MemberField:
			if m.Field.Initializer == nil {
				continue
			}
			static := m.Modifiers.Static || t.IsInterface
			target, ls := clinit, clinitLocals
			if !static {
				target, ls = init, initLocals
			}
			b.fieldInit(w, out, m.Field, static, target, ls)
		case decl.MemberInitializer:
			target, ls := init, initLocals
			if m.Modifiers.Static {
				target, ls = clinit, clinitLocals
			}
			w.block(m.Init, target.Body.Block, ls)
		case decl.MemberMethod:
			b.methodBody(w, t, out, m.Method)
		}
	}

	if c, ok := out.(*ast.ClassType); ok && c.Super != nil {
		b.addClinitSuperCall(c)
	}
}

func (b *Builder) fieldInit(w *walker, out ast.DeclaredType, fd *decl.FieldDef, static bool, target *ast.Method, ls *LocalStack) {
	defer annotate(out.Name() + "." + fd.Name)
	f := b.mapper.Field(out.Name(), fd.Name, static, b.mapper.TypeOf(fd.Type))
	ref := &ast.FieldRef{Info: w.info, Field: f, EnclosingType: out}
	if !static {
		ref.Instance = w.thisRef(ls)
	}
	target.Body.Block.AddStmt(&ast.DeclarationStatement{
		Info:        w.info,
		Variable:    ref,
		Initializer: w.expr(fd.Initializer, ls),
	})
}

func (b *Builder) methodBody(w *walker, t *decl.DeclaredType, out ast.DeclaredType, dm *decl.Method) {
	meth := b.methods[dm]
	defer annotate(out.Name() + "." + meth.Signature())
	if meth.Body == nil || dm.Body == nil {
		return
	}
	ls := NewLocalStack(out, meth.Body, meth.Params)
	block := meth.Body.Block
	if dm.IsConstructor && !hasSiblingConstructorCall(t.Name, dm.Body) {
		c := out.(*ast.ClassType)
		block.AddStmt(ast.MakeStatement(&ast.MethodCall{
			Info:     w.info,
			Instance: &ast.ThisRef{Info: w.info, Class: c},
			Target:   c.Methods()[1],
		}))
	}
	w.block(dm.Body, block, ls)
}

// addClinitSuperCall prepends a call to the superclass static initializer.
func (b *Builder) addClinitSuperCall(c *ast.ClassType) {
	clinit := c.Methods()[0]
	var target *ast.Method
	if superMethods := c.Super.Methods(); !c.Super.IsExternal() && len(superMethods) > 0 {
		target = superMethods[0]
	} else {
		// the external placeholder stands for the superclass's own $clinit
		target = b.mapper.Method(decl.MethodSignature{
			Name:       clinitName,
			Owner:      decl.ParseGlobalName(c.Super.Name()),
			ReturnType: decl.Void,
		}, true)
	}
	clinit.Body.Block.InsertStmt(0, ast.MakeStatement(&ast.MethodCall{Info: clinit.Info, Target: target}))
}
