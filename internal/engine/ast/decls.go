package ast

import (
	"strconv"
	"strings"
)

// DeclaredType is a class or interface, either built from source in the
// current unit or an external placeholder.
type DeclaredType interface {
	ReferenceType
	Info() SourceInfo
	Methods() []*Method
	Fields() []*Field
	Implements() []*InterfaceType
	IsExternal() bool
	AddMethod(m *Method)
	AddField(f *Field)
	AddImplements(i *InterfaceType)
	// ShortName is the simple name with package and outer classes removed.
	ShortName() string
	PackageName() string
	base() *declaredBase
}

type declaredBase struct {
	info       SourceInfo
	name       string
	external   bool
	methods    []*Method
	fields     []*Field
	implements []*InterfaceType
}

func (d *declaredBase) node()                          {}
func (d *declaredBase) isType()                        {}
func (d *declaredBase) isReference()                   {}
func (d *declaredBase) base() *declaredBase            { return d }
func (d *declaredBase) Name() string                   { return d.name }
func (d *declaredBase) SignatureName() string          { return ReferenceSignature(d.name) }
func (d *declaredBase) Info() SourceInfo               { return d.info }
func (d *declaredBase) Methods() []*Method             { return d.methods }
func (d *declaredBase) Fields() []*Field               { return d.fields }
func (d *declaredBase) Implements() []*InterfaceType   { return d.implements }
func (d *declaredBase) IsExternal() bool               { return d.external }
func (d *declaredBase) AddField(f *Field)              { d.fields = append(d.fields, f) }
func (d *declaredBase) AddImplements(i *InterfaceType) { d.implements = append(d.implements, i) }

func (d *declaredBase) AddMethod(m *Method) {
	d.methods = append(d.methods, m)
}

func (d *declaredBase) ShortName() string {
	name := d.name[strings.LastIndexByte(d.name, '.')+1:]
	return name[strings.LastIndexByte(name, '$')+1:]
}

func (d *declaredBase) PackageName() string {
	if i := strings.LastIndexByte(d.name, '.'); i >= 0 {
		return d.name[:i]
	}
	return ""
}

type ClassType struct {
	declaredBase
	Super    *ClassType
	Abstract bool
	Final    bool
}

func NewClassType(info SourceInfo, name string, abstract, final bool) *ClassType {
	return &ClassType{declaredBase: declaredBase{info: info, name: name}, Abstract: abstract, Final: final}
}

// NewExternalClassType creates a placeholder for a class outside the unit.
func NewExternalClassType(name string) *ClassType {
	return &ClassType{declaredBase: declaredBase{name: name, external: true}}
}

type InterfaceType struct {
	declaredBase
}

func NewInterfaceType(info SourceInfo, name string) *InterfaceType {
	return &InterfaceType{declaredBase: declaredBase{info: info, name: name}}
}

func NewExternalInterfaceType(name string) *InterfaceType {
	return &InterfaceType{declaredBase: declaredBase{name: name, external: true}}
}

type Access int

const (
	AccessDefault Access = iota
	AccessPublic
	AccessProtected
	AccessPrivate
)

func (a Access) String() string {
	switch a {
	case AccessPublic:
		return "public"
	case AccessProtected:
		return "protected"
	case AccessPrivate:
		return "private"
	default:
		return ""
	}
}

type Disposition int

const (
	DispositionNone Disposition = iota
	DispositionFinal
	DispositionVolatile
	DispositionCompileTimeConstant
)

// Variable is anything a VariableRef can point at.
type Variable interface {
	Node
	VarName() string
	VarType() Type
}

type Field struct {
	Info        SourceInfo
	Name        string
	Enclosing   DeclaredType
	Type        Type
	Static      bool
	Disposition Disposition
	Access      Access
	external    bool
}

func NewField(info SourceInfo, name string, enclosing DeclaredType, typ Type, static bool, disp Disposition) *Field {
	return &Field{Info: info, Name: name, Enclosing: enclosing, Type: typ, Static: static, Disposition: disp}
}

// NewExternalField creates a placeholder field; it is not added to enclosing.
func NewExternalField(name string, enclosing DeclaredType, typ Type, static bool) *Field {
	return &Field{Name: name, Enclosing: enclosing, Type: typ, Static: static, external: true}
}

func (*Field) node()              {}
func (f *Field) VarName() string  { return f.Name }
func (f *Field) VarType() Type    { return f.Type }
func (f *Field) IsExternal() bool { return f.external }
func (f *Field) IsFinal() bool {
	return f.Disposition == DispositionFinal || f.Disposition == DispositionCompileTimeConstant
}
func (f *Field) Signature() string { return f.Name + ":" + f.Type.SignatureName() }

type Method struct {
	Info        SourceInfo
	Name        string
	Enclosing   DeclaredType
	ReturnType  Type
	Params      []*Parameter
	Abstract    bool
	Static      bool
	Final       bool
	Native      bool
	Synthetic   bool
	Constructor bool
	Access      Access
	Body        *MethodBody
	external    bool
	frozen      bool
}

func NewMethod(info SourceInfo, name string, enclosing DeclaredType, ret Type, abstract, static, final bool, access Access) *Method {
	return &Method{
		Info:       info,
		Name:       name,
		Enclosing:  enclosing,
		ReturnType: ret,
		Abstract:   abstract,
		Static:     static,
		Final:      final,
		Access:     access,
	}
}

// NewConstructor names the method after its class, returning void.
func NewConstructor(info SourceInfo, enclosing *ClassType) *Method {
	m := NewMethod(info, enclosing.ShortName(), enclosing, Void, false, false, false, AccessPublic)
	m.Constructor = true
	return m
}

// NewExternalMethod creates a placeholder method with synthesized parameter names.
func NewExternalMethod(name string, enclosing DeclaredType, params []Type, ret Type, static, ctor bool) *Method {
	m := &Method{Name: name, Enclosing: enclosing, ReturnType: ret, Static: static, Constructor: ctor, external: true}
	for i, p := range params {
		m.Params = append(m.Params, &Parameter{Name: "arg" + strconv.Itoa(i), Type: p, Method: m})
	}
	m.frozen = true
	return m
}

func (*Method) node()              {}
func (m *Method) IsExternal() bool { return m.external }
func (m *Method) IsPrivate() bool  { return m.Access == AccessPrivate }

// AddParam appends a parameter; it panics once parameter types are frozen.
func (m *Method) AddParam(p *Parameter) {
	if m.frozen {
		panic("ast: parameters of " + m.Name + " are frozen")
	}
	p.Method = m
	m.Params = append(m.Params, p)
}

func (m *Method) FreezeParamTypes() { m.frozen = true }

func (m *Method) ParamTypes() []Type {
	out := make([]Type, len(m.Params))
	for i, p := range m.Params {
		out[i] = p.Type
	}
	return out
}

// Signature renders "name(params)ret" using JNI descriptors, e.g. "zaz()V".
func (m *Method) Signature() string {
	var b strings.Builder
	b.WriteString(m.Name)
	b.WriteByte('(')
	for _, p := range m.Params {
		b.WriteString(p.Type.SignatureName())
	}
	b.WriteByte(')')
	b.WriteString(m.ReturnType.SignatureName())
	return b.String()
}

type Parameter struct {
	Info   SourceInfo
	Name   string
	Type   Type
	Final  bool
	Method *Method
}

func (*Parameter) node()             {}
func (p *Parameter) VarName() string { return p.Name }
func (p *Parameter) VarType() Type   { return p.Type }

type Local struct {
	Info  SourceInfo
	Name  string
	Type  Type
	Final bool
	Body  *MethodBody
}

func (*Local) node()             {}
func (l *Local) VarName() string { return l.Name }
func (l *Local) VarType() Type   { return l.Type }

type MethodBody struct {
	Info   SourceInfo
	Block  *Block
	Locals []*Local
}

func NewMethodBody(info SourceInfo) *MethodBody {
	return &MethodBody{Info: info, Block: &Block{Info: info}}
}

func (*MethodBody) node() {}

// NewLocal creates a local owned by body.
func (b *MethodBody) NewLocal(info SourceInfo, name string, typ Type, final bool) *Local {
	l := &Local{Info: info, Name: name, Type: typ, Final: final, Body: b}
	b.Locals = append(b.Locals, l)
	return l
}

type Label struct {
	Info SourceInfo
	Name string
}

func (*Label) node() {}
