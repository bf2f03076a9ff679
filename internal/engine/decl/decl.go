package decl

// DeclaredType is one class or interface. Nested and local types are listed
// separately in their unit and point back through Outer.
type DeclaredType struct {
	Name        GlobalName
	Modifiers   Modifiers
	IsInterface bool
	Ext         *GlobalName
	Implements  []GlobalName
	Members     []Member
	Outer       *GlobalName
	IsLocal     bool
	SourceFile  string
	Line        int
}

type MemberKind int

const (
	MemberField MemberKind = iota + 1
	MemberMethod
	// MemberInitializer is a Java initializer block; Modifiers.Static
	// selects static or instance.
	MemberInitializer
)

type Member struct {
	Kind      MemberKind
	Modifiers Modifiers
	Field     *FieldDef
	Method    *Method
	Init      *Block
	Line      int
}

type FieldDef struct {
	Name        string
	Type        Type
	Initializer Expr
}

// Method is a method or constructor. Body is nil for abstract and native
// methods.
type Method struct {
	Name          string
	IsConstructor bool
	Params        []ParamDef
	ReturnType    Type
	Body          *Block
	// Jsni holds the raw JavaScript of a native method, if any.
	Jsni string
}

type ParamDef struct {
	Name string
	Type Type
}

// ConstructorName is the method name constructors carry in signatures.
const ConstructorName = "new"

// MethodSignature identifies a method across units.
type MethodSignature struct {
	Name       string
	Owner      GlobalName
	ParamTypes []Type
	ReturnType Type
}

// Descriptor renders "name(params)ret" in JNI form.
func (s MethodSignature) Descriptor() string {
	b := make([]byte, 0, 32)
	b = append(b, s.Name...)
	b = append(b, '(')
	for _, p := range s.ParamTypes {
		b = append(b, p.Descriptor()...)
	}
	b = append(b, ')')
	b = append(b, s.ReturnType.Descriptor()...)
	return string(b)
}

// IsConstructor reports whether s names a constructor.
func (s MethodSignature) IsConstructor() bool { return s.Name == ConstructorName }

// Signature builds the cross-unit signature of m declared in t.
func (t *DeclaredType) Signature(m *Method) MethodSignature {
	sig := MethodSignature{Name: m.Name, Owner: t.Name, ReturnType: m.ReturnType}
	if m.IsConstructor {
		sig.Name = ConstructorName
		sig.ReturnType = Void
	}
	for _, p := range m.Params {
		sig.ParamTypes = append(sig.ParamTypes, p.Type)
	}
	return sig
}

// Fields returns the field members in declaration order.
func (t *DeclaredType) Fields() []Member {
	return t.membersOf(MemberField)
}

// Methods returns method and constructor members in declaration order.
func (t *DeclaredType) Methods() []Member {
	return t.membersOf(MemberMethod)
}

func (t *DeclaredType) membersOf(kind MemberKind) []Member {
	var out []Member
	for _, m := range t.Members {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

// Constructors returns the constructor methods.
func (t *DeclaredType) Constructors() []*Method {
	var out []*Method
	for _, m := range t.Members {
		if m.Kind == MemberMethod && m.Method.IsConstructor {
			out = append(out, m.Method)
		}
	}
	return out
}

// SuperName is the explicit superclass or java.lang.Object.
func (t *DeclaredType) SuperName() GlobalName {
	if t.Ext != nil {
		return *t.Ext
	}
	return GlobalName{Pkg: "java.lang", Name: "Object"}
}

// CompilationUnitDecl is everything one source file declares.
type CompilationUnitDecl struct {
	Package    string
	SourceFile string
	Types      []*DeclaredType
}

// TopLevel returns the first non-nested type, which names the unit.
func (u *CompilationUnitDecl) TopLevel() *DeclaredType {
	for _, t := range u.Types {
		if t.Outer == nil {
			return t
		}
	}
	if len(u.Types) > 0 {
		return u.Types[0]
	}
	return nil
}
