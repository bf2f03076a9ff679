package ast

// Expr is an expression node.
type Expr interface {
	Node
	Type() Type
	expr()
}

// VariableRef is an expression naming a local, parameter or field.
type VariableRef interface {
	Expr
	Target() Variable
}

// Literal is a compile-time constant expression.
type Literal interface {
	Expr
	literal()
}

type BooleanLiteral struct{ Value bool }
type CharLiteral struct{ Value uint16 }
type IntLiteral struct{ Value int32 }
type LongLiteral struct{ Value int64 }
type FloatLiteral struct{ Value float32 }
type DoubleLiteral struct{ Value float64 }
type NullLiteral struct{}

type StringLiteral struct {
	Info       SourceInfo
	Value      string
	StringType Type
}

func (*BooleanLiteral) Type() Type  { return Boolean }
func (*CharLiteral) Type() Type     { return Char }
func (*IntLiteral) Type() Type      { return Int }
func (*LongLiteral) Type() Type     { return Long }
func (*FloatLiteral) Type() Type    { return Float }
func (*DoubleLiteral) Type() Type   { return Double }
func (*NullLiteral) Type() Type     { return Null }
func (s *StringLiteral) Type() Type { return s.StringType }

type LocalRef struct {
	Info  SourceInfo
	Local *Local
}

func (r *LocalRef) Type() Type       { return r.Local.Type }
func (r *LocalRef) Target() Variable { return r.Local }

type ParameterRef struct {
	Info  SourceInfo
	Param *Parameter
}

func (r *ParameterRef) Type() Type       { return r.Param.Type }
func (r *ParameterRef) Target() Variable { return r.Param }

// FieldRef reads a field; Instance is nil for static access.
type FieldRef struct {
	Info          SourceInfo
	Instance      Expr
	Field         *Field
	EnclosingType DeclaredType
}

func (r *FieldRef) Type() Type       { return r.Field.Type }
func (r *FieldRef) Target() Variable { return r.Field }

type ThisRef struct {
	Info  SourceInfo
	Class *ClassType
}

func (r *ThisRef) Type() Type { return r.Class }

// MethodCall invokes Target; Instance is nil for static calls.
type MethodCall struct {
	Info               SourceInfo
	Instance           Expr
	Target             *Method
	Args               []Expr
	StaticDispatchOnly bool
}

func (c *MethodCall) Type() Type { return c.Target.ReturnType }

func (c *MethodCall) AddArgs(args ...Expr) { c.Args = append(c.Args, args...) }

type NewInstance struct {
	Info          SourceInfo
	Ctor          *Method
	Args          []Expr
	EnclosingType DeclaredType
}

func (n *NewInstance) Type() Type { return n.Ctor.Enclosing }

type NewArray struct {
	Info         SourceInfo
	ArrayType    *ArrayType
	Dims         []Expr
	Initializers []Expr
}

func (n *NewArray) Type() Type { return n.ArrayType }

// AbsentArrayDimension stands for an unspecified trailing dimension: new int[3][].
type AbsentArrayDimension struct{}

func (*AbsentArrayDimension) Type() Type { return Void }

type Conditional struct {
	Info       SourceInfo
	ResultType Type
	Cond       Expr
	Then       Expr
	Else       Expr
}

func (c *Conditional) Type() Type { return c.ResultType }

type CastOperation struct {
	Info     SourceInfo
	CastType Type
	Expr     Expr
}

func (c *CastOperation) Type() Type { return c.CastType }

type BinaryOperation struct {
	Info       SourceInfo
	Op         BinaryOperator
	ResultType Type
	Lhs        Expr
	Rhs        Expr
}

func (b *BinaryOperation) Type() Type { return b.ResultType }

type PrefixOperation struct {
	Info SourceInfo
	Op   UnaryOperator
	Arg  Expr
}

func (p *PrefixOperation) Type() Type {
	if p.Op == OpNot {
		return Boolean
	}
	return p.Arg.Type()
}

type PostfixOperation struct {
	Info SourceInfo
	Op   UnaryOperator
	Arg  Expr
}

func (p *PostfixOperation) Type() Type { return p.Arg.Type() }

type InstanceOf struct {
	Info     SourceInfo
	TestType ReferenceType
	Expr     Expr
}

func (*InstanceOf) Type() Type { return Boolean }

// ClassLiteral is Foo.class; ClassType is java.lang.Class.
type ClassLiteral struct {
	Info      SourceInfo
	RefType   Type
	ClassType Type
}

func (c *ClassLiteral) Type() Type { return c.ClassType }

type ArrayRef struct {
	Info     SourceInfo
	Instance Expr
	Index    Expr
}

func (r *ArrayRef) Type() Type {
	if arr, ok := r.Instance.Type().(*ArrayType); ok {
		return arr.Elem
	}
	return Null
}

type ArrayLength struct {
	Info     SourceInfo
	Instance Expr
}

func (*ArrayLength) Type() Type { return Int }

// MakeStatement wraps e as an expression statement.
func MakeStatement(e Expr) *ExpressionStatement {
	return &ExpressionStatement{Info: infoOf(e), Expr: e}
}

func infoOf(e Expr) SourceInfo {
	switch x := e.(type) {
	case *MethodCall:
		return x.Info
	case *NewInstance:
		return x.Info
	case *BinaryOperation:
		return x.Info
	case *PrefixOperation:
		return x.Info
	case *PostfixOperation:
		return x.Info
	}
	return Unknown
}

func (*BooleanLiteral) node()       {}
func (*CharLiteral) node()          {}
func (*IntLiteral) node()           {}
func (*LongLiteral) node()          {}
func (*FloatLiteral) node()         {}
func (*DoubleLiteral) node()        {}
func (*NullLiteral) node()          {}
func (*StringLiteral) node()        {}
func (*LocalRef) node()             {}
func (*ParameterRef) node()         {}
func (*FieldRef) node()             {}
func (*ThisRef) node()              {}
func (*MethodCall) node()           {}
func (*NewInstance) node()          {}
func (*NewArray) node()             {}
func (*AbsentArrayDimension) node() {}
func (*Conditional) node()          {}
func (*CastOperation) node()        {}
func (*BinaryOperation) node()      {}
func (*PrefixOperation) node()      {}
func (*PostfixOperation) node()     {}
func (*InstanceOf) node()           {}
func (*ClassLiteral) node()         {}
func (*ArrayRef) node()             {}
func (*ArrayLength) node()          {}

func (*BooleanLiteral) expr()       {}
func (*CharLiteral) expr()          {}
func (*IntLiteral) expr()           {}
func (*LongLiteral) expr()          {}
func (*FloatLiteral) expr()         {}
func (*DoubleLiteral) expr()        {}
func (*NullLiteral) expr()          {}
func (*StringLiteral) expr()        {}
func (*LocalRef) expr()             {}
func (*ParameterRef) expr()         {}
func (*FieldRef) expr()             {}
func (*ThisRef) expr()              {}
func (*MethodCall) expr()           {}
func (*NewInstance) expr()          {}
func (*NewArray) expr()             {}
func (*AbsentArrayDimension) expr() {}
func (*Conditional) expr()          {}
func (*CastOperation) expr()        {}
func (*BinaryOperation) expr()      {}
func (*PrefixOperation) expr()      {}
func (*PostfixOperation) expr()     {}
func (*InstanceOf) expr()           {}
func (*ClassLiteral) expr()         {}
func (*ArrayRef) expr()             {}
func (*ArrayLength) expr()          {}

func (*BooleanLiteral) literal() {}
func (*CharLiteral) literal()    {}
func (*IntLiteral) literal()     {}
func (*LongLiteral) literal()    {}
func (*FloatLiteral) literal()   {}
func (*DoubleLiteral) literal()  {}
func (*NullLiteral) literal()    {}
func (*StringLiteral) literal()  {}
