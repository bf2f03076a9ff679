package decl

// Expr is an expression in a method body.
type Expr interface {
	expr()
}

type LiteralKind int

const (
	LitBool LiteralKind = iota + 1
	LitChar
	LitByte
	LitShort
	LitInt
	LitLong
	LitFloat
	LitDouble
	LitString
	LitNull
)

// Literal holds its value in the field matching Kind: Bool, Int (for char,
// byte, short, int and long), Float (float and double) or Str.
type Literal struct {
	Kind  LiteralKind
	Bool  bool
	Int   int64
	Float float64
	Str   string
}

func IntLit(v int32) *Literal     { return &Literal{Kind: LitInt, Int: int64(v)} }
func LongLit(v int64) *Literal    { return &Literal{Kind: LitLong, Int: v} }
func BoolLit(v bool) *Literal     { return &Literal{Kind: LitBool, Bool: v} }
func StringLit(v string) *Literal { return &Literal{Kind: LitString, Str: v} }
func NullLit() *Literal           { return &Literal{Kind: LitNull} }

type VarRef struct {
	Name string
}

type ThisRef struct{}

type SuperRef struct{}

// MethodCall invokes Sig. Receiver is nil for static calls and for
// constructor delegation, which uses Sig.Name "new".
type MethodCall struct {
	Receiver Expr
	Sig      MethodSignature
	Args     []Expr
}

type NewObject struct {
	Class GlobalName
	Sig   MethodSignature
	Args  []Expr
}

// NewArray allocates Dims dimensions of Elem. DimExprs may be shorter than
// Dims; Init is only used with a single dimension.
type NewArray struct {
	Elem     Type
	Dims     int
	DimExprs []Expr
	Init     []Expr
}

type Conditional struct {
	Cond Expr
	Then Expr
	Else Expr
	Type Type
}

type Cast struct {
	Type Type
	X    Expr
}

type BinaryOp int

const (
	OpAnd BinaryOp = iota + 1
	OpOr
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpUshr
	OpConcat
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

type Binary struct {
	Op   BinaryOp
	Lhs  Expr
	Rhs  Expr
	Type Type
}

type UnaryOp int

const (
	OpNeg UnaryOp = iota + 1
	OpNot
	OpBitNot
	OpPreInc
	OpPreDec
	OpPostInc
	OpPostDec
)

type Unary struct {
	Op UnaryOp
	X  Expr
}

// FieldRef reads Owner.Name; Qualifier is nil for static fields.
type FieldRef struct {
	Qualifier Expr
	Owner     GlobalName
	Name      string
	Type      Type
}

type ArrayRef struct {
	Array Expr
	Index Expr
}

type ArrayLength struct {
	Array Expr
}

type InstanceOf struct {
	X    Expr
	Type Type
}

type ClassLiteral struct {
	Type Type
}

// Assignment stores Rhs into Lhs. A zero Op is plain assignment, any other
// value is the compound operator.
type Assignment struct {
	Op  BinaryOp
	Lhs Expr
	Rhs Expr
}

func (*Literal) expr()      {}
func (*VarRef) expr()       {}
func (*ThisRef) expr()      {}
func (*SuperRef) expr()     {}
func (*MethodCall) expr()   {}
func (*NewObject) expr()    {}
func (*NewArray) expr()     {}
func (*Conditional) expr()  {}
func (*Cast) expr()         {}
func (*Binary) expr()       {}
func (*Unary) expr()        {}
func (*FieldRef) expr()     {}
func (*ArrayRef) expr()     {}
func (*ArrayLength) expr()  {}
func (*InstanceOf) expr()   {}
func (*ClassLiteral) expr() {}
func (*Assignment) expr()   {}
