package decl

// Stmt is a statement in a method body.
type Stmt interface {
	stmt()
}

type Block struct {
	Stmts []Stmt
}

type VarDef struct {
	Name        string
	Type        Type
	Initializer Expr
	Final       bool
}

type ExprStmt struct {
	X Expr
}

type If struct {
	Cond Expr
	Then Stmt
	Else Stmt
}

type While struct {
	Cond Expr
	Body Stmt
}

type DoWhile struct {
	Body Stmt
	Cond Expr
}

type For struct {
	Init   []Stmt
	Cond   Expr
	Update []Expr
	Body   Stmt
}

type Try struct {
	Body    *Block
	Catches []Catch
	Finally *Block
}

type Catch struct {
	Param string
	Type  GlobalName
	Body  *Block
}

// Switch lists its cases in source order; a nil Const marks default.
type Switch struct {
	X     Expr
	Cases []Case
}

type Case struct {
	Const *Literal
	Body  []Stmt
}

type Return struct {
	X Expr
}

type Throw struct {
	X Expr
}

type Break struct {
	Label string
}

type Continue struct {
	Label string
}

type Labelled struct {
	Label string
	Body  Stmt
}

func (*Block) stmt()    {}
func (*VarDef) stmt()   {}
func (*ExprStmt) stmt() {}
func (*If) stmt()       {}
func (*While) stmt()    {}
func (*DoWhile) stmt()  {}
func (*For) stmt()      {}
func (*Try) stmt()      {}
func (*Switch) stmt()   {}
func (*Return) stmt()   {}
func (*Throw) stmt()    {}
func (*Break) stmt()    {}
func (*Continue) stmt() {}
func (*Labelled) stmt() {}

// Stmts wraps statements in a block.
func Stmts(s ...Stmt) *Block { return &Block{Stmts: s} }
