package ast

// Stmt is a statement node.
type Stmt interface {
	Node
	stmt()
}

type Block struct {
	Info  SourceInfo
	Stmts []Stmt
}

func NewBlock(info SourceInfo) *Block { return &Block{Info: info} }

func (b *Block) AddStmt(s Stmt) { b.Stmts = append(b.Stmts, s) }

func (b *Block) AddStmts(s []Stmt) { b.Stmts = append(b.Stmts, s...) }

// InsertStmt places s at index i, shifting later statements right.
func (b *Block) InsertStmt(i int, s Stmt) {
	b.Stmts = append(b.Stmts, nil)
	copy(b.Stmts[i+1:], b.Stmts[i:])
	b.Stmts[i] = s
}

// DeclarationStatement initializes a local or a field.
type DeclarationStatement struct {
	Info        SourceInfo
	Variable    VariableRef
	Initializer Expr
}

type ExpressionStatement struct {
	Info SourceInfo
	Expr Expr
}

type IfStatement struct {
	Info SourceInfo
	Cond Expr
	Then Stmt
	Else Stmt
}

type WhileStatement struct {
	Info SourceInfo
	Cond Expr
	Body Stmt
}

type DoStatement struct {
	Info SourceInfo
	Body Stmt
	Cond Expr
}

type ForStatement struct {
	Info       SourceInfo
	Init       []Stmt
	Cond       Expr
	Increments []Stmt
	Body       Stmt
}

type ReturnStatement struct {
	Info SourceInfo
	Expr Expr
}

type ThrowStatement struct {
	Info SourceInfo
	Expr Expr
}

type TryStatement struct {
	Info        SourceInfo
	Try         *Block
	CatchVars   []*LocalRef
	CatchBlocks []*Block
	Finally     *Block
}

type SwitchStatement struct {
	Info SourceInfo
	Expr Expr
	Body *Block
}

// CaseStatement labels a position inside a switch body; a nil Expr is default.
type CaseStatement struct {
	Info SourceInfo
	Expr Literal
}

type BreakStatement struct {
	Info  SourceInfo
	Label *Label
}

type ContinueStatement struct {
	Info  SourceInfo
	Label *Label
}

type LabeledStatement struct {
	Info  SourceInfo
	Label *Label
	Body  Stmt
}

func (*Block) node()                {}
func (*DeclarationStatement) node() {}
func (*ExpressionStatement) node()  {}
func (*IfStatement) node()          {}
func (*WhileStatement) node()       {}
func (*DoStatement) node()          {}
func (*ForStatement) node()         {}
func (*ReturnStatement) node()      {}
func (*ThrowStatement) node()       {}
func (*TryStatement) node()         {}
func (*SwitchStatement) node()      {}
func (*CaseStatement) node()        {}
func (*BreakStatement) node()       {}
func (*ContinueStatement) node()    {}
func (*LabeledStatement) node()     {}

func (*Block) stmt()                {}
func (*DeclarationStatement) stmt() {}
func (*ExpressionStatement) stmt()  {}
func (*IfStatement) stmt()          {}
func (*WhileStatement) stmt()       {}
func (*DoStatement) stmt()          {}
func (*ForStatement) stmt()         {}
func (*ReturnStatement) stmt()      {}
func (*ThrowStatement) stmt()       {}
func (*TryStatement) stmt()         {}
func (*SwitchStatement) stmt()      {}
func (*CaseStatement) stmt()        {}
func (*BreakStatement) stmt()       {}
func (*ContinueStatement) stmt()    {}
func (*LabeledStatement) stmt()     {}
