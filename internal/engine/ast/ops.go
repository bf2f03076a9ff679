package ast

type BinaryOperator int

const (
	OpAsg BinaryOperator = iota
	OpAsgAdd
	OpAsgSub
	OpAsgMul
	OpAsgDiv
	OpAsgMod
	OpAsgShl
	OpAsgShr
	OpAsgShru
	OpAsgBitAnd
	OpAsgBitOr
	OpAsgBitXor
	OpAsgConcat
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpShl
	OpShr
	OpShru
	OpLt
	OpLte
	OpGt
	OpGte
	OpEq
	OpNeq
	OpBitAnd
	OpBitXor
	OpBitOr
	OpAnd
	OpOr
	OpConcat
)

var binarySymbols = map[BinaryOperator]string{
	OpAsg: "=", OpAsgAdd: "+=", OpAsgSub: "-=", OpAsgMul: "*=", OpAsgDiv: "/=", OpAsgMod: "%=",
	OpAsgShl: "<<=", OpAsgShr: ">>=", OpAsgShru: ">>>=", OpAsgBitAnd: "&=", OpAsgBitOr: "|=",
	OpAsgBitXor: "^=", OpAsgConcat: "+=",
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%", OpShl: "<<", OpShr: ">>", OpShru: ">>>",
	OpLt: "<", OpLte: "<=", OpGt: ">", OpGte: ">=", OpEq: "==", OpNeq: "!=",
	OpBitAnd: "&", OpBitXor: "^", OpBitOr: "|", OpAnd: "&&", OpOr: "||", OpConcat: "+",
}

func (op BinaryOperator) String() string { return binarySymbols[op] }

func (op BinaryOperator) IsAssignment() bool { return op >= OpAsg && op <= OpAsgConcat }

// NonAssignment maps a compound assignment onto its arithmetic operator.
func (op BinaryOperator) NonAssignment() BinaryOperator {
	switch op {
	case OpAsgAdd:
		return OpAdd
	case OpAsgSub:
		return OpSub
	case OpAsgMul:
		return OpMul
	case OpAsgDiv:
		return OpDiv
	case OpAsgMod:
		return OpMod
	case OpAsgShl:
		return OpShl
	case OpAsgShr:
		return OpShr
	case OpAsgShru:
		return OpShru
	case OpAsgBitAnd:
		return OpBitAnd
	case OpAsgBitOr:
		return OpBitOr
	case OpAsgBitXor:
		return OpBitXor
	case OpAsgConcat:
		return OpConcat
	}
	return op
}

type UnaryOperator int

const (
	OpNeg UnaryOperator = iota
	OpNot
	OpBitNot
	OpInc
	OpDec
)

var unarySymbols = [...]string{"-", "!", "~", "++", "--"}

func (op UnaryOperator) String() string { return unarySymbols[op] }

func (op UnaryOperator) Modifying() bool { return op == OpInc || op == OpDec }
