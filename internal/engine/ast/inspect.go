package ast

import "fmt"

// Inspect traverses the statement and expression tree rooted at n in depth
// first order. If f returns false the children of that node are skipped.
// Declared types and methods are visited through their bodies only;
// references to other declarations are not followed. Optional interface
// fields hold untyped nil when absent.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range children(n) {
		Inspect(c, f)
	}
}

func children(n Node) []Node {
	var out []Node
	add := func(nodes ...Node) {
		for _, c := range nodes {
			if c != nil {
				out = append(out, c)
			}
		}
	}
	switch x := n.(type) {
	case *ClassType:
		for _, m := range x.methods {
			add(m)
		}
	case *InterfaceType:
		for _, m := range x.methods {
			add(m)
		}
	case *Method:
		if x.Body != nil {
			add(x.Body)
		}
	case *MethodBody:
		add(x.Block)
	case *Block:
		for _, s := range x.Stmts {
			add(s)
		}
	case *DeclarationStatement:
		add(x.Variable, x.Initializer)
	case *ExpressionStatement:
		add(x.Expr)
	case *IfStatement:
		add(x.Cond, x.Then, x.Else)
	case *WhileStatement:
		add(x.Cond, x.Body)
	case *DoStatement:
		add(x.Body, x.Cond)
	case *ForStatement:
		for _, s := range x.Init {
			add(s)
		}
		add(x.Cond)
		for _, s := range x.Increments {
			add(s)
		}
		add(x.Body)
	case *ReturnStatement:
		add(x.Expr)
	case *ThrowStatement:
		add(x.Expr)
	case *TryStatement:
		add(x.Try)
		for i := range x.CatchVars {
			add(x.CatchVars[i], x.CatchBlocks[i])
		}
		if x.Finally != nil {
			add(x.Finally)
		}
	case *SwitchStatement:
		add(x.Expr, x.Body)
	case *CaseStatement:
		if x.Expr != nil {
			add(x.Expr)
		}
	case *LabeledStatement:
		add(x.Body)
	case *FieldRef:
		add(x.Instance)
	case *MethodCall:
		add(x.Instance)
		for _, a := range x.Args {
			add(a)
		}
	case *NewInstance:
		for _, a := range x.Args {
			add(a)
		}
	case *NewArray:
		for _, d := range x.Dims {
			add(d)
		}
		for _, e := range x.Initializers {
			add(e)
		}
	case *Conditional:
		add(x.Cond, x.Then, x.Else)
	case *CastOperation:
		add(x.Expr)
	case *BinaryOperation:
		add(x.Lhs, x.Rhs)
	case *PrefixOperation:
		add(x.Arg)
	case *PostfixOperation:
		add(x.Arg)
	case *InstanceOf:
		add(x.Expr)
	case *ArrayRef:
		add(x.Instance, x.Index)
	case *ArrayLength:
		add(x.Instance)
	case *BreakStatement, *ContinueStatement, *BooleanLiteral, *CharLiteral, *IntLiteral,
		*LongLiteral, *FloatLiteral, *DoubleLiteral, *NullLiteral, *StringLiteral, *LocalRef,
		*ParameterRef, *ThisRef, *AbsentArrayDimension, *ClassLiteral, *Field, *Parameter,
		*Local, *Label, *PrimitiveType, *NullType, *ArrayType:
	default:
		panic(fmt.Sprintf("ast: unhandled node %T", n))
	}
	return out
}
