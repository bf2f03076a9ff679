package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Dump renders n as Java-like source. It is meant for debugging and tests,
// not for round-tripping.
func Dump(n Node) string {
	p := &printer{}
	p.node(n)
	return p.b.String()
}

type printer struct {
	b      strings.Builder
	indent int
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(&p.b, format, args...)
}

func (p *printer) newline() {
	p.b.WriteByte('\n')
	p.b.WriteString(strings.Repeat("  ", p.indent))
}

func (p *printer) node(n Node) {
	switch x := n.(type) {
	case DeclaredType:
		p.declaredType(x)
	case *Method:
		p.method(x)
	case Stmt:
		p.stmt(x)
	case Expr:
		p.expr(x)
	case Type:
		p.b.WriteString(x.Name())
	case *Field:
		p.printf("%s %s", x.Type.Name(), x.Name)
	default:
		p.printf("<%T>", n)
	}
}

func (p *printer) declaredType(t DeclaredType) {
	kind := "class"
	if _, ok := t.(*InterfaceType); ok {
		kind = "interface"
	}
	if t.IsExternal() {
		p.printf("external ")
	}
	p.printf("%s %s", kind, t.Name())
	if c, ok := t.(*ClassType); ok && c.Super != nil {
		p.printf(" extends %s", c.Super.Name())
	}
	if len(t.Implements()) > 0 {
		names := make([]string, len(t.Implements()))
		for i, it := range t.Implements() {
			names[i] = it.Name()
		}
		word := "implements"
		if kind == "interface" {
			word = "extends"
		}
		p.printf(" %s %s", word, strings.Join(names, ", "))
	}
	p.printf(" {")
	p.indent++
	for _, f := range t.Fields() {
		p.newline()
		if f.Static {
			p.printf("static ")
		}
		p.printf("%s %s;", f.Type.Name(), f.Name)
	}
	for _, m := range t.Methods() {
		p.newline()
		p.method(m)
	}
	p.indent--
	p.newline()
	p.printf("}")
}

func (p *printer) method(m *Method) {
	if a := m.Access.String(); a != "" {
		p.printf("%s ", a)
	}
	if m.Static {
		p.printf("static ")
	}
	if m.Abstract {
		p.printf("abstract ")
	}
	if m.Native {
		p.printf("native ")
	}
	if !m.Constructor {
		p.printf("%s ", m.ReturnType.Name())
	}
	p.printf("%s(", m.Name)
	for i, prm := range m.Params {
		if i > 0 {
			p.printf(", ")
		}
		p.printf("%s %s", prm.Type.Name(), prm.Name)
	}
	p.printf(")")
	if m.Body == nil {
		p.printf(";")
		return
	}
	p.printf(" ")
	p.block(m.Body.Block)
}

func (p *printer) block(b *Block) {
	p.printf("{")
	p.indent++
	for _, s := range b.Stmts {
		p.newline()
		p.stmt(s)
	}
	p.indent--
	p.newline()
	p.printf("}")
}

func (p *printer) stmt(s Stmt) {
	switch x := s.(type) {
	case *Block:
		p.block(x)
	case *DeclarationStatement:
		if l, ok := x.Variable.(*LocalRef); ok {
			p.printf("%s ", l.Local.Type.Name())
		}
		p.expr(x.Variable)
		if x.Initializer != nil {
			p.printf(" = ")
			p.expr(x.Initializer)
		}
		p.printf(";")
	case *ExpressionStatement:
		p.expr(x.Expr)
		p.printf(";")
	case *IfStatement:
		p.printf("if (")
		p.expr(x.Cond)
		p.printf(") ")
		p.stmt(x.Then)
		if x.Else != nil {
			p.printf(" else ")
			p.stmt(x.Else)
		}
	case *WhileStatement:
		p.printf("while (")
		p.expr(x.Cond)
		p.printf(") ")
		p.stmt(x.Body)
	case *DoStatement:
		p.printf("do ")
		p.stmt(x.Body)
		p.printf(" while (")
		p.expr(x.Cond)
		p.printf(");")
	case *ForStatement:
		p.printf("for (")
		for i, st := range x.Init {
			if i > 0 {
				p.printf(" ")
			}
			p.stmt(st)
		}
		if len(x.Init) == 0 {
			p.printf(";")
		}
		p.printf(" ")
		if x.Cond != nil {
			p.expr(x.Cond)
		}
		p.printf("; ")
		for i, st := range x.Increments {
			if i > 0 {
				p.printf(", ")
			}
			if es, ok := st.(*ExpressionStatement); ok {
				p.expr(es.Expr)
			} else {
				p.stmt(st)
			}
		}
		p.printf(") ")
		p.stmt(x.Body)
	case *ReturnStatement:
		p.printf("return")
		if x.Expr != nil {
			p.printf(" ")
			p.expr(x.Expr)
		}
		p.printf(";")
	case *ThrowStatement:
		p.printf("throw ")
		p.expr(x.Expr)
		p.printf(";")
	case *TryStatement:
		p.printf("try ")
		p.block(x.Try)
		for i, v := range x.CatchVars {
			p.printf(" catch (%s %s) ", v.Local.Type.Name(), v.Local.Name)
			p.block(x.CatchBlocks[i])
		}
		if x.Finally != nil {
			p.printf(" finally ")
			p.block(x.Finally)
		}
	case *SwitchStatement:
		p.printf("switch (")
		p.expr(x.Expr)
		p.printf(") ")
		p.block(x.Body)
	case *CaseStatement:
		if x.Expr == nil {
			p.printf("default:")
		} else {
			p.printf("case ")
			p.expr(x.Expr)
			p.printf(":")
		}
	case *BreakStatement:
		p.printf("break")
		if x.Label != nil {
			p.printf(" %s", x.Label.Name)
		}
		p.printf(";")
	case *ContinueStatement:
		p.printf("continue")
		if x.Label != nil {
			p.printf(" %s", x.Label.Name)
		}
		p.printf(";")
	case *LabeledStatement:
		p.printf("%s: ", x.Label.Name)
		p.stmt(x.Body)
	default:
		p.printf("<%T>", s)
	}
}

func (p *printer) expr(e Expr) {
	switch x := e.(type) {
	case *BooleanLiteral:
		p.printf("%t", x.Value)
	case *CharLiteral:
		p.printf("%s", strconv.QuoteRune(rune(x.Value)))
	case *IntLiteral:
		p.printf("%d", x.Value)
	case *LongLiteral:
		p.printf("%dL", x.Value)
	case *FloatLiteral:
		p.printf("%sf", strconv.FormatFloat(float64(x.Value), 'g', -1, 32))
	case *DoubleLiteral:
		p.printf("%sd", strconv.FormatFloat(x.Value, 'g', -1, 64))
	case *NullLiteral:
		p.printf("null")
	case *StringLiteral:
		p.printf("%s", strconv.Quote(x.Value))
	case *LocalRef:
		p.printf("%s", x.Local.Name)
	case *ParameterRef:
		p.printf("%s", x.Param.Name)
	case *FieldRef:
		if x.Instance != nil {
			p.expr(x.Instance)
		} else {
			p.printf("%s", x.Field.Enclosing.Name())
		}
		p.printf(".%s", x.Field.Name)
	case *ThisRef:
		p.printf("this")
	case *MethodCall:
		if x.Instance != nil {
			p.expr(x.Instance)
		} else {
			p.printf("%s", x.Target.Enclosing.Name())
		}
		p.printf(".%s(", x.Target.Name)
		p.args(x.Args)
		p.printf(")")
	case *NewInstance:
		p.printf("new %s(", x.Ctor.Enclosing.Name())
		p.args(x.Args)
		p.printf(")")
	case *NewArray:
		if len(x.Initializers) > 0 {
			p.printf("new %s {", x.ArrayType.Name())
			p.args(x.Initializers)
			p.printf("}")
			return
		}
		p.printf("new %s", x.ArrayType.Leaf().Name())
		for _, d := range x.Dims {
			p.printf("[")
			if _, absent := d.(*AbsentArrayDimension); !absent {
				p.expr(d)
			}
			p.printf("]")
		}
	case *AbsentArrayDimension:
	case *Conditional:
		p.printf("(")
		p.expr(x.Cond)
		p.printf(" ? ")
		p.expr(x.Then)
		p.printf(" : ")
		p.expr(x.Else)
		p.printf(")")
	case *CastOperation:
		p.printf("((%s) ", x.CastType.Name())
		p.expr(x.Expr)
		p.printf(")")
	case *BinaryOperation:
		if !x.Op.IsAssignment() {
			p.printf("(")
		}
		p.expr(x.Lhs)
		p.printf(" %s ", x.Op)
		p.expr(x.Rhs)
		if !x.Op.IsAssignment() {
			p.printf(")")
		}
	case *PrefixOperation:
		p.printf("%s", x.Op)
		p.expr(x.Arg)
	case *PostfixOperation:
		p.expr(x.Arg)
		p.printf("%s", x.Op)
	case *InstanceOf:
		p.printf("(")
		p.expr(x.Expr)
		p.printf(" instanceof %s)", x.TestType.Name())
	case *ClassLiteral:
		p.printf("%s.class", x.RefType.Name())
	case *ArrayRef:
		p.expr(x.Instance)
		p.printf("[")
		p.expr(x.Index)
		p.printf("]")
	case *ArrayLength:
		p.expr(x.Instance)
		p.printf(".length")
	default:
		p.printf("<%T>", e)
	}
}

func (p *printer) args(args []Expr) {
	for i, a := range args {
		if i > 0 {
			p.printf(", ")
		}
		p.expr(a)
	}
}
