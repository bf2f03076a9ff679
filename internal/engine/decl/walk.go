package decl

import "fmt"

// Walk visits every statement and expression reachable from n in depth
// first order. n may be a *DeclaredType, a *Block, a Stmt or an Expr.
// Returning false from f skips the node's children.
func Walk(n any, f func(any) bool) {
	if n == nil || !f(n) {
		return
	}
	switch x := n.(type) {
	case *DeclaredType:
		for _, m := range x.Members {
			switch m.Kind {
			case MemberField:
				walkExpr(m.Field.Initializer, f)
			case MemberMethod:
				if m.Method.Body != nil {
					Walk(m.Method.Body, f)
				}
			case MemberInitializer:
				Walk(m.Init, f)
			}
		}
	case *Block:
		for _, s := range x.Stmts {
			Walk(s, f)
		}
	case *VarDef:
		walkExpr(x.Initializer, f)
	case *ExprStmt:
		Walk(x.X, f)
	case *If:
		Walk(x.Cond, f)
		Walk(x.Then, f)
		walkStmt(x.Else, f)
	case *While:
		Walk(x.Cond, f)
		Walk(x.Body, f)
	case *DoWhile:
		Walk(x.Body, f)
		Walk(x.Cond, f)
	case *For:
		for _, s := range x.Init {
			Walk(s, f)
		}
		walkExpr(x.Cond, f)
		for _, e := range x.Update {
			Walk(e, f)
		}
		Walk(x.Body, f)
	case *Try:
		Walk(x.Body, f)
		for _, c := range x.Catches {
			Walk(c.Body, f)
		}
		if x.Finally != nil {
			Walk(x.Finally, f)
		}
	case *Switch:
		Walk(x.X, f)
		for _, c := range x.Cases {
			for _, s := range c.Body {
				Walk(s, f)
			}
		}
	case *Return:
		walkExpr(x.X, f)
	case *Throw:
		Walk(x.X, f)
	case *Labelled:
		Walk(x.Body, f)
	case *MethodCall:
		walkExpr(x.Receiver, f)
		walkExprs(x.Args, f)
	case *NewObject:
		walkExprs(x.Args, f)
	case *NewArray:
		walkExprs(x.DimExprs, f)
		walkExprs(x.Init, f)
	case *Conditional:
		Walk(x.Cond, f)
		Walk(x.Then, f)
		Walk(x.Else, f)
	case *Cast:
		Walk(x.X, f)
	case *Binary:
		Walk(x.Lhs, f)
		Walk(x.Rhs, f)
	case *Unary:
		Walk(x.X, f)
	case *FieldRef:
		walkExpr(x.Qualifier, f)
	case *ArrayRef:
		Walk(x.Array, f)
		Walk(x.Index, f)
	case *ArrayLength:
		Walk(x.Array, f)
	case *InstanceOf:
		Walk(x.X, f)
	case *Assignment:
		Walk(x.Lhs, f)
		Walk(x.Rhs, f)
	case *Break, *Continue, *Literal, *VarRef, *ThisRef, *SuperRef, *ClassLiteral:
	default:
		panic(fmt.Sprintf("decl: unhandled node %T", n))
	}
}

func walkExpr(e Expr, f func(any) bool) {
	if e != nil {
		Walk(e, f)
	}
}

func walkStmt(s Stmt, f func(any) bool) {
	if s != nil {
		Walk(s, f)
	}
}

func walkExprs(es []Expr, f func(any) bool) {
	for _, e := range es {
		Walk(e, f)
	}
}

// ReferencedTypes returns every named type t mentions in its header,
// member signatures and bodies, in first-seen order.
func ReferencedTypes(t *DeclaredType) []GlobalName {
	seen := map[GlobalName]bool{}
	var out []GlobalName
	add := func(g GlobalName) {
		if g.IsZero() || seen[g] {
			return
		}
		seen[g] = true
		out = append(out, g)
	}
	addType := func(ty Type) {
		if l := ty.Leaf(); l.Kind == KindNamed {
			add(l.Named)
		}
	}
	if t.Ext != nil {
		add(*t.Ext)
	}
	for _, i := range t.Implements {
		add(i)
	}
	for _, m := range t.Members {
		switch m.Kind {
		case MemberField:
			addType(m.Field.Type)
		case MemberMethod:
			addType(m.Method.ReturnType)
			for _, p := range m.Method.Params {
				addType(p.Type)
			}
		}
	}
	addSig := func(s MethodSignature) {
		add(s.Owner)
		for _, p := range s.ParamTypes {
			addType(p)
		}
		addType(s.ReturnType)
	}
	Walk(t, func(n any) bool {
		switch x := n.(type) {
		case *VarDef:
			addType(x.Type)
		case *Try:
			for _, c := range x.Catches {
				add(c.Type)
			}
		case *MethodCall:
			addSig(x.Sig)
		case *NewObject:
			add(x.Class)
			addSig(x.Sig)
		case *NewArray:
			addType(x.Elem)
		case *Cast:
			addType(x.Type)
		case *FieldRef:
			add(x.Owner)
			addType(x.Type)
		case *InstanceOf:
			addType(x.Type)
		case *ClassLiteral:
			addType(x.Type)
		}
		return true
	})
	return out
}
