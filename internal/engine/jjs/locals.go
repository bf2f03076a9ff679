package jjs

import (
	"jjsdev/internal/engine/ast"
)

// LocalStack resolves names inside one method body: a stack of lexical
// blocks over a flat parameter map, plus the labels in scope.
type LocalStack struct {
	enclosing ast.DeclaredType
	body      *ast.MethodBody
	params    map[string]*ast.Parameter
	blocks    []map[string]*ast.Local
	labels    map[string]*ast.Label
}

func NewLocalStack(enclosing ast.DeclaredType, body *ast.MethodBody, params []*ast.Parameter) *LocalStack {
	ls := &LocalStack{
		enclosing: enclosing,
		body:      body,
		params:    make(map[string]*ast.Parameter, len(params)),
		labels:    make(map[string]*ast.Label),
	}
	for _, p := range params {
		ls.params[p.Name] = p
	}
	return ls
}

func (ls *LocalStack) Enclosing() ast.DeclaredType { return ls.enclosing }

func (ls *LocalStack) Body() *ast.MethodBody { return ls.body }

func (ls *LocalStack) PushBlock() {
	ls.blocks = append(ls.blocks, make(map[string]*ast.Local))
}

func (ls *LocalStack) PopBlock() {
	ls.blocks = ls.blocks[:len(ls.blocks)-1]
}

// AddVar declares l in the innermost block.
func (ls *LocalStack) AddVar(name string, l *ast.Local) {
	top := ls.blocks[len(ls.blocks)-1]
	if _, dup := top[name]; dup {
		bail("redeclared variable %s", name)
	}
	top[name] = l
}

// Resolve finds the innermost local named name, then falls back to the
// parameters.
func (ls *LocalStack) Resolve(name string) ast.VariableRef {
	for i := len(ls.blocks) - 1; i >= 0; i-- {
		if l, ok := ls.blocks[i][name]; ok {
			return &ast.LocalRef{Local: l}
		}
	}
	if p, ok := ls.params[name]; ok {
		return &ast.ParameterRef{Param: p}
	}
	bail("failed to find variable %s", name)
	return nil
}

func (ls *LocalStack) PushLabel(l *ast.Label) {
	if _, dup := ls.labels[l.Name]; dup {
		bail("duplicate label %s", l.Name)
	}
	ls.labels[l.Name] = l
}

func (ls *LocalStack) PopLabel(name string) {
	delete(ls.labels, name)
}

func (ls *LocalStack) Label(name string) *ast.Label {
	l, ok := ls.labels[name]
	if !ok {
		bail("failed to find label %s", name)
	}
	return l
}
