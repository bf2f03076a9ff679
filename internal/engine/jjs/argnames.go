package jjs

import (
	"maps"

	"jjsdev/internal/engine/ast"
)

// MethodArgNames maps "Type.signature" to the declared parameter names of
// every source method a unit defines.
type MethodArgNames struct {
	names map[string][]string
}

func NewMethodArgNames() *MethodArgNames {
	return &MethodArgNames{names: make(map[string][]string)}
}

func argNamesKey(typeName string, m *ast.Method) string {
	return typeName + "." + m.Signature()
}

// Store records m's parameter names. Methods without parameters are skipped.
func (a *MethodArgNames) Store(typeName string, m *ast.Method) {
	if len(m.Params) == 0 {
		return
	}
	names := make([]string, len(m.Params))
	for i, p := range m.Params {
		names[i] = p.Name
	}
	a.names[argNamesKey(typeName, m)] = names
}

// Lookup returns the names stored for the key "Type.name(desc)ret".
func (a *MethodArgNames) Lookup(key string) ([]string, bool) {
	if a == nil {
		return nil, false
	}
	names, ok := a.names[key]
	return names, ok
}

// Merge copies every entry of other into a; other wins on conflict.
func (a *MethodArgNames) Merge(other *MethodArgNames) {
	if other == nil {
		return
	}
	maps.Copy(a.names, other.names)
}

func (a *MethodArgNames) Len() int {
	if a == nil {
		return 0
	}
	return len(a.names)
}

// Entries returns a copy of every stored entry.
func (a *MethodArgNames) Entries() map[string][]string {
	if a == nil {
		return nil
	}
	return maps.Clone(a.names)
}

// MethodArgNamesFrom rebuilds a lookup from Entries output.
func MethodArgNamesFrom(entries map[string][]string) *MethodArgNames {
	a := NewMethodArgNames()
	maps.Copy(a.names, entries)
	return a
}
