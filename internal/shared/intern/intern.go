// Package intern deduplicates the names the AST builders produce. An Interner
// belongs to one compilation context; there is no process-wide table.
package intern

import "sync"

type Interner struct {
	mu      sync.Mutex
	strings map[string]string
}

func New() *Interner {
	return &Interner{strings: make(map[string]string)}
}

// Intern returns the canonical copy of s. A nil Interner returns s unchanged.
func (in *Interner) Intern(s string) string {
	if in == nil {
		return s
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if c, ok := in.strings[s]; ok {
		return c
	}
	in.strings[s] = s
	return s
}

func (in *Interner) Len() int {
	if in == nil {
		return 0
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.strings)
}
