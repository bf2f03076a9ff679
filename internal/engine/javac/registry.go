package javac

import (
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"jjsdev/internal/core/errors"
)

// ContextFactory opens the compilation context for a key.
type ContextFactory func(key string) (*StateBuilder, error)

// Registry keeps the most recently used compilation contexts. Evicting a
// context closes its unit cache; a later Get for the key opens it again.
type Registry struct {
	mu       sync.Mutex
	contexts *lru.Cache[string, *StateBuilder]
	open     ContextFactory
}

func NewRegistry(size int, open ContextFactory) (*Registry, error) {
	if size <= 0 {
		size = 1
	}
	contexts, err := lru.NewWithEvict[string, *StateBuilder](size, func(key string, s *StateBuilder) {
		if err := s.Close(); err != nil {
			slog.Warn("failed to close evicted compilation context", "context", key, "error", err)
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternalCompiler, "creating context registry")
	}
	return &Registry{contexts: contexts, open: open}, nil
}

// Get returns the context for key, opening it if needed.
func (r *Registry) Get(key string) (*StateBuilder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.contexts.Get(key); ok {
		return s, nil
	}
	s, err := r.open(key)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxOperation, "open context "+key)
	}
	r.contexts.Add(key, s)
	return s, nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.contexts.Len()
}

// Close evicts and closes every context.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contexts.Purge()
}
