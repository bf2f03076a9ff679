package javac

import (
	"context"

	"jjsdev/internal/shared/treelog"
)

// CompilationState is the outcome of a build: every unit keyed by type
// name, plus the class maps downstream passes look classes up in.
type CompilationState struct {
	logger *treelog.Logger
	more   *CompileMoreLater

	units                map[string]CompilationUnit
	classFileMap         map[string]*CompiledClass
	classFileMapBySource map[string]*CompiledClass
}

func newCompilationState(logger *treelog.Logger, units []CompilationUnit, more *CompileMoreLater) (*CompilationState, error) {
	s := &CompilationState{
		logger:               logger,
		more:                 more,
		units:                make(map[string]CompilationUnit, len(units)),
		classFileMap:         make(map[string]*CompiledClass),
		classFileMapBySource: make(map[string]*CompiledClass),
	}
	if err := s.assimilate(units); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *CompilationState) assimilate(units []CompilationUnit) error {
	for _, u := range units {
		s.units[u.TypeName()] = u
		for _, cc := range u.CompiledClasses() {
			s.classFileMap[cc.InternalName()] = cc
		}
	}
	for _, u := range units {
		for _, cc := range u.CompiledClasses() {
			name, err := cc.SourceName(s.classFileMap)
			if err != nil {
				return err
			}
			s.classFileMapBySource[name] = cc
		}
	}
	return nil
}

// AddGeneratedCompilationUnits compiles generator output into the state.
func (s *CompilationState) AddGeneratedCompilationUnits(ctx context.Context, logger *treelog.Logger, generated []GeneratedUnit) ([]CompilationUnit, error) {
	units, err := s.more.AddGeneratedTypes(ctx, logger, generated)
	if err != nil {
		return nil, err
	}
	if err := s.assimilate(units); err != nil {
		return nil, err
	}
	return units, nil
}

// Units returns every unit in reporting order.
func (s *CompilationState) Units() []CompilationUnit {
	out := make([]CompilationUnit, 0, len(s.units))
	for _, u := range s.units {
		out = append(out, u)
	}
	SortUnits(out)
	return out
}

func (s *CompilationState) Unit(typeName string) (CompilationUnit, bool) {
	u, ok := s.units[typeName]
	return u, ok
}

// ClassFileMap is keyed by internal name.
func (s *CompilationState) ClassFileMap() map[string]*CompiledClass { return s.classFileMap }

// ClassFileMapBySource is keyed by dotted source name.
func (s *CompilationState) ClassFileMapBySource() map[string]*CompiledClass {
	return s.classFileMapBySource
}

func (s *CompilationState) CompileMoreLater() *CompileMoreLater { return s.more }

// Stats covers every compile run against this state so far.
func (s *CompilationState) Stats() BuildStats { return s.more.stats }

// ErrorUnits returns the units that failed to compile.
func (s *CompilationState) ErrorUnits() []CompilationUnit {
	var out []CompilationUnit
	for _, u := range s.Units() {
		if u.IsError() {
			out = append(out, u)
		}
	}
	return out
}
