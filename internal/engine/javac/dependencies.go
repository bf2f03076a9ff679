package javac

import (
	"strings"

	"jjsdev/internal/shared/treelog"
	"jjsdev/internal/shared/util"
)

// Ref pins a dependency to the class it resolved to and the signature hash
// that class had at the time.
type Ref struct {
	InternalName  string
	SignatureHash string
}

// Dependencies records the names a unit referenced. Raw names are resolved
// against the classes known once the unit is built; Validate later checks
// that every resolved class still exists with the same signature.
type Dependencies struct {
	pkg string

	unresolvedQualified []string
	unresolvedSimple    []string
	apiRefs             []string

	// keyed by the reference as written
	qualified map[string]Ref
	simple    map[string]Ref
}

// NewDependencies takes qualified references in dotted or internal form and
// simple type names.
func NewDependencies(pkg string, qualified, simple, apiRefs []string) *Dependencies {
	return &Dependencies{
		pkg:                 pkg,
		unresolvedQualified: qualified,
		unresolvedSimple:    simple,
		apiRefs:             apiRefs,
		qualified:           make(map[string]Ref),
		simple:              make(map[string]Ref),
	}
}

// RestoreDependencies rebuilds already resolved dependencies.
func RestoreDependencies(pkg string, qualified, simple map[string]Ref, apiRefs []string) *Dependencies {
	d := NewDependencies(pkg, nil, nil, apiRefs)
	for k, v := range qualified {
		d.qualified[k] = v
	}
	for k, v := range simple {
		d.simple[k] = v
	}
	return d
}

// BuildFromAPIRefs derives dependencies for units that carry only API
// references, such as Jribble units. Each package prefix of a reference and
// the reference itself become qualified references; java.lang types are
// also reachable by their simple name.
func BuildFromAPIRefs(pkg string, apiRefs []string) *Dependencies {
	qualified := make(map[string]struct{})
	simple := make(map[string]struct{})
	for _, ref := range apiRefs {
		parts := strings.Split(ref, ".")
		for i := 1; i <= len(parts); i++ {
			qualified[strings.Join(parts[:i], ".")] = struct{}{}
		}
		if rest, ok := strings.CutPrefix(ref, "java.lang."); ok && !strings.Contains(rest, ".") {
			simple[rest] = struct{}{}
		}
	}
	return NewDependencies(pkg, util.SortedStringKeys(qualified), util.SortedStringKeys(simple), apiRefs)
}

func (d *Dependencies) Package() string { return d.pkg }

func (d *Dependencies) APIRefs() []string { return d.apiRefs }

func (d *Dependencies) UnresolvedQualified() []string { return d.unresolvedQualified }

func (d *Dependencies) UnresolvedSimple() []string { return d.unresolvedSimple }

// Qualified returns the resolved qualified references.
func (d *Dependencies) Qualified() map[string]Ref { return d.qualified }

// Simple returns the resolved simple references.
func (d *Dependencies) Simple() map[string]Ref { return d.simple }

func toInternal(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}

func refTo(cc *CompiledClass) (Ref, error) {
	hash, err := cc.SignatureHash()
	if err != nil {
		return Ref{}, err
	}
	return Ref{InternalName: cc.InternalName(), SignatureHash: hash}, nil
}

// Resolve binds raw references to classes. Names that match no class are
// dropped: they are either not type names at all or lie outside the set of
// classes this build knows about.
func (d *Dependencies) Resolve(classes map[string]*CompiledClass) error {
	for _, q := range d.unresolvedQualified {
		cc, ok := classes[toInternal(q)]
		if !ok {
			continue
		}
		ref, err := refTo(cc)
		if err != nil {
			return err
		}
		d.qualified[q] = ref
	}
	for _, s := range d.unresolvedSimple {
		cc := d.findSimple(s, classes)
		if cc == nil {
			continue
		}
		ref, err := refTo(cc)
		if err != nil {
			return err
		}
		d.simple[s] = ref
	}
	d.unresolvedQualified, d.unresolvedSimple = nil, nil
	return nil
}

func (d *Dependencies) findSimple(name string, classes map[string]*CompiledClass) *CompiledClass {
	if d.pkg != "" {
		if cc, ok := classes[toInternal(d.pkg)+"/"+name]; ok {
			return cc
		}
	} else if cc, ok := classes[name]; ok {
		return cc
	}
	return classes["java/lang/"+name]
}

// Validate reports whether every resolved reference still maps to a class
// with the signature hash seen at resolve time. A false result means the
// owning unit must be rebuilt.
func (d *Dependencies) Validate(logger *treelog.Logger, classes map[string]*CompiledClass) (bool, error) {
	for _, refs := range []map[string]Ref{d.qualified, d.simple} {
		for _, name := range util.SortedStringKeys(refs) {
			ref := refs[name]
			cc, ok := classes[ref.InternalName]
			if !ok {
				logger.Log(treelog.Debug, "Unknown type for dependency", "ref", ref.InternalName)
				return false, nil
			}
			hash, err := cc.SignatureHash()
			if err != nil {
				return false, err
			}
			if hash != ref.SignatureHash {
				logger.Log(treelog.Debug, "Signature hash changed for dependency", "ref", ref.InternalName)
				return false, nil
			}
		}
	}
	return true, nil
}
