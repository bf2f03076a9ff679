package javac

import (
	"jjsdev/internal/core/errors"
	"jjsdev/internal/data/blob"
	"jjsdev/internal/engine/jjs"
	"jjsdev/internal/shared/intern"
)

// UnitRecord is the storable form of a cached unit. Class bytes are not
// part of it; classes refer to them by blob key.
type UnitRecord struct {
	Path         string              `json:"path"`
	Location     string              `json:"location"`
	TypeName     string              `json:"type_name"`
	LastModified int64               `json:"last_modified"`
	StrongHash   string              `json:"strong_hash"`
	Generated    bool                `json:"generated,omitempty"`
	IsError      bool                `json:"is_error,omitempty"`
	TypesVersion int                 `json:"types_version"`
	Classes      []ClassRecord       `json:"classes"`
	Dependencies DependenciesRecord  `json:"dependencies"`
	Jsni         []JsniMethod        `json:"jsni,omitempty"`
	MethodArgs   map[string][]string `json:"method_args,omitempty"`
	Problems     []Problem           `json:"problems,omitempty"`
}

// ClassRecord points at its enclosing class by index into the unit's
// classes, or -1.
type ClassRecord struct {
	InternalName  string `json:"internal_name"`
	BlobKey       string `json:"blob_key"`
	SignatureHash string `json:"signature_hash"`
	Enclosing     int    `json:"enclosing"`
	IsLocal       bool   `json:"is_local,omitempty"`
}

type DependenciesRecord struct {
	Package   string         `json:"package"`
	Qualified map[string]Ref `json:"qualified,omitempty"`
	Simple    map[string]Ref `json:"simple,omitempty"`
	APIRefs   []string       `json:"api_refs,omitempty"`
}

// RecordOf captures u for storage. Signature hashes are computed now so a
// restored unit validates without reading its class bytes.
func RecordOf(u *CachedUnit) (*UnitRecord, error) {
	index := make(map[*CompiledClass]int, len(u.classes))
	for i, cc := range u.classes {
		index[cc] = i
	}
	r := &UnitRecord{
		Path:         u.path,
		Location:     u.location,
		TypeName:     u.typeName,
		LastModified: u.lastModified,
		StrongHash:   u.contentID.StrongHash,
		Generated:    u.generated,
		IsError:      u.isError,
		TypesVersion: u.typesVersion,
		Classes:      make([]ClassRecord, 0, len(u.classes)),
		Jsni:         u.jsni,
		MethodArgs:   u.argNames.Entries(),
		Problems:     u.problems,
	}
	for _, cc := range u.classes {
		hash, err := cc.SignatureHash()
		if err != nil {
			return nil, errors.AddContext(err, errors.CtxUnit, u.location)
		}
		enclosing := -1
		if cc.enclosing != nil {
			if i, ok := index[cc.enclosing]; ok {
				enclosing = i
			}
		}
		r.Classes = append(r.Classes, ClassRecord{
			InternalName:  cc.internalName,
			BlobKey:       cc.blobKey,
			SignatureHash: hash,
			Enclosing:     enclosing,
			IsLocal:       cc.isLocal,
		})
	}
	if d := u.deps; d != nil {
		r.Dependencies = DependenciesRecord{
			Package:   d.pkg,
			Qualified: d.qualified,
			Simple:    d.simple,
			APIRefs:   d.apiRefs,
		}
	}
	return r, nil
}

// Restore rebuilds the unit. Every class blob must be present in store.
func (r *UnitRecord) Restore(store *blob.Store, interner *intern.Interner) (*CachedUnit, error) {
	classes := make([]*CompiledClass, len(r.Classes))
	var restore func(i int) (*CompiledClass, error)
	restore = func(i int) (*CompiledClass, error) {
		if classes[i] != nil {
			return classes[i], nil
		}
		cr := r.Classes[i]
		if !store.Has(cr.BlobKey) {
			err := errors.Newf(errors.CodeCorrupt, "class %s of %s has no stored bytes", cr.InternalName, r.Path)
			return nil, errors.AddContext(err, errors.CtxUnit, r.Location)
		}
		var enclosing *CompiledClass
		if cr.Enclosing >= 0 {
			if cr.Enclosing >= len(r.Classes) || cr.Enclosing == i {
				return nil, errors.Newf(errors.CodeCorrupt, "class %s has a bad enclosing index", cr.InternalName)
			}
			var err error
			if enclosing, err = restore(cr.Enclosing); err != nil {
				return nil, err
			}
		}
		classes[i] = RestoreCompiledClass(store, interner, cr.BlobKey, enclosing, cr.IsLocal, cr.InternalName, cr.SignatureHash)
		return classes[i], nil
	}
	for i := range r.Classes {
		if _, err := restore(i); err != nil {
			return nil, err
		}
	}
	deps := RestoreDependencies(
		interner.Intern(r.Dependencies.Package),
		r.Dependencies.Qualified,
		r.Dependencies.Simple,
		r.Dependencies.APIRefs,
	)
	c := &CachedUnit{
		unitImpl: unitImpl{
			classes:  classes,
			deps:     deps,
			jsni:     r.Jsni,
			argNames: jjs.MethodArgNamesFrom(r.MethodArgs),
			problems: r.Problems,
		},
		path:         r.Path,
		location:     r.Location,
		typeName:     r.TypeName,
		lastModified: r.LastModified,
		contentID:    ContentID{TypeName: r.TypeName, StrongHash: r.StrongHash},
		generated:    r.Generated,
		isError:      r.IsError,
		typesVersion: r.TypesVersion,
		interner:     interner,
	}
	c.adopt(c)
	return c, nil
}
