package javac

import (
	"strings"
	"sync"

	"jjsdev/internal/core/errors"
	"jjsdev/internal/data/blob"
	"jjsdev/internal/engine/classfile"
	"jjsdev/internal/engine/decl"
	"jjsdev/internal/shared/intern"
)

// CompiledClass is one class of a unit. Its bytes live in a blob store; the
// class keeps only the key. A class belongs to exactly one unit once
// initUnit has run.
type CompiledClass struct {
	internalName string
	enclosing    *CompiledClass
	isLocal      bool

	store   *blob.Store
	blobKey string

	sigOnce sync.Once
	sigHash string
	sigErr  error

	tdOnce   sync.Once
	typeData *classfile.TypeData
	tdErr    error

	unit CompilationUnit
}

// NewCompiledClass stores classBytes and returns a class handle for them.
// internalName is the slash form, e.g. java/util/Map$Entry.
func NewCompiledClass(store *blob.Store, interner *intern.Interner, classBytes []byte, enclosing *CompiledClass, isLocal bool, internalName string) (*CompiledClass, error) {
	key, err := store.Put(classBytes)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxTypeName, internalName)
	}
	return &CompiledClass{
		internalName: interner.Intern(internalName),
		enclosing:    enclosing,
		isLocal:      isLocal,
		store:        store,
		blobKey:      key,
	}, nil
}

// RestoreCompiledClass rebuilds a class whose bytes are already stored.
// signatureHash may be empty, in which case it is recomputed on demand.
func RestoreCompiledClass(store *blob.Store, interner *intern.Interner, blobKey string, enclosing *CompiledClass, isLocal bool, internalName, signatureHash string) *CompiledClass {
	cc := &CompiledClass{
		internalName: interner.Intern(internalName),
		enclosing:    enclosing,
		isLocal:      isLocal,
		store:        store,
		blobKey:      blobKey,
	}
	if signatureHash != "" {
		cc.sigOnce.Do(func() { cc.sigHash = signatureHash })
	}
	return cc
}

func compiledClassOf(store *blob.Store, interner *intern.Interner, t *decl.DeclaredType, enclosing *CompiledClass) (*CompiledClass, error) {
	b, err := classfile.Encode(t)
	if err != nil {
		return nil, err
	}
	return NewCompiledClass(store, interner, b, enclosing, t.IsLocal || (enclosing != nil && enclosing.isLocal), t.Name.InternalName())
}

// Bytes reads the class bytes back from the store. A missing blob is an I/O
// failure, never an empty class.
func (c *CompiledClass) Bytes() ([]byte, error) {
	b, err := c.store.Get(c.blobKey)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "reading class bytes"), errors.CtxTypeName, c.internalName)
	}
	return b, nil
}

// Decl decodes the declaration the class bytes carry.
func (c *CompiledClass) Decl() (*decl.DeclaredType, error) {
	b, err := c.Bytes()
	if err != nil {
		return nil, err
	}
	return classfile.Decode(b)
}

func (c *CompiledClass) BlobKey() string { return c.blobKey }

func (c *CompiledClass) Enclosing() *CompiledClass { return c.enclosing }

// InternalName is the slash form, e.g. java/util/Map$Entry.
func (c *CompiledClass) InternalName() string { return c.internalName }

// PackageName is the dotted package, e.g. java.util.
func (c *CompiledClass) PackageName() string {
	if i := strings.LastIndexByte(c.internalName, '/'); i >= 0 {
		return strings.ReplaceAll(c.internalName[:i], "/", ".")
	}
	return ""
}

// IsLocal reports whether the class is local or nested in a local class.
func (c *CompiledClass) IsLocal() bool { return c.isLocal }

// SignatureHash is computed once from the class bytes. Method bodies and
// line numbers do not affect it.
func (c *CompiledClass) SignatureHash() (string, error) {
	c.sigOnce.Do(func() {
		b, err := c.Bytes()
		if err != nil {
			c.sigErr = err
			return
		}
		c.sigHash, c.sigErr = classfile.SignatureHash(b)
	})
	return c.sigHash, c.sigErr
}

func (c *CompiledClass) TypeData() (*classfile.TypeData, error) {
	c.tdOnce.Do(func() {
		b, err := c.Bytes()
		if err != nil {
			c.tdErr = err
			return
		}
		c.typeData, c.tdErr = classfile.ReadTypeData(b)
	})
	return c.typeData, c.tdErr
}

// SourceName derives the dotted source name, walking outer classes through
// classes. When an outer class is not in the map the name is approximated
// from the internal name, which is wrong for types whose simple names
// contain '$'.
func (c *CompiledClass) SourceName(classes map[string]*CompiledClass) (string, error) {
	td, err := c.TypeData()
	if err != nil {
		return "", err
	}
	if td.OuterName == "" {
		return strings.ReplaceAll(td.InternalName, "/", "."), nil
	}
	outer, ok := classes[td.OuterName]
	if !ok {
		return internalToSourceName(td.InternalName), nil
	}
	outerName, err := outer.SourceName(classes)
	if err != nil {
		return "", err
	}
	return outerName + "." + td.InnerName, nil
}

func internalToSourceName(internal string) string {
	return strings.NewReplacer("/", ".", "$", ".").Replace(internal)
}

func (c *CompiledClass) Unit() CompilationUnit { return c.unit }

func (c *CompiledClass) initUnit(u CompilationUnit) { c.unit = u }

func (c *CompiledClass) String() string { return c.internalName }
