package javafe

import (
	"jjsdev/internal/engine/decl"
)

// nullType is the type of the null literal.
var nullType = decl.Type{}

func isNull(t decl.Type) bool { return t.Kind == 0 }

var boxes = map[decl.PrimitiveKind]string{
	decl.Boolean: "java.lang.Boolean",
	decl.Byte:    "java.lang.Byte",
	decl.Char:    "java.lang.Character",
	decl.Double:  "java.lang.Double",
	decl.Float:   "java.lang.Float",
	decl.Int:     "java.lang.Integer",
	decl.Long:    "java.lang.Long",
	decl.Short:   "java.lang.Short",
}

func unboxedKind(t decl.Type) (decl.PrimitiveKind, bool) {
	if t.Kind != decl.KindNamed {
		return 0, false
	}
	for k, name := range boxes {
		if t.Named.JavaName() == name {
			return k, true
		}
	}
	return 0, false
}

// numeric rank for widening; boolean has none.
var rank = map[decl.PrimitiveKind]int{
	decl.Byte: 1, decl.Short: 2, decl.Char: 2, decl.Int: 3, decl.Long: 4, decl.Float: 5, decl.Double: 6,
}

func widens(from, to decl.PrimitiveKind) bool {
	if from == to {
		return true
	}
	if from == decl.Boolean || to == decl.Boolean {
		return false
	}
	// char widens to int and up only; byte and short never become char
	if to == decl.Char || (from == decl.Char && to == decl.Short) {
		return false
	}
	return rank[from] < rank[to]
}

func isNumeric(t decl.Type) bool {
	if k, ok := unboxedKind(t); ok {
		return k != decl.Boolean
	}
	return t.Kind == decl.KindPrimitive && t.Primitive != decl.Boolean
}

func isBoolean(t decl.Type) bool {
	if k, ok := unboxedKind(t); ok {
		return k == decl.Boolean
	}
	return t.Kind == decl.KindPrimitive && t.Primitive == decl.Boolean
}

func isString(t decl.Type) bool {
	return t.Kind == decl.KindNamed && t.Named.JavaName() == javaLangString
}

func primitiveOf(t decl.Type) decl.PrimitiveKind {
	if k, ok := unboxedKind(t); ok {
		return k
	}
	return t.Primitive
}

// promote applies binary numeric promotion.
func promote(a, b decl.Type) decl.Type {
	ka, kb := primitiveOf(a), primitiveOf(b)
	switch {
	case ka == decl.Double || kb == decl.Double:
		return decl.Prim(decl.Double)
	case ka == decl.Float || kb == decl.Float:
		return decl.Prim(decl.Float)
	case ka == decl.Long || kb == decl.Long:
		return decl.Prim(decl.Long)
	}
	return decl.Prim(decl.Int)
}

// assignable reports whether a value of type from can be used where to is
// expected. Boxing conversions count only when boxing is set. Types the
// universe does not know are assumed compatible.
func (u *universe) assignable(from, to decl.Type, boxing bool) bool {
	if isNull(from) {
		return to.IsReference()
	}
	if from.Equal(to) {
		return true
	}
	switch {
	case from.Kind == decl.KindPrimitive && to.Kind == decl.KindPrimitive:
		return widens(from.Primitive, to.Primitive)
	case from.Kind == decl.KindPrimitive:
		if !boxing || to.Kind != decl.KindNamed {
			return false
		}
		box := boxes[from.Primitive]
		return u.isSubtype(box, to.Named.JavaName())
	case to.Kind == decl.KindPrimitive:
		k, ok := unboxedKind(from)
		return boxing && ok && widens(k, to.Primitive)
	case to.Kind == decl.KindNamed && to.Named.JavaName() == javaLangObject:
		return true
	case from.Kind == decl.KindArray || to.Kind == decl.KindArray:
		if from.Kind != decl.KindArray {
			return from.Kind == decl.KindNamed && from.Named.JavaName() == javaLangObject
		}
		if to.Kind != decl.KindArray {
			name := to.Named.JavaName()
			return name == "java.lang.Cloneable" || name == "java.io.Serializable"
		}
		if from.Elem.Kind == decl.KindPrimitive || to.Elem.Kind == decl.KindPrimitive {
			return from.Elem.Equal(*to.Elem)
		}
		return u.assignable(*from.Elem, *to.Elem, false)
	}
	fromName, toName := from.Named.JavaName(), to.Named.JavaName()
	if fromName == javaLangObject {
		// erased generic results
		return true
	}
	if !u.exists(fromName) || !u.exists(toName) {
		return true
	}
	return u.isSubtype(fromName, toName)
}

// moreSpecific reports whether every parameter of a accepts b's.
func (u *universe) moreSpecific(a, b *methodInfo) bool {
	for i := range a.params {
		if !u.assignable(a.params[i], b.params[i], false) {
			return false
		}
	}
	return true
}

// choose picks the most specific applicable candidate, trying without
// boxing first. It returns nil when none applies.
func (u *universe) choose(cands []candidate, args []decl.Type) *candidate {
	for _, boxing := range []bool{false, true} {
		var best *candidate
		for i := range cands {
			c := &cands[i]
			ok := true
			for j, p := range c.method.params {
				if !u.assignable(args[j], p, boxing) {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}
			if best == nil || (u.moreSpecific(c.method, best.method) && !u.moreSpecific(best.method, c.method)) {
				best = c
			}
		}
		if best != nil {
			return best
		}
	}
	return nil
}
