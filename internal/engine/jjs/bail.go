package jjs

import (
	"jjsdev/internal/core/errors"
)

// bailout carries an internal compiler error up through the builder's
// recursive descent. It never escapes Process.
type bailout struct{ err error }

func bail(format string, args ...any) {
	panic(bailout{err: errors.Internal(format, args...)})
}

// catchBailout converts a bailout into *err. Other panics keep unwinding.
func catchBailout(err *error) {
	if r := recover(); r != nil {
		b, ok := r.(bailout)
		if !ok {
			panic(r)
		}
		*err = b.err
	}
}

// annotate records node on a bailout passing through.
func annotate(node string) {
	if r := recover(); r != nil {
		if b, ok := r.(bailout); ok {
			panic(bailout{err: errors.AddNode(b.err, node)})
		}
		panic(r)
	}
}
