package resource

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"

	"jjsdev/internal/core/errors"
	"jjsdev/internal/shared/util"
)

// DefaultIncludes selects Java sources and both Jribble encodings.
var DefaultIncludes = []string{"**/*.java", "**/*.jribble", "**/*.jribblebin"}

// Oracle discovers resources below a set of source roots. Include patterns
// match the slash path relative to the root; exclude patterns match a
// single directory or file name.
type Oracle struct {
	roots        []string
	includes     []glob.Glob
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
}

func compileAll(kind string, patterns []string, sep ...rune) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, sep...)
		if err != nil {
			return nil, errors.AddContext(
				errors.Wrap(err, errors.CodeValidationError, "invalid "+kind+" pattern"),
				errors.CtxPath, p)
		}
		out = append(out, g)
	}
	return out, nil
}

// NewOracle compiles the patterns. An empty include list means
// DefaultIncludes.
func NewOracle(roots, includes, excludeDirs, excludeFiles []string) (*Oracle, error) {
	if len(includes) == 0 {
		includes = DefaultIncludes
	}
	o := &Oracle{roots: roots}
	var err error
	if o.includes, err = compileAll("include", includes, '/'); err != nil {
		return nil, err
	}
	if o.excludeDirs, err = compileAll("exclude dir", excludeDirs); err != nil {
		return nil, err
	}
	if o.excludeFiles, err = compileAll("exclude file", excludeFiles); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Oracle) Roots() []string { return o.roots }

func matchAny(globs []glob.Glob, s string) bool {
	for _, g := range globs {
		if g.Match(s) {
			return true
		}
	}
	return false
}

// Includes reports whether a root-relative slash path is selected.
func (o *Oracle) Includes(rel string) bool {
	// "./" lets "**/" patterns match files at the root.
	return matchAny(o.includes, rel) || matchAny(o.includes, "./"+rel)
}

// ExcludesDir reports whether a directory name is skipped.
func (o *Oracle) ExcludesDir(name string) bool { return matchAny(o.excludeDirs, name) }

// ExcludesFile reports whether a file name is skipped.
func (o *Oracle) ExcludesFile(name string) bool { return matchAny(o.excludeFiles, name) }

// Resources walks every root and returns the selected files sorted by
// path. When two roots provide the same path the first root wins.
func (o *Oracle) Resources() ([]Resource, error) {
	seen := make(map[string]bool)
	var out []Resource
	for _, root := range o.roots {
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if p != root && o.ExcludesDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if o.ExcludesFile(d.Name()) {
				return nil
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			rel = util.NormalizePatternPath(rel)
			if !o.Includes(rel) {
				return nil
			}
			if seen[rel] {
				slog.Debug("resource shadowed by earlier root", "path", rel, "root", root)
				return nil
			}
			f, err := NewFile(root, rel)
			if err != nil {
				return err
			}
			seen[rel] = true
			out = append(out, f)
			return nil
		})
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "scanning source root"), errors.CtxPath, root)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path() < out[j].Path() })
	return out, nil
}
