// Package mathl compiles mathl, a small GLSL-like shading language, into a
// fully typed and lowered syntax tree.
//
// Compilation has two stages. Parse turns source into a raw AST and the
// global declaration buckets. Analyze then runs semantic analysis in
// place: swizzles are lowered, types are propagated, overloaded calls are
// bound to registry keys, and vector and matrix operators become calls.
//
// Example usage:
//
//	source := `
//	vec3 a; vec3 b; vec3 c;
//	void main() { c = a + b; }
//	`
//	unit, err := mathl.Compile("add.mathl", source, mathl.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ast.Fprint(os.Stdout, unit.Program)
//
// Errors carry a *diag.Error, which callers reach with errors.As or test
// with diag.Is.
//
// To execute a compiled unit, use the eval package:
//
//	m, _ := eval.New(unit, nil)
//	err := m.Run()
package mathl

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/gogpu/mathl/sema"
	"github.com/gogpu/mathl/syntax"
)

// Version is the mathl release.
const Version = "0.1.0-dev"

// Options configures compilation.
type Options struct {
	// MaxPasses caps the propagate/resolve fixpoint (default: 16).
	MaxPasses int

	// Prelude compiles the builtin prelude functions (saturate, reflect,
	// ...) ahead of the program.
	Prelude bool

	// Logger receives pass-level tracing. Nil discards it.
	Logger *slog.Logger
}

// DefaultOptions returns sensible default options.
func DefaultOptions() Options {
	d := sema.DefaultOptions()
	return Options{
		MaxPasses: d.MaxPasses,
		Prelude:   d.Prelude,
	}
}

func (o Options) analyzer() sema.Options {
	return sema.Options{
		MaxPasses: o.MaxPasses,
		Prelude:   o.Prelude,
		Logger:    o.Logger,
	}
}

// Compile parses and analyzes source. On failure the unit is nil.
func Compile(filename, source string, opts Options) (*sema.Unit, error) {
	unit, err := Parse(filename, source)
	if err != nil {
		return nil, err
	}
	if err := Analyze(unit, opts); err != nil {
		return nil, err
	}
	return unit, nil
}

// Parse parses source into an unanalyzed unit.
//
// This is the first stage of compilation. The returned tree carries no
// types and still contains swizzles and operator expressions.
func Parse(filename, source string) (*sema.Unit, error) {
	prog, globals, err := syntax.Parse(filename, source)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", filename)
	}
	return &sema.Unit{
		Filename: filename,
		Source:   source,
		Program:  prog,
		Globals:  globals,
	}, nil
}

// Analyze runs semantic analysis on unit in place. After an error the
// tree is partially rewritten and must not be used.
func Analyze(unit *sema.Unit, opts Options) error {
	if err := sema.NewAnalyzer(opts.analyzer()).Analyze(unit); err != nil {
		return errors.Wrapf(err, "analyze %s", unit.Filename)
	}
	return nil
}
