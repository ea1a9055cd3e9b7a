package sema

import (
	_ "embed"
	"log/slog"

	"github.com/gogpu/mathl/ast"
	"github.com/gogpu/mathl/diag"
	"github.com/gogpu/mathl/overload"
	"github.com/gogpu/mathl/syntax"
	"github.com/gogpu/mathl/types"
)

// PreludeName is the filename diagnostics use for the prelude.
const PreludeName = "prelude.mathl"

//go:embed prelude.mathl
var preludeSource string

// Prelude returns the source of the built-in mathl prelude.
func Prelude() string { return preludeSource }

// maxDepth bounds nested compilations.
const maxDepth = 8

// Options configures analysis.
type Options struct {
	// MaxPasses caps the propagate/resolve alternation.
	MaxPasses int

	// Logger receives pass-level debug tracing. Nil discards it.
	Logger *slog.Logger

	// Prelude compiles the built-in prelude before the program, making
	// its functions callable.
	Prelude bool
}

// DefaultOptions returns the default analysis options.
func DefaultOptions() Options {
	return Options{
		MaxPasses: 16,
		Prelude:   true,
	}
}

// Analyzer drives the analysis passes. It owns the stack of compilation
// contexts; a fragment compiled during another compilation gets its own
// nested context.
type Analyzer struct {
	opts   Options
	logger *slog.Logger
	stack  []*Context
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(opts Options) *Analyzer {
	if opts.MaxPasses <= 0 {
		opts.MaxPasses = DefaultOptions().MaxPasses
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Analyzer{opts: opts, logger: logger}
}

// Current returns the innermost active context, or nil.
func (a *Analyzer) Current() *Context {
	if len(a.stack) == 0 {
		return nil
	}
	return a.stack[len(a.stack)-1]
}

// push starts a compilation. The registries are cloned from the enclosing
// compilation when there is one, else from the builtins.
func (a *Analyzer) push(filename, source string) (*Context, error) {
	if len(a.stack) >= maxDepth {
		return nil, diag.Errorf(diag.PropagationInconsistency, "compilations nested deeper than %d", maxDepth).
			At(filename, source, 0, 0)
	}
	var tr *types.Registry
	var or *overload.Registry
	if outer := a.Current(); outer != nil {
		tr = outer.Types.Clone()
		or = outer.Overloads.Clone(tr)
	} else {
		tr = types.Builtin().Clone()
		or = overload.Builtin().Clone(tr)
	}
	ctx := newContext(filename, source, tr, or, a.logger.With("file", filename))
	ctx.depth = len(a.stack) + 1
	a.stack = append(a.stack, ctx)
	return ctx, nil
}

func (a *Analyzer) pop() {
	a.stack[len(a.stack)-1] = nil
	a.stack = a.stack[:len(a.stack)-1]
}

// Analyze types, resolves and lowers unit.Program in place. On success
// the unit's registries and imports are set.
func (a *Analyzer) Analyze(unit *Unit) error {
	ctx, err := a.push(unit.Filename, unit.Source)
	if err != nil {
		return err
	}
	defer a.pop()

	if a.opts.Prelude {
		if err := a.AnalyzeFragment(PreludeName, preludeSource); err != nil {
			return err
		}
	}
	if err := a.run(ctx, unit.Program, unit.Globals); err != nil {
		return err
	}
	unit.Types = ctx.Types
	unit.Overloads = ctx.Overloads
	unit.Imports = ctx.Imports
	return nil
}

// AnalyzeFragment parses and analyzes src in a nested context, then makes
// its functions available to the enclosing compilation: their signatures
// under the same keys, and their typed Function nodes as imports.
func (a *Analyzer) AnalyzeFragment(name, src string) error {
	prog, globals, err := syntax.Parse(name, src)
	if err != nil {
		return err
	}
	outer := a.Current()
	ctx, err := a.push(name, src)
	if err != nil {
		return err
	}
	defer a.pop()

	if err := a.run(ctx, prog, globals); err != nil {
		return err
	}
	if outer == nil {
		return nil
	}
	for _, fn := range prog.Children() {
		if fn.Kind != ast.Function {
			continue
		}
		sig, _ := ctx.Overloads.ByKey(fn.Key)
		if _, err := outer.Overloads.AddFunction(sig.Name, sig.Return, sig.Params, sig.Key); err != nil {
			return ctx.wrap(fn, err)
		}
		outer.Imports = append(outer.Imports, fn)
	}
	outer.Imports = append(outer.Imports, ctx.Imports...)
	return nil
}

func (a *Analyzer) run(ctx *Context, prog *ast.Node, globals ast.Globals) error {
	if prog == nil || prog.Kind != ast.Program {
		return ctx.errorf(prog, diag.SyntaxError, "analysis needs a program root")
	}
	if err := lowerSwizzles(ctx, prog); err != nil {
		return err
	}
	if err := registerFunctions(ctx, prog); err != nil {
		return err
	}
	if err := collectGlobals(ctx, globals); err != nil {
		return err
	}
	if err := a.fixpoint(ctx, prog); err != nil {
		return err
	}
	if err := checkMixedDomains(ctx, prog); err != nil {
		return err
	}
	if err := checkComplete(ctx, prog); err != nil {
		return err
	}
	if err := verifyBindings(ctx, prog); err != nil {
		return err
	}
	return lowerOperators(ctx, prog)
}

// fixpoint alternates propagation and strict resolution until neither
// changes anything. A stuck state gets one relaxed resolution round; if
// that adopts a call the alternation resumes. The pass cap ends the loop
// regardless, leaving any untyped node to the completeness check.
func (a *Analyzer) fixpoint(ctx *Context, prog *ast.Node) error {
	round := 0
	for pass := 1; pass <= a.opts.MaxPasses; pass++ {
		propagated, err := propagate(ctx, prog)
		if err != nil {
			return err
		}
		resolved, err := resolveCalls(ctx, prog)
		if err != nil {
			return err
		}
		ctx.logger.Debug("pass", "pass", pass, "round", round,
			"changed", propagated || resolved, "depth", ctx.depth)
		if propagated || resolved {
			continue
		}

		if err := checkMixedDomains(ctx, prog); err != nil {
			return err
		}
		round++
		adopted, err := resolveStuck(ctx, prog)
		if err != nil {
			return err
		}
		ctx.logger.Debug("relaxed round", "pass", pass, "round", round, "changed", adopted)
		if !adopted {
			return nil
		}
	}
	ctx.logger.Debug("pass cap reached", "max", a.opts.MaxPasses)
	return nil
}
