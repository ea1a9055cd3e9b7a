package sema

import (
	"errors"
	"strings"

	"github.com/gogpu/mathl/ast"
	"github.com/gogpu/mathl/diag"
	"github.com/gogpu/mathl/overload"
	"github.com/gogpu/mathl/types"
)

// argTypes returns the argument types of a call (nil where unknown) and
// whether all of them are known.
func argTypes(n *ast.Node) ([]types.Type, bool) {
	out := make([]types.Type, n.Len())
	known := true
	for i, a := range n.Children() {
		out[i] = a.Type
		if a.Type == nil {
			known = false
		}
	}
	return out, known
}

func typeList(ts []types.Type) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = types.NameOf(t)
	}
	return strings.Join(names, ", ")
}

// expectedType returns the type the context of call n requires: the
// target of a plain assignment, the declared type of a variable it
// initializes, the enclosing function's return type, or the parameter
// type of an already bound outer call.
func expectedType(ctx *Context, n *ast.Node) types.Type {
	parent := n.Parent()
	if parent == nil {
		return nil
	}
	switch parent.Kind {
	case ast.Assign:
		if parent.Op == "=" && n.Index() == 1 {
			return parent.Child(0).Type
		}
	case ast.VarDecl:
		if n.Index() == 1 {
			return parent.Child(0).Type
		}
	case ast.Return:
		if fn := parent.Enclosing(ast.Function); fn != nil {
			return fn.Type
		}
	case ast.Call:
		if parent.Key == "" {
			return nil
		}
		if sig, ok := ctx.Overloads.ByKey(parent.Key); ok {
			if i := n.Index(); i < len(sig.Params) {
				return sig.Params[i]
			}
		}
	}
	return nil
}

// score returns the same-arity candidates with the highest number of
// parameter positions exactly matching a known argument type, in
// registration order, and that score.
func score(cands []*overload.Signature, args []types.Type) ([]*overload.Signature, int) {
	var best []*overload.Signature
	bestScore := -1
	for _, sig := range cands {
		if len(sig.Params) != len(args) {
			continue
		}
		s := 0
		for i, a := range args {
			if a != nil && types.Equal(a, sig.Params[i]) {
				s++
			}
		}
		switch {
		case s > bestScore:
			best = append(best[:0], sig)
			bestScore = s
		case s == bestScore:
			best = append(best, sig)
		}
	}
	return best, bestScore
}

// bind records sig as the resolution of call n.
func bind(ctx *Context, n *ast.Node, sig *overload.Signature) error {
	if n.Type != nil && !types.Equal(n.Type, sig.Return) {
		return ctx.errorf(n, diag.UnknownOverload,
			"no overload of %s returns %s (found %s)", n.Value, n.Type.Name(), sig)
	}
	n.Key = sig.Key
	_, err := n.SetType(sig.Return)
	return ctx.wrap(n, err)
}

// resolveCalls binds, in post-order, every unbound call whose argument
// types are all known. Calls with unknown arguments, and calls whose
// full-arity matches differ only in return type, are deferred. A call
// that cannot match whatever its missing types turn out to be is an
// error.
func resolveCalls(ctx *Context, prog *ast.Node) (bool, error) {
	changed := false
	err := ast.WalkPost(prog, func(n *ast.Node) error {
		if n.Kind != ast.Call || n.Key != "" {
			return nil
		}
		bound, err := resolveCall(ctx, n)
		if bound {
			changed = true
		}
		return err
	})
	return changed, err
}

func resolveCall(ctx *Context, n *ast.Node) (bool, error) {
	cands := ctx.Overloads.CandidatesFor(n.Value)
	if len(cands) == 0 {
		return false, ctx.errorf(n, diag.UnknownOverload, "no function named %s", n.Value)
	}
	args, allKnown := argTypes(n)
	best, bestScore := score(cands, args)
	if len(best) == 0 {
		return false, ctx.errorf(n, diag.UnknownOverload, "no overload of %s takes %d arguments", n.Value, len(args))
	}
	if !allKnown {
		return false, nil
	}

	expected := n.Type
	if expected == nil {
		expected = expectedType(ctx, n)
	}
	if expected != nil {
		sig, ok := ctx.Overloads.Find(n.Value, expected, args)
		if !ok {
			return false, ctx.errorf(n, diag.UnknownOverload,
				"no overload %s %s(%s)", expected.Name(), n.Value, typeList(args))
		}
		return true, bind(ctx, n, sig)
	}

	if bestScore < len(args) {
		return false, ctx.errorf(n, diag.UnknownOverload, "no overload %s(%s)", n.Value, typeList(args))
	}
	if len(best) > 1 {
		return false, nil
	}
	return true, bind(ctx, n, best[0])
}

var errStop = errors.New("stop")

// resolveStuck runs once propagation and resolution have stopped making
// progress. It adopts the first call in post-order whose maximal score is
// unique, returning true so the fixpoint can resume. When no call can be
// adopted, the first tie becomes an AmbiguousOverload.
func resolveStuck(ctx *Context, prog *ast.Node) (bool, error) {
	var firstErr error
	adopted := false
	err := ast.WalkPost(prog, func(n *ast.Node) error {
		if n.Kind != ast.Call || n.Key != "" {
			return nil
		}
		args, _ := argTypes(n)
		best, _ := score(ctx.Overloads.CandidatesFor(n.Value), args)
		switch len(best) {
		case 0:
			if firstErr == nil {
				firstErr = ctx.errorf(n, diag.UnknownOverload, "no overload %s(%s)", n.Value, typeList(args))
			}
			return nil
		case 1:
			if err := bind(ctx, n, best[0]); err != nil {
				return err
			}
			adopted = true
			ctx.logger.Debug("adopted overload", "call", n.Value, "key", best[0].Key)
			return errStop
		}
		if firstErr == nil {
			keys := make([]string, len(best))
			for i, sig := range best {
				keys[i] = sig.Key
			}
			e := ctx.errorf(n, diag.AmbiguousOverload, "ambiguous call %s(%s): candidates %s",
				n.Value, typeList(args), strings.Join(keys, ", "))
			e.Candidates = keys
			firstErr = e
		}
		return nil
	})
	if err != nil && err != errStop {
		return false, err
	}
	if adopted {
		return true, nil
	}
	return false, firstErr
}

// verifyBindings checks, after convergence, that every bound call's
// arguments have exactly the parameter types of its signature.
func verifyBindings(ctx *Context, prog *ast.Node) error {
	return ast.WalkPost(prog, func(n *ast.Node) error {
		if n.Kind != ast.Call || n.Key == "" {
			return nil
		}
		sig, ok := ctx.Overloads.ByKey(n.Key)
		if !ok {
			return ctx.errorf(n, diag.UnknownOverload, "call bound to unregistered key %s", n.Key)
		}
		for i, arg := range n.Children() {
			if arg.Type != nil && !types.Equal(arg.Type, sig.Params[i]) {
				return ctx.errorf(arg, diag.UnknownOverload,
					"argument %d of %s has type %s, %s expects %s", i+1, n.Value, arg.Type.Name(), sig, sig.Params[i].Name())
			}
		}
		return nil
	})
}
