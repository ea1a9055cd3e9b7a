package sema

import (
	"maps"
	"slices"

	"github.com/gogpu/mathl/ast"
	"github.com/gogpu/mathl/diag"
	"github.com/gogpu/mathl/types"
)

// registerFunctions adds the signature of every Function in prog to the
// context's overload registry before propagation starts, so calls may
// precede definitions. The first definition of a name is keyed by the
// bare name; later overloads use the canonical key.
func registerFunctions(ctx *Context, prog *ast.Node) error {
	for _, fn := range prog.Children() {
		if fn.Kind != ast.Function {
			continue
		}
		ret, err := ctx.resolveType(fn.Child(0))
		if err != nil {
			return err
		}
		params := fn.Child(1)
		ptypes := make([]types.Type, 0, params.Len())
		for _, p := range params.Children() {
			pt, err := ctx.resolveType(p.Child(0))
			if err != nil {
				return err
			}
			if types.Equal(pt, ctx.Types.MustResolve(types.Void)) {
				return ctx.errorf(p, diag.TypeMismatch, "parameter %s cannot have type void", p.Value)
			}
			ptypes = append(ptypes, pt)
		}

		key := fn.Value
		if _, taken := ctx.Overloads.ByKey(key); taken {
			key = ""
		}
		sig, err := ctx.Overloads.AddFunction(fn.Value, ret, ptypes, key)
		if err != nil {
			return ctx.wrap(fn, err)
		}
		fn.Key = sig.Key
		ctx.logger.Debug("registered function", "key", sig.Key, "signature", sig.String())
	}
	return nil
}

// collectGlobals files the interface variables of globals into the
// context. Declarations are typed here since they may not appear in the
// program tree.
func collectGlobals(ctx *Context, globals ast.Globals) error {
	buckets := []map[string]*ast.Node{globals.Inputs, globals.Outputs, globals.Uniforms}
	for _, bucket := range buckets {
		for _, name := range slices.Sorted(maps.Keys(bucket)) {
			decl := bucket[name]
			t, err := ctx.resolveType(decl.Child(0))
			if err != nil {
				return err
			}
			if _, err := decl.SetType(t); err != nil {
				return ctx.wrap(decl, err)
			}
			if _, dup := ctx.Globals.Lookup(name); dup {
				return ctx.errorf(decl, diag.Redefinition, "global %s declared more than once", name)
			}
			ctx.Globals.Add(decl)
		}
	}
	return nil
}

// declareGlobals binds the interface variables in the global frame.
func declareGlobals(ctx *Context) error {
	buckets := []map[string]*ast.Node{ctx.Globals.Inputs, ctx.Globals.Outputs, ctx.Globals.Uniforms}
	for _, bucket := range buckets {
		for _, name := range slices.Sorted(maps.Keys(bucket)) {
			decl := bucket[name]
			if err := ctx.Scope.Declare(name, Binding{Type: decl.Type, Decl: decl}); err != nil {
				return ctx.wrap(decl, err)
			}
		}
	}
	return nil
}
