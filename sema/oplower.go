package sema

import (
	"strings"

	"github.com/gogpu/mathl/ast"
	"github.com/gogpu/mathl/diag"
	"github.com/gogpu/mathl/overload"
	"github.com/gogpu/mathl/types"
)

// checkMixedDomains rejects operators pairing int with a non-int numeric
// operand, and typed scalar operands no operator accepts. It only looks at
// operators whose operand types are both known.
func checkMixedDomains(ctx *Context, prog *ast.Node) error {
	return ast.WalkPost(prog, func(n *ast.Node) error {
		if n.Kind != ast.BinOp && !(n.Kind == ast.Assign && n.Op != "=") {
			return nil
		}
		l, r := n.Child(0).Type, n.Child(1).Type
		if l == nil || r == nil {
			return nil
		}
		if mixedDomain(l, r) {
			return ctx.errorf(n, diag.MixedDomain, "operator %s mixes %s and %s", n.Op, l.Name(), r.Name())
		}
		if n.Kind == ast.BinOp && n.Type == nil {
			return ctx.errorf(n, diag.UnknownOverload, "operator %s is not defined for %s and %s", n.Op, l.Name(), r.Name())
		}
		return nil
	})
}

// checkComplete reports the first node, in post-order, left without a
// type or a binding once the fixpoint has ended.
func checkComplete(ctx *Context, prog *ast.Node) error {
	return ast.WalkPost(prog, func(n *ast.Node) error {
		if n.Kind == ast.Call && (n.Type == nil || n.Key == "") {
			args, _ := argTypes(n)
			return ctx.errorf(n, diag.UnknownOverload, "cannot resolve call %s(%s)", n.Value, typeList(args))
		}
		if n.Type == nil {
			return ctx.errorf(n, diag.UnresolvedIdentifier, "cannot infer the type of %s", n.Describe())
		}
		return nil
	})
}

// nativeOperands reports whether an operator on l and r stays a native
// scalar operation.
func nativeOperands(l, r types.Type) bool {
	return types.IsScalar(l) && types.Equal(l, r)
}

// nativeOperator reports whether the native scalar operator op is
// defined on operands of type t. Arithmetic and ordering take int or
// float, bitwise and shift operators int, equality any scalar.
func nativeOperator(op string, t types.Type) bool {
	switch t.Name() {
	case types.Int:
		return op != "!"
	case types.Float:
		switch op {
		case "+", "-", "*", "/", "%", "<", ">", "<=", ">=", "==", "!=":
			return true
		}
	case types.Bool:
		switch op {
		case "==", "!=", "!", "&&", "||":
			return true
		}
	}
	return false
}

// lowerOperators rewrites every non-native operator into a call bound to
// its overload key, and checks plain assignments and returns for exact
// type agreement.
func lowerOperators(ctx *Context, prog *ast.Node) error {
	return ast.WalkPost(prog, func(n *ast.Node) error {
		switch n.Kind {
		case ast.BinOp:
			return lowerBinOp(ctx, n)
		case ast.Assign:
			if n.Op == "=" {
				return checkAssignable(ctx, n, n.Child(0).Type, n.Child(1))
			}
			return lowerCompound(ctx, n)
		case ast.VarDecl:
			if init := n.Child(1); init != nil {
				return checkAssignable(ctx, n, n.Type, init)
			}
		case ast.UnaryOp:
			return lowerUnary(ctx, n)
		case ast.PostInc, ast.PostDec, ast.PreInc, ast.PreDec:
			if t := n.Child(0).Type; !types.IsNumeric(t) || !types.IsScalar(t) {
				return ctx.errorf(n, diag.UnknownOverload, "increment and decrement are not defined for %s", t.Name())
			}
		case ast.Return:
			return checkReturn(ctx, n)
		}
		return nil
	})
}

func operatorSignature(ctx *Context, n *ast.Node, l, r types.Type) (*overload.Signature, string, error) {
	if mixedDomain(l, r) {
		return nil, "", ctx.errorf(n, diag.MixedDomain, "operator %s mixes %s and %s", n.Op, l.Name(), r.Name())
	}
	name, ok := overload.OperatorName(n.Op)
	if !ok {
		return nil, "", ctx.errorf(n, diag.UnknownOverload, "operator %s is not defined for %s and %s", n.Op, l.Name(), r.Name())
	}
	key := overload.OperatorKey(name, l, r)
	sig, ok := ctx.Overloads.ByKey(key)
	if !ok {
		return nil, "", ctx.errorf(n, diag.UnknownOverload, "no overload %s for operator %s", key, n.Op)
	}
	return sig, name, nil
}

func boundCall(name string, sig *overload.Signature, key string, pos ast.Pos, args ...*ast.Node) *ast.Node {
	call := ast.New(ast.Call, name, args...).At(pos)
	call.Key = key
	call.Type = sig.Return
	return call
}

func lowerBinOp(ctx *Context, n *ast.Node) error {
	lhs, rhs := n.Child(0), n.Child(1)
	if ast.IsLogical(n.Op) && (lhs.Type.Name() != types.Bool || rhs.Type.Name() != types.Bool) {
		return ctx.errorf(n, diag.TypeMismatch, "operator %s needs bool operands, got %s and %s",
			n.Op, lhs.Type.Name(), rhs.Type.Name())
	}
	if nativeOperands(lhs.Type, rhs.Type) {
		if !nativeOperator(n.Op, lhs.Type) {
			return ctx.errorf(n, diag.UnknownOverload, "operator %s is not defined for %s", n.Op, lhs.Type.Name())
		}
		return nil
	}
	sig, name, err := operatorSignature(ctx, n, lhs.Type, rhs.Type)
	if err != nil {
		return err
	}
	if !types.Equal(sig.Return, n.Type) {
		return ctx.errorf(n, diag.PropagationInconsistency,
			"operator %s typed %s but %s returns %s", n.Op, n.Type.Name(), sig.Key, sig.Return.Name())
	}
	key := overload.OperatorKey(name, lhs.Type, rhs.Type)
	n.Replace(boundCall(name, sig, key, n.Pos, lhs, rhs))
	return nil
}

// lowerCompound rewrites "a op= b" into "a = op(a, b)" when the operands
// are not a native scalar pair. The write target stays the assignment's
// left side.
func lowerCompound(ctx *Context, n *ast.Node) error {
	lhs, rhs := n.Child(0), n.Child(1)
	if nativeOperands(lhs.Type, rhs.Type) {
		if op := strings.TrimSuffix(n.Op, "="); !nativeOperator(op, lhs.Type) {
			return ctx.errorf(n, diag.UnknownOverload, "operator %s is not defined for %s", n.Op, lhs.Type.Name())
		}
		return nil
	}
	sig, name, err := operatorSignature(ctx, n, lhs.Type, rhs.Type)
	if err != nil {
		return err
	}
	if !types.Equal(sig.Return, lhs.Type) {
		return ctx.errorf(n, diag.TypeMismatch,
			"%s %s %s yields %s, cannot assign to %s", lhs.Type.Name(), n.Op, rhs.Type.Name(), sig.Return.Name(), lhs.Type.Name())
	}
	if ctx.hasSideEffects(lhs) {
		return ctx.errorf(n, diag.TypeMismatch, "compound assignment target %s has side effects", lhs.Describe())
	}
	key := overload.OperatorKey(name, lhs.Type, rhs.Type)
	call := boundCall(name, sig, key, n.Pos, lhs.Clone())
	n.ReplaceChild(1, call)
	call.Append(rhs)
	n.Op = "="
	return nil
}

// hasSideEffects reports whether evaluating n may write a variable: an
// increment, an assignment or a call to a function of the program.
// Builtins are pure. Lowerings that duplicate an expression refuse such
// operands.
func (c *Context) hasSideEffects(n *ast.Node) bool {
	found := false
	ast.Inspect(n, func(x *ast.Node) bool {
		switch {
		case x.Kind.IsIncDec(), x.Kind == ast.Assign:
			found = true
		case x.Kind == ast.Call && c.funcs[x.Value]:
			found = true
		}
		return !found
	})
	return found
}

func lowerUnary(ctx *Context, n *ast.Node) error {
	operand := n.Child(0)
	t := operand.Type
	if types.IsScalar(t) {
		if n.Op == "!" && t.Name() != types.Bool {
			return ctx.errorf(n, diag.TypeMismatch, "operator ! is not defined for %s", t.Name())
		}
		if !nativeOperator(n.Op, t) {
			return ctx.errorf(n, diag.UnknownOverload, "operator %s is not defined for %s", n.Op, t.Name())
		}
		return nil
	}
	if n.Op != "-" {
		return ctx.errorf(n, diag.UnknownOverload, "operator %s is not defined for %s", n.Op, t.Name())
	}
	key := overload.NegateKey(t)
	sig, ok := ctx.Overloads.ByKey(key)
	if !ok {
		return ctx.errorf(n, diag.UnknownOverload, "no overload %s for unary -", key)
	}
	n.Replace(boundCall("neg", sig, key, n.Pos, operand))
	return nil
}

// checkAssignable requires value's type to be exactly want.
func checkAssignable(ctx *Context, at *ast.Node, want types.Type, value *ast.Node) error {
	got := value.Type
	if types.Equal(want, got) {
		return nil
	}
	if types.IsScalar(want) && types.IsScalar(got) && mixedDomain(want, got) {
		return ctx.errorf(at, diag.MixedDomain, "cannot assign %s to %s", got.Name(), want.Name())
	}
	return ctx.errorf(at, diag.TypeMismatch, "cannot assign %s to %s", got.Name(), want.Name())
}

func checkReturn(ctx *Context, n *ast.Node) error {
	fn := n.Enclosing(ast.Function)
	if fn == nil {
		return nil
	}
	want := fn.Type
	if n.Len() == 0 {
		if want.Name() != types.Void {
			return ctx.errorf(n, diag.TypeMismatch, "function %s must return %s", fn.Value, want.Name())
		}
		return nil
	}
	if want.Name() == types.Void {
		return ctx.errorf(n, diag.TypeMismatch, "void function %s cannot return a value", fn.Value)
	}
	return checkAssignable(ctx, n, want, n.Child(0))
}
