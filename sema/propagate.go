package sema

import (
	"strconv"

	"github.com/gogpu/mathl/ast"
	"github.com/gogpu/mathl/diag"
	"github.com/gogpu/mathl/overload"
	"github.com/gogpu/mathl/types"
)

// propagator runs one type propagation pass.
type propagator struct {
	ctx     *Context
	changed bool
}

// propagate visits every node under prog once, assigning the types whose
// prerequisites are known. Nodes that cannot be typed yet are left for a
// later pass. It reports whether any node received a type.
func propagate(ctx *Context, prog *ast.Node) (bool, error) {
	ctx.Scope = NewScope()
	if err := declareGlobals(ctx); err != nil {
		return false, err
	}
	p := &propagator{ctx: ctx}
	err := p.visit(prog)
	return p.changed, err
}

func (p *propagator) builtin(name string) types.Type {
	return p.ctx.Types.MustResolve(name)
}

func (p *propagator) set(n *ast.Node, t types.Type) error {
	changed, err := n.SetType(t)
	if err != nil {
		return p.ctx.wrap(n, err)
	}
	if changed {
		p.changed = true
	}
	return nil
}

func (p *propagator) visitChildren(n *ast.Node) error {
	for _, c := range n.Children() {
		if err := p.visit(c); err != nil {
			return err
		}
	}
	return nil
}

func (p *propagator) scoped(n *ast.Node) error {
	p.ctx.Scope.Push()
	defer p.ctx.Scope.Pop()
	return p.visitChildren(n)
}

func (p *propagator) visit(n *ast.Node) error {
	switch n.Kind {
	case ast.Program:
		if err := p.visitChildren(n); err != nil {
			return err
		}
		return p.set(n, p.builtin(types.Void))

	case ast.Function:
		return p.function(n)

	case ast.StatementList, ast.For:
		if err := p.scoped(n); err != nil {
			return err
		}
		if n.Kind == ast.For {
			if err := p.checkCondition(n.Child(1)); err != nil {
				return err
			}
		}
		return p.set(n, p.builtin(types.Void))

	case ast.If, ast.While:
		if err := p.visitChildren(n); err != nil {
			return err
		}
		if err := p.checkCondition(n.Child(0)); err != nil {
			return err
		}
		return p.set(n, p.builtin(types.Void))

	case ast.NullStatement:
		return p.set(n, p.builtin(types.Void))

	case ast.VarType:
		_, err := p.ctx.resolveType(n)
		return err

	case ast.VarDecl:
		return p.varDecl(n)

	case ast.IntConstant:
		return p.set(n, p.builtin(types.Int))
	case ast.FloatConstant:
		return p.set(n, p.builtin(types.Float))
	case ast.BoolConstant:
		return p.set(n, p.builtin(types.Bool))

	case ast.Ident:
		b, ok := p.ctx.Scope.Lookup(n.Value)
		if !ok {
			return p.ctx.errorf(n, diag.UnresolvedIdentifier, "undeclared identifier %s", n.Value)
		}
		return p.set(n, b.Type)

	case ast.MemberLookup:
		return p.ctx.errorf(n, diag.UnresolvedIdentifier, "unknown member .%s", n.Value)
	}

	if err := p.visitChildren(n); err != nil {
		return err
	}

	switch n.Kind {
	case ast.BinOp:
		return p.set(n, p.binOpType(n))

	case ast.UnaryOp:
		if n.Op == "!" {
			return p.set(n, p.builtin(types.Bool))
		}
		return p.set(n, n.Child(0).Type)

	case ast.PostInc, ast.PostDec, ast.PreInc, ast.PreDec:
		if err := p.checkWritable(n, n.Child(0)); err != nil {
			return err
		}
		return p.set(n, n.Child(0).Type)

	case ast.Assign:
		return p.assign(n)

	case ast.ArrayLookup:
		return p.arrayLookup(n)

	case ast.Call:
		return p.call(n)

	case ast.Return:
		if fn := n.Enclosing(ast.Function); fn != nil && fn.Type != nil {
			return p.set(n, fn.Type)
		}
		if n.Len() == 0 {
			return p.set(n, p.builtin(types.Void))
		}
		return p.set(n, n.Child(0).Type)

	case ast.ExprList:
		if n.Len() == 0 {
			return p.set(n, p.builtin(types.Void))
		}
		return p.set(n, n.Child(n.Len()-1).Type)
	}
	return nil
}

func (p *propagator) function(n *ast.Node) error {
	ret, err := p.ctx.resolveType(n.Child(0))
	if err != nil {
		return err
	}
	if err := p.set(n, ret); err != nil {
		return err
	}
	p.ctx.Scope.Push()
	defer p.ctx.Scope.Pop()
	return p.visitChildren(n)
}

func (p *propagator) varDecl(n *ast.Node) error {
	if err := p.visitChildren(n); err != nil {
		return err
	}
	t := n.Child(0).Type
	if t.Name() == types.Void {
		return p.ctx.errorf(n, diag.TypeMismatch, "variable %s cannot have type void", n.Value)
	}
	if err := p.set(n, t); err != nil {
		return err
	}
	if init := n.Child(1); init != nil && init.Kind == ast.Call && init.Type == nil {
		if err := p.set(init, t); err != nil {
			return err
		}
	}

	if b, ok := p.ctx.Scope.Lookup(n.Value); ok && b.Decl == n {
		return nil
	}
	return p.ctx.wrap(n, p.ctx.Scope.Declare(n.Value, Binding{Type: t, Decl: n}))
}

func (p *propagator) assign(n *ast.Node) error {
	lhs, rhs := n.Child(0), n.Child(1)
	if err := p.checkWritable(n, lhs); err != nil {
		return err
	}
	if lhs.Type == nil {
		return nil
	}
	if err := p.set(n, lhs.Type); err != nil {
		return err
	}
	if n.Op == "=" && rhs.Kind == ast.Call && rhs.Type == nil {
		return p.set(rhs, lhs.Type)
	}
	return nil
}

// checkWritable rejects writes through anything but a variable or an
// index chain rooted at one, and writes to read-only variables.
func (p *propagator) checkWritable(op, target *ast.Node) error {
	root := target
	for root.Kind == ast.ArrayLookup {
		root = root.Child(0)
	}
	if root.Kind != ast.Ident {
		return p.ctx.errorf(op, diag.TypeMismatch, "cannot assign to %s", target.Describe())
	}
	b, ok := p.ctx.Scope.Lookup(root.Value)
	if !ok || b.Decl == nil {
		return nil
	}
	switch q := b.Decl.Qualifier; q {
	case "in", "uniform", "const":
		return p.ctx.errorf(op, diag.TypeMismatch, "cannot assign to %s variable %s", q, root.Value)
	}
	return nil
}

func (p *propagator) checkCondition(cond *ast.Node) error {
	if cond == nil || cond.Kind == ast.NullStatement || cond.Type == nil {
		return nil
	}
	if cond.Type.Name() != types.Bool {
		return p.ctx.errorf(cond, diag.TypeMismatch, "condition must be bool, got %s", cond.Type.Name())
	}
	return nil
}

func (p *propagator) arrayLookup(n *ast.Node) error {
	base, index := n.Child(0), n.Child(1)
	if index.Type != nil && !types.IsInt(index.Type) {
		return p.ctx.errorf(index, diag.TypeMismatch, "index must be int, got %s", index.Type.Name())
	}
	if base.Type == nil {
		return nil
	}
	arr, ok := base.Type.(*types.ArrayType)
	if !ok {
		return p.ctx.errorf(n, diag.TypeMismatch, "cannot index %s of type %s", base.Describe(), base.Type.Name())
	}
	if index.Kind == ast.IntConstant {
		if i, err := strconv.ParseInt(index.Value, 0, 64); err == nil && (i < 0 || int(i) >= arr.Count) {
			return p.ctx.errorf(index, diag.TypeMismatch, "index %d out of range for %s", i, arr.Name())
		}
	}
	return p.set(n, arr.Component)
}

// mixedDomain reports whether an operator pairs int with a non-int
// numeric type.
func mixedDomain(l, r types.Type) bool {
	return (types.IsInt(l) && types.IsNumeric(r) && !types.IsInt(r)) ||
		(types.IsInt(r) && types.IsNumeric(l) && !types.IsInt(l))
}

// binOpType derives a BinOp's type from its operands, or nil to defer.
func (p *propagator) binOpType(n *ast.Node) types.Type {
	l, r := n.Child(0).Type, n.Child(1).Type
	if l == nil || r == nil {
		return nil
	}
	if ast.IsComparison(n.Op) || ast.IsLogical(n.Op) {
		return p.builtin(types.Bool)
	}
	if mixedDomain(l, r) {
		return nil
	}
	if types.IsScalar(l) && types.IsScalar(r) {
		if types.Equal(l, r) {
			return l
		}
		return nil
	}
	if name, ok := overload.OperatorName(n.Op); ok {
		if sig, ok := p.ctx.Overloads.ByKey(overload.OperatorKey(name, l, r)); ok {
			return sig.Return
		}
	}
	if types.ComponentCount(r) > types.ComponentCount(l) {
		return r
	}
	return l
}

// call types a call from its binding, or from the single candidate left
// after filtering by arity and known argument types. Binding itself is
// the resolver's job.
func (p *propagator) call(n *ast.Node) error {
	if n.Key != "" {
		sig, ok := p.ctx.Overloads.ByKey(n.Key)
		if !ok {
			return p.ctx.errorf(n, diag.UnknownOverload, "call bound to unregistered key %s", n.Key)
		}
		return p.set(n, sig.Return)
	}
	if n.Type != nil {
		return nil
	}
	var only *overload.Signature
	for _, sig := range p.ctx.Overloads.CandidatesFor(n.Value) {
		if !argsCompatible(sig, n) {
			continue
		}
		if only != nil {
			return nil
		}
		only = sig
	}
	if only == nil {
		return nil
	}
	return p.set(n, only.Return)
}

// argsCompatible reports whether sig has n's arity and every known
// argument type equals the parameter type.
func argsCompatible(sig *overload.Signature, n *ast.Node) bool {
	if len(sig.Params) != n.Len() {
		return false
	}
	for i, arg := range n.Children() {
		if arg.Type != nil && !types.Equal(arg.Type, sig.Params[i]) {
			return false
		}
	}
	return true
}
