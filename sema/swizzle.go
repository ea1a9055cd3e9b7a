package sema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/mathl/ast"
	"github.com/gogpu/mathl/diag"
)

// swizzleFamilies are the accepted component alphabets. A letter's index
// is its position within its own family.
var swizzleFamilies = [...]string{"xyzw", "rgba", "uvt"}

// swizzlePattern returns the component indices selected by member, or
// false when member is not a swizzle: all letters from a single family,
// no letter repeated, length 1 to 4.
func swizzlePattern(member string) ([]int, bool) {
	if len(member) < 1 || len(member) > 4 {
		return nil, false
	}
	for _, family := range swizzleFamilies {
		pattern := make([]int, 0, len(member))
		var seen [4]bool
		for i := 0; i < len(member); i++ {
			idx := strings.IndexByte(family, member[i])
			if idx < 0 || seen[idx] {
				pattern = nil
				break
			}
			seen[idx] = true
			pattern = append(pattern, idx)
		}
		if pattern != nil {
			return pattern, true
		}
	}
	return nil, false
}

// lowerSwizzles rewrites every swizzle MemberLookup under root into
// indexing, a constructor call, or a temporary-based assignment sequence.
// Other member lookups are left for propagation to report.
func lowerSwizzles(ctx *Context, root *ast.Node) error {
	ctx.reserveNames(root)
	return ast.WalkPost(root, func(n *ast.Node) error {
		if n.Kind != ast.MemberLookup {
			return nil
		}
		pattern, ok := swizzlePattern(n.Value)
		if !ok {
			return nil
		}
		parent := n.Parent()
		switch {
		case len(pattern) == 1:
			n.Replace(indexNode(n.Child(0), pattern[0], n.Pos))
		case parent != nil && parent.Kind == ast.Assign && n.Index() == 0:
			return lowerSwizzleWrite(ctx, parent, n, pattern)
		case parent != nil && parent.Kind.IsIncDec():
			return ctx.errorf(n, diag.TypeMismatch, "cannot modify multi-component swizzle .%s in place", n.Value)
		default:
			n.Replace(swizzleRead(n.Child(0), pattern, n.Pos))
		}
		return nil
	})
}

func intConstant(i int, pos ast.Pos) *ast.Node {
	return ast.New(ast.IntConstant, strconv.Itoa(i)).At(pos)
}

// indexNode builds base[i]. base is used as is, not copied.
func indexNode(base *ast.Node, i int, pos ast.Pos) *ast.Node {
	return ast.New(ast.ArrayLookup, "", base, intConstant(i, pos)).At(pos)
}

func vectorName(n int) string {
	return fmt.Sprintf("vec%d", n)
}

// swizzleRead builds vecN(base[p0], base[p1], ...) in swizzle order, each
// argument indexing its own copy of base.
func swizzleRead(base *ast.Node, pattern []int, pos ast.Pos) *ast.Node {
	call := ast.New(ast.Call, vectorName(len(pattern))).At(pos)
	for _, idx := range pattern {
		call.Append(indexNode(base.Clone(), idx, pos))
	}
	return call
}

// lowerSwizzleWrite rewrites "base.sw op= e" into
//
//	(_swzN = e, base[p0] op= _swzN[0], base[p1] op= _swzN[1], ...)
//
// so that e is evaluated once and components outside the swizzle are
// never written. For compound operators the temporary is initialized
// through the vecN constructor, which also accepts a scalar operand.
func lowerSwizzleWrite(ctx *Context, assign, member *ast.Node, pattern []int) error {
	pos := member.Pos
	base := member.Child(0)
	if ctx.hasSideEffects(base) {
		return ctx.errorf(member, diag.TypeMismatch, "swizzle target %s has side effects", base.Describe())
	}
	rhs := assign.Child(1)
	vec := vectorName(len(pattern))
	tmp := ctx.tempName()

	init := rhs
	if assign.Op != "=" {
		init = ast.New(ast.Call, vec, rhs).At(rhs.Pos)
	}
	decl := ast.New(ast.VarDecl, tmp, ast.New(ast.VarType, vec).At(pos), init).At(pos)

	list := ast.New(ast.ExprList, "", decl).At(assign.Pos)
	for i, idx := range pattern {
		target := indexNode(base.Clone(), idx, pos)
		source := indexNode(ast.New(ast.Ident, tmp).At(pos), i, pos)
		list.Append(ast.NewOp(ast.Assign, assign.Op, target, source).At(assign.Pos))
	}
	if !assign.Replace(list) {
		return ctx.errorf(assign, diag.TypeMismatch, "swizzle assignment outside of a statement")
	}
	return nil
}
