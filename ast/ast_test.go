package ast

import (
	"bytes"
	"testing"

	"github.com/nalgeon/be"

	"github.com/gogpu/mathl/diag"
	"github.com/gogpu/mathl/types"
)

func ident(name string) *Node { return New(Ident, name) }

func checkParents(t *testing.T, root *Node) {
	t.Helper()
	Inspect(root, func(n *Node) bool {
		for _, c := range n.Children() {
			if c.Parent() != n {
				t.Fatalf("child %s of %s has wrong parent", c.Describe(), n.Describe())
			}
		}
		return true
	})
}

func TestAppendInsertRemove(t *testing.T) {
	list := New(StatementList, "")
	a, b, c := ident("a"), ident("b"), ident("c")
	list.Append(a, c)
	list.Insert(1, b)
	checkParents(t, list)
	be.Equal(t, list.Len(), 3)
	be.True(t, list.Child(1) == b)
	be.Equal(t, b.Index(), 1)

	removed := list.Remove(0)
	be.True(t, removed == a)
	be.True(t, a.Parent() == nil)
	be.Equal(t, a.Index(), -1)
	be.Equal(t, list.Len(), 2)
	be.True(t, list.Child(5) == nil)
}

func TestInsert_MovesSibling(t *testing.T) {
	names := func(n *Node) []string {
		var out []string
		for _, c := range n.Children() {
			out = append(out, c.Value)
		}
		return out
	}
	tests := []struct {
		name string
		from int
		at   int
		want []string
	}{
		{"earlier sibling forward", 0, 2, []string{"b", "a", "c", "d"}},
		{"later sibling back", 3, 1, []string{"a", "d", "b", "c"}},
		{"to the end", 1, 4, []string{"a", "c", "d", "b"}},
		{"before itself", 2, 2, []string{"a", "b", "c", "d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := New(StatementList, "", ident("a"), ident("b"), ident("c"), ident("d"))
			list.Insert(tt.at, list.Child(tt.from))
			checkParents(t, list)
			be.Equal(t, names(list), tt.want)
		})
	}

	list := New(StatementList, "", ident("a"))
	defer func() {
		be.True(t, recover() != nil)
	}()
	list.Insert(3, ident("x"))
}

func TestAppend_MovesChild(t *testing.T) {
	from := New(ExprList, "", ident("x"))
	to := New(ExprList, "")
	x := from.Child(0)
	to.Append(x)
	be.Equal(t, from.Len(), 0)
	be.True(t, x.Parent() == to)
}

func TestReplace(t *testing.T) {
	lhs, rhs := ident("a"), ident("b")
	bin := NewOp(BinOp, "+", lhs, rhs)
	stmt := New(StatementList, "", bin)

	call := New(Call, "add", lhs, rhs)
	be.Equal(t, bin.Len(), 0)
	be.True(t, bin.Replace(call))

	be.True(t, bin.Parent() == nil)
	be.True(t, call.Parent() == stmt)
	be.True(t, stmt.Child(0) == call)
	be.True(t, lhs.Parent() == call)
	checkParents(t, stmt)

	be.True(t, !New(Program, "").Replace(call))
}

func TestReplaceChild_Sibling(t *testing.T) {
	a, b, c := ident("a"), ident("b"), ident("c")
	list := New(ExprList, "", a, b, c)
	old := list.ReplaceChild(2, a)
	be.True(t, old == c)
	be.Equal(t, list.Len(), 2)
	be.True(t, list.Child(0) == b)
	be.True(t, list.Child(1) == a)
	be.True(t, c.Parent() == nil)
	checkParents(t, list)
}

func TestClone(t *testing.T) {
	v := ident("v")
	v.Type = types.Builtin().MustResolve(types.Vec4)
	v.Pos = Pos{Line: 3, Column: 7}
	idx := New(ArrayLookup, "", v, New(IntConstant, "1"))
	root := New(ExprList, "", idx)

	c := idx.Clone()
	be.True(t, c.Parent() == nil)
	be.True(t, c != idx)
	be.True(t, c.Child(0) != v)
	be.Equal(t, c.Child(0).Type.Name(), types.Vec4)
	be.Equal(t, c.Child(0).Pos, Pos{Line: 3, Column: 7})
	be.Equal(t, SExpr(c), SExpr(idx))
	checkParents(t, c)
	checkParents(t, root)
}

func TestSetType(t *testing.T) {
	r := types.Builtin()
	n := ident("x")

	changed, err := n.SetType(nil)
	be.Err(t, err, nil)
	be.True(t, !changed)

	changed, err = n.SetType(r.MustResolve(types.Float))
	be.Err(t, err, nil)
	be.True(t, changed)

	changed, err = n.SetType(types.NewScalar(types.Float))
	be.Err(t, err, nil)
	be.True(t, !changed)

	_, err = n.SetType(r.MustResolve(types.Vec2))
	be.True(t, diag.Is(err, diag.PropagationInconsistency))
	be.Equal(t, n.Type.Name(), types.Float)
}

func TestEnclosing(t *testing.T) {
	ret := New(Return, "", ident("x"))
	fn := New(Function, "f", New(VarType, "float"), New(ExprList, ""), New(StatementList, "", ret))
	New(Program, "", fn)
	be.True(t, ret.Child(0).Enclosing(Function) == fn)
	be.True(t, ret.Enclosing(While) == nil)
}

func TestWalkPost_Order(t *testing.T) {
	root := NewOp(BinOp, "+", ident("a"), NewOp(BinOp, "*", ident("b"), ident("c")))
	var seen []string
	err := WalkPost(root, func(n *Node) error {
		if n.Kind == Ident {
			seen = append(seen, n.Value)
		} else {
			seen = append(seen, n.Op)
		}
		return nil
	})
	be.Err(t, err, nil)
	be.Equal(t, seen, []string{"a", "b", "c", "*", "+"})
}

func TestPrecedence(t *testing.T) {
	be.True(t, BinaryPrecedence("*") > BinaryPrecedence("+"))
	be.True(t, BinaryPrecedence("+") > BinaryPrecedence("<"))
	be.True(t, BinaryPrecedence("&&") > BinaryPrecedence("||"))
	be.Equal(t, BinaryPrecedence("="), 0)
	be.Equal(t, NewOp(Assign, "+=").Precedence(), PrecAssign)
	be.Equal(t, NewOp(UnaryOp, "-").Precedence(), PrecUnary)
	be.True(t, IsComparison("<="))
	be.True(t, IsLogical("||"))
	be.True(t, IsAssignOp("*="))
	be.True(t, !IsAssignOp("=="))
}

func TestSExpr(t *testing.T) {
	r := types.Builtin()
	vec3 := r.MustResolve(types.Vec3)
	a, b := ident("a"), ident("b")
	a.Type, b.Type = vec3, vec3
	call := New(Call, "add", a, b)
	call.Key = "add_vec3_vec3"
	call.Type = vec3

	be.Equal(t, SExpr(call), `(call "add" @add_vec3_vec3 :vec3 (ident "a" :vec3) (ident "b" :vec3))`)

	decl := New(VarDecl, "v", New(VarType, "vec3"))
	decl.Qualifier = "uniform"
	decl.Type = vec3
	be.Equal(t, SExpr(decl), `(var "v" uniform :vec3 (type "vec3"))`)
}

func TestFprint(t *testing.T) {
	body := New(StatementList, "", New(Return, "", New(FloatConstant, "1.0")))
	fn := New(Function, "f", New(VarType, "float"), New(ExprList, ""), body)
	var buf bytes.Buffer
	be.Err(t, Fprint(&buf, fn), nil)
	want := "(func \"f\"\n" +
		"  (type \"float\")\n" +
		"  (list)\n" +
		"  (block\n" +
		"    (return (float \"1.0\"))))\n"
	be.Equal(t, buf.String(), want)
}

func TestKindString(t *testing.T) {
	be.Equal(t, ArrayLookup.String(), "ArrayLookup")
	be.Equal(t, Kind(200).String(), "Kind(200)")
	be.True(t, While.IsStatement())
	be.True(t, !Call.IsStatement())
	be.True(t, PreDec.IsIncDec())
}
