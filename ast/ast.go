// Package ast defines the mutable mathl syntax tree.
//
// A Node exclusively owns its children and keeps a non-owning reference to
// its parent for upward traversal and in-place rewriting. All structural
// edits go through the Node methods so that parent references stay
// consistent.
package ast

import (
	"fmt"

	"github.com/gogpu/mathl/diag"
	"github.com/gogpu/mathl/types"
)

// Kind is the closed set of node kinds.
type Kind uint8

const (
	Invalid Kind = iota
	Ident
	IntConstant
	FloatConstant
	BoolConstant
	BinOp
	UnaryOp
	Assign
	Call
	ArrayLookup
	MemberLookup
	VarDecl
	VarType
	Function
	Return
	StatementList
	ExprList
	Program
	NullStatement
	PostInc
	PostDec
	PreInc
	PreDec
	If
	For
	While
)

var kindNames = [...]string{
	Invalid:       "Invalid",
	Ident:         "Ident",
	IntConstant:   "IntConstant",
	FloatConstant: "FloatConstant",
	BoolConstant:  "BoolConstant",
	BinOp:         "BinOp",
	UnaryOp:       "UnaryOp",
	Assign:        "Assign",
	Call:          "Call",
	ArrayLookup:   "ArrayLookup",
	MemberLookup:  "MemberLookup",
	VarDecl:       "VarDecl",
	VarType:       "VarType",
	Function:      "Function",
	Return:        "Return",
	StatementList: "StatementList",
	ExprList:      "ExprList",
	Program:       "Program",
	NullStatement: "NullStatement",
	PostInc:       "PostInc",
	PostDec:       "PostDec",
	PreInc:        "PreInc",
	PreDec:        "PreDec",
	If:            "If",
	For:           "For",
	While:         "While",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// IsStatement reports whether nodes of kind k are typed void by
// construction.
func (k Kind) IsStatement() bool {
	switch k {
	case Program, StatementList, NullStatement, If, For, While:
		return true
	}
	return false
}

// IsIncDec reports whether k is one of the increment/decrement kinds.
func (k Kind) IsIncDec() bool {
	return k == PostInc || k == PostDec || k == PreInc || k == PreDec
}

// Pos is a source position. Line and Column are 1-based; zero means
// unknown (synthesized nodes inherit the position of what they replace).
type Pos struct {
	Line   int
	Column int
}

// Node is one AST node.
type Node struct {
	Kind Kind

	// Value holds identifier text, literal text, the callee name of a
	// Call, the member text of a MemberLookup and the declared name of a
	// VarDecl or Function.
	Value string

	// Op is the operator symbol of BinOp, UnaryOp and Assign.
	Op string

	// Qualifier is the storage qualifier of a VarDecl: in, out, uniform
	// or const.
	Qualifier string

	// Key is the bound overload key of a Call, and the registered key of
	// a Function.
	Key string

	// Type is the resolved type, nil until inferred.
	Type types.Type

	Pos Pos

	parent   *Node
	children []*Node
}

// New creates a node of the given kind owning children.
func New(kind Kind, value string, children ...*Node) *Node {
	n := &Node{Kind: kind, Value: value}
	n.Append(children...)
	return n
}

// NewOp creates an operator node (BinOp, UnaryOp, Assign).
func NewOp(kind Kind, op string, children ...*Node) *Node {
	n := &Node{Kind: kind, Op: op}
	n.Append(children...)
	return n
}

// At sets n's position and returns n.
func (n *Node) At(pos Pos) *Node {
	n.Pos = pos
	return n
}

// Parent returns the owning node, or nil for a root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the child list. Callers must not modify it; use the
// editing methods instead.
func (n *Node) Children() []*Node { return n.children }

// Len returns the number of children.
func (n *Node) Len() int { return len(n.children) }

// Child returns the i-th child, or nil when out of range.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// Index returns n's position among its parent's children, or -1.
func (n *Node) Index() int {
	if n.parent == nil {
		return -1
	}
	for i, c := range n.parent.children {
		if c == n {
			return i
		}
	}
	return -1
}

// detach removes c from its current parent, if any.
func detach(c *Node) {
	if c.parent == nil {
		return
	}
	if i := c.Index(); i >= 0 {
		c.parent.Remove(i)
	}
	c.parent = nil
}

// Append adds children at the end. A child that already has a parent is
// moved.
func (n *Node) Append(children ...*Node) {
	for _, c := range children {
		if c == nil {
			continue
		}
		detach(c)
		c.parent = n
		n.children = append(n.children, c)
	}
}

// Insert places c before the child currently at position i, or at the
// end when i is Len(). A child that already has a parent is moved.
func (n *Node) Insert(i int, c *Node) {
	if i < 0 || i > len(n.children) {
		panic(fmt.Sprintf("ast: Insert index %d out of range [0, %d]", i, len(n.children)))
	}
	anchor := n.Child(i)
	if anchor == c {
		return
	}
	detach(c)
	// detach may have shifted positions when c was a sibling.
	i = len(n.children)
	if anchor != nil {
		i = indexOf(n.children, anchor)
	}
	c.parent = n
	n.children = append(n.children, nil)
	copy(n.children[i+1:], n.children[i:])
	n.children[i] = c
}

// Remove deletes and returns the i-th child, clearing its parent.
func (n *Node) Remove(i int) *Node {
	c := n.children[i]
	n.children = append(n.children[:i], n.children[i+1:]...)
	c.parent = nil
	return c
}

// ReplaceChild swaps the i-th child for c and returns the old child with
// its parent cleared.
func (n *Node) ReplaceChild(i int, c *Node) *Node {
	old := n.children[i]
	if old == c {
		return old
	}
	detach(c)
	// detach may have shifted positions when c was a sibling.
	i = indexOf(n.children, old)
	old.parent = nil
	c.parent = n
	n.children[i] = c
	return old
}

func indexOf(list []*Node, x *Node) int {
	for i, c := range list {
		if c == x {
			return i
		}
	}
	return -1
}

// Replace puts with in n's place within n's parent. It reports false when
// n is a root.
func (n *Node) Replace(with *Node) bool {
	i := n.Index()
	if i < 0 {
		return false
	}
	n.parent.ReplaceChild(i, with)
	return true
}

// Clone returns a deep copy of the subtree rooted at n. The copy has no
// parent.
func (n *Node) Clone() *Node {
	c := &Node{
		Kind:      n.Kind,
		Value:     n.Value,
		Op:        n.Op,
		Qualifier: n.Qualifier,
		Key:       n.Key,
		Type:      n.Type,
		Pos:       n.Pos,
	}
	if len(n.children) > 0 {
		c.children = make([]*Node, len(n.children))
		for i, child := range n.children {
			cc := child.Clone()
			cc.parent = c
			c.children[i] = cc
		}
	}
	return c
}

// Enclosing returns the nearest proper ancestor of the given kind.
func (n *Node) Enclosing(kind Kind) *Node {
	for p := n.parent; p != nil; p = p.parent {
		if p.Kind == kind {
			return p
		}
	}
	return nil
}

// TypeName implements types.Named for Ident and VarType nodes.
func (n *Node) TypeName() string { return n.Value }

// SetType assigns t once. It reports whether the type changed; a second
// assignment of a different type is a PropagationInconsistency.
func (n *Node) SetType(t types.Type) (bool, error) {
	if t == nil {
		return false, nil
	}
	if n.Type == nil {
		n.Type = t
		return true, nil
	}
	if types.Equal(n.Type, t) {
		return false, nil
	}
	return false, diag.Errorf(diag.PropagationInconsistency,
		"%s type re-derived as %s, already %s", n.Describe(), t.Name(), n.Type.Name())
}

// Describe returns a short human-readable label for diagnostics.
func (n *Node) Describe() string {
	switch n.Kind {
	case Ident:
		return fmt.Sprintf("identifier %q", n.Value)
	case Call:
		return fmt.Sprintf("call to %s", n.Value)
	case BinOp, UnaryOp, Assign:
		return fmt.Sprintf("operator %s", n.Op)
	case VarDecl:
		return fmt.Sprintf("variable %s", n.Value)
	case Function:
		return fmt.Sprintf("function %s", n.Value)
	case MemberLookup:
		return fmt.Sprintf("member .%s", n.Value)
	case IntConstant, FloatConstant, BoolConstant:
		return fmt.Sprintf("constant %s", n.Value)
	}
	return n.Kind.String()
}

// Inspect traverses the subtree in pre-order. If fn returns false the
// children of that node are skipped.
func Inspect(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.children {
		Inspect(c, fn)
	}
}

// WalkPost traverses the subtree in post-order and stops at the first
// error. Children are visited from a snapshot, so fn may replace the node
// it is given.
func WalkPost(n *Node, fn func(*Node) error) error {
	if n == nil {
		return nil
	}
	if len(n.children) > 0 {
		snapshot := make([]*Node, len(n.children))
		copy(snapshot, n.children)
		for _, c := range snapshot {
			if err := WalkPost(c, fn); err != nil {
				return err
			}
		}
	}
	return fn(n)
}
