package ast

import (
	"io"
	"strconv"
	"strings"
)

var sexprTags = [...]string{
	Invalid:       "invalid",
	Ident:         "ident",
	IntConstant:   "int",
	FloatConstant: "float",
	BoolConstant:  "bool",
	BinOp:         "binary",
	UnaryOp:       "unary",
	Assign:        "assign",
	Call:          "call",
	ArrayLookup:   "index",
	MemberLookup:  "member",
	VarDecl:       "var",
	VarType:       "type",
	Function:      "func",
	Return:        "return",
	StatementList: "block",
	ExprList:      "list",
	Program:       "program",
	NullStatement: "nop",
	PostInc:       "postinc",
	PostDec:       "postdec",
	PreInc:        "preinc",
	PreDec:        "predec",
	If:            "if",
	For:           "for",
	While:         "while",
}

// header writes "(tag attrs..." without children or the closing paren.
//
// Attributes appear in a fixed order: quoted value, quoted operator,
// bare qualifier, @key, :type. Statement kinds and VarType omit their
// type.
func header(sb *strings.Builder, n *Node) {
	sb.WriteByte('(')
	sb.WriteString(sexprTags[n.Kind])
	if n.Value != "" {
		sb.WriteByte(' ')
		sb.WriteString(strconv.Quote(n.Value))
	}
	if n.Op != "" {
		sb.WriteByte(' ')
		sb.WriteString(strconv.Quote(n.Op))
	}
	if n.Qualifier != "" {
		sb.WriteByte(' ')
		sb.WriteString(n.Qualifier)
	}
	if n.Key != "" {
		sb.WriteString(" @")
		sb.WriteString(n.Key)
	}
	if n.Type != nil && !n.Kind.IsStatement() && n.Kind != VarType {
		sb.WriteString(" :")
		sb.WriteString(n.Type.Name())
	}
}

// SExpr renders the subtree as a single-line s-expression, e.g.
//
//	(binary "+" :float (index :float (ident "v" :vec4) (int "0" :int)) (float "1.0" :float))
func SExpr(n *Node) string {
	var sb strings.Builder
	writeSExpr(&sb, n)
	return sb.String()
}

func writeSExpr(sb *strings.Builder, n *Node) {
	if n == nil {
		sb.WriteString("()")
		return
	}
	header(sb, n)
	for _, c := range n.children {
		sb.WriteByte(' ')
		writeSExpr(sb, c)
	}
	sb.WriteByte(')')
}

// Fprint writes the subtree to w as an indented s-expression. Expressions
// stay on one line; statements and declarations get a line per child.
func Fprint(w io.Writer, n *Node) error {
	var sb strings.Builder
	writeIndented(&sb, n, 0)
	sb.WriteByte('\n')
	_, err := io.WriteString(w, sb.String())
	return err
}

func breaksLines(k Kind) bool {
	switch k {
	case Program, Function, StatementList, If, For, While:
		return true
	}
	return false
}

func writeIndented(sb *strings.Builder, n *Node, depth int) {
	if n == nil || !breaksLines(n.Kind) {
		writeSExpr(sb, n)
		return
	}
	header(sb, n)
	for _, c := range n.children {
		sb.WriteByte('\n')
		sb.WriteString(strings.Repeat("  ", depth+1))
		writeIndented(sb, c, depth+1)
	}
	sb.WriteByte(')')
}
