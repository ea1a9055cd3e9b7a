package ast

// Binding strength of operators; higher binds tighter.
const (
	PrecAssign = 1 + iota
	PrecLogicalOr
	PrecLogicalAnd
	PrecBitOr
	PrecBitXor
	PrecBitAnd
	PrecEquality
	PrecRelational
	PrecShift
	PrecAdditive
	PrecMultiplicative
	PrecUnary
)

var binaryPrecedence = map[string]int{
	"||": PrecLogicalOr,
	"&&": PrecLogicalAnd,
	"|":  PrecBitOr,
	"^":  PrecBitXor,
	"&":  PrecBitAnd,
	"==": PrecEquality,
	"!=": PrecEquality,
	"<":  PrecRelational,
	">":  PrecRelational,
	"<=": PrecRelational,
	">=": PrecRelational,
	"<<": PrecShift,
	">>": PrecShift,
	"+":  PrecAdditive,
	"-":  PrecAdditive,
	"*":  PrecMultiplicative,
	"/":  PrecMultiplicative,
	"%":  PrecMultiplicative,
}

// BinaryPrecedence returns the precedence of a binary operator symbol, or
// 0 when op is not a binary operator.
func BinaryPrecedence(op string) int {
	return binaryPrecedence[op]
}

// Precedence returns the derived precedence of an operator node, or 0.
func (n *Node) Precedence() int {
	switch n.Kind {
	case BinOp:
		return BinaryPrecedence(n.Op)
	case Assign:
		return PrecAssign
	case UnaryOp:
		return PrecUnary
	}
	return 0
}

// IsComparison reports whether op yields bool from its operands.
func IsComparison(op string) bool {
	switch op {
	case "==", "!=", "<", ">", "<=", ">=":
		return true
	}
	return false
}

// IsLogical reports whether op is a short-circuit boolean operator.
func IsLogical(op string) bool {
	return op == "&&" || op == "||"
}

// IsAssignOp reports whether op is "=" or a compound assignment.
func IsAssignOp(op string) bool {
	switch op {
	case "=", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<=", ">>=":
		return true
	}
	return false
}
