package syntax

import (
	"github.com/gogpu/mathl/ast"
	"github.com/gogpu/mathl/diag"
)

// Parser parses mathl tokens into an AST.
type Parser struct {
	tokens  []Token
	current int
	globals ast.Globals
}

// NewParser creates a new parser for the given tokens.
func NewParser(tokens []Token) *Parser {
	return &Parser{
		tokens:  tokens,
		globals: ast.NewGlobals(),
	}
}

// Parse lexes and parses source. Errors are *diag.Error values of kind
// SyntaxError positioned in filename.
func Parse(filename, source string) (*ast.Node, ast.Globals, error) {
	tokens, err := NewLexer(source).Tokenize()
	if err != nil {
		return nil, ast.Globals{}, positioned(err, filename, source)
	}
	p := NewParser(tokens)
	prog, err := p.Parse()
	if err != nil {
		return nil, ast.Globals{}, positioned(err, filename, source)
	}
	return prog, p.globals, nil
}

func positioned(err error, filename, source string) error {
	if de, ok := err.(*diag.Error); ok {
		return de.At(filename, source, 0, 0)
	}
	return err
}

// Globals returns the interface variables collected so far.
func (p *Parser) Globals() ast.Globals {
	return p.globals
}

// Parse parses the tokens and returns the Program node. Parsing stops at
// the first error.
func (p *Parser) Parse() (*ast.Node, error) {
	prog := ast.New(ast.Program, "").At(ast.Pos{Line: 1, Column: 1})
	for !p.isAtEnd() {
		decls, err := p.global()
		if err != nil {
			return nil, err
		}
		prog.Append(decls...)
	}
	return prog, nil
}

func pos(tok Token) ast.Pos {
	return ast.Pos{Line: tok.Line, Column: tok.Column}
}

// global parses a top-level declaration: a function definition or one or
// more variable declarators.
func (p *Parser) global() ([]*ast.Node, error) {
	qualifier := ""
	switch p.peek().Kind {
	case TokenIn, TokenOut, TokenUniform, TokenConst:
		qualifier = p.advance().Lexeme
	}

	typeTok, err := p.expectErr(TokenIdent, "type name")
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expectErr(TokenIdent, "declaration name")
	if err != nil {
		return nil, err
	}

	if p.check(TokenLeftParen) {
		if qualifier != "" {
			return nil, p.errorAt(typeTok, "qualifier %s is not allowed on a function", qualifier)
		}
		fn, err := p.functionDecl(typeTok, nameTok)
		if err != nil {
			return nil, err
		}
		return []*ast.Node{fn}, nil
	}

	decls, err := p.varDecls(qualifier, typeTok, nameTok)
	if err != nil {
		return nil, err
	}
	for _, d := range decls {
		p.globals.Add(d)
	}
	return decls, nil
}

// functionDecl parses a function definition after its return type and
// name.
func (p *Parser) functionDecl(retTok, nameTok Token) (*ast.Node, error) {
	p.advance() // consume '('

	params := ast.New(ast.ExprList, "").At(pos(p.previous()))
	if p.check(TokenIdent) && p.peek().Lexeme == "void" && p.peekAt(1).Kind == TokenRightParen {
		p.advance()
	}
	for !p.check(TokenRightParen) && !p.isAtEnd() {
		param, err := p.parameter()
		if err != nil {
			return nil, err
		}
		params.Append(param)
		if !p.match(TokenComma) {
			break
		}
	}
	if _, err := p.expectErr(TokenRightParen, "')'"); err != nil {
		return nil, err
	}

	body, err := p.block()
	if err != nil {
		return nil, err
	}

	ret := ast.New(ast.VarType, retTok.Lexeme).At(pos(retTok))
	return ast.New(ast.Function, nameTok.Lexeme, ret, params, body).At(pos(retTok)), nil
}

// parameter parses "type name".
func (p *Parser) parameter() (*ast.Node, error) {
	typeTok, err := p.expectErr(TokenIdent, "parameter type")
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expectErr(TokenIdent, "parameter name")
	if err != nil {
		return nil, err
	}
	vt := ast.New(ast.VarType, typeTok.Lexeme).At(pos(typeTok))
	return ast.New(ast.VarDecl, nameTok.Lexeme, vt).At(pos(typeTok)), nil
}

// varDecls parses the declarators following "qualifier type name" up to
// and including the terminating semicolon.
func (p *Parser) varDecls(qualifier string, typeTok, nameTok Token) ([]*ast.Node, error) {
	decls := make([]*ast.Node, 0, 1)
	for {
		vt := ast.New(ast.VarType, typeTok.Lexeme).At(pos(typeTok))
		decl := ast.New(ast.VarDecl, nameTok.Lexeme, vt).At(pos(nameTok))
		decl.Qualifier = qualifier
		if p.match(TokenEqual) {
			init, err := p.expression()
			if err != nil {
				return nil, err
			}
			decl.Append(init)
		}
		decls = append(decls, decl)
		if !p.match(TokenComma) {
			break
		}
		var err error
		if nameTok, err = p.expectErr(TokenIdent, "declaration name"); err != nil {
			return nil, err
		}
	}
	if _, err := p.expectErr(TokenSemicolon, "';'"); err != nil {
		return nil, err
	}
	return decls, nil
}

// block parses a braced statement list.
func (p *Parser) block() (*ast.Node, error) {
	start, err := p.expectErr(TokenLeftBrace, "'{'")
	if err != nil {
		return nil, err
	}

	list := ast.New(ast.StatementList, "").At(pos(start))
	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		stmts, err := p.statement()
		if err != nil {
			return nil, err
		}
		list.Append(stmts...)
	}

	if _, err := p.expectErr(TokenRightBrace, "'}'"); err != nil {
		return nil, err
	}
	return list, nil
}

// isDeclStart reports whether the upcoming tokens begin a local variable
// declaration: "const ..." or "type name".
func (p *Parser) isDeclStart() bool {
	if p.check(TokenConst) {
		return true
	}
	return p.check(TokenIdent) && p.peekAt(1).Kind == TokenIdent
}

// statement parses one statement. A declaration with several declarators
// yields several VarDecl nodes.
func (p *Parser) statement() ([]*ast.Node, error) {
	one := func(n *ast.Node, err error) ([]*ast.Node, error) {
		if err != nil {
			return nil, err
		}
		return []*ast.Node{n}, nil
	}

	switch {
	case p.check(TokenLeftBrace):
		return one(p.block())
	case p.check(TokenIf):
		return one(p.ifStmt())
	case p.check(TokenFor):
		return one(p.forStmt())
	case p.check(TokenWhile):
		return one(p.whileStmt())
	case p.check(TokenReturn):
		return one(p.returnStmt())
	case p.check(TokenSemicolon):
		tok := p.advance()
		return one(ast.New(ast.NullStatement, "").At(pos(tok)), nil)
	case p.isDeclStart():
		return p.localDecl()
	default:
		return one(p.exprStmt())
	}
}

func (p *Parser) localDecl() ([]*ast.Node, error) {
	qualifier := ""
	if p.match(TokenConst) {
		qualifier = "const"
	}
	typeTok, err := p.expectErr(TokenIdent, "type name")
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expectErr(TokenIdent, "variable name")
	if err != nil {
		return nil, err
	}
	return p.varDecls(qualifier, typeTok, nameTok)
}

func (p *Parser) exprStmt() (*ast.Node, error) {
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectErr(TokenSemicolon, "';'"); err != nil {
		return nil, err
	}
	return expr, nil
}

// returnStmt parses "return [expr];".
func (p *Parser) returnStmt() (*ast.Node, error) {
	start := p.advance() // consume 'return'
	ret := ast.New(ast.Return, "").At(pos(start))
	if !p.check(TokenSemicolon) {
		value, err := p.expression()
		if err != nil {
			return nil, err
		}
		ret.Append(value)
	}
	if _, err := p.expectErr(TokenSemicolon, "';'"); err != nil {
		return nil, err
	}
	return ret, nil
}

// parenCondition parses "( expr )".
func (p *Parser) parenCondition() (*ast.Node, error) {
	if _, err := p.expectErr(TokenLeftParen, "'('"); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectErr(TokenRightParen, "')'"); err != nil {
		return nil, err
	}
	return cond, nil
}

// body parses a single statement used as the body of a control-flow
// construct. Declarators are wrapped in a block of their own.
func (p *Parser) body() (*ast.Node, error) {
	start := p.peek()
	stmts, err := p.statement()
	if err != nil {
		return nil, err
	}
	if len(stmts) == 1 {
		return stmts[0], nil
	}
	return ast.New(ast.StatementList, "", stmts...).At(pos(start)), nil
}

// ifStmt parses "if (cond) stmt [else stmt]".
func (p *Parser) ifStmt() (*ast.Node, error) {
	start := p.advance() // consume 'if'

	cond, err := p.parenCondition()
	if err != nil {
		return nil, err
	}
	then, err := p.body()
	if err != nil {
		return nil, err
	}
	n := ast.New(ast.If, "", cond, then).At(pos(start))
	if p.match(TokenElse) {
		els, err := p.body()
		if err != nil {
			return nil, err
		}
		n.Append(els)
	}
	return n, nil
}

// forStmt parses "for (init; cond; post) stmt". Empty clauses become
// NullStatement nodes.
func (p *Parser) forStmt() (*ast.Node, error) {
	start := p.advance() // consume 'for'

	if _, err := p.expectErr(TokenLeftParen, "'('"); err != nil {
		return nil, err
	}

	// Init
	var init *ast.Node
	switch {
	case p.check(TokenSemicolon):
		init = ast.New(ast.NullStatement, "").At(pos(p.advance()))
	case p.isDeclStart():
		decls, err := p.localDecl()
		if err != nil {
			return nil, err
		}
		if len(decls) != 1 {
			return nil, p.errorAt(start, "for initializer must declare a single variable")
		}
		init = decls[0]
	default:
		expr, err := p.exprStmt()
		if err != nil {
			return nil, err
		}
		init = expr
	}

	// Condition
	cond := ast.New(ast.NullStatement, "").At(pos(p.peek()))
	if !p.check(TokenSemicolon) {
		c, err := p.expression()
		if err != nil {
			return nil, err
		}
		cond = c
	}
	if _, err := p.expectErr(TokenSemicolon, "';'"); err != nil {
		return nil, err
	}

	// Update
	post := ast.New(ast.NullStatement, "").At(pos(p.peek()))
	if !p.check(TokenRightParen) {
		u, err := p.expression()
		if err != nil {
			return nil, err
		}
		post = u
	}
	if _, err := p.expectErr(TokenRightParen, "')'"); err != nil {
		return nil, err
	}

	body, err := p.body()
	if err != nil {
		return nil, err
	}
	return ast.New(ast.For, "", init, cond, post, body).At(pos(start)), nil
}

// whileStmt parses "while (cond) stmt".
func (p *Parser) whileStmt() (*ast.Node, error) {
	start := p.advance() // consume 'while'

	cond, err := p.parenCondition()
	if err != nil {
		return nil, err
	}
	body, err := p.body()
	if err != nil {
		return nil, err
	}
	return ast.New(ast.While, "", cond, body).At(pos(start)), nil
}

// expression parses an expression, including assignments.
func (p *Parser) expression() (*ast.Node, error) {
	return p.assignment()
}

// assignment is right-associative and binds loosest.
func (p *Parser) assignment() (*ast.Node, error) {
	left, err := p.binary(ast.PrecLogicalOr)
	if err != nil {
		return nil, err
	}
	if op, ok := operatorText[p.peek().Kind]; ok && ast.IsAssignOp(op) {
		tok := p.advance()
		right, err := p.assignment()
		if err != nil {
			return nil, err
		}
		return ast.NewOp(ast.Assign, op, left, right).At(pos(tok)), nil
	}
	return left, nil
}

// binary parses left-associative binary operators of at least minPrec by
// precedence climbing over ast.BinaryPrecedence.
func (p *Parser) binary(minPrec int) (*ast.Node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		op, ok := operatorText[tok.Kind]
		prec := ast.BinaryPrecedence(op)
		if !ok || prec == 0 || prec < minPrec {
			return left, nil
		}
		p.advance()
		right, err := p.binary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = ast.NewOp(ast.BinOp, op, left, right).At(pos(tok))
	}
}

// unary parses prefix operators.
func (p *Parser) unary() (*ast.Node, error) {
	tok := p.peek()
	switch tok.Kind {
	case TokenMinus, TokenBang, TokenTilde:
		p.advance()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return ast.NewOp(ast.UnaryOp, tok.Lexeme, operand).At(pos(tok)), nil
	case TokenPlus:
		p.advance()
		return p.unary()
	case TokenPlusPlus, TokenMinusMinus:
		p.advance()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		kind := ast.PreInc
		if tok.Kind == TokenMinusMinus {
			kind = ast.PreDec
		}
		return ast.New(kind, "", operand).At(pos(tok)), nil
	}
	return p.postfix()
}

// postfix parses calls, indexing, member access and postfix inc/dec.
func (p *Parser) postfix() (*ast.Node, error) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		switch tok.Kind {
		case TokenLeftParen:
			if expr.Kind != ast.Ident {
				return nil, p.errorAt(tok, "expression is not callable")
			}
			p.advance()
			call := ast.New(ast.Call, expr.Value).At(expr.Pos)
			for !p.check(TokenRightParen) && !p.isAtEnd() {
				arg, err := p.expression()
				if err != nil {
					return nil, err
				}
				call.Append(arg)
				if !p.match(TokenComma) {
					break
				}
			}
			if _, err := p.expectErr(TokenRightParen, "')'"); err != nil {
				return nil, err
			}
			expr = call
		case TokenLeftBracket:
			p.advance()
			index, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectErr(TokenRightBracket, "']'"); err != nil {
				return nil, err
			}
			expr = ast.New(ast.ArrayLookup, "", expr, index).At(pos(tok))
		case TokenDot:
			p.advance()
			member, err := p.expectErr(TokenIdent, "member name")
			if err != nil {
				return nil, err
			}
			expr = ast.New(ast.MemberLookup, member.Lexeme, expr).At(pos(member))
		case TokenPlusPlus:
			p.advance()
			expr = ast.New(ast.PostInc, "", expr).At(pos(tok))
		case TokenMinusMinus:
			p.advance()
			expr = ast.New(ast.PostDec, "", expr).At(pos(tok))
		default:
			return expr, nil
		}
	}
}

// primary parses literals, identifiers and parenthesized expressions.
func (p *Parser) primary() (*ast.Node, error) {
	tok := p.peek()

	switch tok.Kind {
	case TokenIntLiteral:
		p.advance()
		return ast.New(ast.IntConstant, tok.Lexeme).At(pos(tok)), nil
	case TokenFloatLiteral:
		p.advance()
		return ast.New(ast.FloatConstant, tok.Lexeme).At(pos(tok)), nil
	case TokenBoolLiteral:
		p.advance()
		return ast.New(ast.BoolConstant, tok.Lexeme).At(pos(tok)), nil
	case TokenIdent:
		p.advance()
		return ast.New(ast.Ident, tok.Lexeme).At(pos(tok)), nil
	case TokenLeftParen:
		p.advance()
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectErr(TokenRightParen, "')'"); err != nil {
			return nil, err
		}
		return expr, nil
	}
	return nil, p.errorAt(tok, "unexpected %s in expression", tok.Kind)
}

// Helper methods

func (p *Parser) advance() Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) peek() Token {
	return p.tokens[p.current]
}

func (p *Parser) peekAt(offset int) Token {
	i := p.current + offset
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *Parser) previous() Token {
	return p.tokens[p.current-1]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == TokenEOF
}

func (p *Parser) check(kind TokenKind) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Kind == kind
}

func (p *Parser) match(kind TokenKind) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expectErr(kind TokenKind, what string) (Token, error) {
	if p.check(kind) {
		return p.advance(), nil
	}
	return Token{}, p.errorAt(p.peek(), "expected %s, got %s", what, describe(p.peek()))
}

func (p *Parser) errorAt(tok Token, format string, args ...any) *diag.Error {
	e := diag.Errorf(diag.SyntaxError, format, args...)
	e.Line, e.Column = tok.Line, tok.Column
	return e
}

func describe(tok Token) string {
	switch tok.Kind {
	case TokenEOF:
		return tok.Kind.String()
	case TokenIdent, TokenIntLiteral, TokenFloatLiteral, TokenBoolLiteral:
		return tok.Kind.String() + " " + tok.Lexeme
	}
	return tok.Kind.String()
}
