package sema

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/mathl/ast"
	"github.com/gogpu/mathl/diag"
	"github.com/gogpu/mathl/overload"
	"github.com/gogpu/mathl/types"
)

// Unit is one compilation: the input AST and global buckets, and after
// analysis the registries the lowered AST resolves against.
type Unit struct {
	Filename string
	Source   string
	Program  *ast.Node
	Globals  ast.Globals

	// Set by Analyze.
	Types     *types.Registry
	Overloads *overload.Registry
	// Imports holds the typed Function nodes compiled from fragments
	// such as the prelude. They are not part of Program.
	Imports []*ast.Node
}

// Function returns the Function node registered under key, searching the
// program first and then the imports.
func (u *Unit) Function(key string) *ast.Node {
	for _, list := range [][]*ast.Node{u.Program.Children(), u.Imports} {
		for _, n := range list {
			if n.Kind == ast.Function && n.Key == key {
				return n
			}
		}
	}
	return nil
}

// Context is the state of one (possibly nested) compilation. Every pass
// receives it explicitly.
type Context struct {
	Filename  string
	Source    string
	Types     *types.Registry
	Overloads *overload.Registry
	Scope     *Scope
	Globals   ast.Globals
	Imports   []*ast.Node

	depth  int
	temps  int
	taken  map[string]bool // names temporaries must avoid
	funcs  map[string]bool // functions defined in the program
	logger *slog.Logger
}

func newContext(filename, source string, tr *types.Registry, or *overload.Registry, logger *slog.Logger) *Context {
	return &Context{
		Filename:  filename,
		Source:    source,
		Types:     tr,
		Overloads: or,
		Scope:     NewScope(),
		Globals:   ast.NewGlobals(),
		logger:    logger,
	}
}

// errorf returns a fatal diagnostic positioned at n.
func (c *Context) errorf(n *ast.Node, kind diag.Kind, format string, args ...any) *diag.Error {
	e := diag.Errorf(kind, format, args...)
	return c.position(n, e)
}

func (c *Context) position(n *ast.Node, e *diag.Error) *diag.Error {
	line, col := 0, 0
	if n != nil {
		line, col = n.Pos.Line, n.Pos.Column
	}
	return e.At(c.Filename, c.Source, line, col)
}

// wrap positions a diagnostic returned by a registry or tree operation at
// n. Errors that are not diagnostics pass through.
func (c *Context) wrap(n *ast.Node, err error) error {
	if err == nil {
		return nil
	}
	var de *diag.Error
	if errors.As(err, &de) {
		return c.position(n, de)
	}
	return err
}

// reserveNames records every identifier declared or referenced under
// root so that tempName never hands one out, along with the functions
// root defines or imports.
func (c *Context) reserveNames(root *ast.Node) {
	ast.Inspect(root, func(n *ast.Node) bool {
		switch n.Kind {
		case ast.Function:
			c.addFunc(n.Value)
		case ast.Ident, ast.VarDecl:
			c.reserve(n.Value)
		}
		return true
	})
	for _, fn := range c.Imports {
		c.addFunc(fn.Value)
	}
}

func (c *Context) addFunc(name string) {
	if c.funcs == nil {
		c.funcs = make(map[string]bool)
	}
	c.funcs[name] = true
	c.reserve(name)
}

func (c *Context) reserve(name string) {
	if c.taken == nil {
		c.taken = make(map[string]bool)
	}
	c.taken[name] = true
}

// tempName allocates a fresh temporary name that no source identifier
// uses. Names are deterministic per context.
func (c *Context) tempName() string {
	for {
		c.temps++
		name := fmt.Sprintf("_swz%d", c.temps)
		if !c.taken[name] {
			c.reserve(name)
			return name
		}
	}
}

// Depth returns the nesting depth, 1 for a top-level compilation.
func (c *Context) Depth() int {
	return c.depth
}

// resolveType resolves a VarType node, caching the result on the node.
func (c *Context) resolveType(n *ast.Node) (types.Type, error) {
	if n.Type != nil {
		return n.Type, nil
	}
	t, err := c.Types.Resolve(n)
	if err != nil {
		return nil, c.wrap(n, err)
	}
	n.Type = t
	return t, nil
}
