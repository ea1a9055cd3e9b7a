package sema

import (
	"maps"

	"github.com/gogpu/mathl/ast"
	"github.com/gogpu/mathl/diag"
	"github.com/gogpu/mathl/types"
)

// Binding is what a name resolves to in a scope.
type Binding struct {
	Type types.Type
	Decl *ast.Node
}

type frame struct {
	vars map[string]Binding
	own  map[string]struct{} // names declared in this frame
}

// Scope is the lexical scope table. Push copies the current mapping, so a
// nested frame can shadow names without leaking outward; Pop restores the
// parent frame exactly.
type Scope struct {
	frames []frame
}

// NewScope returns a scope table holding one empty (global) frame.
func NewScope() *Scope {
	s := &Scope{}
	s.frames = append(s.frames, frame{
		vars: make(map[string]Binding),
		own:  make(map[string]struct{}),
	})
	return s
}

// Push opens a nested frame.
func (s *Scope) Push() {
	top := s.frames[len(s.frames)-1]
	s.frames = append(s.frames, frame{
		vars: maps.Clone(top.vars),
		own:  make(map[string]struct{}),
	})
}

// Pop closes the innermost frame. The global frame is never popped.
func (s *Scope) Pop() {
	if len(s.frames) > 1 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// Depth returns the number of open frames, 1 at global scope.
func (s *Scope) Depth() int {
	return len(s.frames)
}

// Declare binds name in the innermost frame. Declaring a name twice in
// the same frame is a Redefinition.
func (s *Scope) Declare(name string, b Binding) error {
	top := &s.frames[len(s.frames)-1]
	if _, exists := top.own[name]; exists {
		return diag.Errorf(diag.Redefinition, "%s redeclared in this scope", name)
	}
	top.own[name] = struct{}{}
	top.vars[name] = b
	return nil
}

// Lookup finds the innermost binding of name.
func (s *Scope) Lookup(name string) (Binding, bool) {
	b, ok := s.frames[len(s.frames)-1].vars[name]
	return b, ok
}
