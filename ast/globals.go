package ast

// Globals buckets the global VarDecl nodes of a program by qualifier.
type Globals struct {
	Inputs   map[string]*Node
	Outputs  map[string]*Node
	Uniforms map[string]*Node
}

// NewGlobals returns empty buckets.
func NewGlobals() Globals {
	return Globals{
		Inputs:   make(map[string]*Node),
		Outputs:  make(map[string]*Node),
		Uniforms: make(map[string]*Node),
	}
}

// Bucket returns the bucket for a qualifier, or nil when the qualifier
// does not denote an interface variable.
func (g Globals) Bucket(qualifier string) map[string]*Node {
	switch qualifier {
	case "in":
		return g.Inputs
	case "out":
		return g.Outputs
	case "uniform":
		return g.Uniforms
	}
	return nil
}

// Add files decl under its qualifier's bucket. It reports false when the
// qualifier has no bucket.
func (g Globals) Add(decl *Node) bool {
	b := g.Bucket(decl.Qualifier)
	if b == nil {
		return false
	}
	b[decl.Value] = decl
	return true
}

// Lookup finds a global interface variable by name in any bucket.
func (g Globals) Lookup(name string) (*Node, bool) {
	for _, b := range []map[string]*Node{g.Inputs, g.Outputs, g.Uniforms} {
		if n, ok := b[name]; ok {
			return n, true
		}
	}
	return nil, false
}
