package types

import (
	"fmt"
	"sync"

	"github.com/gogpu/mathl/diag"
)

// Registry maps type names to types. A registry never holds two types with
// the same name.
type Registry struct {
	types map[string]Type
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types: make(map[string]Type, 16),
		order: make([]string, 0, 16),
	}
}

var (
	builtinOnce sync.Once
	builtin     *Registry
)

// Builtin returns the shared registry seeded with the builtin scalar,
// vector and matrix types. It must not be mutated; Clone it first.
func Builtin() *Registry {
	builtinOnce.Do(func() {
		builtin = NewRegistry()
		seed(builtin)
	})
	return builtin
}

func seed(r *Registry) {
	for _, name := range []string{Void, Bool, Int, Float} {
		r.mustAdd(NewScalar(name))
	}
	float, _ := r.Type(Float)
	for n := 2; n <= 4; n++ {
		r.mustAdd(NewArray(fmt.Sprintf("vec%d", n), float, n))
	}
	for _, n := range []int{3, 4} {
		col, _ := r.Type(fmt.Sprintf("vec%d", n))
		r.mustAdd(NewArray(fmt.Sprintf("mat%d", n), col, n))
	}
}

func (r *Registry) mustAdd(t Type) {
	if err := r.AddType(t); err != nil {
		panic(err)
	}
}

// AddType registers t under its name.
func (r *Registry) AddType(t Type) error {
	if _, exists := r.types[t.Name()]; exists {
		return diag.Errorf(diag.Redefinition, "type %s already registered", t.Name())
	}
	r.types[t.Name()] = t
	r.order = append(r.order, t.Name())
	return nil
}

// Type returns the type registered under name.
func (r *Registry) Type(name string) (Type, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.types[name]
	return ok
}

// Named is implemented by AST fragments that spell a type name.
type Named interface {
	TypeName() string
}

// Resolve normalizes x into a registered type. x may be a Type, a type
// name, or a Named AST fragment.
func (r *Registry) Resolve(x any) (Type, error) {
	var name string
	switch v := x.(type) {
	case Type:
		name = v.Name()
	case string:
		name = v
	case Named:
		name = v.TypeName()
	default:
		return nil, diag.Errorf(diag.UnknownType, "cannot resolve %T as a type", x)
	}
	t, ok := r.types[name]
	if !ok {
		return nil, diag.Errorf(diag.UnknownType, "unknown type %q", name)
	}
	return t, nil
}

// MustResolve is Resolve for builtin names known to exist.
func (r *Registry) MustResolve(name string) Type {
	t, err := r.Resolve(name)
	if err != nil {
		panic(err)
	}
	return t
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of registered types.
func (r *Registry) Count() int {
	return len(r.order)
}

// Clone returns an independent registry holding the same type values.
func (r *Registry) Clone() *Registry {
	c := &Registry{
		types: make(map[string]Type, len(r.types)),
		order: make([]string, len(r.order)),
	}
	copy(c.order, r.order)
	for k, v := range r.types {
		c.types[k] = v
	}
	return c
}

// Vector returns the float vector type with n components, if registered.
func (r *Registry) Vector(n int) (Type, bool) {
	if n == 1 {
		return r.Type(Float)
	}
	return r.Type(fmt.Sprintf("vec%d", n))
}
