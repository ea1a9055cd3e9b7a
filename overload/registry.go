// Package overload holds the function and operator overload registry.
//
// Every concrete (monomorphic) function signature is identified by a
// deterministic key. A name maps to the set of signatures sharing it, its
// overload set; the resolver in package sema narrows a call down to one of
// them.
package overload

import (
	"strings"

	"github.com/gogpu/mathl/diag"
	"github.com/gogpu/mathl/types"
)

// Signature is one overload candidate.
type Signature struct {
	Name   string
	Return types.Type
	Params []types.Type
	Key    string
}

// String renders the signature in declaration form, e.g. "vec3 min(vec3, float)".
func (s *Signature) String() string {
	var sb strings.Builder
	sb.WriteString(types.NameOf(s.Return))
	sb.WriteByte(' ')
	sb.WriteString(s.Name)
	sb.WriteByte('(')
	for i, p := range s.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(types.NameOf(p))
	}
	sb.WriteByte(')')
	return sb.String()
}

// BuildKey returns the canonical key name_return_param1_param2...
func BuildKey(name string, ret types.Type, params []types.Type) string {
	b := make([]byte, 0, 32)
	b = append(b, name...)
	b = append(b, '_')
	b = append(b, types.NameOf(ret)...)
	for _, p := range params {
		b = append(b, '_')
		b = append(b, types.NameOf(p)...)
	}
	return string(b)
}

// Registry maps names to overload sets and keys to signatures.
type Registry struct {
	types   *types.Registry
	byName  map[string][]*Signature
	byKey   map[string]*Signature
	byCanon map[string]*Signature // BuildKey -> signature, whatever its Key
	order   []*Signature
}

// NewRegistry creates an empty registry resolving type names through tr.
func NewRegistry(tr *types.Registry) *Registry {
	return &Registry{
		types:   tr,
		byName:  make(map[string][]*Signature, 64),
		byKey:   make(map[string]*Signature, 512),
		byCanon: make(map[string]*Signature, 512),
	}
}

// Types returns the type registry used to resolve names.
func (r *Registry) Types() *types.Registry {
	return r.types
}

// AddFunction registers an exact signature. An empty key selects BuildKey.
func (r *Registry) AddFunction(name string, ret types.Type, params []types.Type, key string) (*Signature, error) {
	canon := BuildKey(name, ret, params)
	if key == "" {
		key = canon
	}
	if prev, exists := r.byKey[key]; exists {
		return nil, diag.Errorf(diag.Redefinition, "overload key %s already registered for %s", key, prev)
	}
	if prev, exists := r.byCanon[canon]; exists {
		return nil, diag.Errorf(diag.Redefinition, "function %s already defined", prev)
	}
	sig := &Signature{
		Name:   name,
		Return: ret,
		Params: append([]types.Type(nil), params...),
		Key:    key,
	}
	r.byName[name] = append(r.byName[name], sig)
	r.byKey[key] = sig
	r.byCanon[canon] = sig
	r.order = append(r.order, sig)
	return sig, nil
}

// Alias registers key as a second name for sig, which must already be
// registered. Operators whose signature coincides with an intrinsic
// (the % operator and mod) share one Signature this way.
func (r *Registry) Alias(key string, sig *Signature) error {
	if prev, exists := r.byKey[key]; exists {
		return diag.Errorf(diag.Redefinition, "overload key %s already registered for %s", key, prev)
	}
	if r.byKey[sig.Key] != sig {
		return diag.Errorf(diag.UnknownOverload, "cannot alias unregistered signature %s", sig)
	}
	r.byKey[key] = sig
	return nil
}

// GenType is the placeholder substituted by AddPolymorphicFunction.
const GenType = "genType"

// AddPolymorphicFunction generates one concrete signature per family type,
// substituting GenType in ret and params.
func (r *Registry) AddPolymorphicFunction(name, ret string, params []string, family []string) error {
	for _, f := range family {
		subst := func(n string) (types.Type, error) {
			if n == GenType {
				n = f
			}
			return r.types.Resolve(n)
		}
		rt, err := subst(ret)
		if err != nil {
			return err
		}
		pts := make([]types.Type, len(params))
		for i, p := range params {
			if pts[i], err = subst(p); err != nil {
				return err
			}
		}
		if _, err := r.AddFunction(name, rt, pts, ""); err != nil {
			return err
		}
	}
	return nil
}

// CandidatesFor returns name's overload set in registration order.
func (r *Registry) CandidatesFor(name string) []*Signature {
	return r.byName[name]
}

// ByKey returns the signature registered under key.
func (r *Registry) ByKey(key string) (*Signature, bool) {
	s, ok := r.byKey[key]
	return s, ok
}

// Find returns the signature with exactly this name, return type and
// parameter types, whatever key it was registered under.
func (r *Registry) Find(name string, ret types.Type, params []types.Type) (*Signature, bool) {
	s, ok := r.byCanon[BuildKey(name, ret, params)]
	return s, ok
}

// Len returns the number of registered signatures.
func (r *Registry) Len() int {
	return len(r.order)
}

// All returns every signature in registration order.
func (r *Registry) All() []*Signature {
	out := make([]*Signature, len(r.order))
	copy(out, r.order)
	return out
}

// Clone returns an independent registry that resolves names through tr.
// Signatures are immutable and shared.
func (r *Registry) Clone(tr *types.Registry) *Registry {
	c := &Registry{
		types:   tr,
		byName:  make(map[string][]*Signature, len(r.byName)),
		byKey:   make(map[string]*Signature, len(r.byKey)),
		byCanon: make(map[string]*Signature, len(r.byCanon)),
		order:   make([]*Signature, len(r.order)),
	}
	copy(c.order, r.order)
	for k, v := range r.byName {
		c.byName[k] = append([]*Signature(nil), v...)
	}
	for k, v := range r.byKey {
		c.byKey[k] = v
	}
	for k, v := range r.byCanon {
		c.byCanon[k] = v
	}
	return c
}
