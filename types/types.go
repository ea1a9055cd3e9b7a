// Package types defines the mathl type system.
//
// Types are immutable and owned by a Registry, which identifies them by
// name: two types are equal exactly when their names are equal.
package types

// Type is a mathl type.
type Type interface {
	// Name is the type's identity.
	Name() string
	// ComponentCount returns the number of scalar leaves in the type.
	ComponentCount() int
	isType()
}

// ScalarType represents float, int, bool and void.
type ScalarType struct {
	name string
}

// NewScalar creates a scalar type. Register it before use.
func NewScalar(name string) *ScalarType {
	return &ScalarType{name: name}
}

func (s *ScalarType) Name() string        { return s.name }
func (s *ScalarType) String() string      { return s.name }
func (s *ScalarType) ComponentCount() int { return 1 }
func (*ScalarType) isType()               {}

// ArrayType is a fixed-size array of a component type. vecN is an array
// of float, matN an array of vecN.
type ArrayType struct {
	name      string
	Component Type
	Count     int
}

// NewArray creates an array type of count elements.
func NewArray(name string, component Type, count int) *ArrayType {
	return &ArrayType{name: name, Component: component, Count: count}
}

func (a *ArrayType) Name() string   { return a.name }
func (a *ArrayType) String() string { return a.name }

// ComponentCount is recursive: a mat3 has 9 leaves.
func (a *ArrayType) ComponentCount() int {
	return a.Count * a.Component.ComponentCount()
}

func (*ArrayType) isType() {}

// Equal reports whether a and b name the same type. Nil only equals nil.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Name() == b.Name()
}

// NameOf returns t's name, or "?" for nil.
func NameOf(t Type) string {
	if t == nil {
		return "?"
	}
	return t.Name()
}

// ComponentCount returns t's scalar-leaf count (0 for nil).
func ComponentCount(t Type) int {
	if t == nil {
		return 0
	}
	return t.ComponentCount()
}

// Builtin type names.
const (
	Void  = "void"
	Bool  = "bool"
	Int   = "int"
	Float = "float"
	Vec2  = "vec2"
	Vec3  = "vec3"
	Vec4  = "vec4"
	Mat3  = "mat3"
	Mat4  = "mat4"
)

// IsScalar reports whether t is a scalar type.
func IsScalar(t Type) bool {
	_, ok := t.(*ScalarType)
	return ok
}

// IsNumeric reports whether t is int, float, or an array of float.
func IsNumeric(t Type) bool {
	switch t := t.(type) {
	case *ScalarType:
		return t.name == Int || t.name == Float
	case *ArrayType:
		return IsNumeric(t.Component)
	}
	return false
}

// IsInt reports whether t is the int scalar.
func IsInt(t Type) bool {
	return t != nil && t.Name() == Int
}

// Leaf returns the scalar type at the bottom of an array type.
func Leaf(t Type) Type {
	for {
		a, ok := t.(*ArrayType)
		if !ok {
			return t
		}
		t = a.Component
	}
}
