package types

import (
	"testing"

	"github.com/nalgeon/be"

	"github.com/gogpu/mathl/diag"
)

type fakeNode struct{ name string }

func (f fakeNode) TypeName() string { return f.name }

func TestBuiltin_Seeded(t *testing.T) {
	r := Builtin()
	for _, name := range []string{Void, Bool, Int, Float, Vec2, Vec3, Vec4, Mat3, Mat4} {
		be.True(t, r.Has(name))
	}
	be.Equal(t, r.Count(), 9)
	be.Equal(t, r.Names()[0], Void)
}

func TestComponentCount(t *testing.T) {
	r := Builtin()
	tests := []struct {
		name string
		want int
	}{
		{Float, 1},
		{Int, 1},
		{Bool, 1},
		{Vec2, 2},
		{Vec3, 3},
		{Vec4, 4},
		{Mat3, 9},
		{Mat4, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ := r.MustResolve(tt.name)
			be.Equal(t, ComponentCount(typ), tt.want)
		})
	}
	be.Equal(t, ComponentCount(nil), 0)
}

func TestArrayStructure(t *testing.T) {
	r := Builtin()
	mat3 := r.MustResolve(Mat3).(*ArrayType)
	be.Equal(t, mat3.Component.Name(), Vec3)
	be.Equal(t, mat3.Count, 3)
	be.Equal(t, Leaf(mat3).Name(), Float)

	vec4 := r.MustResolve(Vec4).(*ArrayType)
	be.Equal(t, vec4.Component.Name(), Float)
}

func TestEqualByName(t *testing.T) {
	a := NewScalar("float")
	b := NewScalar("float")
	be.True(t, Equal(a, b))
	be.True(t, !Equal(a, NewScalar("int")))
	be.True(t, !Equal(a, nil))
	be.True(t, Equal(nil, nil))
}

func TestResolve(t *testing.T) {
	r := Builtin()
	vec3 := r.MustResolve(Vec3)

	byName, err := r.Resolve("vec3")
	be.Err(t, err, nil)
	be.True(t, byName == vec3)

	byType, err := r.Resolve(NewScalar("vec3"))
	be.Err(t, err, nil)
	be.True(t, byType == vec3)

	byNode, err := r.Resolve(fakeNode{"vec3"})
	be.Err(t, err, nil)
	be.True(t, byNode == vec3)

	_, err = r.Resolve("vec5")
	be.True(t, diag.Is(err, diag.UnknownType))

	_, err = r.Resolve(42)
	be.True(t, diag.Is(err, diag.UnknownType))
}

func TestAddType_Duplicate(t *testing.T) {
	r := NewRegistry()
	be.Err(t, r.AddType(NewScalar("half")), nil)
	err := r.AddType(NewScalar("half"))
	be.True(t, diag.Is(err, diag.Redefinition))
	be.Equal(t, r.Count(), 1)
}

func TestClone_Independent(t *testing.T) {
	c := Builtin().Clone()
	be.Err(t, c.AddType(NewScalar("half")), nil)
	be.True(t, c.Has("half"))
	be.True(t, !Builtin().Has("half"))
}

func TestDomains(t *testing.T) {
	r := Builtin()
	be.True(t, IsNumeric(r.MustResolve(Int)))
	be.True(t, IsNumeric(r.MustResolve(Mat4)))
	be.True(t, !IsNumeric(r.MustResolve(Bool)))
	be.True(t, IsInt(r.MustResolve(Int)))
	be.True(t, !IsInt(r.MustResolve(Float)))
	be.True(t, IsScalar(r.MustResolve(Float)))
	be.True(t, !IsScalar(r.MustResolve(Vec2)))

	v, ok := r.Vector(3)
	be.True(t, ok)
	be.Equal(t, v.Name(), Vec3)
	f, ok := r.Vector(1)
	be.True(t, ok)
	be.Equal(t, f.Name(), Float)
}
