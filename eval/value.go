// Package eval executes lowered mathl programs.
//
// It is a reference interpreter for the output of sema: every call is
// dispatched by its bound overload key, either to a user Function node or
// to the Go implementation of a builtin signature. It is used to observe
// compiled programs in tests and from the command line.
package eval

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/gogpu/mathl/types"
)

// Value is a typed value stored as its scalar leaves. Matrices are
// column-major: column c, row r lives at c*N+r. Ints and bools are held as
// whole numbers (bools as 0 and 1).
type Value struct {
	Type types.Type
	Data []float64
}

func builtinType(name string) types.Type {
	return types.Builtin().MustResolve(name)
}

// Float returns a float value.
func Float(x float64) Value { return Value{Type: builtinType(types.Float), Data: []float64{x}} }

// Int returns an int value.
func Int(x int) Value { return Value{Type: builtinType(types.Int), Data: []float64{float64(x)}} }

// Bool returns a bool value.
func Bool(b bool) Value {
	return Value{Type: builtinType(types.Bool), Data: []float64{boolFloat(b)}}
}

// Vec returns the vector value with the given components. It panics
// unless 2 to 4 components are given.
func Vec(xs ...float64) Value {
	t, ok := types.Builtin().Vector(len(xs))
	if !ok {
		panic("eval: no vector type with " + strconv.Itoa(len(xs)) + " components")
	}
	return Value{Type: t, Data: append([]float64(nil), xs...)}
}

// Make returns a value of type t holding data, which must have exactly
// ComponentCount(t) entries.
func Make(t types.Type, data ...float64) (Value, error) {
	if n := types.ComponentCount(t); len(data) != n {
		return Value{}, errors.Errorf("%s needs %d components, got %d", types.NameOf(t), n, len(data))
	}
	return Value{Type: t, Data: append([]float64(nil), data...)}, nil
}

// Zero returns the zero value of t.
func Zero(t types.Type) Value {
	return Value{Type: t, Data: make([]float64, types.ComponentCount(t))}
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Float returns the first component.
func (v Value) Float() float64 { return v.Data[0] }

// Int returns the first component as an int.
func (v Value) Int() int { return int(v.Data[0]) }

// Bool reports whether the first component is non-zero.
func (v Value) Bool() bool { return v.Data[0] != 0 }

// Clone returns a copy that does not share storage with v.
func (v Value) Clone() Value {
	return Value{Type: v.Type, Data: append([]float64(nil), v.Data...)}
}

// String formats v in mathl constructor syntax, e.g. vec2(1, 0.5).
func (v Value) String() string {
	if v.Type == nil {
		return "void"
	}
	if types.IsScalar(v.Type) {
		return formatScalar(v.Type, v.Data[0])
	}
	leaf := types.Leaf(v.Type)
	parts := make([]string, len(v.Data))
	for i, x := range v.Data {
		parts[i] = formatScalar(leaf, x)
	}
	return v.Type.Name() + "(" + strings.Join(parts, ", ") + ")"
}

func formatScalar(t types.Type, x float64) string {
	switch t.Name() {
	case types.Bool:
		return strconv.FormatBool(x != 0)
	case types.Int:
		return strconv.FormatInt(int64(x), 10)
	}
	return strconv.FormatFloat(x, 'g', -1, 64)
}

// ParseValue parses text as a value of type t. Components are separated
// by commas or spaces; a single component is splatted across all of them.
func ParseValue(t types.Type, text string) (Value, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == ' ' })
	n := types.ComponentCount(t)
	if len(fields) != 1 && len(fields) != n {
		return Value{}, errors.Errorf("%s needs 1 or %d components, got %d", t.Name(), n, len(fields))
	}
	leaf := types.Leaf(t)
	data := make([]float64, len(fields))
	for i, f := range fields {
		x, err := parseScalar(leaf, f)
		if err != nil {
			return Value{}, errors.Wrapf(err, "component %d of %s", i+1, t.Name())
		}
		data[i] = x
	}
	if len(data) == 1 && n > 1 {
		v := Zero(t)
		for i := range v.Data {
			v.Data[i] = data[0]
		}
		return v, nil
	}
	return Value{Type: t, Data: data}, nil
}

func parseScalar(t types.Type, s string) (float64, error) {
	switch t.Name() {
	case types.Bool:
		b, err := strconv.ParseBool(s)
		return boolFloat(b), errors.WithStack(err)
	case types.Int:
		i, err := strconv.ParseInt(s, 0, 64)
		return float64(i), errors.WithStack(err)
	}
	x, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSuffix(s, "f"), "F"), 64)
	return x, errors.WithStack(err)
}
