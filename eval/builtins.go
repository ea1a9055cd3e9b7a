package eval

import (
	"math"

	"github.com/gogpu/mathl/overload"
	"github.com/gogpu/mathl/types"
)

// Func implements one overload signature. Arguments arrive with exactly
// the signature's parameter types.
type Func func(args []Value) (Value, error)

// Scalar implementations, lifted component-wise over vectors and
// matrices by lift.
var (
	unaryMath = map[string]func(x float64) float64{
		"radians":     func(x float64) float64 { return x * math.Pi / 180 },
		"degrees":     func(x float64) float64 { return x * 180 / math.Pi },
		"sin":         math.Sin,
		"cos":         math.Cos,
		"tan":         math.Tan,
		"asin":        math.Asin,
		"acos":        math.Acos,
		"atan":        math.Atan,
		"exp":         math.Exp,
		"log":         math.Log,
		"exp2":        math.Exp2,
		"log2":        math.Log2,
		"sqrt":        math.Sqrt,
		"inversesqrt": func(x float64) float64 { return 1 / math.Sqrt(x) },
		"abs":         math.Abs,
		"sign":        sign,
		"floor":       math.Floor,
		"ceil":        math.Ceil,
		"fract":       func(x float64) float64 { return x - math.Floor(x) },
		"neg":         func(x float64) float64 { return -x },
	}

	binaryMath = map[string]func(x, y float64) float64{
		"pow":  math.Pow,
		"atan": math.Atan2,
		"mod":  mod,
		"min":  math.Min,
		"max":  math.Max,
		"step": step,
		"add":  func(x, y float64) float64 { return x + y },
		"sub":  func(x, y float64) float64 { return x - y },
		"mul":  func(x, y float64) float64 { return x * y },
		"div":  func(x, y float64) float64 { return x / y },
		"band": func(x, y float64) float64 { return float64(int64(x) & int64(y)) },
		"bor":  func(x, y float64) float64 { return float64(int64(x) | int64(y)) },
		"bxor": func(x, y float64) float64 { return float64(int64(x) ^ int64(y)) },
	}

	ternaryMath = map[string]func(x, y, z float64) float64{
		"clamp":      func(x, lo, hi float64) float64 { return math.Min(math.Max(x, lo), hi) },
		"mix":        func(x, y, a float64) float64 { return x*(1-a) + y*a },
		"smoothstep": smoothstep,
	}
)

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

func mod(x, y float64) float64 { return x - y*math.Floor(x/y) }

func step(edge, x float64) float64 {
	if x < edge {
		return 0
	}
	return 1
}

func smoothstep(edge0, edge1, x float64) float64 {
	switch {
	case x <= edge0:
		return 0
	case x >= edge1:
		return 1
	}
	t := (x - edge0) / (edge1 - edge0)
	return t * t * (3 - 2*t)
}

// lift evaluates f once per component of sig's return type. A scalar
// argument is passed unchanged to every evaluation.
func lift(sig *overload.Signature, f func(xs []float64) float64) Func {
	n := types.ComponentCount(sig.Return)
	return func(args []Value) (Value, error) {
		out := make([]float64, n)
		xs := make([]float64, len(args))
		for i := range out {
			for j, a := range args {
				if len(a.Data) == 1 {
					xs[j] = a.Data[0]
				} else {
					xs[j] = a.Data[i]
				}
			}
			out[i] = f(xs)
		}
		return Value{Type: sig.Return, Data: out}, nil
	}
}

func isMatrix(t types.Type) bool {
	a, ok := t.(*types.ArrayType)
	if !ok {
		return false
	}
	_, ok = a.Component.(*types.ArrayType)
	return ok
}

// dim returns the column count of a square matrix type.
func dim(t types.Type) int {
	return t.(*types.ArrayType).Count
}

// builtinFunc returns the implementation of a builtin signature.
func builtinFunc(sig *overload.Signature) (Func, bool) {
	if types.Builtin().Has(sig.Name) {
		return construct(sig), true
	}
	params := sig.Params
	switch sig.Name {
	case "eq", "ne":
		want := sig.Name == "eq"
		return func(args []Value) (Value, error) {
			return Bool(equalData(args[0], args[1]) == want), nil
		}, true
	case "mul":
		switch {
		case isMatrix(params[0]) && isMatrix(params[1]):
			return matMat(sig), true
		case isMatrix(params[0]) && !types.IsScalar(params[1]):
			return matVec(sig), true
		case isMatrix(params[1]) && !types.IsScalar(params[0]):
			return vecMat(sig), true
		}
	case "length":
		return func(args []Value) (Value, error) {
			return Float(math.Sqrt(dot(args[0].Data, args[0].Data))), nil
		}, true
	case "distance":
		return func(args []Value) (Value, error) {
			d := make([]float64, len(args[0].Data))
			for i := range d {
				d[i] = args[0].Data[i] - args[1].Data[i]
			}
			return Float(math.Sqrt(dot(d, d))), nil
		}, true
	case "dot":
		return func(args []Value) (Value, error) {
			return Float(dot(args[0].Data, args[1].Data)), nil
		}, true
	case "normalize":
		return func(args []Value) (Value, error) {
			l := math.Sqrt(dot(args[0].Data, args[0].Data))
			out := make([]float64, len(args[0].Data))
			for i, x := range args[0].Data {
				out[i] = x / l
			}
			return Value{Type: sig.Return, Data: out}, nil
		}, true
	case "cross":
		return func(args []Value) (Value, error) {
			a, b := args[0].Data, args[1].Data
			return Value{Type: sig.Return, Data: []float64{
				a[1]*b[2] - a[2]*b[1],
				a[2]*b[0] - a[0]*b[2],
				a[0]*b[1] - a[1]*b[0],
			}}, nil
		}, true
	}

	switch len(params) {
	case 1:
		if f, ok := unaryMath[sig.Name]; ok {
			return lift(sig, func(xs []float64) float64 { return f(xs[0]) }), true
		}
	case 2:
		if f, ok := binaryMath[sig.Name]; ok {
			return lift(sig, func(xs []float64) float64 { return f(xs[0], xs[1]) }), true
		}
	case 3:
		if f, ok := ternaryMath[sig.Name]; ok {
			return lift(sig, func(xs []float64) float64 { return f(xs[0], xs[1], xs[2]) }), true
		}
	}
	return nil, false
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func equalData(a, b Value) bool {
	if len(a.Data) != len(b.Data) {
		return false
	}
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			return false
		}
	}
	return true
}

// construct implements constructors and scalar casts.
func construct(sig *overload.Signature) Func {
	ret := sig.Return
	n := types.ComponentCount(ret)
	return func(args []Value) (Value, error) {
		if types.IsScalar(ret) {
			x := args[0].Data[0]
			switch ret.Name() {
			case types.Int:
				x = math.Trunc(x)
			case types.Bool:
				x = boolFloat(x != 0)
			}
			return Value{Type: ret, Data: []float64{x}}, nil
		}

		var flat []float64
		for _, a := range args {
			flat = append(flat, a.Data...)
		}
		out := make([]float64, n)
		switch {
		case len(flat) == n:
			copy(out, flat)
		case len(flat) == 1 && isMatrix(ret):
			for c := 0; c < dim(ret); c++ {
				out[c*dim(ret)+c] = flat[0]
			}
		case len(flat) == 1:
			for i := range out {
				out[i] = flat[0]
			}
		case isMatrix(ret):
			resize(out, dim(ret), flat, dim(args[0].Type))
		default:
			copy(out, flat[:n])
		}
		return Value{Type: ret, Data: out}, nil
	}
}

// resize copies the overlapping block of an m×m matrix into an n×n one,
// filling the rest from the identity.
func resize(out []float64, n int, src []float64, m int) {
	for c := 0; c < n; c++ {
		for r := 0; r < n; r++ {
			switch {
			case c < m && r < m:
				out[c*n+r] = src[c*m+r]
			case c == r:
				out[c*n+r] = 1
			}
		}
	}
}

func matVec(sig *overload.Signature) Func {
	return func(args []Value) (Value, error) {
		m, v := args[0].Data, args[1].Data
		n := len(v)
		out := make([]float64, n)
		for r := 0; r < n; r++ {
			for c := 0; c < n; c++ {
				out[r] += m[c*n+r] * v[c]
			}
		}
		return Value{Type: sig.Return, Data: out}, nil
	}
}

func vecMat(sig *overload.Signature) Func {
	return func(args []Value) (Value, error) {
		v, m := args[0].Data, args[1].Data
		n := len(v)
		out := make([]float64, n)
		for c := 0; c < n; c++ {
			for r := 0; r < n; r++ {
				out[c] += v[r] * m[c*n+r]
			}
		}
		return Value{Type: sig.Return, Data: out}, nil
	}
}

func matMat(sig *overload.Signature) Func {
	return func(args []Value) (Value, error) {
		a, b := args[0].Data, args[1].Data
		n := dim(sig.Return)
		out := make([]float64, n*n)
		for c := 0; c < n; c++ {
			for r := 0; r < n; r++ {
				for k := 0; k < n; k++ {
					out[c*n+r] += a[k*n+r] * b[c*n+k]
				}
			}
		}
		return Value{Type: sig.Return, Data: out}, nil
	}
}
