package overload

import (
	"fmt"
	"sync"

	"github.com/gogpu/mathl/types"
)

// Family type sets used when generating builtin overloads.
var (
	// GenFloat is the genType family of the math intrinsics.
	GenFloat = []string{types.Float, types.Vec2, types.Vec3, types.Vec4}
	// Vectors are the float vector types.
	Vectors = []string{types.Vec2, types.Vec3, types.Vec4}
	// Composites are the vector and matrix types that take operator overloads.
	Composites = []string{types.Vec2, types.Vec3, types.Vec4, types.Mat3, types.Mat4}
)

// operatorNames maps an operator symbol to the name of its overloads.
var operatorNames = map[string]string{
	"+":  "add",
	"-":  "sub",
	"*":  "mul",
	"/":  "div",
	"%":  "mod",
	"&":  "band",
	"|":  "bor",
	"^":  "bxor",
	"==": "eq",
	"!=": "ne",
}

// OperatorName returns the overload name for a binary operator symbol. A
// compound assignment symbol ("+=") maps like its operator.
func OperatorName(sym string) (string, bool) {
	if len(sym) > 1 && sym[len(sym)-1] == '=' && sym != "==" && sym != "!=" {
		sym = sym[:len(sym)-1]
	}
	name, ok := operatorNames[sym]
	return name, ok
}

// OperatorKey returns the key of the binary operator overload op_lhs_rhs.
func OperatorKey(op string, lhs, rhs types.Type) string {
	return op + "_" + types.NameOf(lhs) + "_" + types.NameOf(rhs)
}

// NegateKey returns the key of the unary minus overload for t.
func NegateKey(t types.Type) string {
	return "neg_" + types.NameOf(t)
}

var (
	builtinOnce sync.Once
	builtinReg  *Registry
)

// Builtin returns the shared registry of generated builtin signatures
// resolving through types.Builtin(). It must not be mutated; Clone it.
func Builtin() *Registry {
	builtinOnce.Do(func() {
		r := NewRegistry(types.Builtin())
		if err := bootstrap(r); err != nil {
			panic(fmt.Sprintf("overload: bootstrap: %v", err))
		}
		builtinReg = r
	})
	return builtinReg
}

type polySpec struct {
	name   string
	ret    string
	params []string
	family []string
}

// intrinsics is the table of polymorphic math builtins.
var intrinsics = []polySpec{
	// Angle and trigonometry
	{"radians", GenType, []string{GenType}, GenFloat},
	{"degrees", GenType, []string{GenType}, GenFloat},
	{"sin", GenType, []string{GenType}, GenFloat},
	{"cos", GenType, []string{GenType}, GenFloat},
	{"tan", GenType, []string{GenType}, GenFloat},
	{"asin", GenType, []string{GenType}, GenFloat},
	{"acos", GenType, []string{GenType}, GenFloat},
	{"atan", GenType, []string{GenType}, GenFloat},
	{"atan", GenType, []string{GenType, GenType}, GenFloat},

	// Exponential
	{"pow", GenType, []string{GenType, GenType}, GenFloat},
	{"exp", GenType, []string{GenType}, GenFloat},
	{"log", GenType, []string{GenType}, GenFloat},
	{"exp2", GenType, []string{GenType}, GenFloat},
	{"log2", GenType, []string{GenType}, GenFloat},
	{"sqrt", GenType, []string{GenType}, GenFloat},
	{"inversesqrt", GenType, []string{GenType}, GenFloat},

	// Common
	{"abs", GenType, []string{GenType}, GenFloat},
	{"sign", GenType, []string{GenType}, GenFloat},
	{"floor", GenType, []string{GenType}, GenFloat},
	{"ceil", GenType, []string{GenType}, GenFloat},
	{"fract", GenType, []string{GenType}, GenFloat},
	{"mod", GenType, []string{GenType, GenType}, GenFloat},
	{"mod", GenType, []string{GenType, types.Float}, Vectors},
	{"min", GenType, []string{GenType, GenType}, GenFloat},
	{"min", GenType, []string{GenType, types.Float}, Vectors},
	{"max", GenType, []string{GenType, GenType}, GenFloat},
	{"max", GenType, []string{GenType, types.Float}, Vectors},
	{"clamp", GenType, []string{GenType, GenType, GenType}, GenFloat},
	{"clamp", GenType, []string{GenType, types.Float, types.Float}, Vectors},
	{"mix", GenType, []string{GenType, GenType, GenType}, GenFloat},
	{"mix", GenType, []string{GenType, GenType, types.Float}, Vectors},
	{"step", GenType, []string{GenType, GenType}, GenFloat},
	{"step", GenType, []string{types.Float, GenType}, Vectors},
	{"smoothstep", GenType, []string{GenType, GenType, GenType}, GenFloat},
	{"smoothstep", GenType, []string{types.Float, types.Float, GenType}, Vectors},

	// Integer
	{"abs", GenType, []string{GenType}, []string{types.Int}},
	{"min", GenType, []string{GenType, GenType}, []string{types.Int}},
	{"max", GenType, []string{GenType, GenType}, []string{types.Int}},
	{"clamp", GenType, []string{GenType, GenType, GenType}, []string{types.Int}},

	// Geometric
	{"length", types.Float, []string{GenType}, GenFloat},
	{"distance", types.Float, []string{GenType, GenType}, GenFloat},
	{"dot", types.Float, []string{GenType, GenType}, GenFloat},
	{"normalize", GenType, []string{GenType}, GenFloat},
	{"cross", GenType, []string{GenType, GenType}, []string{types.Vec3}},
}

func bootstrap(r *Registry) error {
	for _, spec := range intrinsics {
		if err := r.AddPolymorphicFunction(spec.name, spec.ret, spec.params, spec.family); err != nil {
			return err
		}
	}
	if err := addCasts(r); err != nil {
		return err
	}
	if err := addVectorConstructors(r); err != nil {
		return err
	}
	if err := addMatrixConstructors(r); err != nil {
		return err
	}
	return addOperators(r)
}

func addCasts(r *Registry) error {
	scalars := []string{types.Float, types.Int, types.Bool}
	for _, to := range scalars {
		for _, from := range scalars {
			if err := r.AddPolymorphicFunction(to, to, []string{from}, []string{to}); err != nil {
				return err
			}
		}
	}
	return nil
}

// compositions returns every ordered way to write n as a sum of parts in
// [1, maxPart], smallest leading part first.
func compositions(n, maxPart int) [][]int {
	if n == 0 {
		return [][]int{{}}
	}
	var out [][]int
	for first := 1; first <= maxPart && first <= n; first++ {
		for _, rest := range compositions(n-first, maxPart) {
			c := make([]int, 0, len(rest)+1)
			c = append(c, first)
			c = append(c, rest...)
			out = append(out, c)
		}
	}
	return out
}

func addVectorConstructors(r *Registry) error {
	for n := 2; n <= 4; n++ {
		target := fmt.Sprintf("vec%d", n)
		ret := r.types.MustResolve(target)
		float := r.types.MustResolve(types.Float)

		// Splat: vecN(float).
		if _, err := r.AddFunction(target, ret, []types.Type{float}, ""); err != nil {
			return err
		}
		for _, parts := range compositions(n, 4) {
			params := make([]types.Type, len(parts))
			for i, p := range parts {
				params[i], _ = r.types.Vector(p)
			}
			if _, err := r.AddFunction(target, ret, params, ""); err != nil {
				return err
			}
		}
		// Truncation: vecN(vecM) for M > N.
		for m := n + 1; m <= 4; m++ {
			src, _ := r.types.Vector(m)
			if _, err := r.AddFunction(target, ret, []types.Type{src}, ""); err != nil {
				return err
			}
		}
		// Integer components: vecN(int) and vecN(int, ..., int).
		ints := make([]types.Type, n)
		for i := range ints {
			ints[i] = r.types.MustResolve(types.Int)
		}
		for _, params := range [][]types.Type{ints[:1], ints} {
			if _, err := r.AddFunction(target, ret, params, ""); err != nil {
				return err
			}
		}
	}
	return nil
}

func addMatrixConstructors(r *Registry) error {
	float := r.types.MustResolve(types.Float)
	for _, n := range []int{3, 4} {
		target := fmt.Sprintf("mat%d", n)
		ret := r.types.MustResolve(target)
		col, _ := r.types.Vector(n)

		// Diagonal: matN(float).
		if _, err := r.AddFunction(target, ret, []types.Type{float}, ""); err != nil {
			return err
		}
		cols := make([]types.Type, n)
		for i := range cols {
			cols[i] = col
		}
		if _, err := r.AddFunction(target, ret, cols, ""); err != nil {
			return err
		}
		scalars := make([]types.Type, n*n)
		for i := range scalars {
			scalars[i] = float
		}
		if _, err := r.AddFunction(target, ret, scalars, ""); err != nil {
			return err
		}
	}
	mat3 := r.types.MustResolve(types.Mat3)
	mat4 := r.types.MustResolve(types.Mat4)
	if _, err := r.AddFunction(types.Mat3, mat3, []types.Type{mat4}, ""); err != nil {
		return err
	}
	_, err := r.AddFunction(types.Mat4, mat4, []types.Type{mat3}, "")
	return err
}

func (r *Registry) addOperator(op string, ret, lhs, rhs types.Type) error {
	params := []types.Type{lhs, rhs}
	key := OperatorKey(op, lhs, rhs)
	if sig, ok := r.Find(op, ret, params); ok {
		return r.Alias(key, sig)
	}
	_, err := r.AddFunction(op, ret, params, key)
	return err
}

func addOperators(r *Registry) error {
	float := r.types.MustResolve(types.Float)
	boolT := r.types.MustResolve(types.Bool)

	for _, name := range Composites {
		t := r.types.MustResolve(name)
		for _, op := range []string{"add", "sub", "mul", "div", "mod"} {
			if err := r.addOperator(op, t, t, t); err != nil {
				return err
			}
			if err := r.addOperator(op, t, t, float); err != nil {
				return err
			}
			if err := r.addOperator(op, t, float, t); err != nil {
				return err
			}
		}
		for _, op := range []string{"eq", "ne"} {
			if err := r.addOperator(op, boolT, t, t); err != nil {
				return err
			}
		}
		if _, err := r.AddFunction("neg", t, []types.Type{t}, NegateKey(t)); err != nil {
			return err
		}
	}

	// Matrix-vector products.
	for _, n := range []int{3, 4} {
		mat := r.types.MustResolve(fmt.Sprintf("mat%d", n))
		vec, _ := r.types.Vector(n)
		if err := r.addOperator("mul", vec, mat, vec); err != nil {
			return err
		}
		if err := r.addOperator("mul", vec, vec, mat); err != nil {
			return err
		}
	}

	for _, name := range Vectors {
		t := r.types.MustResolve(name)
		for _, op := range []string{"band", "bor", "bxor"} {
			if err := r.addOperator(op, t, t, t); err != nil {
				return err
			}
			if err := r.addOperator(op, t, t, float); err != nil {
				return err
			}
			if err := r.addOperator(op, t, float, t); err != nil {
				return err
			}
		}
	}
	return nil
}
