package eval

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/gogpu/mathl/ast"
	"github.com/gogpu/mathl/sema"
	"github.com/gogpu/mathl/types"
)

// maxIterations bounds the total number of loop iterations of one call.
const maxIterations = 1 << 20

// returnSignal unwinds a function body on return.
type returnSignal struct{ v Value }

func (returnSignal) Error() string { return "return" }

type frame map[string]*Value

// Machine runs one analyzed unit. Globals keep their values across calls.
type Machine struct {
	unit    *sema.Unit
	fns     map[string]*ast.Node
	funcs   map[string]Func
	globals frame
	scopes  []frame
	steps   int
}

// New prepares unit for execution. funcs supplies or overrides builtin
// implementations by overload key. Every builtin signature of the unit's
// registry must have an implementation. Global initializers run here.
func New(unit *sema.Unit, funcs map[string]Func) (*Machine, error) {
	if unit == nil || unit.Overloads == nil {
		return nil, errors.New("eval: unit has not been analyzed")
	}
	m := &Machine{
		unit:    unit,
		fns:     make(map[string]*ast.Node),
		funcs:   make(map[string]Func),
		globals: make(frame),
	}
	for _, list := range [][]*ast.Node{unit.Program.Children(), unit.Imports} {
		for _, n := range list {
			if n.Kind == ast.Function {
				m.fns[n.Key] = n
			}
		}
	}
	for _, sig := range unit.Overloads.All() {
		if f, ok := funcs[sig.Key]; ok {
			m.funcs[sig.Key] = f
			continue
		}
		if m.fns[sig.Key] != nil {
			continue
		}
		f, ok := builtinFunc(sig)
		if !ok {
			return nil, errors.Errorf("eval: no implementation for %s", sig)
		}
		m.funcs[sig.Key] = f
	}

	for _, n := range unit.Program.Children() {
		if n.Kind != ast.VarDecl {
			continue
		}
		v := Zero(n.Type)
		if init := n.Child(1); init != nil {
			iv, err := m.eval(init)
			if err != nil {
				return nil, errors.Wrapf(err, "initializing %s", n.Value)
			}
			v = iv.Clone()
		}
		m.globals[n.Value] = &v
	}
	return m, nil
}

// Set assigns a global. The value must have the global's type.
func (m *Machine) Set(name string, v Value) error {
	slot, ok := m.globals[name]
	if !ok {
		return errors.Errorf("eval: no global named %s", name)
	}
	if !types.Equal(slot.Type, v.Type) {
		return errors.Errorf("eval: %s has type %s, cannot set %s", name, slot.Type.Name(), types.NameOf(v.Type))
	}
	*slot = v.Clone()
	return nil
}

// Get returns a copy of a global's value.
func (m *Machine) Get(name string) (Value, bool) {
	slot, ok := m.globals[name]
	if !ok {
		return Value{}, false
	}
	return slot.Clone(), true
}

// Globals returns the names of all globals.
func (m *Machine) Globals() []string {
	var names []string
	for _, n := range m.unit.Program.Children() {
		if n.Kind == ast.VarDecl {
			names = append(names, n.Value)
		}
	}
	return names
}

// Call invokes the function registered under key, a user function name
// for the first definition of that name.
func (m *Machine) Call(key string, args ...Value) (Value, error) {
	m.steps = 0
	return m.call(key, args)
}

// Run calls main.
func (m *Machine) Run() error {
	_, err := m.Call("main")
	return err
}

func (m *Machine) call(key string, args []Value) (Value, error) {
	if fn := m.fns[key]; fn != nil {
		return m.callFunction(fn, args)
	}
	if f, ok := m.funcs[key]; ok {
		return f(args)
	}
	sig, ok := m.unit.Overloads.ByKey(key)
	if !ok {
		return Value{}, errors.Errorf("eval: unknown function %s", key)
	}
	if fn := m.fns[sig.Key]; fn != nil {
		return m.callFunction(fn, args)
	}
	f, ok := m.funcs[sig.Key]
	if !ok {
		return Value{}, errors.Errorf("eval: no implementation for %s", sig)
	}
	return f(args)
}

func (m *Machine) callFunction(fn *ast.Node, args []Value) (Value, error) {
	params := fn.Child(1)
	if len(args) != params.Len() {
		return Value{}, errors.Errorf("eval: %s takes %d arguments, got %d", fn.Value, params.Len(), len(args))
	}
	locals := make(frame, len(args))
	for i, p := range params.Children() {
		if !types.Equal(p.Type, args[i].Type) {
			return Value{}, errors.Errorf("eval: argument %d of %s has type %s, want %s",
				i+1, fn.Value, types.NameOf(args[i].Type), p.Type.Name())
		}
		v := args[i].Clone()
		locals[p.Value] = &v
	}

	saved := m.scopes
	m.scopes = []frame{locals}
	defer func() { m.scopes = saved }()

	err := m.exec(fn.Child(2))
	if r, ok := err.(returnSignal); ok {
		return r.v, nil
	}
	if err != nil {
		return Value{}, err
	}
	return Value{Type: fn.Type}, nil
}

func (m *Machine) push() { m.scopes = append(m.scopes, make(frame)) }
func (m *Machine) pop()  { m.scopes = m.scopes[:len(m.scopes)-1] }

func (m *Machine) lookup(name string) (*Value, bool) {
	for i := len(m.scopes) - 1; i >= 0; i-- {
		if v, ok := m.scopes[i][name]; ok {
			return v, true
		}
	}
	v, ok := m.globals[name]
	return v, ok
}

func (m *Machine) declare(n *ast.Node) error {
	v := Zero(n.Type)
	if init := n.Child(1); init != nil {
		iv, err := m.eval(init)
		if err != nil {
			return err
		}
		v = iv.Clone()
	}
	if len(m.scopes) == 0 {
		m.globals[n.Value] = &v
		return nil
	}
	m.scopes[len(m.scopes)-1][n.Value] = &v
	return nil
}

func (m *Machine) tick(n *ast.Node) error {
	m.steps++
	if m.steps > maxIterations {
		return errors.Errorf("eval: %d:%d: loop iteration limit exceeded", n.Pos.Line, n.Pos.Column)
	}
	return nil
}

func (m *Machine) exec(n *ast.Node) error {
	switch n.Kind {
	case ast.StatementList:
		m.push()
		defer m.pop()
		for _, s := range n.Children() {
			if err := m.exec(s); err != nil {
				return err
			}
		}
		return nil

	case ast.NullStatement:
		return nil

	case ast.VarDecl:
		return m.declare(n)

	case ast.Return:
		if n.Len() == 0 {
			return returnSignal{v: Value{Type: n.Type}}
		}
		v, err := m.eval(n.Child(0))
		if err != nil {
			return err
		}
		return returnSignal{v: v.Clone()}

	case ast.If:
		cond, err := m.eval(n.Child(0))
		if err != nil {
			return err
		}
		if cond.Bool() {
			return m.exec(n.Child(1))
		}
		if alt := n.Child(2); alt != nil {
			return m.exec(alt)
		}
		return nil

	case ast.While:
		for {
			cond, err := m.eval(n.Child(0))
			if err != nil {
				return err
			}
			if !cond.Bool() {
				return nil
			}
			if err := m.tick(n); err != nil {
				return err
			}
			if err := m.exec(n.Child(1)); err != nil {
				return err
			}
		}

	case ast.For:
		m.push()
		defer m.pop()
		if err := m.exec(n.Child(0)); err != nil {
			return err
		}
		for {
			if cond := n.Child(1); cond.Kind != ast.NullStatement {
				v, err := m.eval(cond)
				if err != nil {
					return err
				}
				if !v.Bool() {
					return nil
				}
			}
			if err := m.tick(n); err != nil {
				return err
			}
			if err := m.exec(n.Child(3)); err != nil {
				return err
			}
			if err := m.exec(n.Child(2)); err != nil {
				return err
			}
		}
	}
	_, err := m.eval(n)
	return err
}

func (m *Machine) eval(n *ast.Node) (Value, error) {
	switch n.Kind {
	case ast.IntConstant:
		i, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return Value{}, errors.Wrapf(err, "eval: int constant %s", n.Value)
		}
		return Value{Type: n.Type, Data: []float64{float64(i)}}, nil

	case ast.FloatConstant:
		text := strings.TrimRight(n.Value, "fF")
		x, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, errors.Wrapf(err, "eval: float constant %s", n.Value)
		}
		return Value{Type: n.Type, Data: []float64{x}}, nil

	case ast.BoolConstant:
		return Value{Type: n.Type, Data: []float64{boolFloat(n.Value == "true")}}, nil

	case ast.Ident:
		v, ok := m.lookup(n.Value)
		if !ok {
			return Value{}, errors.Errorf("eval: %d:%d: undefined %s", n.Pos.Line, n.Pos.Column, n.Value)
		}
		return *v, nil

	case ast.ArrayLookup:
		base, err := m.eval(n.Child(0))
		if err != nil {
			return Value{}, err
		}
		lo, hi, err := m.component(n, base.Type)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: n.Type, Data: base.Data[lo:hi]}, nil

	case ast.Call:
		args := make([]Value, n.Len())
		for i, c := range n.Children() {
			v, err := m.eval(c)
			if err != nil {
				return Value{}, err
			}
			args[i] = v.Clone()
		}
		return m.call(n.Key, args)

	case ast.BinOp:
		return m.binary(n)

	case ast.UnaryOp:
		v, err := m.eval(n.Child(0))
		if err != nil {
			return Value{}, err
		}
		x := v.Data[0]
		switch n.Op {
		case "-":
			x = -x
		case "!":
			x = boolFloat(x == 0)
		case "~":
			x = float64(^int64(x))
		}
		return Value{Type: n.Type, Data: []float64{x}}, nil

	case ast.Assign:
		return m.assign(n)

	case ast.PreInc, ast.PreDec, ast.PostInc, ast.PostDec:
		slot, err := m.lvalue(n.Child(0))
		if err != nil {
			return Value{}, err
		}
		old := slot[0]
		if n.Kind == ast.PreInc || n.Kind == ast.PostInc {
			slot[0]++
		} else {
			slot[0]--
		}
		if n.Kind == ast.PostInc || n.Kind == ast.PostDec {
			return Value{Type: n.Type, Data: []float64{old}}, nil
		}
		return Value{Type: n.Type, Data: []float64{slot[0]}}, nil

	case ast.ExprList:
		var last Value
		for _, c := range n.Children() {
			if c.Kind == ast.VarDecl {
				if err := m.declare(c); err != nil {
					return Value{}, err
				}
				slot, _ := m.lookup(c.Value)
				last = *slot
				continue
			}
			v, err := m.eval(c)
			if err != nil {
				return Value{}, err
			}
			last = v
		}
		return last, nil
	}
	return Value{}, errors.Errorf("eval: %d:%d: cannot evaluate %s", n.Pos.Line, n.Pos.Column, n.Describe())
}

// component evaluates the index of an ArrayLookup on a value of type t
// and returns the leaf range it selects.
func (m *Machine) component(n *ast.Node, t types.Type) (int, int, error) {
	idx, err := m.eval(n.Child(1))
	if err != nil {
		return 0, 0, err
	}
	arr := t.(*types.ArrayType)
	i := idx.Int()
	if i < 0 || i >= arr.Count {
		return 0, 0, errors.Errorf("eval: %d:%d: index %d out of range for %s",
			n.Pos.Line, n.Pos.Column, i, arr.Name())
	}
	size := types.ComponentCount(arr.Component)
	return i * size, (i + 1) * size, nil
}

// lvalue returns the storage a write target designates. The slice aliases
// the variable, so writing it writes exactly the selected leaves.
func (m *Machine) lvalue(n *ast.Node) ([]float64, error) {
	switch n.Kind {
	case ast.Ident:
		v, ok := m.lookup(n.Value)
		if !ok {
			return nil, errors.Errorf("eval: %d:%d: undefined %s", n.Pos.Line, n.Pos.Column, n.Value)
		}
		return v.Data, nil
	case ast.ArrayLookup:
		base, err := m.lvalue(n.Child(0))
		if err != nil {
			return nil, err
		}
		lo, hi, err := m.component(n, n.Child(0).Type)
		if err != nil {
			return nil, err
		}
		return base[lo:hi], nil
	}
	return nil, errors.Errorf("eval: %d:%d: cannot assign to %s", n.Pos.Line, n.Pos.Column, n.Describe())
}

func (m *Machine) assign(n *ast.Node) (Value, error) {
	rhs, err := m.eval(n.Child(1))
	if err != nil {
		return Value{}, err
	}
	rhs = rhs.Clone()
	slot, err := m.lvalue(n.Child(0))
	if err != nil {
		return Value{}, err
	}
	if n.Op == "=" {
		copy(slot, rhs.Data)
		return Value{Type: n.Type, Data: slot}, nil
	}
	op := strings.TrimSuffix(n.Op, "=")
	x, err := scalarOp(n, op, n.Child(0).Type, slot[0], rhs.Data[0])
	if err != nil {
		return Value{}, err
	}
	slot[0] = x
	return Value{Type: n.Type, Data: slot}, nil
}

func (m *Machine) binary(n *ast.Node) (Value, error) {
	l, err := m.eval(n.Child(0))
	if err != nil {
		return Value{}, err
	}
	switch n.Op {
	case "&&":
		if !l.Bool() {
			return Bool(false), nil
		}
		return m.eval(n.Child(1))
	case "||":
		if l.Bool() {
			return Bool(true), nil
		}
		return m.eval(n.Child(1))
	}
	r, err := m.eval(n.Child(1))
	if err != nil {
		return Value{}, err
	}
	x, y := l.Data[0], r.Data[0]
	switch n.Op {
	case "==":
		return Bool(x == y), nil
	case "!=":
		return Bool(x != y), nil
	case "<":
		return Bool(x < y), nil
	case ">":
		return Bool(x > y), nil
	case "<=":
		return Bool(x <= y), nil
	case ">=":
		return Bool(x >= y), nil
	}
	z, err := scalarOp(n, n.Op, l.Type, x, y)
	if err != nil {
		return Value{}, err
	}
	return Value{Type: n.Type, Data: []float64{z}}, nil
}

// scalarOp applies a native arithmetic or bitwise operator to two scalars
// of type t. Int arithmetic truncates toward zero.
func scalarOp(n *ast.Node, op string, t types.Type, x, y float64) (float64, error) {
	isInt := types.IsInt(t)
	switch op {
	case "+":
		return x + y, nil
	case "-":
		return x - y, nil
	case "*":
		return x * y, nil
	case "/":
		if !isInt {
			return x / y, nil
		}
		if y == 0 {
			return 0, errors.Errorf("eval: %d:%d: integer division by zero", n.Pos.Line, n.Pos.Column)
		}
		return math.Trunc(x / y), nil
	case "%":
		if !isInt {
			return mod(x, y), nil
		}
		if y == 0 {
			return 0, errors.Errorf("eval: %d:%d: integer division by zero", n.Pos.Line, n.Pos.Column)
		}
		return float64(int64(x) % int64(y)), nil
	case "&":
		return float64(int64(x) & int64(y)), nil
	case "|":
		return float64(int64(x) | int64(y)), nil
	case "^":
		return float64(int64(x) ^ int64(y)), nil
	case "<<":
		return float64(int64(x) << uint64(y)), nil
	case ">>":
		return float64(int64(x) >> uint64(y)), nil
	}
	return 0, errors.Errorf("eval: %d:%d: unsupported operator %s", n.Pos.Line, n.Pos.Column, op)
}
