package mathl

import (
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"github.com/gogpu/mathl/ast"
	"github.com/gogpu/mathl/casefile"
	"github.com/gogpu/mathl/diag"
	"github.com/gogpu/mathl/eval"
	"github.com/gogpu/mathl/sema"
)

// TestCases runs the Markdown cases under testdata/cases.
func TestCases(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "cases", "*.md"))
	be.Err(t, err, nil)
	if len(files) == 0 {
		t.Fatal("no case files")
	}
	for _, file := range files {
		cases, err := casefile.Load(file)
		if err != nil {
			t.Fatalf("%v", err)
		}
		name := strings.TrimSuffix(filepath.Base(file), ".md")
		for _, c := range cases {
			t.Run(name+"/"+c.Name, func(t *testing.T) {
				runCase(t, c)
			})
		}
	}
}

func runCase(t *testing.T, c casefile.Case) {
	unit, err := Compile("case.mathl", c.Source, DefaultOptions())
	for _, chk := range c.Checks {
		if chk.Fence == casefile.FenceError {
			checkError(t, chk, err)
			continue
		}
		if err != nil {
			t.Fatalf("line %d: compile failed: %v", chk.Line, err)
		}
		switch chk.Fence {
		case casefile.FenceAST:
			body := unit.Function("main").Child(2)
			be.Equal(t, ast.SExpr(body), casefile.NormalizeSExpr(chk.Content))
		case casefile.FenceKeys:
			be.Equal(t, callKeys(unit.Program), strings.Fields(chk.Content))
		case casefile.FenceRun:
			checkRun(t, chk, unit)
		}
	}
}

func checkError(t *testing.T, chk casefile.Check, err error) {
	t.Helper()
	want, perr := casefile.ParseError(chk.Content)
	if perr != nil {
		t.Fatalf("line %d: %v", chk.Line, perr)
	}
	var de *diag.Error
	if !errors.As(err, &de) {
		t.Fatalf("line %d: want %s, got %v", chk.Line, want.Kind, err)
	}
	be.Equal(t, de.Kind.String(), want.Kind)
	if want.Line != 0 {
		be.Equal(t, de.Line, want.Line)
	}
	if want.Message != "" && !strings.Contains(de.Message, want.Message) {
		t.Errorf("line %d: message %q does not contain %q", chk.Line, de.Message, want.Message)
	}
}

// callKeys lists the bound keys of all calls in pre-order.
func callKeys(root *ast.Node) []string {
	var keys []string
	ast.Inspect(root, func(n *ast.Node) bool {
		if n.Kind == ast.Call {
			keys = append(keys, n.Key)
		}
		return true
	})
	return keys
}

func checkRun(t *testing.T, chk casefile.Check, unit *sema.Unit) {
	t.Helper()
	steps, err := casefile.ParseRun(chk.Content)
	if err != nil {
		t.Fatalf("line %d: %v", chk.Line, err)
	}
	m, err := eval.New(unit, nil)
	if err != nil {
		t.Fatalf("line %d: %v", chk.Line, err)
	}

	ran := false
	for _, s := range steps {
		if s.Expect && !ran {
			be.Err(t, m.Run(), nil)
			ran = true
		}
		cur, ok := m.Get(s.Name)
		if !ok {
			t.Fatalf("line %d: no global %s", chk.Line, s.Name)
		}
		v, err := eval.ParseValue(cur.Type, s.Value)
		if err != nil {
			t.Fatalf("line %d: %v", chk.Line, err)
		}
		if !s.Expect {
			be.Err(t, m.Set(s.Name, v), nil)
			continue
		}
		if !closeTo(cur.Data, v.Data) {
			t.Errorf("line %d: %s = %v, want %v", chk.Line, s.Name, cur, v)
		}
	}
}

func closeTo(got, want []float64) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if math.Abs(got[i]-want[i]) > 1e-6 {
			return false
		}
	}
	return true
}
