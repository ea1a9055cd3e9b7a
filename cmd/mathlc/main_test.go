package main

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"github.com/gogpu/mathl"
	"github.com/gogpu/mathl/diag"
)

func TestParseAssignment(t *testing.T) {
	tests := []struct {
		in   string
		want assignment
		err  bool
	}{
		{"v=1,2,3", assignment{"v", "1,2,3"}, false},
		{" f = 0.5 ", assignment{"f", "0.5"}, false},
		{"b=true", assignment{"b", "true"}, false},
		{"v", assignment{}, true},
		{"=1", assignment{}, true},
		{"v=", assignment{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseAssignment(tt.in)
			if tt.err {
				be.Err(t, err, "want name=value")
				return
			}
			be.Err(t, err, nil)
			be.Equal(t, got, tt.want)
		})
	}
}

func TestAssignmentsFlag(t *testing.T) {
	var a assignments
	be.Err(t, a.Set("v=1,2"), nil)
	be.Err(t, a.Set("f=3"), nil)
	be.Err(t, a.Set("nope"), "want name=value")
	be.Equal(t, len(a), 2)
	be.Equal(t, a.String(), "v=1,2 f=3")
}

func TestRunUnit(t *testing.T) {
	unit, err := mathl.Compile("t.mathl", "vec2 v; float s;\nvoid main() { s = v.x + v.y; v.yx = v; }", mathl.DefaultOptions())
	be.Err(t, err, nil)

	var out strings.Builder
	err = runUnit(&out, unit, []assignment{{"v", "1, 2"}})
	be.Err(t, err, nil)
	be.Equal(t, out.String(), "v = vec2(2, 1)\ns = 3\n")

	err = runUnit(&out, unit, []assignment{{"w", "1"}})
	be.Err(t, err, "no global named w")
	err = runUnit(&out, unit, []assignment{{"v", "1, 2, 3"}})
	be.Err(t, err, "-set v")
}

func TestDescribe(t *testing.T) {
	_, err := mathl.Compile("t.mathl", "int i; float f;\nvoid main() { f = f + i; }", mathl.DefaultOptions())
	be.True(t, diag.Is(err, diag.MixedDomain))
	got := describe(err)
	be.True(t, strings.Contains(got, "t.mathl:2:"))
	be.True(t, strings.Contains(got, "^"))
}

func TestBalanced(t *testing.T) {
	be.True(t, balanced("vec3 v;"))
	be.True(t, !balanced("void f() {"))
	be.True(t, !balanced("x = max(1.0,"))
	be.True(t, balanced("void f() {\n}"))
	be.True(t, balanced("}"))
}

func TestSession(t *testing.T) {
	s := newSession(mathl.DefaultOptions())

	out, err := s.enter("vec3 a; vec3 b;")
	be.Err(t, err, nil)
	be.Equal(t, out, "(var \"a\" :vec3 (type \"vec3\"))\n(var \"b\" :vec3 (type \"vec3\"))\n")

	out, err = s.enter("a = a + b;")
	be.Err(t, err, nil)
	be.True(t, strings.Contains(out, "@add_vec3_vec3"))

	// A failing entry leaves the session unchanged.
	_, err = s.enter("a = a + 1;")
	be.True(t, diag.Is(err, diag.MixedDomain))
	be.Equal(t, s.stmts, []string{"a = a + b;"})

	out, err = s.enter("float twice(float x) {\n    return x * 2.0;\n}")
	be.Err(t, err, nil)
	be.True(t, strings.HasPrefix(out, "(func \"twice\""))

	out, err = s.enter("b.y = twice(3.0);")
	be.Err(t, err, nil)
	be.True(t, strings.Contains(out, "@twice"))

	out, quit := s.command(":run")
	be.True(t, !quit)
	be.Equal(t, out, "a = vec3(0, 0, 0)\nb = vec3(0, 6, 0)\n")

	out, _ = s.command(":source")
	be.True(t, strings.Contains(out, "void main() {\n    a = a + b;\n    b.y = twice(3.0);\n}"))

	_, _ = s.command(":reset")
	be.Equal(t, len(s.decls), 0)
	be.Equal(t, s.declNodes, 0)

	out, _ = s.command(":bogus")
	be.True(t, strings.HasPrefix(out, "unknown command"))
	_, quit = s.command(":quit")
	be.True(t, quit)
}
