package mathl

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"github.com/gogpu/mathl/ast"
	"github.com/gogpu/mathl/diag"
)

// TestCompile compiles a small program and checks the lowered operator.
func TestCompile(t *testing.T) {
	source := `
vec3 a; vec3 b; vec3 c;
void main() { c = a + b; }
`
	unit, err := Compile("add.mathl", source, DefaultOptions())
	be.Err(t, err, nil)

	body := unit.Function("main").Child(2)
	be.Equal(t, body.Child(0).Child(1).Key, "add_vec3_vec3")
	be.True(t, unit.Overloads != nil)
	be.True(t, unit.Types != nil)
	be.True(t, unit.Function("reflect") != nil)
}

func TestCompile_NoPrelude(t *testing.T) {
	opts := DefaultOptions()
	opts.Prelude = false
	_, err := Compile("p.mathl", "vec3 r;\nvoid main() { r = reflect(r, r); }", opts)
	be.True(t, diag.Is(err, diag.UnknownOverload))
}

// TestCompile_Errors checks that failures return a nil unit and keep the
// diagnostic reachable through the wrapping.
func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		kind   diag.Kind
		prefix string
	}{
		{"syntax", "void main() { float x = ; }", diag.SyntaxError, "parse bad.mathl: "},
		{"mixed domain", "int i; float f;\nvoid main() { f = i * f; }", diag.MixedDomain, "analyze bad.mathl: "},
		{"ambiguous", "float g() { return 1.0; }\nvec2 g() { return vec2(1.0); }\nvoid main() { g(); }",
			diag.AmbiguousOverload, "analyze bad.mathl: "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit, err := Compile("bad.mathl", tt.source, DefaultOptions())
			be.True(t, unit == nil)
			var de *diag.Error
			be.True(t, errors.As(err, &de))
			be.Equal(t, de.Kind, tt.kind)
			be.Equal(t, de.Filename, "bad.mathl")
			be.True(t, strings.HasPrefix(err.Error(), tt.prefix))
		})
	}
}

func TestParse(t *testing.T) {
	unit, err := Parse("p.mathl", "in vec3 n;\nvoid main() { vec3 m = n.zyx; }")
	be.Err(t, err, nil)
	be.Equal(t, unit.Filename, "p.mathl")
	_, ok := unit.Globals.Lookup("n")
	be.True(t, ok)

	// Nothing is typed before analysis.
	typed := 0
	ast.Inspect(unit.Program, func(n *ast.Node) bool {
		if n.Type != nil {
			typed++
		}
		return true
	})
	be.Equal(t, typed, 0)

	be.Err(t, Analyze(unit, DefaultOptions()), nil)
	be.Equal(t, unit.Function("main").Child(2).Child(0).Child(1).Key, "vec3_vec3_float_float_float")
}

func TestAnalyze_Logger(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	_, err := Compile("log.mathl", "vec2 v;\nvoid main() { v = v * 2.0; }", opts)
	be.Err(t, err, nil)
	be.True(t, strings.Contains(buf.String(), "file=log.mathl"))
	be.True(t, strings.Contains(buf.String(), "file=prelude.mathl"))
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	be.Equal(t, opts.MaxPasses, 16)
	be.True(t, opts.Prelude)
	be.True(t, opts.Logger == nil)
}
