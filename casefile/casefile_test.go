package casefile

import (
	"testing"

	"github.com/nalgeon/be"
)

const sample = "# Operators\n" +
	"\n" +
	"Some prose.\n" +
	"\n" +
	"## Test: vector add\n" +
	"\n" +
	"```mathl\n" +
	"vec3 a; vec3 b; vec3 c;\n" +
	"void main() { c = a + b; }\n" +
	"```\n" +
	"\n" +
	"```keys\n" +
	"add_vec3_vec3\n" +
	"```\n" +
	"\n" +
	"```\n" +
	"plain commentary block\n" +
	"```\n" +
	"\n" +
	"## Test: mixed\n" +
	"\n" +
	"```mathl\n" +
	"int i; float f;\n" +
	"void main() { f = i + f; }\n" +
	"```\n" +
	"\n" +
	"```error\n" +
	"MixedDomainError:2\n" +
	"```\n"

func TestExtract(t *testing.T) {
	cases, err := Extract([]byte(sample))
	be.Err(t, err, nil)
	be.Equal(t, len(cases), 2)

	add := cases[0]
	be.Equal(t, add.Name, "vector add")
	be.Equal(t, add.Line, 5)
	be.Equal(t, add.Source, "vec3 a; vec3 b; vec3 c;\nvoid main() { c = a + b; }")
	be.Equal(t, add.Checks, []Check{{Fence: FenceKeys, Content: "add_vec3_vec3", Line: 13}})

	mixed := cases[1]
	be.Equal(t, mixed.Name, "mixed")
	be.Equal(t, len(mixed.Checks), 1)
	be.Equal(t, mixed.Checks[0].Fence, FenceError)
	be.Equal(t, mixed.Checks[0].Content, "MixedDomainError:2")
}

func TestExtract_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "unknown fence",
			doc:  "## Test: a\n\n```mathl\nx\n```\n\n```yaml\nk: v\n```\n",
			want: "unknown fence language",
		},
		{
			name: "outside case",
			doc:  "# Intro\n\n```mathl\nx\n```\n",
			want: "outside of a test case",
		},
		{
			name: "second source",
			doc:  "## Test: a\n\n```mathl\nx\n```\n\n```mathl\ny\n```\n",
			want: "second mathl fence",
		},
		{
			name: "no source",
			doc:  "## Test: a\n\n```keys\nf\n```\n",
			want: "has no mathl fence",
		},
		{
			name: "no checks",
			doc:  "## Test: a\n\n```mathl\nx\n```\n\n## Test: b\n",
			want: `test "a" has no checks`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract([]byte(tt.doc))
			be.Err(t, err, tt.want)
		})
	}
}

func TestParseError(t *testing.T) {
	tests := []struct {
		content string
		want    ExpectedError
	}{
		{"AmbiguousOverload", ExpectedError{Kind: "AmbiguousOverload"}},
		{"MixedDomainError:3", ExpectedError{Kind: "MixedDomainError", Line: 3}},
		{"UnknownOverload : 2\ncannot resolve call", ExpectedError{
			Kind: "UnknownOverload", Line: 2, Message: "cannot resolve call",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			got, err := ParseError(tt.content)
			be.Err(t, err, nil)
			be.Equal(t, got, tt.want)
		})
	}

	_, err := ParseError("TypeMismatch:x")
	be.Err(t, err, "line number")
	_, err = ParseError("  ")
	be.Err(t, err, "empty error fence")
}

func TestParseRun(t *testing.T) {
	steps, err := ParseRun("# inputs\nset v = 1, 2, 3, 4\n\nexpect v= 9, 9, 3, 4\n")
	be.Err(t, err, nil)
	be.Equal(t, steps, []Step{
		{Name: "v", Value: "1, 2, 3, 4"},
		{Expect: true, Name: "v", Value: "9, 9, 3, 4"},
	})

	_, err = ParseRun("let v = 1")
	be.Err(t, err, "run line 1")
	_, err = ParseRun("set v")
	be.Err(t, err, "run line 1")
}

func TestNormalizeSExpr(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"(a b)", "(a b)"},
		{"( a\n   b )", "(a b)"},
		{"(Block\n  (Assign \"=\"\n    (Ident \"c\" :vec3)))", `(Block (Assign "=" (Ident "c" :vec3)))`},
		{`(Lit "a  b")`, `(Lit "a  b")`},
		{`(Lit "q\"  x")`, `(Lit "q\"  x")`},
		{"((a)(b))", "((a) (b))"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			be.Equal(t, NormalizeSExpr(tt.in), tt.want)
		})
	}
}
