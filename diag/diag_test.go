package diag

import (
	"fmt"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "with position",
			err:      &Error{Kind: UnknownType, Message: "unknown type vec5", Filename: "a.mathl", Line: 3, Column: 4},
			expected: "a.mathl:3: unknown type vec5",
		},
		{
			name:     "without filename",
			err:      &Error{Kind: UnknownType, Message: "oops", Line: 7},
			expected: "<input>:7: oops",
		},
		{
			name:     "without position",
			err:      &Error{Kind: UnknownType, Message: "generic error"},
			expected: "generic error",
		},
		{
			name:     "filename only",
			err:      &Error{Kind: UnknownType, Message: "generic error", Filename: "x.mathl"},
			expected: "x.mathl: generic error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be.Equal(t, tt.err.Error(), tt.expected)
		})
	}
}

func TestError_Excerpt(t *testing.T) {
	source := "vec3 a;\nvoid main() {\n    a = b + 1.0;\n}"
	err := &Error{Kind: UnresolvedIdentifier, Message: "unresolved identifier: b", Line: 3, Column: 9, Source: source}

	got := err.Excerpt()
	lines := strings.Split(got, "\n")
	be.Equal(t, len(lines), 2)
	be.Equal(t, lines[0], "    a = b + 1.0;")
	be.Equal(t, lines[1], "        ^")
}

func TestError_ExcerptLongLine(t *testing.T) {
	line := strings.Repeat("a", 100) + "X" + strings.Repeat("b", 100)
	err := &Error{Message: "here", Line: 1, Column: 101, Source: line}

	lines := strings.Split(err.Excerpt(), "\n")
	be.Equal(t, len(lines), 2)
	be.True(t, strings.HasPrefix(lines[0], "..."))
	be.True(t, strings.HasSuffix(lines[0], "..."))
	caret := strings.Index(lines[1], "^")
	be.Equal(t, lines[0][caret], byte('X'))
}

func TestError_ExcerptNoSource(t *testing.T) {
	err := &Error{Message: "x", Line: 2}
	be.Equal(t, err.Excerpt(), "")
	be.Equal(t, err.FormatWithContext(), err.Error())
}

func TestError_At(t *testing.T) {
	base := Errorf(UnknownType, "unknown type %s", "foo")
	placed := base.At("f.mathl", "src", 2, 5)
	be.Equal(t, placed.Line, 2)
	be.Equal(t, placed.Column, 5)
	be.Equal(t, placed.Filename, "f.mathl")
	be.Equal(t, base.Line, 0)

	again := placed.At("g.mathl", "other", 9, 9)
	be.Equal(t, again.Line, 2)
	be.Equal(t, again.Filename, "f.mathl")
}

func TestKindOf(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", New(AmbiguousOverload, "ambiguous"))
	be.Equal(t, KindOf(err), AmbiguousOverload)
	be.True(t, Is(err, AmbiguousOverload))
	be.True(t, !Is(err, UnknownOverload))
	be.True(t, !Is(nil, UnknownOverload))
	be.Equal(t, KindOf(fmt.Errorf("plain")), Kind(0))
}

func TestKind_String(t *testing.T) {
	be.Equal(t, MixedDomain.String(), "MixedDomainError")
	be.Equal(t, Kind(200).String(), "Kind(200)")

	k, ok := ParseKind("AmbiguousOverload")
	be.True(t, ok)
	be.Equal(t, k, AmbiguousOverload)
	_, ok = ParseKind("Nope")
	be.True(t, !ok)
}
