// Package diag defines the diagnostics produced while compiling mathl.
//
// Every error raised by the compiler is fatal: the first one aborts
// compilation. Errors carry a Kind so callers can tell user mistakes
// (an unknown identifier, an ambiguous call) from internal defects
// (a propagation inconsistency).
package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a diagnostic.
type Kind uint8

const (
	UnresolvedIdentifier Kind = iota + 1
	UnknownType
	UnknownOverload
	AmbiguousOverload
	MixedDomain
	PropagationInconsistency
	TypeMismatch
	SyntaxError
	Redefinition
)

var kindNames = [...]string{
	UnresolvedIdentifier:     "UnresolvedIdentifier",
	UnknownType:              "UnknownType",
	UnknownOverload:          "UnknownOverload",
	AmbiguousOverload:        "AmbiguousOverload",
	MixedDomain:              "MixedDomainError",
	PropagationInconsistency: "PropagationInconsistency",
	TypeMismatch:             "TypeMismatch",
	SyntaxError:              "SyntaxError",
	Redefinition:             "Redefinition",
}

// String returns the name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind looks a kind up by its String name.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n != "" && n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

// Error is a positioned compiler diagnostic.
type Error struct {
	Kind     Kind
	Message  string
	Filename string
	Line     int
	Column   int
	Source   string // full source text, for Excerpt

	// Candidates lists the tied overload keys of an AmbiguousOverload.
	Candidates []string
}

// Error implements the error interface as "filename:line: message".
func (e *Error) Error() string {
	if e.Line == 0 {
		if e.Filename == "" {
			return e.Message
		}
		return fmt.Sprintf("%s: %s", e.Filename, e.Message)
	}
	name := e.Filename
	if name == "" {
		name = "<input>"
	}
	return fmt.Sprintf("%s:%d: %s", name, e.Line, e.Message)
}

// excerptWidth is the number of source columns shown on each side of the
// error column.
const excerptWidth = 30

// Excerpt returns a short piece of the offending source line centered on
// the error column, followed by a caret line. It returns "" when no source
// is attached.
func (e *Error) Excerpt() string {
	if e.Source == "" || e.Line < 1 {
		return ""
	}
	lines := strings.Split(e.Source, "\n")
	if e.Line > len(lines) {
		return ""
	}
	line := strings.TrimRight(lines[e.Line-1], "\r")

	col := e.Column
	if col < 1 {
		col = 1
	}
	if col > len(line)+1 {
		col = len(line) + 1
	}

	start := col - 1 - excerptWidth
	prefix := ""
	if start > 0 {
		prefix = "..."
	} else {
		start = 0
	}
	end := col - 1 + excerptWidth
	suffix := ""
	if end < len(line) {
		suffix = "..."
	} else {
		end = len(line)
	}

	var sb strings.Builder
	sb.WriteString(prefix)
	sb.WriteString(line[start:end])
	sb.WriteString(suffix)
	sb.WriteByte('\n')
	sb.WriteString(strings.Repeat(" ", len(prefix)+col-1-start))
	sb.WriteByte('^')
	return sb.String()
}

// FormatWithContext returns the error message followed by its excerpt.
func (e *Error) FormatWithContext() string {
	ex := e.Excerpt()
	if ex == "" {
		return e.Error()
	}
	return e.Error() + "\n" + ex
}

// New creates an unpositioned error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf creates an unpositioned error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// At returns a copy of e positioned at line:column of filename/source. A
// position already present on e is kept.
func (e *Error) At(filename, source string, line, column int) *Error {
	out := *e
	if out.Line == 0 {
		out.Line = line
		out.Column = column
	}
	if out.Filename == "" {
		out.Filename = filename
	}
	if out.Source == "" {
		out.Source = source
	}
	return &out
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

// Is reports whether err carries a diagnostic of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
