// Package casefile reads compiler test cases written as Markdown.
//
// A case starts at a heading "Test: name" and holds one mathl source fence
// followed by check fences:
//
//	ast    the expected s-expression of main's body
//	keys   the expected overload keys of all calls, one per line, pre-order
//	error  the expected diagnostic: "Kind" or "Kind:line", then optionally
//	       a line with a message fragment
//	run    "set name = value" and "expect name = value" lines; main runs
//	       between the sets and the expectations
//
// Code blocks without a language are commentary and may appear anywhere.
package casefile

import (
	"bytes"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Fence is the language tag of a code fence.
type Fence string

const (
	FenceSource Fence = "mathl"
	FenceAST    Fence = "ast"
	FenceKeys   Fence = "keys"
	FenceError  Fence = "error"
	FenceRun    Fence = "run"
)

// Check is one expectation of a case.
type Check struct {
	Fence   Fence
	Content string
	Line    int
}

// Case is one test case.
type Case struct {
	Name   string
	Line   int
	Source string
	Checks []Check
}

// Load reads and extracts the cases of a Markdown file.
func Load(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	cases, err := Extract(data)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return cases, nil
}

// Extract parses a Markdown document into cases.
func Extract(source []byte) ([]Case, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var cases []Case
	var cur *Case
	finish := func() error {
		if cur == nil {
			return nil
		}
		if err := validate(cur); err != nil {
			return err
		}
		cases = append(cases, *cur)
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.Heading:
			heading := headingText(n, source)
			name, ok := strings.CutPrefix(heading, "Test: ")
			if !ok {
				return ast.WalkContinue, nil
			}
			if err := finish(); err != nil {
				return ast.WalkStop, err
			}
			cur = &Case{Name: strings.TrimSpace(name), Line: lineOf(n, source)}

		case *ast.FencedCodeBlock:
			lang := Fence(n.Language(source))
			line := lineOf(n, source)
			if lang == "" {
				return ast.WalkContinue, nil
			}
			if !known(lang) {
				return ast.WalkStop, errors.Errorf("line %d: unknown fence language %q", line, lang)
			}
			if cur == nil {
				return ast.WalkStop, errors.Errorf("line %d: %s fence outside of a test case", line, lang)
			}
			content := strings.TrimRight(fenceContent(n, source), "\n")
			if lang == FenceSource {
				if cur.Source != "" {
					return ast.WalkStop, errors.Errorf("line %d: second mathl fence in test %q", line, cur.Name)
				}
				cur.Source = content
				return ast.WalkContinue, nil
			}
			cur.Checks = append(cur.Checks, Check{Fence: lang, Content: content, Line: line})
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	if err := finish(); err != nil {
		return nil, err
	}
	return cases, nil
}

func known(f Fence) bool {
	switch f {
	case FenceSource, FenceAST, FenceKeys, FenceError, FenceRun:
		return true
	}
	return false
}

func validate(c *Case) error {
	if c.Source == "" {
		return errors.Errorf("line %d: test %q has no mathl fence", c.Line, c.Name)
	}
	if len(c.Checks) == 0 {
		return errors.Errorf("line %d: test %q has no checks", c.Line, c.Name)
	}
	return nil
}

func headingText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := c.(*ast.Text); ok && entering {
			buf.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func fenceContent(n *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

// lineOf returns the 1-based line of n's first content line.
func lineOf(n ast.Node, source []byte) int {
	if n.Lines().Len() == 0 {
		return 0
	}
	return bytes.Count(source[:n.Lines().At(0).Start], []byte("\n")) + 1
}

// ExpectedError is the parsed content of an error fence.
type ExpectedError struct {
	Kind    string
	Line    int // 0 when not given
	Message string
}

// ParseError parses an error fence.
func ParseError(content string) (ExpectedError, error) {
	first, rest, _ := strings.Cut(strings.TrimSpace(content), "\n")
	var e ExpectedError
	kind, line, hasLine := strings.Cut(strings.TrimSpace(first), ":")
	e.Kind = strings.TrimSpace(kind)
	if hasLine {
		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			return e, errors.Wrapf(err, "error fence line number %q", line)
		}
		e.Line = n
	}
	e.Message = strings.TrimSpace(rest)
	if e.Kind == "" {
		return e, errors.New("empty error fence")
	}
	return e, nil
}

// Step is one line of a run fence.
type Step struct {
	Expect bool // false for "set"
	Name   string
	Value  string
}

// ParseRun parses a run fence. Blank lines and lines starting with "#"
// are ignored.
func ParseRun(content string) ([]Step, error) {
	var steps []Step
	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		verb, rest, _ := strings.Cut(line, " ")
		name, value, ok := strings.Cut(rest, "=")
		if !ok || (verb != "set" && verb != "expect") {
			return nil, errors.Errorf("run line %d: want \"set|expect name = value\", got %q", i+1, line)
		}
		steps = append(steps, Step{
			Expect: verb == "expect",
			Name:   strings.TrimSpace(name),
			Value:  strings.TrimSpace(value),
		})
	}
	return steps, nil
}

// NormalizeSExpr rewrites an s-expression with canonical spacing: tokens
// separated by single spaces, none after "(" or before ")". Quoted strings
// are kept verbatim.
func NormalizeSExpr(s string) string {
	var out strings.Builder
	prev := ""
	for _, tok := range sexprTokens(s) {
		if prev != "" && prev != "(" && tok != ")" {
			out.WriteByte(' ')
		}
		out.WriteString(tok)
		prev = tok
	}
	return out.String()
}

func sexprTokens(s string) []string {
	var toks []string
	for i := 0; i < len(s); {
		switch c := s[i]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(' || c == ')':
			toks = append(toks, s[i:i+1])
			i++
		case c == '"':
			j := i + 1
			for j < len(s) && s[j] != '"' {
				if s[j] == '\\' {
					j++
				}
				j++
			}
			j = min(j+1, len(s))
			toks = append(toks, s[i:j])
			i = j
		default:
			j := i
			for j < len(s) && !strings.ContainsRune(" \t\r\n()\"", rune(s[j])) {
				j++
			}
			toks = append(toks, s[i:j])
			i = j
		}
	}
	return toks
}
