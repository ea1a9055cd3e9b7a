package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/gogpu/mathl"
	"github.com/gogpu/mathl/ast"
	"github.com/gogpu/mathl/sema"
	"github.com/gogpu/mathl/syntax"
)

const (
	historyFile = ".mathlc_history"
	promptMain  = "mathl> "
	promptCont  = "...... "
	replName    = "<repl>"
)

const replHelp = `Enter global declarations, functions or statements of main.
Each entry is compiled with everything before it and its lowered AST
is printed. Commands:
  :run     run main and print the globals
  :source  print the accumulated program
  :reset   forget all entries
  :quit    exit`

func runRepl(opts mathl.Options) int {
	fmt.Printf("mathl %s. Type :help for help.\n", mathl.Version)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	s := newSession(opts)
	for {
		code, ok := readEntry(ln)
		if !ok {
			fmt.Println()
			return 0
		}
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if strings.HasPrefix(code, ":") {
			out, quit := s.command(code)
			if quit {
				return 0
			}
			fmt.Print(out)
			continue
		}
		out, err := s.enter(code)
		if err != nil {
			fmt.Fprintln(os.Stderr, describe(err))
			continue
		}
		fmt.Print(out)
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}
}

// readEntry reads lines until braces and parentheses balance. Ctrl-C
// drops the pending entry.
func readEntry(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if balanced(b.String()) {
			return b.String(), true
		}
	}
}

// balanced reports whether every opened brace and parenthesis of src is
// closed. Stray closers count as balanced so the parser reports them.
func balanced(src string) bool {
	depth := 0
	for _, r := range src {
		switch r {
		case '{', '(':
			depth++
		case '}', ')':
			depth--
		}
	}
	return depth <= 0
}

// session accumulates REPL entries into a program: declarations at file
// scope and statements in the body of main.
type session struct {
	opts  mathl.Options
	decls []string
	stmts []string

	// Lowered nodes already printed.
	declNodes int
	stmtNodes int
}

func newSession(opts mathl.Options) *session {
	return &session{opts: opts}
}

func (s *session) source(decls, stmts []string) string {
	var b strings.Builder
	for _, d := range decls {
		b.WriteString(d)
		b.WriteByte('\n')
	}
	b.WriteString("void main() {\n")
	for _, st := range stmts {
		b.WriteString("    ")
		b.WriteString(st)
		b.WriteByte('\n')
	}
	b.WriteString("}\n")
	return b.String()
}

// isDeclaration reports whether code parses as file-scope declarations.
func (s *session) isDeclaration(code string) bool {
	src := strings.Join(append(append([]string(nil), s.decls...), code), "\n")
	_, _, err := syntax.Parse(replName, src)
	return err == nil
}

// enter compiles code together with the previous entries and returns the
// lowered AST of the new nodes. A failing entry is discarded.
func (s *session) enter(code string) (string, error) {
	decls, stmts := s.decls, s.stmts
	if s.isDeclaration(code) {
		decls = append(append([]string(nil), decls...), code)
	} else {
		stmts = append(append([]string(nil), stmts...), code)
	}

	unit, err := mathl.Compile(replName, s.source(decls, stmts), s.opts)
	if err != nil {
		return "", err
	}
	s.decls, s.stmts = decls, stmts

	var b strings.Builder
	top := unit.Program.Children()
	last := len(top) - 1 // main
	for _, n := range top[s.declNodes:last] {
		if err := ast.Fprint(&b, n); err != nil {
			return "", err
		}
	}
	body := top[last].Child(2).Children()
	for _, n := range body[s.stmtNodes:] {
		if err := ast.Fprint(&b, n); err != nil {
			return "", err
		}
	}
	s.declNodes, s.stmtNodes = last, len(body)
	return b.String(), nil
}

func (s *session) compile() (*sema.Unit, error) {
	return mathl.Compile(replName, s.source(s.decls, s.stmts), s.opts)
}

// command runs a ":" command. It reports true for :quit.
func (s *session) command(line string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case ":quit", ":q":
		return "", true
	case ":help":
		return replHelp + "\n", false
	case ":source":
		return s.source(s.decls, s.stmts), false
	case ":reset":
		*s = session{opts: s.opts}
		return "", false
	case ":run":
		unit, err := s.compile()
		if err != nil {
			return describe(err) + "\n", false
		}
		var b strings.Builder
		if err := runUnit(&b, unit, nil); err != nil {
			return err.Error() + "\n", false
		}
		return b.String(), false
	}
	return "unknown command. Type :help for help.\n", false
}
