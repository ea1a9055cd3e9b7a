// Command mathlc is the mathl compiler CLI.
//
// Usage:
//
//	mathlc [options] <input>
//
// Examples:
//
//	mathlc shader.mathl                      # Print the lowered AST
//	mathlc -o shader.ast shader.mathl        # Write the lowered AST to a file
//	mathlc -run -set v=1,2,3 shader.mathl    # Run main and print the globals
//	mathlc -repl                             # Interactive session
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/gogpu/mathl"
	"github.com/gogpu/mathl/ast"
	"github.com/gogpu/mathl/diag"
	"github.com/gogpu/mathl/eval"
	"github.com/gogpu/mathl/sema"
)

var (
	output    = flag.String("o", "", "output file (default: stdout)")
	run       = flag.Bool("run", false, "run main and print the globals instead of the AST")
	maxPasses = flag.Int("max-passes", mathl.DefaultOptions().MaxPasses, "cap on propagate/resolve passes")
	noPrelude = flag.Bool("no-prelude", false, "do not compile the prelude")
	repl      = flag.Bool("repl", false, "start an interactive session")
	version   = flag.Bool("version", false, "print version")
	sets      assignments
)

func init() {
	flag.Var(&sets, "set", "set a global before -run, as name=value (repeatable)")
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *version {
		fmt.Printf("mathlc version %s\n", mathl.Version)
		return
	}

	opts := mathl.DefaultOptions()
	opts.MaxPasses = *maxPasses
	opts.Prelude = !*noPrelude

	if *repl {
		os.Exit(runRepl(opts))
	}

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: no input file specified")
		usage()
		os.Exit(1)
	}

	inputPath := args[0]
	source, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	unit, err := mathl.Compile(inputPath, string(source), opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compilation error: %s\n", describe(err))
		os.Exit(1)
	}

	var out strings.Builder
	if *run {
		err = runUnit(&out, unit, sets)
	} else {
		err = ast.Fprint(&out, unit.Program)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *output != "" {
		if err := os.WriteFile(*output, []byte(out.String()), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Successfully compiled %s to %s\n", inputPath, *output)
		return
	}
	fmt.Print(out.String())
}

// describe formats err with a source excerpt when it carries a diagnostic.
func describe(err error) string {
	var de *diag.Error
	if errors.As(err, &de) {
		if ex := de.Excerpt(); ex != "" {
			return err.Error() + "\n" + ex
		}
	}
	return err.Error()
}

// runUnit applies the assignments, runs main and writes every global as
// "name = value".
func runUnit(w io.Writer, unit *sema.Unit, assigns []assignment) error {
	m, err := eval.New(unit, nil)
	if err != nil {
		return err
	}
	for _, a := range assigns {
		cur, ok := m.Get(a.name)
		if !ok {
			return pkgerrors.Errorf("-set %s: no global named %s", a.name, a.name)
		}
		v, err := eval.ParseValue(cur.Type, a.value)
		if err != nil {
			return pkgerrors.Wrapf(err, "-set %s", a.name)
		}
		if err := m.Set(a.name, v); err != nil {
			return err
		}
	}
	if err := m.Run(); err != nil {
		return pkgerrors.Wrap(err, "run")
	}
	for _, name := range m.Globals() {
		v, _ := m.Get(name)
		if _, err := fmt.Fprintf(w, "%s = %s\n", name, v); err != nil {
			return err
		}
	}
	return nil
}

// assignment is one -set flag.
type assignment struct {
	name  string
	value string
}

// parseAssignment splits "name=value". The value keeps its commas.
func parseAssignment(s string) (assignment, error) {
	name, value, ok := strings.Cut(s, "=")
	name, value = strings.TrimSpace(name), strings.TrimSpace(value)
	if !ok || name == "" || value == "" {
		return assignment{}, pkgerrors.Errorf("want name=value, got %q", s)
	}
	return assignment{name: name, value: value}, nil
}

// assignments collects repeated -set flags.
type assignments []assignment

func (a *assignments) String() string {
	parts := make([]string, len(*a))
	for i, x := range *a {
		parts[i] = x.name + "=" + x.value
	}
	return strings.Join(parts, " ")
}

func (a *assignments) Set(s string) error {
	x, err := parseAssignment(s)
	if err != nil {
		return err
	}
	*a = append(*a, x)
	return nil
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: mathlc [options] <input.mathl>\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  mathlc shader.mathl                    Print the lowered AST\n")
	fmt.Fprintf(os.Stderr, "  mathlc -o shader.ast shader.mathl      Write the lowered AST to a file\n")
	fmt.Fprintf(os.Stderr, "  mathlc -run -set v=1,2,3 shader.mathl  Run main and print the globals\n")
	fmt.Fprintf(os.Stderr, "  mathlc -repl                           Interactive session\n")
}
