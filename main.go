//go:generate go run ./cmd/astgen
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"golox/ast"
	"golox/interpret"
	"golox/parse"
	"golox/resolve"
	"golox/scan"
)

func main() {
	printAst := flag.Bool("printAst", false, "print the syntax tree instead of executing")
	flag.Parse()

	r := newRunner(os.Stdout, os.Stderr)
	r.printAst = *printAst

	switch flag.NArg() {
	case 0:
		r.runPrompt(os.Stdin)
	case 1:
		r.runFile(flag.Arg(0))
	default:
		_, _ = fmt.Fprintln(os.Stderr, "Usage: golox [script]")
		os.Exit(64)
	}
}

// runner drives a source string through the scan, parse, resolve, and
// interpret stages, accumulating the error flags the exit code needs
type runner struct {
	interpreter     *interpret.Interpreter
	stdOut          io.Writer
	stdErr          io.Writer
	printAst        bool
	hadError        bool
	hadRuntimeError bool
}

func newRunner(stdOut io.Writer, stdErr io.Writer) *runner {
	return &runner{
		interpreter: interpret.NewInterpreter(stdOut, stdErr),
		stdOut:      stdOut,
		stdErr:      stdErr,
	}
}

func (r *runner) runFile(path string) {
	source, err := os.ReadFile(path)
	if err != nil {
		_, _ = fmt.Fprintf(r.stdErr, "Could not read %s: %v\n", path, err)
		os.Exit(64)
	}

	r.run(string(source))
	if r.hadError {
		os.Exit(65)
	}
	if r.hadRuntimeError {
		os.Exit(70)
	}
}

func (r *runner) runPrompt(stdIn io.Reader) {
	input := bufio.NewScanner(stdIn)
	for {
		_, _ = fmt.Fprint(r.stdOut, "> ")
		if !input.Scan() {
			break
		}

		r.run(input.Text())
		r.hadError = false
		r.hadRuntimeError = false
	}
}

// run executes a source string. Compile errors from any stage suppress
// the stages after the parse and resolve checkpoints.
func (r *runner) run(source string) {
	scanner := scan.NewScanner(source, r.stdErr)
	tokens, scanErr := scanner.ScanTokens()

	parser := parse.NewParser(tokens, r.stdErr)
	statements, parseErr := parser.Parse()

	if scanErr || parseErr {
		r.hadError = true
		return
	}

	if r.printAst {
		r.printStatements(statements)
		return
	}

	resolver := resolve.NewResolver(r.interpreter, r.stdErr)
	if resolver.ResolveStmts(statements) {
		r.hadError = true
		return
	}

	if r.interpreter.Interpret(statements) {
		r.hadRuntimeError = true
	}
}

func (r *runner) printStatements(statements []ast.Stmt) {
	printer := ast.Printer{}
	for _, stmt := range statements {
		switch s := stmt.(type) {
		case *ast.ExpressionStmt:
			_, _ = fmt.Fprintln(r.stdOut, printer.Print(s.Expr))
		case *ast.PrintStmt:
			_, _ = fmt.Fprintln(r.stdOut, printer.Print(s.Expr))
		}
	}
}
