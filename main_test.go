package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func runSource(t *testing.T, source string) (stdOut, stdErr string, hadError, hadRuntimeError bool) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	r := newRunner(out, errOut)
	r.run(source)
	return out.String(), errOut.String(), r.hadError, r.hadRuntimeError
}

func Test_Run(t *testing.T) {
	tests := []struct {
		name   string
		source string
		stdOut string
	}{
		// atoms
		{"string", `print "hello world";`, "hello world\n"},
		{"number", "print 342.32461932591235;", "342.32461932591235\n"},
		{"integral number", "print 5.0;", "5\n"},
		{"nil", "print nil;", "nil\n"},
		{"booleans", "print true; print false;", "true\nfalse\n"},

		// comments
		{"single-line comment after source", "print 1 + 1; // hello", "2\n"},
		{"single-line comment", "// hello\nprint 1 + 1;", "2\n"},

		// unary and binary operations
		{"arithmetic operations", "print -1 + 2 * 3 - 4 / 5;", "4.2\n"},
		{"string concatenation", `print "hello" + " " + "world";`, "hello world\n"},
		{"comparisons", "print 1 < 2; print 2 <= 2; print 3 > 4; print 4 >= 4;", "true\ntrue\nfalse\ntrue\n"},
		{"equality", "print 1 == 1; print 1 == 2; print 1 != 2;", "true\nfalse\ntrue\n"},
		{"nil equals only nil", "print nil == nil; print nil == false; print nil == 0;", "true\nfalse\nfalse\n"},
		{"no cross-type equality", `print 0 == ""; print "1" == 1;`, "false\nfalse\n"},
		{"negation of truthiness", `print !nil; print !0; print !"";`, "true\nfalse\nfalse\n"},
		{"division by zero is infinity", "print 1 / 0 > 100000; print -1 / 0 < 0;", "true\ntrue\n"},

		// logical operators return the deciding operand's value
		{"or returns left when truthy", `print "hi" or 2;`, "hi\n"},
		{"or returns right when left falsy", "print nil or 2;", "2\n"},
		{"and returns left when falsy", "print nil and 2;", "nil\n"},
		{"and returns right when left truthy", `print "" and 34;`, "34\n"},

		// variables
		{"variable declaration", "var a = 10; print a * 2;", "20\n"},
		{"variable without initializer is nil", "var a; print a;", "nil\n"},
		{"assignment returns the assigned value", "var a; print a = 3;", "3\n"},
		{"variable re-assignment", "var a = 10; print a; a = 20; print a * 2;", "10\n40\n"},

		// block scoping
		{"block scoping", `var a = "global a";
var b = "global b";
{
    var a = "outer a";
    {
        var a = "inner a";
        print a;
        print b;
    }
    print a;
}
print a;`, "inner a\nglobal b\nouter a\nglobal a\n"},

		// conditionals
		{"if else", `if (true) { if (false) { print "hello"; } else { print "world"; } }`, "world\n"},

		// loops
		{"while loop", `var a = 0;
var temp;
var b = 1;
while (a < 10) {
    print a;
    temp = a;
    a = b;
    b = temp + b;
}`, "0\n1\n1\n2\n3\n5\n8\n"},
		{"for loop", `for (var i = 0; i < 3; i = i + 1) print i;`, "0\n1\n2\n"},

		// functions
		{"function call", `fun sayHi(first, last) {
    print "Hello, " + first + " " + last;
}
sayHi("Dear", "Reader");`, "Hello, Dear Reader\n"},
		{"return value", `fun add(a, b) { return a + b; }
print add(1, 2);`, "3\n"},
		{"implicit return is nil", `fun noop() {}
print noop();`, "nil\n"},
		{"function prints as fn", "fun f() {}\nprint f;", "<fn f>\n"},
		{"native function prints", "print clock;", "<native fn>\n"},
		{"counter closure", `fun makeCounter() {
    var i = 0;
    fun count() {
        i = i + 1;
        print i;
    }
    return count;
}
var counter = makeCounter();
counter();
counter();`, "1\n2\n"},
		{"evaluation order is left to right", `fun say(n) { print n; return n; }
say(1) + say(2) * say(3);`, "1\n2\n3\n"},

		// classes
		{"class prints as its name", "class Foo {}\nprint Foo;", "Foo\n"},
		{"instance prints with class name", "class Foo {}\nprint Foo();", "Foo instance\n"},
		{"fields", `class Bag {}
var bag = Bag();
bag.item = "apple";
print bag.item;`, "apple\n"},
		{"methods access fields through this", `class Person {
    greet() { print "I am " + this.name; }
}
var p = Person();
p.name = "Ada";
p.greet();`, "I am Ada\n"},
		{"initializer runs on construction", `class Point {
    init(x, y) {
        this.x = x;
        this.y = y;
    }
}
var p = Point(3, 4);
print p.x + p.y;`, "7\n"},
		{"initializer called again returns the instance", `class Foo {
    init() { this.n = 1; }
}
var foo = Foo();
print foo.init();`, "Foo instance\n"},
		{"inherited methods", `class Animal {
    speak() { print "..."; }
}
class Dog < Animal {}
Dog().speak();`, "...\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdOut, stdErr, hadError, hadRuntimeError := runSource(t, tt.source)
			if hadError || hadRuntimeError {
				t.Fatalf("unexpected error: %s", stdErr)
			}
			if stdOut != tt.stdOut {
				t.Errorf("stdout: got %q, want %q", stdOut, tt.stdOut)
			}
		})
	}
}

func Test_RuntimeErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		stdErr string
	}{
		{"unary operand", `-"muffin";`, "Operand must be a number.\n[line 1]\n"},
		{"binary operands", `1 - "a";`, "Operands must be numbers.\n[line 1]\n"},
		{"no implicit string coercion", `"a" + 1;`, "Operands must be two numbers or two strings.\n[line 1]\n"},
		{"undefined variable", "print x;", "Undefined variable 'x'.\n[line 1]\n"},
		{"assign to undefined variable", "x = 1;", "Undefined variable 'x'.\n[line 1]\n"},
		{"calling a non-callable", `"totally not a function"();`, "Can only call functions and classes.\n[line 1]\n"},
		{"arity mismatch", "fun f(a, b) {}\nf(1);", "Expected 2 arguments but got 1.\n[line 2]\n"},
		{"property on non-instance", "true.x;", "Only instances have properties.\n[line 1]\n"},
		{"field on non-instance", "true.x = 1;", "Only instances have fields.\n[line 1]\n"},
		{"undefined property", "class A {}\nA().b;", "Undefined property 'b'.\n[line 2]\n"},
		{"superclass must be a class", `var NotAClass = "so not a class";
class Subclass < NotAClass {}`, "Superclass must be a class.\n[line 2]\n"},
		{"stack overflow", "fun f() { f(); }\nf();", "Stack overflow.\n[line 1]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdOut, stdErr, hadError, hadRuntimeError := runSource(t, tt.source)
			if hadError {
				t.Fatalf("unexpected compile error: %s", stdErr)
			}
			if !hadRuntimeError {
				t.Fatal("expected a runtime error")
			}
			if stdErr != tt.stdErr {
				t.Errorf("stderr: got %q, want %q", stdErr, tt.stdErr)
			}
			if stdOut != "" {
				t.Errorf("stdout: got %q, want empty", stdOut)
			}
		})
	}
}

func Test_RuntimeErrorAbortsStatement(t *testing.T) {
	// the failing statement aborts; no further statements run
	stdOut, _, _, hadRuntimeError := runSource(t, "print 1;\nprint x;\nprint 2;")
	if !hadRuntimeError {
		t.Fatal("expected a runtime error")
	}
	if stdOut != "1\n" {
		t.Errorf("stdout: got %q, want %q", stdOut, "1\n")
	}
}

func Test_CompileErrorSuppressesExecution(t *testing.T) {
	stdOut, stdErr, hadError, _ := runSource(t, "print 1;\nprint ;")
	if !hadError {
		t.Fatal("expected a compile error")
	}
	if stdOut != "" {
		t.Errorf("stdout: got %q, want empty (no execution)", stdOut)
	}
	if !strings.Contains(stdErr, "Expect expression.") {
		t.Errorf("stderr: got %q", stdErr)
	}
}

func Test_EnvironmentRestoredAfterRuntimeError(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	r := newRunner(out, errOut)

	r.run("var a = 1;")
	r.run("{ var a = 2; nope(); }")
	if !r.hadRuntimeError {
		t.Fatal("expected a runtime error")
	}
	r.hadRuntimeError = false

	// the failed block's environment was popped on unwind: a new
	// top-level variable lands in the globals and reads back from there
	r.run("var b = a;\nprint b;")
	if r.hadError || r.hadRuntimeError {
		t.Fatalf("unexpected error: %s", errOut)
	}
	if got := out.String(); got != "1\n" {
		t.Errorf("stdout: got %q, want %q", got, "1\n")
	}
}

func Test_CallDepthRestoredAfterRuntimeError(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	r := newRunner(out, errOut)

	// drive the call depth up and fail deep in the stack, repeatedly;
	// a leaked counter would eventually trip the overflow limit
	for i := 0; i < 200; i++ {
		r.run("fun f(n) { if (n > 0) { f(n - 1); } nope(); }\nf(50);")
		if !r.hadRuntimeError {
			t.Fatal("expected a runtime error")
		}
		r.hadRuntimeError = false
	}

	errOut.Reset()
	r.run("fun ok(n) { if (n > 0) { ok(n - 1); } }\nok(50);")
	if r.hadRuntimeError {
		t.Fatalf("call depth leaked across errors: %s", errOut)
	}
}

func Test_Repl(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	r := newRunner(out, errOut)
	r.runPrompt(strings.NewReader("print 1;\nprint nope;\nprint 2;\n"))

	if got := out.String(); got != "> 1\n> > 2\n> " {
		t.Errorf("stdout: got %q", got)
	}
	if !strings.Contains(errOut.String(), "Undefined variable 'nope'.") {
		t.Errorf("stderr: got %q", errOut)
	}
	// flags are cleared between lines, so a REPL session that ends on
	// a good line reports no error
	if r.hadError || r.hadRuntimeError {
		t.Error("flags not cleared between lines")
	}
}

func Test_ReplKeepsGlobals(t *testing.T) {
	out := &bytes.Buffer{}
	r := newRunner(out, &bytes.Buffer{})
	r.runPrompt(strings.NewReader("var a = 40;\nprint a + 2;\n"))

	if got := out.String(); got != "> > 42\n> " {
		t.Errorf("stdout: got %q", got)
	}
}

func Test_PrintAst(t *testing.T) {
	out := &bytes.Buffer{}
	r := newRunner(out, &bytes.Buffer{})
	r.printAst = true
	r.run("print 1 + 2 * 3;\n4 < 5;")

	if got := out.String(); got != "(+ 1 (* 2 3))\n(< 4 5)\n" {
		t.Errorf("stdout: got %q", got)
	}
}

// scriptCase is one fixture in testdata/scripts.yaml
type scriptCase struct {
	Name         string `yaml:"name"`
	Source       string `yaml:"source"`
	Stdout       string `yaml:"stdout"`
	Stderr       string `yaml:"stderr"`
	CompileError bool   `yaml:"compileError"`
	RuntimeError bool   `yaml:"runtimeError"`
}

func Test_Scripts(t *testing.T) {
	file, err := os.Open("testdata/scripts.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	var cases []scriptCase
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cases); err != nil {
		t.Fatal(err)
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			stdOut, stdErr, hadError, hadRuntimeError := runSource(t, tc.Source)
			if hadError != tc.CompileError {
				t.Errorf("compile error: got %t, want %t (stderr: %s)", hadError, tc.CompileError, stdErr)
			}
			if hadRuntimeError != tc.RuntimeError {
				t.Errorf("runtime error: got %t, want %t (stderr: %s)", hadRuntimeError, tc.RuntimeError, stdErr)
			}
			if stdOut != tc.Stdout {
				t.Errorf("stdout: got %q, want %q", stdOut, tc.Stdout)
			}
			if tc.Stderr != "" && stdErr != tc.Stderr {
				t.Errorf("stderr: got %q, want %q", stdErr, tc.Stderr)
			}
		})
	}
}
