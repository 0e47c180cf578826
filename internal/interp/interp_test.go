package interp_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/kr/pretty"

	"github.com/boo-lang/boo/internal/diagnostics"
	"github.com/boo-lang/boo/internal/interp"
	"github.com/boo-lang/boo/internal/parser"
	"github.com/boo-lang/boo/internal/runtime"
	"github.com/boo-lang/boo/internal/testutil"
)

type runTest struct {
	name     string
	input    string
	expected []string
}

func TestArithmetic(t *testing.T) {
	tests := []runTest{
		{"right associative power", "print(2 ** 3 ** 2)", []string{"512"}},
		{"unary minus binds looser than power", "print(-2 ** 4)", []string{"-16"}},
		{"parenthesized negative base", "print((-2) ** 4)", []string{"16"}},
		{"negative exponent", "print(2 ** -1)", []string{"0.5"}},
		{"division then addition", "print(10 / 2 + 3)", []string{"8"}},
		{"grouping", "print(10 / (2 + 3))", []string{"2"}},
		{"real division", "print(5 / 2)", []string{"2.5"}},
		{"modulo", "print(10 % 3)", []string{"1"}},
		{"modulo keeps dividend sign", "print(-7 % 3)", []string{"-1"}},
		{"fractional modulo", "print(5.5 % 2)", []string{"1.5"}},
		{"left associative subtraction", "print(10 - 2 - 3)", []string{"5"}},
		{"double negation", "print(- -3)", []string{"3"}},
		{"shortest round trip", "print(0.1 + 0.2)", []string{"0.30000000000000004"}},
	}
	runAll(t, tests)
}

func TestComparisonAndEquality(t *testing.T) {
	tests := []runTest{
		{"less", "print(1 < 2)", []string{"true"}},
		{"greater equal", "print(2 >= 3)", []string{"false"}},
		{"string equality", `print("a" == "a")`, []string{"true"}},
		{"bool inequality", "print(true != false)", []string{"true"}},
		{"equality of comparisons", "print(1 < 2 == 3 > 2)", []string{"true"}},
	}
	runAll(t, tests)
}

func TestConcat(t *testing.T) {
	tests := []runTest{
		{"string and number", `print("Result: " >< 55)`, []string{"Result: 55"}},
		{"number and bool", `print(1.5 >< true)`, []string{"1.5true"}},
		{"left to right", `print("a" >< 1 >< "b")`, []string{"a1b"}},
		{"integral result", `print("x" >< 10 / 2)`, []string{"x5"}},
	}
	runAll(t, tests)
}

func TestCompoundAssignment(t *testing.T) {
	tests := []runTest{
		{
			"arithmetic chain",
			`num x = 10
x += 10
print(x)
x -= 5
print(x)
x *= 2
print(x)
x /= 10
print(x)
print(x == 3)`,
			[]string{"20", "15", "30", "3", "true"},
		},
		{
			"power and modulo",
			`num y = 100
y **= 2
print(y)
y %= 15
print(y)`,
			[]string{"10000", "10"},
		},
		{
			"assignment is an expression",
			`num a = 1
num b = 2
a = b = 7
print(a >< " " >< b)
print(a += 1)`,
			[]string{"7 7", "8"},
		},
		{
			"string reassignment",
			`str s = "a"
s = s >< "b"
print(s)`,
			[]string{"ab"},
		},
	}
	runAll(t, tests)
}

func TestMethods(t *testing.T) {
	tests := []runTest{
		{"chain", `print("Hello World".len().to_string().len())`, []string{"2"}},
		{"len", `print("Hello World".len())`, []string{"11"}},
		{"number to_string", `print((1 + 1.5).to_string())`, []string{"2.5"}},
		{"bool to_string", `print((1 < 2).to_string().len())`, []string{"4"}},
		{"str to_string", `str s = "boo"; print(s.to_string())`, []string{"boo"}},
	}
	runAll(t, tests)
}

func TestFunctions(t *testing.T) {
	tests := []runTest{
		{
			"fibonacci",
			`fun fibonacci(num n) -> num {
    if n <= 1 {
        return n
    }
    return fibonacci(n - 1) + fibonacci(n - 2)
}
print(fibonacci(10))`,
			[]string{"55"},
		},
		{
			"factorial declared after use",
			`print(factorial(5))
fun factorial(num n) -> num {
    if n == 0 { return 1 }
    return n * factorial(n - 1)
}`,
			[]string{"120"},
		},
		{
			"return from nested block skips the rest",
			`fun sign(num n) -> str {
    if n < 0 {
        return "negative"
    } else if n == 0 {
        return "zero"
    }
    print("fell through")
    return "positive"
}
print(sign(-1))
print(sign(0))
print(sign(3))`,
			[]string{"negative", "zero", "fell through", "positive"},
		},
		{
			"calls see globals but not caller locals",
			`num g = 1
fun read() -> num { return g }
fun caller() -> num {
    num g = 100
    return read()
}
print(caller())`,
			[]string{"1"},
		},
		{
			"functions mutate globals",
			`num counter = 0
fun bump() -> num {
    counter += 1
    return counter
}
bump()
bump()
print(counter)`,
			[]string{"2"},
		},
		{
			"mutual recursion",
			`fun even(num n) -> bool {
    if n == 0 { return true }
    return odd(n - 1)
}
fun odd(num n) -> bool {
    if n == 0 { return false }
    return even(n - 1)
}
print(even(10))`,
			[]string{"true"},
		},
	}
	runAll(t, tests)
}

func TestScoping(t *testing.T) {
	tests := []runTest{
		{
			"shadowing in if body",
			`num x = 1
if true {
    num x = 2
    print(x)
}
print(x)`,
			[]string{"2", "1"},
		},
		{
			"assignment mutates nearest binding",
			`num x = 1
if true {
    num x = 2
    if true {
        x = 3
    }
    print(x)
}
print(x)`,
			[]string{"3", "1"},
		},
		{
			"assignment falls back to global",
			`num x = 1
if true {
    x = 5
}
print(x)`,
			[]string{"5"},
		},
		{
			"block variables are dropped",
			`if true { num tmp = 1 }
if true { num tmp = 2; print(tmp) }`,
			[]string{"2"},
		},
	}
	runAll(t, tests)
}

func runAll(t *testing.T, tests []runTest) {
	t.Helper()
	for _, test := range tests {
		t.Run(fmt.Sprintf("Run('%s')", test.name), func(t *testing.T) {
			out, lines, err := testutil.RunSource(test.input)
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			if diff := pretty.Diff(test.expected, lines); len(diff) > 0 {
				t.Errorf("printed lines differ: %v", diff)
			}
			expectedOut := strings.Join(test.expected, "\n") + "\n"
			if out != expectedOut {
				t.Errorf("expected output %q, got %q", expectedOut, out)
			}
		})
	}
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		sentinel error
		kind     diagnostics.ErrorKind
		line     int
		column   int
		printed  []string
	}{
		{"undeclared variable", "print(1)\nprint(y)", diagnostics.ErrUndefinedVariable, diagnostics.UNDEFINED_VARIABLE, 2, 7, []string{"1"}},
		{"assign undeclared", "y = 1", diagnostics.ErrUndefinedVariable, diagnostics.UNDEFINED_VARIABLE, 1, 1, nil},
		{"undeclared function", "nope()", diagnostics.ErrUndefinedFunction, diagnostics.UNDEFINED_FUNCTION, 1, 1, nil},
		{"too many arguments", "fun f(num n) -> num { return n }\nf(1, 2)", diagnostics.ErrArity, diagnostics.ARITY, 2, 1, nil},
		{"too few arguments", "fun f(num n) -> num { return n }\nf()", diagnostics.ErrArity, diagnostics.ARITY, 2, 1, nil},
		{"print arity", "print(1, 2)", diagnostics.ErrArity, diagnostics.ARITY, 1, 1, nil},
		{"method arguments", `"a".len(1)`, diagnostics.ErrArity, diagnostics.ARITY, 1, 5, nil},
		{"bool plus number", "print(true + 1)", diagnostics.ErrTypeMismatch, diagnostics.TYPE, 1, 12, nil},
		{"negate string", `print(-"a")`, diagnostics.ErrTypeMismatch, diagnostics.TYPE, 1, 7, nil},
		{"compare different kinds", `print(1 == "1")`, diagnostics.ErrTypeMismatch, diagnostics.TYPE, 1, 9, nil},
		{"order strings", `print("a" < "b")`, diagnostics.ErrTypeMismatch, diagnostics.TYPE, 1, 11, nil},
		{"declaration type", `num x = "a"`, diagnostics.ErrTypeMismatch, diagnostics.TYPE, 1, 9, nil},
		{"assignment type", "num x = 1\nx = true", diagnostics.ErrTypeMismatch, diagnostics.TYPE, 2, 1, nil},
		{"compound on string", "str s = \"a\"\ns += 1", diagnostics.ErrTypeMismatch, diagnostics.TYPE, 2, 1, nil},
		{"redeclaration", "num x = 1\nnum x = 2", diagnostics.ErrTypeMismatch, diagnostics.TYPE, 2, 5, nil},
		{"condition type", "if 1 { }", diagnostics.ErrTypeMismatch, diagnostics.TYPE, 1, 4, nil},
		{"argument type", "fun f(num n) -> num { return n }\nf(\"a\")", diagnostics.ErrTypeMismatch, diagnostics.TYPE, 2, 3, nil},
		{"return type", "fun f() -> num { return \"a\" }\nf()", diagnostics.ErrTypeMismatch, diagnostics.TYPE, 2, 1, nil},
		{"bare return", "fun f() -> num { return }\nf()", diagnostics.ErrTypeMismatch, diagnostics.TYPE, 2, 1, nil},
		{"print has no value", "num x = print(1)", diagnostics.ErrTypeMismatch, diagnostics.TYPE, 1, 9, []string{"1"}},
		{"missing method", "print((1).len())", diagnostics.ErrMethodNotFound, diagnostics.METHOD_NOT_FOUND, 1, 11, nil},
		{"division by zero", "print(1 / 0)", diagnostics.ErrDivisionByZero, diagnostics.DIVISION_BY_ZERO, 1, 9, nil},
		{"modulo by zero", "num z = 0\nprint(1 % z)", diagnostics.ErrDivisionByZero, diagnostics.DIVISION_BY_ZERO, 2, 9, nil},
		{"missing return", "fun f() -> num {\n    print(\"in f\")\n}\nf()", diagnostics.ErrMissingReturn, diagnostics.MISSING_RETURN, 3, 1, []string{"in f"}},
		{"runaway recursion", "fun loop(num n) -> num { return loop(n + 1) }\nloop(0)", diagnostics.ErrStackOverflow, diagnostics.STACK_OVERFLOW, 1, 33, nil},
	}

	for _, test := range tests {
		t.Run(fmt.Sprintf("TestRuntimeErrors('%s')", test.name), func(t *testing.T) {
			collector := testutil.NewCollector()
			_, lines, err := testutil.RunSource(test.input, interp.WithCollector(collector))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, test.sentinel) {
				t.Fatalf("expected %v, got %v", test.sentinel, err)
			}

			var runtimeErr *diagnostics.RuntimeError
			if !errors.As(err, &runtimeErr) {
				t.Fatalf("expected *diagnostics.RuntimeError, got %T", err)
			}
			if runtimeErr.Kind != test.kind {
				t.Errorf("expected kind %s, got %s", test.kind, runtimeErr.Kind)
			}
			if runtimeErr.Pos.Line != test.line || runtimeErr.Pos.Column != test.column {
				t.Errorf("expected error at %d:%d, got %s", test.line, test.column, runtimeErr.Pos)
			}
			if diff := pretty.Diff(test.printed, lines); len(diff) > 0 {
				t.Errorf("printed lines differ: %v", diff)
			}
			if len(collector.Diags) != 1 {
				t.Errorf("expected exactly one diagnostic, got %d", len(collector.Diags))
			}
		})
	}
}

func TestErrorStopsExecution(t *testing.T) {
	out, lines, err := testutil.RunSource(`print("before")
print(true + 1)
print("after")`)
	if !errors.Is(err, diagnostics.ErrTypeMismatch) {
		t.Fatalf("expected type error, got %v", err)
	}
	if out != "before\n" {
		t.Errorf("expected only the first line, got %q", out)
	}
	if len(lines) != 1 {
		t.Errorf("expected 1 printed line, got %v", lines)
	}
}

func TestErrorMessageFormat(t *testing.T) {
	_, _, err := testutil.RunSource("print(y)")
	expected := "test.boo:1:7: undefined variable: 'y' is not declared"
	if err == nil || err.Error() != expected {
		t.Errorf("expected %q, got %v", expected, err)
	}
}

func TestMaxCallDepth(t *testing.T) {
	src := `fun down(num n) -> num {
    if n == 0 { return 0 }
    return down(n - 1)
}
print(down(50))`

	if _, _, err := testutil.RunSource(src, interp.WithMaxCallDepth(100)); err != nil {
		t.Fatalf("expected depth 51 to fit in 100, got %s", err)
	}
	_, _, err := testutil.RunSource(src, interp.WithMaxCallDepth(10))
	if !errors.Is(err, diagnostics.ErrStackOverflow) {
		t.Fatalf("expected stack overflow, got %v", err)
	}
}

func TestClampCallDepth(t *testing.T) {
	tests := []struct {
		depth    int
		expected int
	}{
		{-5, interp.DEFAULT_MAX_CALL_DEPTH},
		{0, interp.DEFAULT_MAX_CALL_DEPTH},
		{1, 1},
		{5000, 5000},
		{interp.MAX_CALL_DEPTH, interp.MAX_CALL_DEPTH},
		{100_000_000, interp.MAX_CALL_DEPTH},
	}

	for _, test := range tests {
		t.Run(fmt.Sprintf("TestClampCallDepth('%d')", test.depth), func(t *testing.T) {
			if got := interp.ClampCallDepth(test.depth); got != test.expected {
				t.Errorf("expected %d, got %d", test.expected, got)
			}
		})
	}
}

func TestHugeCallDepthIsClamped(t *testing.T) {
	src := `fun forever(num n) -> num { return forever(n + 1) }
forever(0)`

	tests := []struct {
		depth    int
		expected string
	}{
		{100_000_000, fmt.Sprintf("maximum call depth of %d exceeded", interp.MAX_CALL_DEPTH)},
		{0, fmt.Sprintf("maximum call depth of %d exceeded", interp.DEFAULT_MAX_CALL_DEPTH)},
	}

	for _, test := range tests {
		t.Run(fmt.Sprintf("TestHugeCallDepthIsClamped('%d')", test.depth), func(t *testing.T) {
			_, _, err := testutil.RunSource(src, interp.WithMaxCallDepth(test.depth))
			if !errors.Is(err, diagnostics.ErrStackOverflow) {
				t.Fatalf("expected stack overflow, got %v", err)
			}
			if !strings.Contains(err.Error(), test.expected) {
				t.Errorf("expected %q in %q", test.expected, err.Error())
			}
		})
	}
}

func TestParseAndLexErrorsAreReturned(t *testing.T) {
	if _, _, err := testutil.RunSource("num x = "); !errors.Is(err, diagnostics.ErrParse) {
		t.Errorf("expected parse error, got %v", err)
	}
	if _, _, err := testutil.RunSource("num x = 1 @ 2"); !errors.Is(err, diagnostics.ErrLex) {
		t.Errorf("expected lex error, got %v", err)
	}
}

func TestExecKeepsGlobals(t *testing.T) {
	var out bytes.Buffer
	collector := testutil.NewCollector()
	session := interp.New(interp.WithOutput(&out), interp.WithCollector(collector))

	inputs := []string{
		"num x = 40",
		"fun add(num a, num b) -> num { return a + b }",
		"x = add(x, 2)",
		"print(x)",
	}

	program, err := parser.New(collector).ParseSource("repl", []byte(inputs[0]))
	if err != nil {
		t.Fatal(err)
	}
	functions := program.Functions
	if _, err := session.Exec(program); err != nil {
		t.Fatal(err)
	}

	var last runtime.Value
	for _, input := range inputs[1:] {
		program, err := parser.NewWithScope(collector, functions).ParseSource("repl", []byte(input))
		if err != nil {
			t.Fatal(err)
		}
		functions = program.Functions
		last, err = session.Exec(program)
		if err != nil {
			t.Fatalf("%s: %s", input, err)
		}
	}

	if out.String() != "42\n" {
		t.Errorf("expected 42, got %q", out.String())
	}
	if last.Kind != runtime.VOID {
		t.Errorf("expected print to yield no value, got %v", last)
	}
	if x, ok := session.Globals()["x"]; !ok || x.Value.Number != 42 {
		t.Errorf("expected global x = 42, got %v", session.Globals())
	}
}

func TestExecReturnsLastExpressionValue(t *testing.T) {
	session := interp.New(interp.WithOutput(io.Discard))
	program, _, err := testutil.ParseProgram(`num x = 2; x ** 10`)
	if err != nil {
		t.Fatal(err)
	}
	value, err := session.Exec(program)
	if err != nil {
		t.Fatal(err)
	}
	if value.String() != "1024" {
		t.Errorf("expected 1024, got %s", value)
	}
}

func TestExecRecoversAfterError(t *testing.T) {
	session := interp.New(interp.WithOutput(io.Discard))

	failing, _, err := testutil.ParseProgram(`fun f(num n) -> num { return n / 0 }
if true { num inner = 1; f(1) }`)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := session.Exec(failing); !errors.Is(err, diagnostics.ErrDivisionByZero) {
		t.Fatalf("expected division by zero, got %v", err)
	}

	next, _, err := testutil.ParseProgram(`num inner = 2; inner`)
	if err != nil {
		t.Fatal(err)
	}
	value, err := session.Exec(next)
	if err != nil {
		t.Fatalf("expected session to recover, got %s", err)
	}
	if value.Number != 2 {
		t.Errorf("expected 2, got %v", value)
	}
}

func TestDebugLogging(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, _, err := testutil.RunSource(`fun one() -> num { return 1 }
one()`, interp.WithLogger(logger))
	if err != nil {
		t.Fatal(err)
	}
	for _, expected := range []string{"function call", "function=one", "function return"} {
		if !strings.Contains(logs.String(), expected) {
			t.Errorf("expected %q in logs:\n%s", expected, logs.String())
		}
	}
}
