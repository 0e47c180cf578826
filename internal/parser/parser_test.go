package parser

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/kr/pretty"

	"github.com/boo-lang/boo/internal/ast"
	"github.com/boo-lang/boo/internal/diagnostics"
	"github.com/boo-lang/boo/internal/lexer/token"
)

func parseString(input string) (*ast.Program, error) {
	p := New(diagnostics.NewWithWriter(io.Discard))
	return p.ParseSource("test.boo", []byte(input))
}

func parseSingleExpr(t *testing.T, input string) *ast.Node {
	t.Helper()
	program, err := parseString(input)
	if err != nil {
		t.Fatalf("unexpected error for %q: %s", input, err)
	}
	if len(program.Body) != 1 || program.Body[0].Kind != ast.KIND_EXPR_STMT {
		t.Fatalf("expected a single expression statement, got %v", program.Body)
	}
	return program.Body[0].Node.(*ast.ExprStmt).Expr
}

func TestFnDecl(t *testing.T) {
	tests := []struct {
		input  string
		name   string
		params []string
		ret    token.Kind
	}{
		{"fun zero() -> num { return 0 }", "zero", nil, token.NUM_TYPE},
		{"fun id(str s) -> str { return s }", "id", []string{"str s"}, token.STR_TYPE},
		{"fun both(bool a, num b) -> bool { return a }", "both", []string{"bool a", "num b"}, token.BOOL_TYPE},
	}

	for i, test := range tests {
		t.Run(fmt.Sprintf("TestFnDecl('%d')", i), func(t *testing.T) {
			program, err := parseString(test.input)
			if err != nil {
				t.Fatal(err)
			}
			if len(program.Body) != 1 || program.Body[0].Kind != ast.KIND_FN_DECL {
				t.Fatalf("expected one function declaration, got %v", program.Body)
			}
			fnDecl := program.Body[0].Node.(*ast.FnDecl)
			if fnDecl.Name.Name() != test.name {
				t.Errorf("expected name %q, got %q", test.name, fnDecl.Name.Name())
			}
			var params []string
			for _, param := range fnDecl.Params {
				params = append(params, param.Type.Kind.String()+" "+param.Name.Name())
			}
			if diff := pretty.Diff(test.params, params); len(diff) > 0 {
				t.Errorf("params differ: %v", diff)
			}
			if fnDecl.RetType.Kind != test.ret {
				t.Errorf("expected return type %s, got %s", test.ret, fnDecl.RetType.Kind)
			}
			if _, ok := program.LookupFn(test.name); !ok {
				t.Errorf("function %q was not registered", test.name)
			}
		})
	}
}

func TestFunctionsAreRegisteredBeforeUse(t *testing.T) {
	program, err := parseString(`
print(later(1))
fun later(num n) -> num { return n + 1 }
`)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := program.LookupFn("later"); !ok {
		t.Fatal("expected 'later' in the function table")
	}
	if got := len(program.Statements()); got != 1 {
		t.Errorf("expected 1 top-level statement, got %d", got)
	}
}

func TestParentFunctionScope(t *testing.T) {
	collector := diagnostics.NewWithWriter(io.Discard)
	first, err := New(collector).ParseSource("repl", []byte("fun one() -> num { return 1 }"))
	if err != nil {
		t.Fatal(err)
	}

	second, err := NewWithScope(collector, first.Functions).ParseSource("repl", []byte("print(one())"))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := second.LookupFn("one"); !ok {
		t.Error("expected 'one' to be visible through the parent scope")
	}
	if len(second.Functions.Nodes) != 0 {
		t.Errorf("expected no new functions, got %v", second.Functions.Names())
	}
}

func TestPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "1 + (2 * 3)"},
		{"(1 + 2) * 3", "(1 + 2) * 3"},
		{"10 / 2 + 3", "(10 / 2) + 3"},
		{"1 - 2 - 3", "(1 - 2) - 3"},
		{"2 ** 3 ** 2", "2 ** (3 ** 2)"},
		{"-2 ** 4", "-(2 ** 4)"},
		{"(-2) ** 4", "(-2) ** 4"},
		{"2 ** -1", "2 ** (-1)"},
		{"- -3", "-(-3)"},
		{"1 < 2 == true", "(1 < 2) == true"},
		{"a == b != c", "(a == b) != c"},
		{`"a" >< 1 + 2`, `("a" >< 1) + 2`},
		{"7 % 3 * 2", "(7 % 3) * 2"},
		{"x = y = 3", "x = y = 3"},
		{"x += 1 + 2", "x += 1 + 2"},
		{`"Hello World".len().to_string().len()`, `"Hello World".len().to_string().len()`},
		{"-x.len()", "-x.len()"},
		{"(1 + 2).to_string()", "(1 + 2).to_string()"},
		{"f(1, g(2), 3 * 4)", "f(1, g(2), 3 * 4)"},
		{`print("hi")`, `print("hi")`},
	}

	for _, test := range tests {
		t.Run(fmt.Sprintf("TestPrecedence('%s')", test.input), func(t *testing.T) {
			expr := parseSingleExpr(t, test.input)
			got := ast.PrintExpr(expr)
			if got != test.expected {
				t.Errorf("expected %q, got %q", test.expected, got)
			}
		})
	}
}

func TestExponentIsRightAssociative(t *testing.T) {
	expr := parseSingleExpr(t, "2 ** 3 ** 2")

	outer, ok := expr.Node.(*ast.BinaryExpr)
	if !ok || outer.Op != token.STAR_STAR {
		t.Fatalf("expected '**' at the root, got %s", expr)
	}
	if outer.Left.Kind != ast.KIND_LITERAL_EXPR {
		t.Errorf("expected a literal on the left, got %s", outer.Left)
	}
	inner, ok := outer.Right.Node.(*ast.BinaryExpr)
	if !ok || inner.Op != token.STAR_STAR {
		t.Fatalf("expected '**' on the right, got %s", outer.Right)
	}
}

func TestLiteralValues(t *testing.T) {
	tests := []struct {
		input  string
		kind   token.Kind
		value  string
		number float64
	}{
		{"42", token.NUMBER_LITERAL, "42", 42},
		{"3.25", token.NUMBER_LITERAL, "3.25", 3.25},
		{`"a\tb"`, token.STRING_LITERAL, "a\tb", 0},
		{"true", token.TRUE_BOOL_LITERAL, "true", 0},
		{"false", token.FALSE_BOOL_LITERAL, "false", 0},
	}

	for _, test := range tests {
		t.Run(fmt.Sprintf("TestLiteralValues('%s')", test.input), func(t *testing.T) {
			expr := parseSingleExpr(t, test.input)
			literal, ok := expr.Node.(*ast.LiteralExpr)
			if !ok {
				t.Fatalf("expected literal, got %s", expr)
			}
			if literal.Kind != test.kind {
				t.Errorf("expected kind %s, got %s", test.kind, literal.Kind)
			}
			if string(literal.Value) != test.value {
				t.Errorf("expected value %q, got %q", test.value, literal.Value)
			}
			if literal.Number != test.number {
				t.Errorf("expected number %v, got %v", test.number, literal.Number)
			}
		})
	}
}

func TestStatements(t *testing.T) {
	tests := []struct {
		input string
		kinds []ast.NodeKind
	}{
		{"num x = 1", []ast.NodeKind{ast.KIND_VAR_STMT}},
		{"num x = 1; x += 2;", []ast.NodeKind{ast.KIND_VAR_STMT, ast.KIND_EXPR_STMT}},
		{"if true { print(1) }", []ast.NodeKind{ast.KIND_COND_STMT}},
		{"if true { } else { }", []ast.NodeKind{ast.KIND_COND_STMT}},
		{"fun f() -> num { return 1 } f()", []ast.NodeKind{ast.KIND_FN_DECL, ast.KIND_EXPR_STMT}},
	}

	for _, test := range tests {
		t.Run(fmt.Sprintf("TestStatements('%s')", test.input), func(t *testing.T) {
			program, err := parseString(test.input)
			if err != nil {
				t.Fatal(err)
			}
			var kinds []ast.NodeKind
			for _, node := range program.Body {
				kinds = append(kinds, node.Kind)
			}
			if diff := pretty.Diff(test.kinds, kinds); len(diff) > 0 {
				t.Errorf("statement kinds differ: %v", diff)
			}
		})
	}
}

func TestElseIfChain(t *testing.T) {
	program, err := parseString(`
if x < 0 {
    print("neg")
} else if x == 0 {
    print("zero")
} else {
    print("pos")
}`)
	if err != nil {
		t.Fatal(err)
	}

	cond := program.Body[0].Node.(*ast.CondStmt)
	if cond.Else == nil || len(cond.Else.Statements) != 1 {
		t.Fatalf("expected else branch with a nested if, got %v", cond.Else)
	}
	nested := cond.Else.Statements[0]
	if nested.Kind != ast.KIND_COND_STMT {
		t.Fatalf("expected nested KIND_COND_STMT, got %v", nested.Kind)
	}
	if nested.Node.(*ast.CondStmt).Else == nil {
		t.Error("expected final else branch")
	}
}

func TestReturn(t *testing.T) {
	program, err := parseString("fun f(num n) -> num { if n > 1 { return n } return }")
	if err != nil {
		t.Fatal(err)
	}
	body := program.Body[0].Node.(*ast.FnDecl).Block.Statements
	if len(body) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(body))
	}
	if !body[1].IsReturn() {
		t.Fatalf("expected return statement, got %s", body[1])
	}
	if body[1].Node.(*ast.ReturnStmt).Value != nil {
		t.Error("expected bare return")
	}
}

func TestPrinterIsIdempotent(t *testing.T) {
	inputs := []string{
		`fun fibonacci(num n) -> num {
    if n <= 1 { return n }
    return fibonacci(n - 1) + fibonacci(n - 2)
}
print(fibonacci(10))`,
		`num x = 2 ** 3 ** 2; x -= -2 ** 4; print("Result: " >< x)`,
		`bool b = 1 < 2 == true
if b { print("yes") } else if false { print("no") } else { print("\"quoted\"\n") }`,
		`print("Hello World".len().to_string().len())`,
		`fun f(num n) -> num { return n }
print(1); -f(2); print(3)`,
		`fun g(bool b) -> num { if b { return 1 } return; print(1) }`,
	}

	for i, input := range inputs {
		t.Run(fmt.Sprintf("TestPrinterIsIdempotent('%d')", i), func(t *testing.T) {
			program, err := parseString(input)
			if err != nil {
				t.Fatal(err)
			}
			first := ast.Print(program)

			reparsed, err := parseString(first)
			if err != nil {
				t.Fatalf("printed program does not parse: %s\n%s", err, first)
			}
			if len(reparsed.Body) != len(program.Body) {
				t.Fatalf("expected %d top-level nodes after reprinting, got %d\n%s", len(program.Body), len(reparsed.Body), first)
			}
			second := ast.Print(reparsed)
			if first != second {
				t.Errorf("printer is not a fixed point:\n%s\n---\n%s", first, second)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input    string
		line     int
		column   int
		expected string
	}{
		{"num = 1", 1, 5, "variable name"},
		{"num x 1", 1, 7, "'=' and an initializer"},
		{"1 + ", 1, 5, "expression"},
		{"(1 + 2", 1, 7, "')'"},
		{"fun f() { }", 1, 9, "'->' followed by the return type"},
		{"fun f() -> int { }", 1, 12, "return type (num, str or bool)"},
		{"fun f(x) -> num { }", 1, 7, "parameter type (num, str or bool)"},
		{"fun f(num a num b) -> num { }", 1, 13, "',' or ')'"},
		{"fun f() -> num { return 1", 1, 26, "statement or '}'"},
		{"fun f() -> num { fun g() -> num { return 1 } }", 1, 18, "statement (functions can only be declared at the top level)"},
		{"return 1", 1, 1, "statement ('return' is only allowed inside functions)"},
		{"1 = 2", 1, 3, "a variable name on the left side of '='"},
		{"f(1 2)", 1, 5, "',' or ')'"},
		{"x.", 1, 3, "method name after '.'"},
		{"print", 1, 6, "'(' after 'print'"},
		{"{ }", 1, 1, "statement (blocks are only allowed after 'if', 'else' or a function signature)"},
		{"fun f() -> num { return 1 }\nfun f() -> num { return 2 }", 2, 5, "a new function name"},
		{"fun f(num a, str a) -> num { return 1 }", 1, 18, "a unique parameter name"},
	}

	for _, test := range tests {
		t.Run(fmt.Sprintf("TestParseErrors('%s')", test.input), func(t *testing.T) {
			collector := diagnostics.NewWithWriter(io.Discard)
			_, err := New(collector).ParseSource("test.boo", []byte(test.input))
			if err == nil {
				t.Fatal("expected parse error, got nil")
			}
			if !errors.Is(err, diagnostics.ErrParse) {
				t.Fatalf("expected parse error, got %s", err)
			}

			var parseErr *diagnostics.ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected *diagnostics.ParseError, got %T", err)
			}
			if parseErr.Expected != test.expected {
				t.Errorf("expected %q, got %q", test.expected, parseErr.Expected)
			}
			if parseErr.Pos.Line != test.line || parseErr.Pos.Column != test.column {
				t.Errorf("expected error at %d:%d, got %s", test.line, test.column, parseErr.Pos)
			}
			if len(collector.Diags) != 1 {
				t.Errorf("expected exactly one diagnostic, got %d", len(collector.Diags))
			}
		})
	}
}

func TestLexErrorsArePropagated(t *testing.T) {
	_, err := parseString(`print("unterminated)`)
	if !errors.Is(err, diagnostics.ErrLex) {
		t.Fatalf("expected lex error, got %v", err)
	}
}
