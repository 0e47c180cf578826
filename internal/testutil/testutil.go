package testutil

import (
	"bytes"
	"io"
	"strconv"

	"github.com/boo-lang/boo/internal/ast"
	"github.com/boo-lang/boo/internal/diagnostics"
	"github.com/boo-lang/boo/internal/interp"
	"github.com/boo-lang/boo/internal/lexer"
	"github.com/boo-lang/boo/internal/lexer/token"
	"github.com/boo-lang/boo/internal/parser"
)

const DefaultFilename = "test.boo"

func NewCollector() *diagnostics.Collector {
	return diagnostics.NewWithWriter(io.Discard)
}

func NewLexer(src []byte, filename string) *lexer.Lexer {
	lex, _ := NewLexerWithCollector(src, filename)
	return lex
}

func NewLexerWithCollector(src []byte, filename string) (*lexer.Lexer, *diagnostics.Collector) {
	if filename == "" {
		filename = DefaultFilename
	}
	collector := NewCollector()
	return lexer.New(filename, src, collector), collector
}

func ParseProgram(src string) (*ast.Program, *diagnostics.Collector, error) {
	collector := NewCollector()
	program, err := parser.New(collector).ParseSource(DefaultFilename, []byte(src))
	return program, collector, err
}

// RunSource runs src and returns everything written by print, the printed
// lines and the first error.
func RunSource(src string, opts ...interp.Option) (string, []string, error) {
	var out bytes.Buffer
	opts = append([]interp.Option{interp.WithOutput(&out)}, opts...)
	lines, err := interp.Run(DefaultFilename, []byte(src), opts...)
	return out.String(), lines, err
}

func Pos(line, column int) token.Pos {
	return token.NewPosition(DefaultFilename, line, column)
}

func NewIdExpr(name string) *ast.Node {
	return ast.NewNode(ast.KIND_ID_EXPR, &ast.IdExpr{
		Name: token.New([]byte(name), token.ID, Pos(1, 1)),
	})
}

func NewNumberLiteral(n float64) *ast.Node {
	return ast.NewNode(ast.KIND_LITERAL_EXPR, &ast.LiteralExpr{
		Kind:   token.NUMBER_LITERAL,
		Value:  []byte(strconv.FormatFloat(n, 'f', -1, 64)),
		Number: n,
		Pos:    Pos(1, 1),
	})
}

func NewStringLiteral(s string) *ast.Node {
	return ast.NewNode(ast.KIND_LITERAL_EXPR, &ast.LiteralExpr{
		Kind:  token.STRING_LITERAL,
		Value: []byte(s),
		Pos:   Pos(1, 1),
	})
}

func NewBinExpr(left *ast.Node, op token.Kind, right *ast.Node) *ast.Node {
	return ast.NewNode(ast.KIND_BINARY_EXPR, &ast.BinaryExpr{
		Left:  left,
		Op:    op,
		OpPos: Pos(1, 1),
		Right: right,
	})
}

func NewUnaryExpr(op token.Kind, value *ast.Node) *ast.Node {
	return ast.NewNode(ast.KIND_UNARY_EXPR, &ast.UnaryExpr{
		Op:    op,
		OpPos: Pos(1, 1),
		Value: value,
	})
}

func FakeLoc(filename string) *ast.Loc {
	if filename == "" {
		filename = DefaultFilename
	}
	return &ast.Loc{Name: filename, Path: filename}
}
