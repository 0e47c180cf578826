package parser

import (
	"fmt"
	"strconv"

	"github.com/boo-lang/boo/internal/ast"
	"github.com/boo-lang/boo/internal/diagnostics"
	"github.com/boo-lang/boo/internal/lexer"
	"github.com/boo-lang/boo/internal/lexer/token"
)

type Parser struct {
	cursor    *cursor
	collector *diagnostics.Collector

	program    *ast.Program
	parentFns  *ast.Scope
	inFunction bool
}

func New(collector *diagnostics.Collector) *Parser {
	parser := new(Parser)
	parser.collector = collector
	return parser
}

// NewWithScope returns a parser whose programs can call functions already
// registered in fns. Used by the REPL, where every input is its own program.
func NewWithScope(collector *diagnostics.Collector, fns *ast.Scope) *Parser {
	parser := New(collector)
	parser.parentFns = fns
	return parser
}

func (p *Parser) ParseFile(path string) (*ast.Program, error) {
	loc, err := ast.LocFromPath(path)
	if err != nil {
		return nil, err
	}
	lex, err := lexer.NewFromFilePath(path, p.collector)
	if err != nil {
		return nil, err
	}
	tokens, err := lex.Tokenize()
	if err != nil {
		return nil, err
	}
	program, err := p.ParseTokens(tokens)
	if err != nil {
		return nil, err
	}
	program.Loc = loc
	return program, nil
}

func (p *Parser) ParseSource(filename string, src []byte) (*ast.Program, error) {
	lex := lexer.New(filename, src, p.collector)
	tokens, err := lex.Tokenize()
	if err != nil {
		return nil, err
	}
	return p.ParseTokens(tokens)
}

// ParseTokens builds the program AST. Parsing stops at the first malformed
// construct.
func (p *Parser) ParseTokens(tokens []*token.Token) (*ast.Program, error) {
	p.cursor = newCursor(tokens)
	p.inFunction = false

	filename := p.cursor.peek().Pos.Filename
	p.program = ast.NewProgram(&ast.Loc{Name: filename, Path: filename}, p.parentFns)

	for !p.cursor.nextIs(token.EOF) {
		var node *ast.Node
		var err error

		if p.cursor.nextIs(token.FUN) {
			node, err = p.parseFnDecl()
		} else {
			node, err = p.parseStmt()
		}
		if err != nil {
			return nil, err
		}
		p.program.Body = append(p.program.Body, node)
	}

	return p.program, nil
}

func (p *Parser) error(tok *token.Token, expected string) error {
	return p.collector.Report(diagnostics.NewParseError(tok, expected))
}

func (p *Parser) expect(expectedKind token.Kind) (*token.Token, bool) {
	tok := p.cursor.peek()
	if tok.Kind != expectedKind {
		return tok, false
	}
	p.cursor.skip()
	return tok, true
}

func (p *Parser) expectOrError(expectedKind token.Kind, expected string) (*token.Token, error) {
	tok, ok := p.expect(expectedKind)
	if !ok {
		return nil, p.error(tok, expected)
	}
	return tok, nil
}

func (p *Parser) parseFnDecl() (*ast.Node, error) {
	fun, ok := p.expect(token.FUN)
	if !ok {
		return nil, p.error(fun, "'fun'")
	}
	if p.inFunction {
		return nil, p.error(fun, "statement (functions can only be declared at the top level)")
	}

	fnDecl := new(ast.FnDecl)

	name, err := p.expectOrError(token.ID, "function name")
	if err != nil {
		return nil, err
	}
	fnDecl.Name = name

	params, err := p.parseFunctionParams()
	if err != nil {
		return nil, err
	}
	fnDecl.Params = params

	_, err = p.expectOrError(token.ARROW, "'->' followed by the return type")
	if err != nil {
		return nil, err
	}
	retType := p.cursor.peek()
	if !retType.Kind.IsBasicType() {
		return nil, p.error(retType, "return type (num, str or bool)")
	}
	p.cursor.skip()
	fnDecl.RetType = retType

	p.inFunction = true
	block, err := p.parseBlock()
	p.inFunction = false
	if err != nil {
		return nil, err
	}
	fnDecl.Block = block

	n := ast.NewNode(ast.KIND_FN_DECL, fnDecl)

	err = p.program.Functions.Insert(name.Name(), n)
	if err != nil {
		if err == ast.ErrSymbolAlreadyDefinedOnScope {
			return nil, p.collector.Report(&diagnostics.ParseError{
				Pos:      name.Pos,
				Expected: "a new function name",
				Found:    fmt.Sprintf("'%s', which is already declared", name.Name()),
			})
		}
		return nil, err
	}

	return n, nil
}

func (p *Parser) parseFunctionParams() ([]*ast.Param, error) {
	var params []*ast.Param

	_, err := p.expectOrError(token.OPEN_PAREN, "'(' after function name")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for !p.cursor.nextIs(token.CLOSE_PAREN) {
		if len(params) > 0 {
			_, err := p.expectOrError(token.COMMA, "',' or ')'")
			if err != nil {
				return nil, err
			}
		}

		ty := p.cursor.peek()
		if !ty.Kind.IsBasicType() {
			return nil, p.error(ty, "parameter type (num, str or bool)")
		}
		p.cursor.skip()

		name, err := p.expectOrError(token.ID, "parameter name")
		if err != nil {
			return nil, err
		}
		if seen[name.Name()] {
			return nil, p.collector.Report(&diagnostics.ParseError{
				Pos:      name.Pos,
				Expected: "a unique parameter name",
				Found:    fmt.Sprintf("'%s' twice", name.Name()),
			})
		}
		seen[name.Name()] = true

		params = append(params, &ast.Param{Type: ty, Name: name})
	}
	p.cursor.skip() // )

	return params, nil
}

func (p *Parser) parseStmt() (*ast.Node, error) {
	var n *ast.Node
	var err error

	tok := p.cursor.peek()
	switch tok.Kind {
	case token.NUM_TYPE, token.STR_TYPE, token.BOOL_TYPE:
		n, err = p.parseVar()
	case token.IF:
		n, err = p.parseCondStmt()
	case token.RETURN:
		n, err = p.parseReturn()
	case token.FUN:
		return nil, p.error(tok, "statement (functions can only be declared at the top level)")
	case token.OPEN_CURLY:
		return nil, p.error(tok, "statement (blocks are only allowed after 'if', 'else' or a function signature)")
	default:
		var expr *ast.Node
		expr, err = p.parseExpr()
		if err == nil {
			n = ast.NewNode(ast.KIND_EXPR_STMT, &ast.ExprStmt{Expr: expr})
		}
	}
	if err != nil {
		return nil, err
	}

	// optional statement terminator
	if p.cursor.nextIs(token.SEMICOLON) {
		p.cursor.skip()
	}
	return n, nil
}

func (p *Parser) parseBlock() (*ast.BlockStmt, error) {
	openCurly, err := p.expectOrError(token.OPEN_CURLY, "'{'")
	if err != nil {
		return nil, err
	}

	var statements []*ast.Node
	for {
		tok := p.cursor.peek()
		if tok.Kind == token.CLOSE_CURLY {
			break
		}
		if tok.Kind == token.EOF {
			return nil, p.error(tok, "statement or '}'")
		}

		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}
	closeCurly := p.cursor.next()

	return &ast.BlockStmt{
		OpenCurly:  openCurly.Pos,
		Statements: statements,
		CloseCurly: closeCurly.Pos,
	}, nil
}

func (p *Parser) parseVar() (*ast.Node, error) {
	ty := p.cursor.next()

	name, err := p.expectOrError(token.ID, "variable name")
	if err != nil {
		return nil, err
	}

	_, err = p.expectOrError(token.EQUAL, "'=' and an initializer")
	if err != nil {
		return nil, err
	}

	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return ast.NewNode(ast.KIND_VAR_STMT, &ast.VarStmt{Type: ty, Name: name, Value: value}), nil
}

func (p *Parser) parseReturn() (*ast.Node, error) {
	ret := p.cursor.next()
	if !p.inFunction {
		return nil, p.error(ret, "statement ('return' is only allowed inside functions)")
	}

	returnStmt := &ast.ReturnStmt{Return: ret}
	if p.startsExpr(p.cursor.peek()) {
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		returnStmt.Value = value
	}

	return ast.NewNode(ast.KIND_RETURN_STMT, returnStmt), nil
}

func (p *Parser) startsExpr(tok *token.Token) bool {
	switch tok.Kind {
	case token.ID, token.PRINT, token.OPEN_PAREN, token.MINUS:
		return true
	}
	return tok.Kind.IsLiteral()
}

func (p *Parser) parseCondStmt() (*ast.Node, error) {
	ifTok := p.cursor.next()

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	block, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	cond := &ast.CondStmt{If: ifTok.Pos, Expr: expr, Block: block}

	if p.cursor.nextIs(token.ELSE) {
		elseTok := p.cursor.next()
		if p.cursor.nextIs(token.IF) {
			elseIf, err := p.parseCondStmt()
			if err != nil {
				return nil, err
			}
			cond.Else = &ast.BlockStmt{
				OpenCurly:  elseTok.Pos,
				Statements: []*ast.Node{elseIf},
				CloseCurly: elseTok.Pos,
			}
		} else {
			elseBlock, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			cond.Else = elseBlock
		}
	}

	return ast.NewNode(ast.KIND_COND_STMT, cond), nil
}

func (p *Parser) parseExpr() (*ast.Node, error) {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() (*ast.Node, error) {
	lhs, err := p.parseEquality()
	if err != nil {
		return nil, err
	}

	op := p.cursor.peek()
	if !op.Kind.IsAssign() {
		return lhs, nil
	}
	if !lhs.IsId() {
		return nil, p.error(op, fmt.Sprintf("a variable name on the left side of '%s'", op.Kind))
	}
	p.cursor.skip()

	rhs, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}

	return ast.NewNode(ast.KIND_ASSIGN_EXPR, &ast.AssignExpr{
		Target: lhs.Node.(*ast.IdExpr).Name,
		Op:     op.Kind,
		OpPos:  op.Pos,
		Value:  rhs,
	}), nil
}

// parseLeftAssoc parses a left-associative level whose operators are in ops.
func (p *Parser) parseLeftAssoc(ops map[token.Kind]bool, operand func() (*ast.Node, error)) (*ast.Node, error) {
	lhs, err := operand()
	if err != nil {
		return nil, err
	}

	for {
		next := p.cursor.peek()
		if _, ok := ops[next.Kind]; !ok {
			break
		}
		p.cursor.skip()

		rhs, err := operand()
		if err != nil {
			return nil, err
		}
		lhs = ast.NewNode(ast.KIND_BINARY_EXPR, &ast.BinaryExpr{
			Left:  lhs,
			Op:    next.Kind,
			OpPos: next.Pos,
			Right: rhs,
		})
	}
	return lhs, nil
}

func (p *Parser) parseEquality() (*ast.Node, error) {
	return p.parseLeftAssoc(ast.EQUALITY, p.parseRelational)
}

func (p *Parser) parseRelational() (*ast.Node, error) {
	return p.parseLeftAssoc(ast.RELATIONAL, p.parseTerm)
}

func (p *Parser) parseTerm() (*ast.Node, error) {
	return p.parseLeftAssoc(ast.TERM, p.parseFactor)
}

func (p *Parser) parseFactor() (*ast.Node, error) {
	return p.parseLeftAssoc(ast.FACTOR, p.parseUnary)
}

// parseUnary binds looser than '**': -2 ** 4 is -(2 ** 4).
func (p *Parser) parseUnary() (*ast.Node, error) {
	next := p.cursor.peek()
	if _, ok := ast.UNARY[next.Kind]; ok {
		p.cursor.skip()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.NewNode(ast.KIND_UNARY_EXPR, &ast.UnaryExpr{
			Op:    next.Kind,
			OpPos: next.Pos,
			Value: operand,
		}), nil
	}

	return p.parseExponent()
}

// parseExponent is right-associative. The right operand goes back through
// parseUnary so that both 2 ** 3 ** 2 and 2 ** -1 parse.
func (p *Parser) parseExponent() (*ast.Node, error) {
	lhs, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}

	op := p.cursor.peek()
	if op.Kind != token.STAR_STAR {
		return lhs, nil
	}
	p.cursor.skip()

	rhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	return ast.NewNode(ast.KIND_BINARY_EXPR, &ast.BinaryExpr{
		Left:  lhs,
		Op:    op.Kind,
		OpPos: op.Pos,
		Right: rhs,
	}), nil
}

func (p *Parser) parsePostfix() (*ast.Node, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for p.cursor.nextIs(token.DOT) {
		p.cursor.skip()

		name, err := p.expectOrError(token.ID, "method name after '.'")
		if err != nil {
			return nil, err
		}

		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}

		expr = ast.NewNode(ast.KIND_METHOD_CALL, &ast.MethodCall{
			Receiver: expr,
			Name:     name,
			Args:     args,
		})
	}
	return expr, nil
}

func (p *Parser) parsePrimary() (*ast.Node, error) {
	tok := p.cursor.peek()
	switch tok.Kind {
	case token.ID, token.PRINT:
		if p.cursor.peekAt(1).Kind == token.OPEN_PAREN {
			return p.parseFnCall()
		}
		if tok.Kind == token.PRINT {
			return nil, p.error(p.cursor.peekAt(1), "'(' after 'print'")
		}
		p.cursor.skip()
		return ast.NewNode(ast.KIND_ID_EXPR, &ast.IdExpr{Name: tok}), nil
	case token.OPEN_PAREN:
		p.cursor.skip() // (
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		_, err = p.expectOrError(token.CLOSE_PAREN, "')'")
		if err != nil {
			return nil, err
		}
		return expr, nil
	default:
		if tok.Kind.IsLiteral() {
			p.cursor.skip()

			literal := &ast.LiteralExpr{
				Kind:  tok.Kind,
				Value: tok.Lexeme,
				Pos:   tok.Pos,
			}
			if tok.Kind == token.NUMBER_LITERAL {
				number, err := strconv.ParseFloat(string(tok.Lexeme), 64)
				if err != nil {
					return nil, p.error(tok, "a valid number")
				}
				literal.Number = number
			}
			return ast.NewNode(ast.KIND_LITERAL_EXPR, literal), nil
		}
		return nil, p.error(tok, "expression")
	}
}

func (p *Parser) parseFnCall() (*ast.Node, error) {
	name := p.cursor.next()

	args, err := p.parseArgs()
	if err != nil {
		return nil, err
	}

	return ast.NewNode(ast.KIND_FN_CALL, &ast.FnCall{Name: name, Args: args}), nil
}

func (p *Parser) parseArgs() ([]*ast.Node, error) {
	_, err := p.expectOrError(token.OPEN_PAREN, "'('")
	if err != nil {
		return nil, err
	}

	var args []*ast.Node
	for !p.cursor.nextIs(token.CLOSE_PAREN) {
		if len(args) > 0 {
			_, err := p.expectOrError(token.COMMA, "',' or ')'")
			if err != nil {
				return nil, err
			}
		}

		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	p.cursor.skip() // )

	return args, nil
}
