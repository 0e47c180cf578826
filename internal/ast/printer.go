package ast

import (
	"strings"

	"github.com/boo-lang/boo/internal/lexer/token"
)

const indentUnit = "    "

// Print renders program in canonical form. Nested operator expressions are
// always parenthesized, so parsing the output yields the same tree and
// printing it again yields the same text.
func Print(program *Program) string {
	p := &printer{}
	for i, node := range program.Body {
		if i > 0 && (node.IsDecl() || program.Body[i-1].IsDecl()) {
			p.sb.WriteByte('\n')
		}
		p.node(node, 0)
	}
	return p.sb.String()
}

// PrintExpr renders a single expression in canonical form.
func PrintExpr(expr *Node) string {
	p := &printer{}
	p.expr(expr)
	return p.sb.String()
}

type printer struct {
	sb strings.Builder
}

func (p *printer) indent(depth int) {
	for range depth {
		p.sb.WriteString(indentUnit)
	}
}

func (p *printer) node(n *Node, depth int) {
	p.indent(depth)
	switch n.Kind {
	case KIND_FN_DECL:
		fn := n.Node.(*FnDecl)
		p.sb.WriteString("fun ")
		p.sb.WriteString(fn.Name.Name())
		p.sb.WriteByte('(')
		for i, param := range fn.Params {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.sb.WriteString(param.Type.Kind.String())
			p.sb.WriteByte(' ')
			p.sb.WriteString(param.Name.Name())
		}
		p.sb.WriteString(") -> ")
		p.sb.WriteString(fn.RetType.Kind.String())
		p.sb.WriteByte(' ')
		p.block(fn.Block, depth)
	case KIND_VAR_STMT:
		v := n.Node.(*VarStmt)
		p.sb.WriteString(v.Type.Kind.String())
		p.sb.WriteByte(' ')
		p.sb.WriteString(v.Name.Name())
		p.sb.WriteString(" = ")
		p.expr(v.Value)
	case KIND_RETURN_STMT:
		ret := n.Node.(*ReturnStmt)
		p.sb.WriteString("return")
		if ret.Value != nil {
			p.sb.WriteByte(' ')
			p.expr(ret.Value)
		}
	case KIND_COND_STMT:
		p.cond(n.Node.(*CondStmt), depth)
	case KIND_BLOCK_STMT:
		p.block(n.Node.(*BlockStmt), depth)
	case KIND_EXPR_STMT:
		p.expr(n.Node.(*ExprStmt).Expr)
	default:
		p.expr(n)
	}
	if n.Kind != KIND_FN_DECL && n.Kind != KIND_COND_STMT && n.Kind != KIND_BLOCK_STMT {
		// a leading '-' or a bare return would otherwise join the next line
		p.sb.WriteByte(';')
	}
	p.sb.WriteByte('\n')
}

func (p *printer) cond(cond *CondStmt, depth int) {
	p.sb.WriteString("if ")
	p.expr(cond.Expr)
	p.sb.WriteByte(' ')
	p.block(cond.Block, depth)
	if cond.Else == nil {
		return
	}
	p.sb.WriteString(" else ")
	if len(cond.Else.Statements) == 1 && cond.Else.Statements[0].Kind == KIND_COND_STMT {
		p.cond(cond.Else.Statements[0].Node.(*CondStmt), depth)
		return
	}
	p.block(cond.Else, depth)
}

func (p *printer) block(block *BlockStmt, depth int) {
	p.sb.WriteString("{\n")
	for _, stmt := range block.Statements {
		p.node(stmt, depth+1)
	}
	p.indent(depth)
	p.sb.WriteByte('}')
}

func (p *printer) expr(n *Node) {
	switch n.Kind {
	case KIND_LITERAL_EXPR:
		lit := n.Node.(*LiteralExpr)
		switch lit.Kind {
		case token.STRING_LITERAL:
			p.sb.WriteString(Quote(string(lit.Value)))
		case token.TRUE_BOOL_LITERAL:
			p.sb.WriteString("true")
		case token.FALSE_BOOL_LITERAL:
			p.sb.WriteString("false")
		default:
			p.sb.Write(lit.Value)
		}
	case KIND_ID_EXPR:
		p.sb.WriteString(n.Node.(*IdExpr).Name.Name())
	case KIND_UNARY_EXPR:
		unary := n.Node.(*UnaryExpr)
		p.sb.WriteString(unary.Op.String())
		p.operand(unary.Value)
	case KIND_BINARY_EXPR:
		bin := n.Node.(*BinaryExpr)
		p.operand(bin.Left)
		p.sb.WriteByte(' ')
		p.sb.WriteString(bin.Op.String())
		p.sb.WriteByte(' ')
		p.operand(bin.Right)
	case KIND_ASSIGN_EXPR:
		assign := n.Node.(*AssignExpr)
		p.sb.WriteString(assign.Target.Name())
		p.sb.WriteByte(' ')
		p.sb.WriteString(assign.Op.String())
		p.sb.WriteByte(' ')
		p.expr(assign.Value)
	case KIND_FN_CALL:
		call := n.Node.(*FnCall)
		p.sb.WriteString(call.Name.Name())
		p.args(call.Args)
	case KIND_METHOD_CALL:
		call := n.Node.(*MethodCall)
		p.operand(call.Receiver)
		p.sb.WriteByte('.')
		p.sb.WriteString(call.Name.Name())
		p.args(call.Args)
	}
}

// operand prints n, wrapping operator expressions in parentheses.
func (p *printer) operand(n *Node) {
	switch n.Kind {
	case KIND_BINARY_EXPR, KIND_UNARY_EXPR, KIND_ASSIGN_EXPR:
		p.sb.WriteByte('(')
		p.expr(n)
		p.sb.WriteByte(')')
	default:
		p.expr(n)
	}
}

func (p *printer) args(args []*Node) {
	p.sb.WriteByte('(')
	for i, arg := range args {
		if i > 0 {
			p.sb.WriteString(", ")
		}
		p.expr(arg)
	}
	p.sb.WriteByte(')')
}

// Quote renders s as a boo string literal using only the escapes the lexer
// understands.
func Quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; ch {
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		default:
			sb.WriteByte(ch)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
