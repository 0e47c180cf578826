package ast

import (
	"fmt"

	"github.com/boo-lang/boo/internal/lexer/token"
)

var EQUALITY map[token.Kind]bool = map[token.Kind]bool{
	token.EQUAL_EQUAL: true,
	token.BANG_EQUAL:  true,
}

var RELATIONAL map[token.Kind]bool = map[token.Kind]bool{
	token.GREATER:    true,
	token.GREATER_EQ: true,
	token.LESS:       true,
	token.LESS_EQ:    true,
}

var TERM map[token.Kind]bool = map[token.Kind]bool{
	token.MINUS:  true,
	token.PLUS:   true,
	token.CONCAT: true,
}

var FACTOR map[token.Kind]bool = map[token.Kind]bool{
	token.SLASH:   true,
	token.STAR:    true,
	token.PERCENT: true,
}

var UNARY map[token.Kind]bool = map[token.Kind]bool{
	token.MINUS: true,
}

type LiteralExpr struct {
	Kind   token.Kind // NUMBER_LITERAL, STRING_LITERAL, TRUE_BOOL_LITERAL or FALSE_BOOL_LITERAL
	Value  []byte
	Number float64
	Pos    token.Pos
}

func (literal *LiteralExpr) String() string {
	return fmt.Sprintf("%s %q", literal.Kind, literal.Value)
}

type IdExpr struct {
	Name *token.Token
}

func (idExpr IdExpr) String() string {
	return idExpr.Name.Name()
}

type UnaryExpr struct {
	Op    token.Kind
	OpPos token.Pos
	Value *Node
}

func (unary *UnaryExpr) String() string {
	return fmt.Sprintf("%v (%v)", unary.Op, unary.Value)
}

type BinaryExpr struct {
	Left  *Node
	Op    token.Kind
	OpPos token.Pos
	Right *Node
}

func (binExpr *BinaryExpr) String() string {
	return fmt.Sprintf("(%v) %v (%v)", binExpr.Left, binExpr.Op, binExpr.Right)
}

// AssignExpr covers plain and compound assignment. Op is EQUAL or one of
// the keys of token.COMPOUND_ASSIGN.
type AssignExpr struct {
	Target *token.Token
	Op     token.Kind
	OpPos  token.Pos
	Value  *Node
}

func (assign *AssignExpr) String() string {
	return fmt.Sprintf("%s %v (%v)", assign.Target.Name(), assign.Op, assign.Value)
}

type FnCall struct {
	Name *token.Token
	Args []*Node
}

func (call FnCall) String() string {
	return fmt.Sprintf("CALL: %s - ARGS: %s", call.Name.Name(), call.Args)
}

type MethodCall struct {
	Receiver *Node
	Name     *token.Token
	Args     []*Node
}

func (call MethodCall) String() string {
	return fmt.Sprintf("METHOD: (%v).%s - ARGS: %s", call.Receiver, call.Name.Name(), call.Args)
}

// Pos reports the position used for diagnostics about n.
func (n *Node) Pos() token.Pos {
	switch node := n.Node.(type) {
	case *LiteralExpr:
		return node.Pos
	case *IdExpr:
		return node.Name.Pos
	case *UnaryExpr:
		return node.OpPos
	case *BinaryExpr:
		return node.OpPos
	case *AssignExpr:
		return node.Target.Pos
	case *FnCall:
		return node.Name.Pos
	case *MethodCall:
		return node.Name.Pos
	case *VarStmt:
		return node.Name.Pos
	case *ReturnStmt:
		return node.Return.Pos
	case *CondStmt:
		return node.If
	case *ExprStmt:
		return node.Expr.Pos()
	case *BlockStmt:
		return node.OpenCurly
	case *FnDecl:
		return node.Name.Pos
	}
	return token.Pos{}
}
