package ast

import (
	"fmt"

	"github.com/boo-lang/boo/internal/lexer/token"
)

type BlockStmt struct {
	OpenCurly  token.Pos
	Statements []*Node
	CloseCurly token.Pos
}

func (block BlockStmt) String() string {
	return fmt.Sprintf("\n'{' %s\n%s\n'}' %s", block.OpenCurly, block.Statements, block.CloseCurly)
}

type VarStmt struct {
	Type  *token.Token // NUM_TYPE, STR_TYPE or BOOL_TYPE
	Name  *token.Token
	Value *Node
}

func (variable VarStmt) String() string {
	return fmt.Sprintf("Variable: %s %s = %s", variable.Type.Kind, variable.Name.Name(), variable.Value)
}

type ReturnStmt struct {
	Return *token.Token
	Value  *Node // nil for a bare return
}

func (ret ReturnStmt) String() string {
	return fmt.Sprintf("RETURN: %s", ret.Value)
}

// CondStmt is an if statement. "else if" is stored as an else block holding
// a single CondStmt.
type CondStmt struct {
	If    token.Pos
	Expr  *Node
	Block *BlockStmt
	Else  *BlockStmt
}

func (condStmt CondStmt) String() string {
	return fmt.Sprintf("IF %s %s ELSE %v", condStmt.Expr, condStmt.Block, condStmt.Else)
}

type ExprStmt struct {
	Expr *Node
}

func (stmt ExprStmt) String() string {
	return fmt.Sprintf("EXPR: %s", stmt.Expr)
}
