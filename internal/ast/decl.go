package ast

import (
	"fmt"

	"github.com/boo-lang/boo/internal/lexer/token"
)

type Param struct {
	Type *token.Token
	Name *token.Token
}

func (param Param) String() string {
	return fmt.Sprintf("%s %s", param.Type.Kind, param.Name.Name())
}

// FnDecl is immutable once parsed.
type FnDecl struct {
	Name    *token.Token
	Params  []*Param
	RetType *token.Token
	Block   *BlockStmt
}

func (fnDecl FnDecl) String() string {
	return fmt.Sprintf(
		"Name: %s\nParams: %s\nRetType: %s\nBlock: %s\n",
		fnDecl.Name.Name(),
		fnDecl.Params,
		fnDecl.RetType.Kind,
		fnDecl.Block,
	)
}
