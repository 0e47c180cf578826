// Package ast defines the abstract syntax tree (AST) for boo programs.
package ast

import "fmt"

type NodeKind int

const (
	DECL_START NodeKind = iota // declaration node start delimiter

	KIND_FN_DECL

	DECL_END // declaration node end delimiter

	STMT_START // statement node start delimiter
	KIND_BLOCK_STMT
	KIND_VAR_STMT
	KIND_RETURN_STMT
	KIND_COND_STMT
	KIND_EXPR_STMT
	STMT_END // statement node end delimiter

	EXPR_START // expression node start delimiter
	KIND_ASSIGN_EXPR
	KIND_FN_CALL
	KIND_METHOD_CALL
	KIND_LITERAL_EXPR
	KIND_ID_EXPR
	KIND_UNARY_EXPR
	KIND_BINARY_EXPR
	EXPR_END // expression node end delimiter
)

// Node is a tagged AST node: Kind tells which concrete type Node holds.
// Every node exclusively owns its children.
type Node struct {
	Kind NodeKind
	Node any
}

func NewNode(kind NodeKind, node any) *Node {
	return &Node{Kind: kind, Node: node}
}

func (n *Node) IsStmt() bool {
	return n.Kind > STMT_START && n.Kind < STMT_END
}

func (n *Node) IsExpr() bool {
	return n.Kind > EXPR_START && n.Kind < EXPR_END
}

func (n *Node) IsDecl() bool {
	return n.Kind > DECL_START && n.Kind < DECL_END
}

func (n *Node) IsId() bool {
	return n.Kind == KIND_ID_EXPR
}

func (n *Node) IsReturn() bool {
	return n.Kind == KIND_RETURN_STMT
}

func (n *Node) String() string {
	switch n.Kind {
	case KIND_FN_DECL:
		return "KIND_FN_DECL"
	case KIND_BLOCK_STMT:
		return "KIND_BLOCK_STMT"
	case KIND_VAR_STMT:
		return "KIND_VAR_STMT"
	case KIND_RETURN_STMT:
		return "KIND_RETURN_STMT"
	case KIND_COND_STMT:
		return "KIND_COND_STMT"
	case KIND_EXPR_STMT:
		return "KIND_EXPR_STMT"
	case KIND_ASSIGN_EXPR:
		return "KIND_ASSIGN_EXPR"
	case KIND_FN_CALL:
		return "KIND_FN_CALL"
	case KIND_METHOD_CALL:
		return "KIND_METHOD_CALL"
	case KIND_LITERAL_EXPR:
		return "KIND_LITERAL_EXPR"
	case KIND_ID_EXPR:
		return "KIND_ID_EXPR"
	case KIND_UNARY_EXPR:
		return "KIND_UNARY_EXPR"
	case KIND_BINARY_EXPR:
		return "KIND_BINARY_EXPR"
	default:
		return fmt.Sprintf("Unknown Node Kind: %d", n.Kind)
	}
}
