package token

import "fmt"

type Kind int

const (
	// EOF
	EOF Kind = iota
	INVALID

	// Identifier
	ID

	// Literals
	NUMBER_LITERAL
	STRING_LITERAL
	TRUE_BOOL_LITERAL
	FALSE_BOOL_LITERAL

	// Keywords
	FUN
	IF
	ELSE
	RETURN
	PRINT

	// Types
	NUM_TYPE  // num
	STR_TYPE  // str
	BOOL_TYPE // bool

	// (
	OPEN_PAREN
	// )
	CLOSE_PAREN

	// {
	OPEN_CURLY
	// }
	CLOSE_CURLY

	// ,
	COMMA
	// ;
	SEMICOLON
	// .
	DOT
	// ->
	ARROW

	// =
	EQUAL
	// +=
	PLUS_EQUAL
	// -=
	MINUS_EQUAL
	// *=
	STAR_EQUAL
	// /=
	SLASH_EQUAL
	// **=
	STAR_STAR_EQUAL
	// %=
	PERCENT_EQUAL

	// ==
	EQUAL_EQUAL
	// !=
	BANG_EQUAL

	// >
	GREATER
	// >=
	GREATER_EQ
	// <
	LESS
	// <=
	LESS_EQ

	// +
	PLUS
	// -
	MINUS
	// *
	STAR
	// /
	SLASH
	// %
	PERCENT
	// **
	STAR_STAR
	// ><
	CONCAT
)

var KEYWORDS map[string]Kind = map[string]Kind{
	"fun":    FUN,
	"if":     IF,
	"else":   ELSE,
	"return": RETURN,
	"print":  PRINT,

	"true":  TRUE_BOOL_LITERAL,
	"false": FALSE_BOOL_LITERAL,

	"num":  NUM_TYPE,
	"str":  STR_TYPE,
	"bool": BOOL_TYPE,
}

var BASIC_TYPES map[Kind]bool = map[Kind]bool{
	NUM_TYPE:  true,
	STR_TYPE:  true,
	BOOL_TYPE: true,
}

var LITERAL_KIND map[Kind]bool = map[Kind]bool{
	NUMBER_LITERAL:     true,
	STRING_LITERAL:     true,
	TRUE_BOOL_LITERAL:  true,
	FALSE_BOOL_LITERAL: true,
}

// Compound assignment operators mapped to the binary operator they apply.
var COMPOUND_ASSIGN map[Kind]Kind = map[Kind]Kind{
	PLUS_EQUAL:      PLUS,
	MINUS_EQUAL:     MINUS,
	STAR_EQUAL:      STAR,
	SLASH_EQUAL:     SLASH,
	STAR_STAR_EQUAL: STAR_STAR,
	PERCENT_EQUAL:   PERCENT,
}

func (kind Kind) IsBasicType() bool {
	_, ok := BASIC_TYPES[kind]
	return ok
}

func (kind Kind) IsLiteral() bool {
	_, ok := LITERAL_KIND[kind]
	return ok
}

func (kind Kind) IsAssign() bool {
	if kind == EQUAL {
		return true
	}
	_, ok := COMPOUND_ASSIGN[kind]
	return ok
}

func (kind Kind) String() string {
	switch kind {
	case EOF:
		return "end of file"
	case INVALID:
		return "INVALID"
	case ID:
		return "identifier"
	case NUMBER_LITERAL:
		return "number literal"
	case STRING_LITERAL:
		return "string literal"
	case TRUE_BOOL_LITERAL:
		return "true"
	case FALSE_BOOL_LITERAL:
		return "false"
	case FUN:
		return "fun"
	case IF:
		return "if"
	case ELSE:
		return "else"
	case RETURN:
		return "return"
	case PRINT:
		return "print"
	case NUM_TYPE:
		return "num"
	case STR_TYPE:
		return "str"
	case BOOL_TYPE:
		return "bool"
	case OPEN_PAREN:
		return "("
	case CLOSE_PAREN:
		return ")"
	case OPEN_CURLY:
		return "{"
	case CLOSE_CURLY:
		return "}"
	case COMMA:
		return ","
	case SEMICOLON:
		return ";"
	case DOT:
		return "."
	case ARROW:
		return "->"
	case EQUAL:
		return "="
	case PLUS_EQUAL:
		return "+="
	case MINUS_EQUAL:
		return "-="
	case STAR_EQUAL:
		return "*="
	case SLASH_EQUAL:
		return "/="
	case STAR_STAR_EQUAL:
		return "**="
	case PERCENT_EQUAL:
		return "%="
	case EQUAL_EQUAL:
		return "=="
	case BANG_EQUAL:
		return "!="
	case GREATER:
		return ">"
	case GREATER_EQ:
		return ">="
	case LESS:
		return "<"
	case LESS_EQ:
		return "<="
	case PLUS:
		return "+"
	case MINUS:
		return "-"
	case STAR:
		return "*"
	case SLASH:
		return "/"
	case PERCENT:
		return "%"
	case STAR_STAR:
		return "**"
	case CONCAT:
		return "><"
	}
	return fmt.Sprintf("Kind(%d)", int(kind))
}
