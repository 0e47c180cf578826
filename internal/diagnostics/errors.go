package diagnostics

import (
	"errors"
	"fmt"

	"github.com/boo-lang/boo/internal/lexer/token"
)

var (
	ErrLex               = errors.New("lex error")
	ErrParse             = errors.New("parse error")
	ErrTypeMismatch      = errors.New("type error")
	ErrUndefinedVariable = errors.New("undefined variable")
	ErrUndefinedFunction = errors.New("undefined function")
	ErrArity             = errors.New("arity error")
	ErrMethodNotFound    = errors.New("method not found")
	ErrDivisionByZero    = errors.New("division by zero")
	ErrMissingReturn     = errors.New("missing return")
	ErrStackOverflow     = errors.New("stack overflow")
)

type LexError struct {
	Pos    token.Pos
	Reason string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Pos, ErrLex, e.Reason)
}

func (e *LexError) Is(target error) bool { return target == ErrLex }

type ParseError struct {
	Pos      token.Pos
	Expected string
	Found    string
}

func NewParseError(tok *token.Token, expected string) *ParseError {
	found := tok.Kind.String()
	switch tok.Kind {
	case token.ID, token.NUMBER_LITERAL:
		found = fmt.Sprintf("%s '%s'", tok.Kind, tok.Lexeme)
	case token.STRING_LITERAL:
		found = fmt.Sprintf("%s %q", tok.Kind, tok.Lexeme)
	}
	return &ParseError{Pos: tok.Pos, Expected: expected, Found: found}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s: expected %s, found %s", e.Pos, ErrParse, e.Expected, e.Found)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

type ErrorKind int

const (
	TYPE ErrorKind = iota
	UNDEFINED_VARIABLE
	UNDEFINED_FUNCTION
	ARITY
	METHOD_NOT_FOUND
	DIVISION_BY_ZERO
	MISSING_RETURN
	STACK_OVERFLOW
)

func (kind ErrorKind) sentinel() error {
	switch kind {
	case TYPE:
		return ErrTypeMismatch
	case UNDEFINED_VARIABLE:
		return ErrUndefinedVariable
	case UNDEFINED_FUNCTION:
		return ErrUndefinedFunction
	case ARITY:
		return ErrArity
	case METHOD_NOT_FOUND:
		return ErrMethodNotFound
	case DIVISION_BY_ZERO:
		return ErrDivisionByZero
	case MISSING_RETURN:
		return ErrMissingReturn
	case STACK_OVERFLOW:
		return ErrStackOverflow
	}
	return nil
}

func (kind ErrorKind) String() string {
	if err := kind.sentinel(); err != nil {
		return err.Error()
	}
	return fmt.Sprintf("ErrorKind(%d)", int(kind))
}

// RuntimeError is raised by the evaluator. Every runtime error aborts the
// program.
type RuntimeError struct {
	Kind   ErrorKind
	Pos    token.Pos
	Reason string
}

func NewRuntimeError(kind ErrorKind, pos token.Pos, format string, args ...any) *RuntimeError {
	return &RuntimeError{Kind: kind, Pos: pos, Reason: fmt.Sprintf(format, args...)}
}

func (e *RuntimeError) Error() string {
	if !e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Reason)
}

func (e *RuntimeError) Is(target error) bool {
	return target == e.Kind.sentinel()
}
