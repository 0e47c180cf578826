package parser

import (
	"github.com/boo-lang/boo/internal/lexer/token"
)

// cursor walks a token slice that always ends with EOF. Reading past the end
// keeps returning the EOF token.
type cursor struct {
	offset int
	tokens []*token.Token
}

func newCursor(tokens []*token.Token) *cursor {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != token.EOF {
		var pos token.Pos
		if len(tokens) > 0 {
			pos = tokens[len(tokens)-1].Pos
		}
		tokens = append(tokens, &token.Token{Kind: token.EOF, Pos: pos})
	}
	return &cursor{offset: 0, tokens: tokens}
}

func (cursor *cursor) peek() *token.Token {
	return cursor.peekAt(0)
}

func (cursor *cursor) peekAt(n int) *token.Token {
	if cursor.offset+n >= len(cursor.tokens) {
		return cursor.tokens[len(cursor.tokens)-1]
	}
	return cursor.tokens[cursor.offset+n]
}

func (cursor *cursor) next() *token.Token {
	token := cursor.peek()
	if !cursor.isOutOfBound() {
		cursor.offset++
	}
	return token
}

func (cursor *cursor) skip() {
	cursor.next()
}

func (cursor *cursor) nextIs(expectedKind token.Kind) bool {
	return cursor.peek().Kind == expectedKind
}

func (cursor *cursor) isOutOfBound() bool {
	return cursor.offset >= len(cursor.tokens)-1
}
