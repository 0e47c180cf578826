package lexer

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/boo-lang/boo/internal/diagnostics"
	"github.com/boo-lang/boo/internal/lexer/token"
)

const eof = '\000'

type Lexer struct {
	Collector *diagnostics.Collector

	src    []byte
	offset int
	pos    token.Pos
}

func New(filename string, src []byte, collector *diagnostics.Collector) *Lexer {
	lexer := new(Lexer)

	lexer.Collector = collector
	lexer.pos = token.NewPosition(filename, 1, 1)
	lexer.src = src
	lexer.offset = 0

	return lexer
}

func NewFromFilePath(path string, collector *diagnostics.Collector) (*Lexer, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return New(filepath.Base(path), src, collector), nil
}

// Tokenize lexes the whole input. The last token is always EOF.
func (lex *Lexer) Tokenize() ([]*token.Token, error) {
	var tokens []*token.Token
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return tokens, nil
}

func (lex *Lexer) Next() (*token.Token, error) {
	if err := lex.skipWhitespaceAndComments(); err != nil {
		return nil, err
	}

	tok := &token.Token{Kind: token.INVALID, Pos: lex.pos}

	character := lex.peekChar()
	if character == eof && lex.offset >= len(lex.src) {
		tok.Kind = token.EOF
		return tok, nil
	}

	return lex.getToken(tok, character)
}

func (lex *Lexer) getToken(tok *token.Token, ch byte) (*token.Token, error) {
	switch ch {
	case '(':
		lex.consume(tok, token.OPEN_PAREN, 1)
	case ')':
		lex.consume(tok, token.CLOSE_PAREN, 1)
	case '{':
		lex.consume(tok, token.OPEN_CURLY, 1)
	case '}':
		lex.consume(tok, token.CLOSE_CURLY, 1)
	case ',':
		lex.consume(tok, token.COMMA, 1)
	case ';':
		lex.consume(tok, token.SEMICOLON, 1)
	case '.':
		lex.consume(tok, token.DOT, 1)
	case '+':
		lex.consumeWithEqual(tok, token.PLUS, token.PLUS_EQUAL)
	case '/':
		// comments were already skipped
		lex.consumeWithEqual(tok, token.SLASH, token.SLASH_EQUAL)
	case '%':
		lex.consumeWithEqual(tok, token.PERCENT, token.PERCENT_EQUAL)
	case '=':
		lex.consumeWithEqual(tok, token.EQUAL, token.EQUAL_EQUAL)
	case '<':
		lex.consumeWithEqual(tok, token.LESS, token.LESS_EQ)
	case '-':
		switch lex.peekCharAt(1) {
		case '>':
			lex.consume(tok, token.ARROW, 2)
		case '=':
			lex.consume(tok, token.MINUS_EQUAL, 2)
		default:
			lex.consume(tok, token.MINUS, 1)
		}
	case '>':
		switch lex.peekCharAt(1) {
		case '<':
			lex.consume(tok, token.CONCAT, 2)
		case '=':
			lex.consume(tok, token.GREATER_EQ, 2)
		default:
			lex.consume(tok, token.GREATER, 1)
		}
	case '*':
		switch {
		case lex.peekCharAt(1) == '*' && lex.peekCharAt(2) == '=':
			lex.consume(tok, token.STAR_STAR_EQUAL, 3)
		case lex.peekCharAt(1) == '*':
			lex.consume(tok, token.STAR_STAR, 2)
		case lex.peekCharAt(1) == '=':
			lex.consume(tok, token.STAR_EQUAL, 2)
		default:
			lex.consume(tok, token.STAR, 1)
		}
	case '!':
		if lex.peekCharAt(1) != '=' {
			return nil, lex.error(tok.Pos, "invalid character '!', did you mean '!='?")
		}
		lex.consume(tok, token.BANG_EQUAL, 2)
	case '"':
		return lex.getStringLit(tok)
	default:
		switch {
		case isLetter(ch):
			lex.getIdOrKeyword(tok)
		case isDigit(ch):
			lex.getNumberLit(tok)
		default:
			r, _ := utf8.DecodeRune(lex.src[lex.offset:])
			return nil, lex.error(tok.Pos, fmt.Sprintf("unrecognized character %q", r))
		}
	}
	return tok, nil
}

// Supported escapes: \n, \t, \\ and \". Anything else is an error.
func (lex *Lexer) getStringLit(tok *token.Token) (*token.Token, error) {
	lex.nextChar() // "

	var str []byte
	for {
		if lex.offset >= len(lex.src) {
			return nil, lex.error(tok.Pos, "unterminated string literal")
		}

		ch := lex.peekChar()
		if ch == '"' {
			break
		}

		if ch == '\\' {
			escapePos := lex.pos
			lex.nextChar()
			if lex.offset >= len(lex.src) {
				return nil, lex.error(tok.Pos, "unterminated string literal")
			}

			var escape byte
			switch escapeSym := lex.peekChar(); escapeSym {
			case 'n':
				escape = '\n'
			case 't':
				escape = '\t'
			case '\\':
				escape = '\\'
			case '"':
				escape = '"'
			default:
				return nil, lex.error(escapePos, fmt.Sprintf("invalid escape sequence '\\%c'", escapeSym))
			}
			str = append(str, escape)
		} else {
			str = append(str, ch)
		}

		lex.nextChar()
	}
	lex.nextChar() // "

	tok.Kind = token.STRING_LITERAL
	tok.Lexeme = str
	return tok, nil
}

// A number is a run of digits with at most one decimal point, which must be
// followed by a digit: "1.to_string()" lexes as 1 . to_string ( ).
func (lex *Lexer) getNumberLit(tok *token.Token) {
	start := lex.offset
	lex.readWhile(isDigit)
	if lex.peekChar() == '.' && isDigit(lex.peekCharAt(1)) {
		lex.nextChar() // .
		lex.readWhile(isDigit)
	}

	tok.Kind = token.NUMBER_LITERAL
	tok.Lexeme = lex.src[start:lex.offset]
}

func (lex *Lexer) getIdOrKeyword(tok *token.Token) {
	identifier := lex.readWhile(
		func(chr byte) bool { return isLetter(chr) || isDigit(chr) },
	)
	tok.Kind = token.ID
	tok.Lexeme = identifier
	keyword, ok := token.KEYWORDS[string(identifier)]
	if ok {
		tok.Kind = keyword
	}
}

func (lex *Lexer) consume(tok *token.Token, kind token.Kind, width int) {
	tok.Lexeme = lex.src[lex.offset : lex.offset+width]
	tok.Kind = kind
	for range width {
		lex.nextChar()
	}
}

func (lex *Lexer) consumeWithEqual(tok *token.Token, single, withEqual token.Kind) {
	if lex.peekCharAt(1) == '=' {
		lex.consume(tok, withEqual, 2)
		return
	}
	lex.consume(tok, single, 1)
}

func (lex *Lexer) skipWhitespaceAndComments() error {
	for {
		lex.readWhile(func(ch byte) bool {
			return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
		})
		if lex.peekChar() == '/' && lex.peekCharAt(1) == '/' {
			lex.readWhile(func(ch byte) bool { return ch != '\n' })
			continue
		}
		return nil
	}
}

func (lex *Lexer) error(pos token.Pos, reason string) error {
	err := &diagnostics.LexError{Pos: pos, Reason: reason}
	return lex.Collector.Report(err)
}

func (lex *Lexer) readWhile(isValid func(byte) bool) []byte {
	start := lex.offset
	for lex.offset < len(lex.src) && isValid(lex.peekChar()) {
		lex.nextChar()
	}
	return lex.src[start:lex.offset]
}

func (lex *Lexer) nextChar() byte {
	if lex.offset >= len(lex.src) {
		return eof
	}
	character := lex.src[lex.offset]
	lex.pos.Move(character)
	lex.offset++
	return character
}

func (lex *Lexer) peekChar() byte {
	return lex.peekCharAt(0)
}

func (lex *Lexer) peekCharAt(n int) byte {
	if lex.offset+n >= len(lex.src) {
		return eof
	}
	return lex.src[lex.offset+n]
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
