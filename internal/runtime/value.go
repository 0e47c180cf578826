package runtime

import (
	"fmt"
	"math"
	"strconv"

	"github.com/boo-lang/boo/internal/lexer/token"
)

type Kind int

const (
	NUMBER Kind = iota
	STR
	BOOL

	// VOID is produced by calls that have nothing to return, such as print.
	// No variable can hold it.
	VOID
)

func (kind Kind) String() string {
	switch kind {
	case NUMBER:
		return "num"
	case STR:
		return "str"
	case BOOL:
		return "bool"
	case VOID:
		return "void"
	}
	return fmt.Sprintf("Kind(%d)", int(kind))
}

// KindFromType maps a type keyword to the value kind it declares.
func KindFromType(kind token.Kind) (Kind, bool) {
	switch kind {
	case token.NUM_TYPE:
		return NUMBER, true
	case token.STR_TYPE:
		return STR, true
	case token.BOOL_TYPE:
		return BOOL, true
	}
	return VOID, false
}

type Value struct {
	Kind   Kind
	Number float64
	Str    string
	Bool   bool
}

var Void = Value{Kind: VOID}

func NewNumber(n float64) Value { return Value{Kind: NUMBER, Number: n} }
func NewStr(s string) Value     { return Value{Kind: STR, Str: s} }
func NewBool(b bool) Value      { return Value{Kind: BOOL, Bool: b} }

// String is the canonical text form used by print, '><' and to_string.
func (v Value) String() string {
	switch v.Kind {
	case NUMBER:
		return FormatNumber(v.Number)
	case STR:
		return v.Str
	case BOOL:
		return strconv.FormatBool(v.Bool)
	}
	return v.Kind.String()
}

// Equal reports value equality. Values of different kinds are never equal.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case NUMBER:
		return v.Number == other.Number
	case STR:
		return v.Str == other.Str
	case BOOL:
		return v.Bool == other.Bool
	}
	return true
}

// FormatNumber renders integral values without a decimal point and any
// other value with the fewest digits that round-trip.
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "inf"
	case math.IsInf(n, -1):
		return "-inf"
	case n == 0:
		// also covers -0
		return "0"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
