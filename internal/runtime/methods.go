package runtime

import "unicode/utf8"

type Method func(receiver Value) Value

type methodKey struct {
	kind Kind
	name string
}

var METHODS map[methodKey]Method = map[methodKey]Method{
	{STR, "len"}: func(receiver Value) Value {
		return NewNumber(float64(utf8.RuneCountInString(receiver.Str)))
	},
	{STR, "to_string"}:    toString,
	{NUMBER, "to_string"}: toString,
	{BOOL, "to_string"}:   toString,
}

func toString(receiver Value) Value {
	return NewStr(receiver.String())
}

func LookupMethod(kind Kind, name string) (Method, bool) {
	method, ok := METHODS[methodKey{kind, name}]
	return method, ok
}
