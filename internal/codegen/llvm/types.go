package llvm

import (
	"github.com/boo-lang/boo/internal/runtime"
	"tinygo.org/x/go-llvm"
)

type Variable struct {
	Ty   llvm.Type
	Ptr  llvm.Value
	Kind runtime.Kind
	Init llvm.Value // i1 global set once a global variable is declared
}

func NewVariableValue(ty llvm.Type, ptr llvm.Value, kind runtime.Kind) *Variable {
	return &Variable{Ty: ty, Ptr: ptr, Kind: kind}
}

type Function struct {
	Fn     llvm.Value
	Ty     llvm.Type
	Ret    runtime.Kind
	Params []runtime.Kind
}

func NewFunctionValue(fn llvm.Value, ty llvm.Type, ret runtime.Kind, params []runtime.Kind) *Function {
	return &Function{Fn: fn, Ty: ty, Ret: ret, Params: params}
}

// symbols maps variable names to their storage. Function bodies get a
// table whose parent is the globals table.
type symbols struct {
	parent *symbols
	vars   map[string]*Variable
}

func newSymbols(parent *symbols) *symbols {
	return &symbols{parent: parent, vars: make(map[string]*Variable)}
}

func (s *symbols) lookup(name string) (*Variable, bool) {
	for current := s; current != nil; current = current.parent {
		if variable, ok := current.vars[name]; ok {
			return variable, true
		}
	}
	return nil, false
}
