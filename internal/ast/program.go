package ast

import (
	"fmt"
	"os"
	"path/filepath"
)

// Program holds top-level nodes in source order. Functions is the global
// function table, filled while parsing so calls can refer to functions
// declared later in the file. Its parent, if any, holds functions from
// previously parsed programs (REPL input).
type Program struct {
	Loc       *Loc
	Body      []*Node
	Functions *Scope
}

func NewProgram(loc *Loc, parentFunctions *Scope) *Program {
	return &Program{Loc: loc, Functions: NewScope(parentFunctions)}
}

// Statements returns the top-level statements, skipping declarations.
func (program *Program) Statements() []*Node {
	var stmts []*Node
	for _, node := range program.Body {
		if !node.IsDecl() {
			stmts = append(stmts, node)
		}
	}
	return stmts
}

func (program *Program) LookupFn(name string) (*FnDecl, bool) {
	node, err := program.Functions.LookupAcrossScopes(name)
	if err != nil {
		return nil, false
	}
	return node.Node.(*FnDecl), true
}

type Loc struct {
	Name string
	Dir  string
	Path string
}

func LocFromPath(fullPath string) (*Loc, error) {
	loc := new(Loc)
	loc.Path = fullPath

	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, expected a source file", fullPath)
	}

	loc.Name = filepath.Base(fullPath)
	loc.Dir = filepath.Base(filepath.Dir(fullPath))
	return loc, nil
}

func (l Loc) String() string {
	return fmt.Sprintf("Name: %s | Dir: %s | Path: %s", l.Name, l.Dir, l.Path)
}
