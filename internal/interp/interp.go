package interp

import (
	"io"
	"log/slog"
	"os"

	"github.com/boo-lang/boo/internal/ast"
	"github.com/boo-lang/boo/internal/diagnostics"
	"github.com/boo-lang/boo/internal/parser"
	"github.com/boo-lang/boo/internal/runtime"
)

const (
	DEFAULT_MAX_CALL_DEPTH = 1000
	// MAX_CALL_DEPTH keeps the evaluator well inside the goroutine stack
	// limit, so deep recursion ends in a stack overflow error.
	MAX_CALL_DEPTH = 100_000
)

type signal int

const (
	CONTINUE signal = iota
	RETURN
)

// Interpreter walks the AST directly. Global variables survive between
// calls to Exec, which is what the REPL relies on. An Interpreter is not
// safe for concurrent use.
type Interpreter struct {
	env       *runtime.Env
	program   *ast.Program
	collector *diagnostics.Collector
	logger    *slog.Logger

	out   io.Writer
	lines []string

	maxCallDepth int
	depth        int
}

type Option func(*Interpreter)

// WithOutput sets where print writes. Defaults to stdout.
func WithOutput(out io.Writer) Option {
	return func(interp *Interpreter) {
		if out == nil {
			out = io.Discard
		}
		interp.out = out
	}
}

// WithMaxCallDepth sets the recursion limit. See ClampCallDepth.
func WithMaxCallDepth(depth int) Option {
	return func(interp *Interpreter) {
		interp.maxCallDepth = ClampCallDepth(depth)
	}
}

// ClampCallDepth returns depth limited to MAX_CALL_DEPTH. Values below one
// select DEFAULT_MAX_CALL_DEPTH.
func ClampCallDepth(depth int) int {
	if depth < 1 {
		return DEFAULT_MAX_CALL_DEPTH
	}
	return min(depth, MAX_CALL_DEPTH)
}

func WithLogger(logger *slog.Logger) Option {
	return func(interp *Interpreter) {
		if logger != nil {
			interp.logger = logger
		}
	}
}

// WithCollector sets the collector that records lex, parse and runtime
// errors. By default they are recorded but not written anywhere.
func WithCollector(collector *diagnostics.Collector) Option {
	return func(interp *Interpreter) {
		if collector != nil {
			interp.collector = collector
		}
	}
}

func New(opts ...Option) *Interpreter {
	interp := &Interpreter{
		env:          runtime.NewEnv(),
		collector:    diagnostics.NewWithWriter(io.Discard),
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		out:          os.Stdout,
		maxCallDepth: DEFAULT_MAX_CALL_DEPTH,
	}
	for _, opt := range opts {
		opt(interp)
	}
	return interp
}

// Run parses and executes src. It returns every line printed before the
// program finished or failed, and the first error.
func Run(filename string, src []byte, opts ...Option) ([]string, error) {
	interp := New(opts...)

	program, err := parser.New(interp.collector).ParseSource(filename, src)
	if err != nil {
		return nil, err
	}

	_, err = interp.Exec(program)
	return interp.Lines(), err
}

// Lines returns every line printed so far.
func (interp *Interpreter) Lines() []string { return interp.lines }

// Globals returns the variables declared at the top level.
func (interp *Interpreter) Globals() map[string]runtime.Binding {
	return interp.env.Names(runtime.GLOBAL)
}

// Exec runs the top-level statements of program in the global scope.
// Functions of program are visible to every statement, wherever they are
// declared. The result is the value of the last top-level expression
// statement, or runtime.Void.
func (interp *Interpreter) Exec(program *ast.Program) (runtime.Value, error) {
	interp.program = program
	interp.depth = 0

	if program.Functions != nil {
		interp.logger.Debug("functions registered",
			slog.Any("names", program.Functions.Names()))
	}

	last := runtime.Void
	for _, stmt := range program.Statements() {
		if stmt.Kind == ast.KIND_EXPR_STMT {
			value, err := interp.evalExpr(stmt.Node.(*ast.ExprStmt).Expr, runtime.GLOBAL)
			if err != nil {
				return interp.fail(err)
			}
			last = value
			continue
		}

		last = runtime.Void
		if _, _, err := interp.execStmt(stmt, runtime.GLOBAL); err != nil {
			return interp.fail(err)
		}
	}
	return last, nil
}

func (interp *Interpreter) fail(err error) (runtime.Value, error) {
	interp.env.Truncate(runtime.GLOBAL + 1)
	interp.depth = 0
	return runtime.Void, err
}

func (interp *Interpreter) error(kind diagnostics.ErrorKind, node *ast.Node, format string, args ...any) error {
	return interp.collector.Report(diagnostics.NewRuntimeError(kind, node.Pos(), format, args...))
}

func (interp *Interpreter) execStmt(stmt *ast.Node, scope int) (signal, runtime.Value, error) {
	switch stmt.Kind {
	case ast.KIND_VAR_STMT:
		return CONTINUE, runtime.Void, interp.execVar(stmt.Node.(*ast.VarStmt), scope)
	case ast.KIND_COND_STMT:
		return interp.execCond(stmt.Node.(*ast.CondStmt), scope)
	case ast.KIND_RETURN_STMT:
		ret := stmt.Node.(*ast.ReturnStmt)
		if ret.Value == nil {
			return RETURN, runtime.Void, nil
		}
		value, err := interp.evalValue(ret.Value, scope)
		if err != nil {
			return CONTINUE, runtime.Void, err
		}
		return RETURN, value, nil
	case ast.KIND_EXPR_STMT:
		_, err := interp.evalExpr(stmt.Node.(*ast.ExprStmt).Expr, scope)
		return CONTINUE, runtime.Void, err
	case ast.KIND_BLOCK_STMT:
		return interp.execBlock(stmt.Node.(*ast.BlockStmt), scope)
	default:
		return CONTINUE, runtime.Void, interp.error(diagnostics.TYPE, stmt, "%v cannot be executed here", stmt.Kind)
	}
}

// execStmts runs statements in scope until one of them returns.
func (interp *Interpreter) execStmts(stmts []*ast.Node, scope int) (signal, runtime.Value, error) {
	for _, stmt := range stmts {
		sig, value, err := interp.execStmt(stmt, scope)
		if err != nil || sig == RETURN {
			return sig, value, err
		}
	}
	return CONTINUE, runtime.Void, nil
}

func (interp *Interpreter) execBlock(block *ast.BlockStmt, parent int) (signal, runtime.Value, error) {
	scope := interp.env.Push(parent)
	defer interp.env.Truncate(scope)
	return interp.execStmts(block.Statements, scope)
}

func (interp *Interpreter) execVar(variable *ast.VarStmt, scope int) error {
	ty, _ := runtime.KindFromType(variable.Type.Kind)

	value, err := interp.evalValue(variable.Value, scope)
	if err != nil {
		return err
	}
	if value.Kind != ty {
		return interp.error(diagnostics.TYPE, variable.Value,
			"cannot initialize %s variable '%s' with %s value", ty, variable.Name.Name(), value.Kind)
	}

	if !interp.env.Declare(scope, variable.Name.Name(), ty, value) {
		return interp.collector.Report(diagnostics.NewRuntimeError(diagnostics.TYPE, variable.Name.Pos,
			"'%s' is already declared in this scope", variable.Name.Name()))
	}
	return nil
}

func (interp *Interpreter) execCond(cond *ast.CondStmt, scope int) (signal, runtime.Value, error) {
	value, err := interp.evalValue(cond.Expr, scope)
	if err != nil {
		return CONTINUE, runtime.Void, err
	}
	if value.Kind != runtime.BOOL {
		return CONTINUE, runtime.Void, interp.error(diagnostics.TYPE, cond.Expr,
			"if condition must be bool, found %s", value.Kind)
	}

	if value.Bool {
		return interp.execBlock(cond.Block, scope)
	}
	if cond.Else != nil {
		return interp.execBlock(cond.Else, scope)
	}
	return CONTINUE, runtime.Void, nil
}
