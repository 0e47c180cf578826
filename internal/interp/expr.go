package interp

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/boo-lang/boo/internal/ast"
	"github.com/boo-lang/boo/internal/diagnostics"
	"github.com/boo-lang/boo/internal/lexer/token"
	"github.com/boo-lang/boo/internal/runtime"
)

// evalValue is evalExpr for contexts that need an actual value, which
// rules out calls to print.
func (interp *Interpreter) evalValue(expr *ast.Node, scope int) (runtime.Value, error) {
	value, err := interp.evalExpr(expr, scope)
	if err != nil {
		return runtime.Void, err
	}
	if value.Kind == runtime.VOID {
		return runtime.Void, interp.error(diagnostics.TYPE, expr, "%s does not produce a value", ast.PrintExpr(expr))
	}
	return value, nil
}

func (interp *Interpreter) evalExpr(expr *ast.Node, scope int) (runtime.Value, error) {
	switch expr.Kind {
	case ast.KIND_LITERAL_EXPR:
		literal := expr.Node.(*ast.LiteralExpr)
		switch literal.Kind {
		case token.NUMBER_LITERAL:
			return runtime.NewNumber(literal.Number), nil
		case token.STRING_LITERAL:
			return runtime.NewStr(string(literal.Value)), nil
		case token.TRUE_BOOL_LITERAL:
			return runtime.NewBool(true), nil
		default:
			return runtime.NewBool(false), nil
		}
	case ast.KIND_ID_EXPR:
		name := expr.Node.(*ast.IdExpr).Name.Name()
		binding, ok := interp.env.Resolve(scope, name)
		if !ok {
			return runtime.Void, interp.error(diagnostics.UNDEFINED_VARIABLE, expr, "'%s' is not declared", name)
		}
		return binding.Value, nil
	case ast.KIND_UNARY_EXPR:
		unary := expr.Node.(*ast.UnaryExpr)
		value, err := interp.evalValue(unary.Value, scope)
		if err != nil {
			return runtime.Void, err
		}
		if value.Kind != runtime.NUMBER {
			return runtime.Void, interp.error(diagnostics.TYPE, expr,
				"unary '%s' expects num, found %s", unary.Op, value.Kind)
		}
		return runtime.NewNumber(-value.Number), nil
	case ast.KIND_BINARY_EXPR:
		binary := expr.Node.(*ast.BinaryExpr)
		lhs, err := interp.evalValue(binary.Left, scope)
		if err != nil {
			return runtime.Void, err
		}
		rhs, err := interp.evalValue(binary.Right, scope)
		if err != nil {
			return runtime.Void, err
		}
		return interp.applyBinary(binary.Op, lhs, rhs, expr)
	case ast.KIND_ASSIGN_EXPR:
		return interp.evalAssign(expr, scope)
	case ast.KIND_FN_CALL:
		call := expr.Node.(*ast.FnCall)
		if call.Name.Kind == token.PRINT {
			return interp.evalPrint(call, expr, scope)
		}
		return interp.evalFnCall(call, expr, scope)
	case ast.KIND_METHOD_CALL:
		return interp.evalMethodCall(expr.Node.(*ast.MethodCall), expr, scope)
	default:
		return runtime.Void, interp.error(diagnostics.TYPE, expr, "%v is not an expression", expr.Kind)
	}
}

// applyBinary is shared by binary expressions and compound assignment.
// node is only used for error positions.
func (interp *Interpreter) applyBinary(op token.Kind, lhs, rhs runtime.Value, node *ast.Node) (runtime.Value, error) {
	switch op {
	case token.CONCAT:
		return runtime.NewStr(lhs.String() + rhs.String()), nil
	case token.EQUAL_EQUAL, token.BANG_EQUAL:
		if lhs.Kind != rhs.Kind {
			return runtime.Void, interp.error(diagnostics.TYPE, node,
				"cannot compare %s with %s using '%s'", lhs.Kind, rhs.Kind, op)
		}
		equal := lhs.Equal(rhs)
		if op == token.BANG_EQUAL {
			equal = !equal
		}
		return runtime.NewBool(equal), nil
	}

	if lhs.Kind != runtime.NUMBER || rhs.Kind != runtime.NUMBER {
		return runtime.Void, interp.error(diagnostics.TYPE, node,
			"operator '%s' expects num operands, found %s and %s", op, lhs.Kind, rhs.Kind)
	}

	a, b := lhs.Number, rhs.Number
	switch op {
	case token.LESS:
		return runtime.NewBool(a < b), nil
	case token.LESS_EQ:
		return runtime.NewBool(a <= b), nil
	case token.GREATER:
		return runtime.NewBool(a > b), nil
	case token.GREATER_EQ:
		return runtime.NewBool(a >= b), nil
	case token.PLUS:
		return runtime.NewNumber(a + b), nil
	case token.MINUS:
		return runtime.NewNumber(a - b), nil
	case token.STAR:
		return runtime.NewNumber(a * b), nil
	case token.SLASH:
		if b == 0 {
			return runtime.Void, interp.error(diagnostics.DIVISION_BY_ZERO, node, "%s / 0", runtime.FormatNumber(a))
		}
		return runtime.NewNumber(a / b), nil
	case token.PERCENT:
		if b == 0 {
			return runtime.Void, interp.error(diagnostics.DIVISION_BY_ZERO, node, "%s %% 0", runtime.FormatNumber(a))
		}
		return runtime.NewNumber(math.Mod(a, b)), nil
	case token.STAR_STAR:
		return runtime.NewNumber(math.Pow(a, b)), nil
	}
	return runtime.Void, interp.error(diagnostics.TYPE, node, "unknown binary operator '%s'", op)
}

func (interp *Interpreter) evalAssign(expr *ast.Node, scope int) (runtime.Value, error) {
	assign := expr.Node.(*ast.AssignExpr)
	name := assign.Target.Name()

	binding, ok := interp.env.Resolve(scope, name)
	if !ok {
		return runtime.Void, interp.error(diagnostics.UNDEFINED_VARIABLE, expr, "cannot assign to '%s', it is not declared", name)
	}
	current := binding.Value

	value, err := interp.evalValue(assign.Value, scope)
	if err != nil {
		return runtime.Void, err
	}

	if op, ok := token.COMPOUND_ASSIGN[assign.Op]; ok {
		value, err = interp.applyBinary(op, current, value, expr)
		if err != nil {
			return runtime.Void, err
		}
	}

	if value.Kind != binding.Type {
		return runtime.Void, interp.error(diagnostics.TYPE, expr,
			"cannot assign %s value to %s variable '%s'", value.Kind, binding.Type, name)
	}
	binding.Value = value
	return value, nil
}

func (interp *Interpreter) evalPrint(call *ast.FnCall, expr *ast.Node, scope int) (runtime.Value, error) {
	if len(call.Args) != 1 {
		return runtime.Void, interp.error(diagnostics.ARITY, expr,
			"print expects exactly 1 argument, got %d", len(call.Args))
	}

	value, err := interp.evalValue(call.Args[0], scope)
	if err != nil {
		return runtime.Void, err
	}

	line := value.String()
	interp.lines = append(interp.lines, line)
	if _, err := fmt.Fprintln(interp.out, line); err != nil {
		return runtime.Void, fmt.Errorf("writing output: %w", err)
	}
	return runtime.Void, nil
}

func (interp *Interpreter) evalFnCall(call *ast.FnCall, expr *ast.Node, scope int) (runtime.Value, error) {
	name := call.Name.Name()

	fn, ok := interp.program.LookupFn(name)
	if !ok {
		return runtime.Void, interp.error(diagnostics.UNDEFINED_FUNCTION, expr, "function '%s' is not declared", name)
	}
	if len(call.Args) != len(fn.Params) {
		return runtime.Void, interp.error(diagnostics.ARITY, expr,
			"function '%s' expects %d argument(s), got %d", name, len(fn.Params), len(call.Args))
	}

	args := make([]runtime.Value, len(call.Args))
	for i, arg := range call.Args {
		value, err := interp.evalValue(arg, scope)
		if err != nil {
			return runtime.Void, err
		}
		param := fn.Params[i]
		ty, _ := runtime.KindFromType(param.Type.Kind)
		if value.Kind != ty {
			return runtime.Void, interp.error(diagnostics.TYPE, arg,
				"argument '%s' of '%s' must be %s, found %s", param.Name.Name(), name, ty, value.Kind)
		}
		args[i] = value
	}

	if interp.depth >= interp.maxCallDepth {
		return runtime.Void, interp.error(diagnostics.STACK_OVERFLOW, expr,
			"maximum call depth of %d exceeded calling '%s'", interp.maxCallDepth, name)
	}
	interp.depth++
	defer func() { interp.depth-- }()

	interp.logger.Debug("function call",
		slog.String("function", name),
		slog.Int("argument-count", len(args)),
		slog.Int("depth", interp.depth))

	// calls only see globals and their own parameters
	callScope := interp.env.Push(runtime.GLOBAL)
	defer interp.env.Truncate(callScope)

	for i, param := range fn.Params {
		interp.env.Declare(callScope, param.Name.Name(), args[i].Kind, args[i])
	}

	sig, value, err := interp.execStmts(fn.Block.Statements, callScope)
	if err != nil {
		return runtime.Void, err
	}

	retType, _ := runtime.KindFromType(fn.RetType.Kind)
	if sig != RETURN {
		return runtime.Void, interp.collector.Report(diagnostics.NewRuntimeError(diagnostics.MISSING_RETURN, fn.Block.CloseCurly,
			"function '%s' reached its end without returning a %s value", name, retType))
	}
	if value.Kind != retType {
		return runtime.Void, interp.error(diagnostics.TYPE, expr,
			"function '%s' must return %s, found %s", name, retType, value.Kind)
	}

	interp.logger.Debug("function return",
		slog.String("function", name),
		slog.String("value", value.String()))
	return value, nil
}

func (interp *Interpreter) evalMethodCall(call *ast.MethodCall, expr *ast.Node, scope int) (runtime.Value, error) {
	receiver, err := interp.evalValue(call.Receiver, scope)
	if err != nil {
		return runtime.Void, err
	}

	name := call.Name.Name()
	method, ok := runtime.LookupMethod(receiver.Kind, name)
	if !ok {
		return runtime.Void, interp.error(diagnostics.METHOD_NOT_FOUND, expr, "%s has no method '%s'", receiver.Kind, name)
	}
	if len(call.Args) != 0 {
		return runtime.Void, interp.error(diagnostics.ARITY, expr,
			"method '%s' takes no arguments, got %d", name, len(call.Args))
	}
	return method(receiver), nil
}
