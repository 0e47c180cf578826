package llvm

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/boo-lang/boo/internal/ast"
	"github.com/boo-lang/boo/internal/config"
	"github.com/boo-lang/boo/internal/interp"
	"github.com/boo-lang/boo/internal/lexer/token"
	"github.com/boo-lang/boo/internal/runtime"
	"tinygo.org/x/go-llvm"
)

var ErrUnsupported = errors.New("not supported by the native backend")

type llvmCodegen struct {
	context llvm.Context
	module  llvm.Module
	builder llvm.Builder

	loc     *ast.Loc
	program *ast.Program

	functions map[string]*Function
	globals   *symbols

	printf   *Function
	pow      *Function
	panic    *Function
	printNum *Function

	// depth counts active boo calls, as the interpreter does
	depth        llvm.Value
	maxCallDepth int
}

// NewCG prepares a module for program. maxCallDepth bounds recursion in the
// generated code the same way interp.WithMaxCallDepth does.
func NewCG(loc *ast.Loc, program *ast.Program, maxCallDepth int) *llvmCodegen {
	context := llvm.NewContext()
	module := context.NewModule(loc.Name)
	builder := context.NewBuilder()

	defaultTargetTriple := llvm.DefaultTargetTriple()
	module.SetTarget(defaultTargetTriple)

	return &llvmCodegen{
		loc:       loc,
		program:   program,
		context:   context,
		module:    module,
		builder:   builder,
		functions:    make(map[string]*Function),
		globals:      newSymbols(nil),
		maxCallDepth: interp.ClampCallDepth(maxCallDepth),
	}
}

func (c *llvmCodegen) Dispose() {
	c.builder.Dispose()
	c.module.Dispose()
	c.context.Dispose()
}

// Generate lowers the program and returns the textual IR.
func (c *llvmCodegen) Generate() (string, error) {
	c.generateRuntime()

	for _, node := range c.program.Body {
		if node.Kind == ast.KIND_FN_DECL {
			c.generateFnSignature(node.Node.(*ast.FnDecl))
		}
	}

	err := c.generateGlobals()
	if err != nil {
		return "", err
	}

	err = c.generateMain()
	if err != nil {
		return "", err
	}

	for _, node := range c.program.Body {
		if node.Kind == ast.KIND_FN_DECL {
			err := c.generateFnBody(node.Node.(*ast.FnDecl))
			if err != nil {
				return "", err
			}
		}
	}

	if err := llvm.VerifyModule(c.module, llvm.ReturnStatusAction); err != nil {
		return "", fmt.Errorf("invalid module: %w", err)
	}
	return c.module.String(), nil
}

// generateRuntime declares the libc functions the program needs and
// defines boo.panic, which writes its argument to stderr and exits with
// status 1, and boo.print_num.
func (c *llvmCodegen) generateRuntime() {
	i8ptr := c.getPtrType(c.context.Int8Type())
	i32 := c.context.Int32Type()
	double := c.context.DoubleType()
	void := c.context.VoidType()

	printfTy := llvm.FunctionType(i32, []llvm.Type{i8ptr}, true)
	c.printf = NewFunctionValue(llvm.AddFunction(c.module, "printf", printfTy), printfTy, runtime.VOID, nil)

	powTy := llvm.FunctionType(double, []llvm.Type{double, double}, false)
	c.pow = NewFunctionValue(llvm.AddFunction(c.module, "llvm.pow.f64", powTy), powTy, runtime.NUMBER, nil)

	exitTy := llvm.FunctionType(void, []llvm.Type{i32}, false)
	exit := llvm.AddFunction(c.module, "exit", exitTy)

	dprintfTy := llvm.FunctionType(i32, []llvm.Type{i32, i8ptr}, true)
	dprintf := llvm.AddFunction(c.module, "dprintf", dprintfTy)

	c.depth = llvm.AddGlobal(c.module, i32, "boo.depth")
	c.depth.SetInitializer(llvm.ConstInt(i32, 0, false))
	c.depth.SetLinkage(llvm.InternalLinkage)

	panicTy := llvm.FunctionType(void, []llvm.Type{i8ptr}, false)
	panicFn := llvm.AddFunction(c.module, "boo.panic", panicTy)
	panicFn.SetLinkage(llvm.InternalLinkage)
	c.panic = NewFunctionValue(panicFn, panicTy, runtime.VOID, nil)

	entry := c.context.AddBasicBlock(panicFn, "entry")
	c.builder.SetInsertPointAtEnd(entry)
	format := c.builder.CreateGlobalStringPtr("%s\n", ".fmt.panic")
	stderr := llvm.ConstInt(i32, 2, false)
	c.builder.CreateCall(dprintfTy, dprintf, []llvm.Value{stderr, format, panicFn.Param(0)}, "")
	c.builder.CreateCall(exitTy, exit, []llvm.Value{llvm.ConstInt(i32, 1, false)}, "")
	c.builder.CreateUnreachable()

	c.generatePrintNum()
}

// generatePrintNum defines boo.print_num, which prints a double exactly as
// runtime.FormatNumber formats it: the fewest significant digits (1 to 17)
// that read back as the same double, written without an exponent.
func (c *llvmCodegen) generatePrintNum() {
	i8 := c.context.Int8Type()
	i8ptr := c.getPtrType(i8)
	i32 := c.context.Int32Type()
	i64 := c.context.Int64Type()
	double := c.context.DoubleType()
	null := llvm.ConstPointerNull(c.getPtrType(i8ptr))

	snprintfTy := llvm.FunctionType(i32, []llvm.Type{i8ptr, i64, i8ptr}, true)
	snprintf := llvm.AddFunction(c.module, "snprintf", snprintfTy)
	strtodTy := llvm.FunctionType(double, []llvm.Type{i8ptr, c.getPtrType(i8ptr)}, false)
	strtod := llvm.AddFunction(c.module, "strtod", strtodTy)
	strtolTy := llvm.FunctionType(i64, []llvm.Type{i8ptr, c.getPtrType(i8ptr), i32}, false)
	strtol := llvm.AddFunction(c.module, "strtol", strtolTy)

	fnTy := llvm.FunctionType(c.context.VoidType(), []llvm.Type{double}, false)
	fn := llvm.AddFunction(c.module, "boo.print_num", fnTy)
	fn.SetLinkage(llvm.InternalLinkage)
	c.printNum = NewFunctionValue(fn, fnTy, runtime.VOID, []runtime.Kind{runtime.NUMBER})
	value := fn.Param(0)

	const bufSize = 32
	entry := c.context.AddBasicBlock(fn, "entry")
	c.builder.SetInsertPointAtEnd(entry)
	buf := c.builder.CreateArrayAlloca(i8, llvm.ConstInt(i32, bufSize, false), "buf")

	// NaN, infinities and zero have fixed spellings
	special := []struct {
		pred llvm.FloatPredicate
		rhs  float64
		text string
	}{
		{llvm.FloatUNO, 0, "NaN"},
		{llvm.FloatOEQ, math.Inf(1), "inf"},
		{llvm.FloatOEQ, math.Inf(-1), "-inf"},
		{llvm.FloatOEQ, 0, "0"},
	}
	for _, sp := range special {
		rhs := value
		if sp.pred != llvm.FloatUNO {
			rhs = llvm.ConstFloat(double, sp.rhs)
		}
		cond := c.builder.CreateFCmp(sp.pred, value, rhs, ".special")
		textBlock := llvm.AddBasicBlock(fn, ".text")
		nextBlock := llvm.AddBasicBlock(fn, ".next")
		c.builder.CreateCondBr(cond, textBlock, nextBlock)

		c.builder.SetInsertPointAtEnd(textBlock)
		text := c.builder.CreateGlobalStringPtr(sp.text+"\n", ".num.text")
		c.builder.CreateCall(c.printf.Ty, c.printf.Fn, []llvm.Value{text}, "")
		c.builder.CreateRetVoid()

		c.builder.SetInsertPointAtEnd(nextBlock)
	}
	search := c.builder.GetInsertBlock()

	loop := llvm.AddBasicBlock(fn, ".search")
	next := llvm.AddBasicBlock(fn, ".more")
	found := llvm.AddBasicBlock(fn, ".found")
	c.builder.CreateBr(loop)

	// find the fewest digits whose %e rendering parses back to value
	one := llvm.ConstInt(i32, 1, false)
	c.builder.SetInsertPointAtEnd(loop)
	digits := c.builder.CreatePHI(i32, ".digits")
	precision := c.builder.CreateSub(digits, one, ".precision")
	expFormat := c.builder.CreateGlobalStringPtr("%.*e", ".fmt.exp")
	c.builder.CreateCall(snprintfTy, snprintf,
		[]llvm.Value{buf, llvm.ConstInt(i64, bufSize, false), expFormat, precision, value}, "")
	back := c.builder.CreateCall(strtodTy, strtod, []llvm.Value{buf, null}, ".back")
	same := c.builder.CreateFCmp(llvm.FloatOEQ, back, value, ".same")
	exhausted := c.builder.CreateICmp(llvm.IntSGE, digits, llvm.ConstInt(i32, 17, false), ".exhausted")
	c.builder.CreateCondBr(c.builder.CreateOr(same, exhausted, ".stop"), found, next)

	c.builder.SetInsertPointAtEnd(next)
	more := c.builder.CreateAdd(digits, one, ".digits.next")
	c.builder.CreateBr(loop)
	digits.AddIncoming([]llvm.Value{one, more}, []llvm.BasicBlock{search, next})

	// buf holds [-]d[.ddd]e±xx
	c.builder.SetInsertPointAtEnd(found)
	zero32 := llvm.ConstInt(i32, 0, false)
	negative := c.builder.CreateFCmp(llvm.FloatOLT, value, llvm.ConstFloat(double, 0), ".neg")
	sign := c.builder.CreateSelect(negative, one, zero32, ".sign")
	hasFraction := c.builder.CreateICmp(llvm.IntSGT, digits, one, ".hasfrac")
	mantissaLen := c.builder.CreateSelect(hasFraction, c.builder.CreateAdd(digits, one, ""), one, ".mantlen")
	expOffset := c.builder.CreateAdd(c.builder.CreateAdd(sign, mantissaLen, ""), one, ".expoff")
	expPtr := c.builder.CreateInBoundsGEP(i8, buf, []llvm.Value{expOffset}, ".expptr")
	exp64 := c.builder.CreateCall(strtolTy, strtol, []llvm.Value{expPtr, null, llvm.ConstInt(i32, 10, false)}, ".exp64")
	exp := c.builder.CreateTrunc(exp64, i32, ".exp")

	integral := llvm.AddBasicBlock(fn, ".integral")
	fractional := llvm.AddBasicBlock(fn, ".fractional")
	c.builder.CreateCondBr(c.builder.CreateICmp(llvm.IntSGE, exp, precision, ".isint"), integral, fractional)

	// sign and leading digit, remaining digits, then zeros up to the
	// decimal point
	c.builder.SetInsertPointAtEnd(integral)
	zeros := c.builder.CreateGlobalStringPtr(strings.Repeat("0", 330), ".zeros")
	intFormat := c.builder.CreateGlobalStringPtr("%.*s%.*s%.*s\n", ".fmt.int")
	rest := c.builder.CreateInBoundsGEP(i8, buf, []llvm.Value{c.builder.CreateAdd(sign, llvm.ConstInt(i32, 2, false), "")}, ".rest")
	padding := c.builder.CreateSub(exp, precision, ".padding")
	c.builder.CreateCall(c.printf.Ty, c.printf.Fn, []llvm.Value{
		intFormat,
		c.builder.CreateAdd(sign, one, ""), buf,
		precision, rest,
		padding, zeros,
	}, "")
	c.builder.CreateRetVoid()

	// same digits, rounded at the same position by %f
	c.builder.SetInsertPointAtEnd(fractional)
	fracFormat := c.builder.CreateGlobalStringPtr("%.*f\n", ".fmt.frac")
	decimals := c.builder.CreateSub(precision, exp, ".decimals")
	c.builder.CreateCall(c.printf.Ty, c.printf.Fn, []llvm.Value{fracFormat, decimals, value}, "")
	c.builder.CreateRetVoid()
}

func (c *llvmCodegen) generateFnSignature(fnDecl *ast.FnDecl) {
	ret, _ := runtime.KindFromType(fnDecl.RetType.Kind)
	params := make([]runtime.Kind, len(fnDecl.Params))
	paramsTypes := make([]llvm.Type, len(fnDecl.Params))
	for i, param := range fnDecl.Params {
		params[i], _ = runtime.KindFromType(param.Type.Kind)
		paramsTypes[i] = c.getType(params[i])
	}

	functionType := llvm.FunctionType(c.getType(ret), paramsTypes, false)
	functionValue := llvm.AddFunction(c.module, "boo."+fnDecl.Name.Name(), functionType)
	c.functions[fnDecl.Name.Name()] = NewFunctionValue(functionValue, functionType, ret, params)
}

// generateGlobals turns every top-level variable into an LLVM global so
// function bodies can refer to it. Each global has an init flag that is set
// once its declaration has run; reading it before that traps with the
// interpreter's undefined variable error.
func (c *llvmCodegen) generateGlobals() error {
	for _, stmt := range c.program.Statements() {
		if stmt.Kind != ast.KIND_VAR_STMT {
			continue
		}
		variable := stmt.Node.(*ast.VarStmt)
		name := variable.Name.Name()
		if _, ok := c.globals.vars[name]; ok {
			return c.errorf(stmt, "'%s' is already declared", name)
		}

		kind, _ := runtime.KindFromType(variable.Type.Kind)
		ty := c.getType(kind)
		global := llvm.AddGlobal(c.module, ty, "boo.global."+name)
		global.SetInitializer(llvm.ConstNull(ty))
		global.SetLinkage(llvm.InternalLinkage)

		i1 := c.context.Int1Type()
		init := llvm.AddGlobal(c.module, i1, "boo.global."+name+".init")
		init.SetInitializer(llvm.ConstInt(i1, 0, false))
		init.SetLinkage(llvm.InternalLinkage)

		v := NewVariableValue(ty, global, kind)
		v.Init = init
		c.globals.vars[name] = v
	}
	return nil
}

func (c *llvmCodegen) generateMain() error {
	i32 := c.context.Int32Type()
	mainTy := llvm.FunctionType(i32, nil, false)
	mainFn := llvm.AddFunction(c.module, "main", mainTy)
	function := NewFunctionValue(mainFn, mainTy, runtime.NUMBER, nil)

	entry := c.context.AddBasicBlock(mainFn, "entry")
	c.builder.SetInsertPointAtEnd(entry)

	for _, stmt := range c.program.Statements() {
		// globals already have storage
		if stmt.Kind == ast.KIND_VAR_STMT {
			variable := stmt.Node.(*ast.VarStmt)
			global := c.globals.vars[variable.Name.Name()]
			value, err := c.getTypedExpr(variable.Value, global.Kind, c.globals)
			if err != nil {
				return err
			}
			c.builder.CreateStore(value, global.Ptr)
			c.builder.CreateStore(llvm.ConstInt(c.context.Int1Type(), 1, false), global.Init)
			continue
		}
		err := c.generateStmt(stmt, function, c.globals)
		if err != nil {
			return err
		}
	}

	if !c.terminated() {
		c.builder.CreateRet(llvm.ConstInt(i32, 0, false))
	}
	return nil
}

func (c *llvmCodegen) generateFnBody(fnDecl *ast.FnDecl) error {
	fnValue := c.functions[fnDecl.Name.Name()]
	functionBlock := c.context.AddBasicBlock(fnValue.Fn, "entry")
	c.builder.SetInsertPointAtEnd(functionBlock)

	scope := newSymbols(c.globals)
	c.generateFnParams(fnValue, fnDecl, scope)

	err := c.generateBlock(fnDecl.Block, fnValue, scope)
	if err != nil {
		return err
	}
	if !c.terminated() {
		c.trap(fmt.Sprintf("%s: missing return: function '%s' reached its end without returning a %s value",
			fnDecl.Block.CloseCurly, fnDecl.Name.Name(), fnValue.Ret))
	}
	return nil
}

func (c *llvmCodegen) generateFnParams(fnValue *Function, fnDecl *ast.FnDecl, scope *symbols) {
	paramsTypes := fnValue.Ty.ParamTypes()
	for i, paramValue := range fnValue.Fn.Params() {
		paramType := paramsTypes[i]
		paramPtr := c.builder.CreateAlloca(paramType, ".param")
		c.builder.CreateStore(paramValue, paramPtr)
		scope.vars[fnDecl.Params[i].Name.Name()] = NewVariableValue(paramType, paramPtr, fnValue.Params[i])
	}
}

// generateBlock stops at the first statement that terminates the current
// basic block. Anything after it is dead code.
func (c *llvmCodegen) generateBlock(block *ast.BlockStmt, function *Function, scope *symbols) error {
	for _, stmt := range block.Statements {
		err := c.generateStmt(stmt, function, scope)
		if err != nil {
			return err
		}
		if c.terminated() {
			break
		}
	}
	return nil
}

func (c *llvmCodegen) generateStmt(stmt *ast.Node, function *Function, scope *symbols) error {
	switch stmt.Kind {
	case ast.KIND_EXPR_STMT:
		_, _, err := c.getExpr(stmt.Node.(*ast.ExprStmt).Expr, scope)
		return err
	case ast.KIND_RETURN_STMT:
		return c.generateReturnStmt(stmt, function, scope)
	case ast.KIND_VAR_STMT:
		return c.generateVarDecl(stmt, scope)
	case ast.KIND_COND_STMT:
		return c.generateCondStmt(stmt.Node.(*ast.CondStmt), function, scope)
	case ast.KIND_BLOCK_STMT:
		return c.generateBlock(stmt.Node.(*ast.BlockStmt), function, newSymbols(scope))
	default:
		return c.errorf(stmt, "unimplemented statement")
	}
}

func (c *llvmCodegen) generateReturnStmt(stmt *ast.Node, function *Function, scope *symbols) error {
	ret := stmt.Node.(*ast.ReturnStmt)
	if ret.Value == nil {
		return c.errorf(stmt, "a %s function must return a value", function.Ret)
	}
	returnValue, err := c.getTypedExpr(ret.Value, function.Ret, scope)
	if err != nil {
		return err
	}
	c.builder.CreateRet(returnValue)
	return nil
}

func (c *llvmCodegen) generateVarDecl(stmt *ast.Node, scope *symbols) error {
	variable := stmt.Node.(*ast.VarStmt)
	name := variable.Name.Name()
	if _, ok := scope.vars[name]; ok {
		return c.errorf(stmt, "'%s' is already declared in this scope", name)
	}

	kind, _ := runtime.KindFromType(variable.Type.Kind)
	value, err := c.getTypedExpr(variable.Value, kind, scope)
	if err != nil {
		return err
	}

	ty := c.getType(kind)
	ptr := c.builder.CreateAlloca(ty, ".ptr")
	c.builder.CreateStore(value, ptr)
	scope.vars[name] = NewVariableValue(ty, ptr, kind)
	return nil
}

func (c *llvmCodegen) generateCondStmt(condStmt *ast.CondStmt, function *Function, scope *symbols) error {
	ifExpr, err := c.getTypedExpr(condStmt.Expr, runtime.BOOL, scope)
	if err != nil {
		return err
	}

	ifBlock := llvm.AddBasicBlock(function.Fn, ".if")
	elseBlock := llvm.AddBasicBlock(function.Fn, ".else")
	endBlock := llvm.AddBasicBlock(function.Fn, ".end")

	c.builder.CreateCondBr(ifExpr, ifBlock, elseBlock)

	c.builder.SetInsertPointAtEnd(ifBlock)
	err = c.generateBlock(condStmt.Block, function, newSymbols(scope))
	if err != nil {
		return err
	}
	if !c.terminated() {
		c.builder.CreateBr(endBlock)
	}

	c.builder.SetInsertPointAtEnd(elseBlock)
	if condStmt.Else != nil {
		err := c.generateBlock(condStmt.Else, function, newSymbols(scope))
		if err != nil {
			return err
		}
	}
	if !c.terminated() {
		c.builder.CreateBr(endBlock)
	}

	c.builder.SetInsertPointAtEnd(endBlock)
	return nil
}

// terminated reports whether the current basic block already ends with a
// terminator instruction.
func (c *llvmCodegen) terminated() bool {
	last := c.builder.GetInsertBlock().LastInstruction()
	if last.IsNil() {
		return false
	}
	switch last.InstructionOpcode() {
	case llvm.Ret, llvm.Br, llvm.Unreachable:
		return true
	}
	return false
}

// trap calls boo.panic with message. The current block is terminated.
func (c *llvmCodegen) trap(message string) {
	msg := c.builder.CreateGlobalStringPtr(message, ".panic.msg")
	c.builder.CreateCall(c.panic.Ty, c.panic.Fn, []llvm.Value{msg}, "")
	c.builder.CreateUnreachable()
}

func (c *llvmCodegen) getType(kind runtime.Kind) llvm.Type {
	switch kind {
	case runtime.NUMBER:
		return c.context.DoubleType()
	case runtime.BOOL:
		return c.context.Int1Type()
	case runtime.STR:
		return c.getPtrType(c.context.Int8Type())
	}
	return c.context.VoidType()
}

func (c *llvmCodegen) getPtrType(ty llvm.Type) llvm.Type {
	return llvm.PointerType(ty, 0)
}

func (c *llvmCodegen) errorf(node *ast.Node, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", node.Pos(), ErrUnsupported, fmt.Sprintf(format, args...))
}

func (c *llvmCodegen) getTypedExpr(expr *ast.Node, expected runtime.Kind, scope *symbols) (llvm.Value, error) {
	value, kind, err := c.getExpr(expr, scope)
	if err != nil {
		return llvm.Value{}, err
	}
	if kind != expected {
		return llvm.Value{}, fmt.Errorf("%s: %w: expected %s, found %s", expr.Pos(), errTypeMismatch, expected, kind)
	}
	return value, nil
}

var errTypeMismatch = errors.New("type error")

func (c *llvmCodegen) constValue(value runtime.Value) llvm.Value {
	switch value.Kind {
	case runtime.NUMBER:
		return llvm.ConstFloat(c.context.DoubleType(), value.Number)
	case runtime.BOOL:
		if value.Bool {
			return llvm.ConstInt(c.context.Int1Type(), 1, false)
		}
		return llvm.ConstInt(c.context.Int1Type(), 0, false)
	default:
		return c.builder.CreateGlobalStringPtr(value.Str, ".str")
	}
}

// fold evaluates expressions made only of literals, method calls and
// string concatenation at compile time.
func (c *llvmCodegen) fold(expr *ast.Node) (runtime.Value, bool) {
	switch expr.Kind {
	case ast.KIND_LITERAL_EXPR:
		lit := expr.Node.(*ast.LiteralExpr)
		switch lit.Kind {
		case token.NUMBER_LITERAL:
			return runtime.NewNumber(lit.Number), true
		case token.STRING_LITERAL:
			return runtime.NewStr(string(lit.Value)), true
		default:
			return runtime.NewBool(lit.Kind == token.TRUE_BOOL_LITERAL), true
		}
	case ast.KIND_UNARY_EXPR:
		value, ok := c.fold(expr.Node.(*ast.UnaryExpr).Value)
		if !ok || value.Kind != runtime.NUMBER {
			return runtime.Void, false
		}
		return runtime.NewNumber(-value.Number), true
	case ast.KIND_METHOD_CALL:
		call := expr.Node.(*ast.MethodCall)
		receiver, ok := c.fold(call.Receiver)
		if !ok || len(call.Args) > 0 {
			return runtime.Void, false
		}
		method, ok := runtime.LookupMethod(receiver.Kind, call.Name.Name())
		if !ok {
			return runtime.Void, false
		}
		return method(receiver), true
	case ast.KIND_BINARY_EXPR:
		binary := expr.Node.(*ast.BinaryExpr)
		if binary.Op != token.CONCAT {
			return runtime.Void, false
		}
		lhs, ok := c.fold(binary.Left)
		if !ok {
			return runtime.Void, false
		}
		rhs, ok := c.fold(binary.Right)
		if !ok {
			return runtime.Void, false
		}
		return runtime.NewStr(lhs.String() + rhs.String()), true
	}
	return runtime.Void, false
}

func (c *llvmCodegen) getExpr(expr *ast.Node, scope *symbols) (llvm.Value, runtime.Kind, error) {
	if value, ok := c.fold(expr); ok {
		return c.constValue(value), value.Kind, nil
	}

	switch expr.Kind {
	case ast.KIND_ID_EXPR:
		name := expr.Node.(*ast.IdExpr).Name.Name()
		variable, ok := scope.lookup(name)
		if !ok {
			return llvm.Value{}, runtime.VOID, fmt.Errorf("%s: undefined variable: '%s' is not declared", expr.Pos(), name)
		}
		c.checkInit(variable, expr, "'%s' is not declared", name)
		return c.builder.CreateLoad(variable.Ty, variable.Ptr, ".load"), variable.Kind, nil
	case ast.KIND_UNARY_EXPR:
		unary := expr.Node.(*ast.UnaryExpr)
		value, err := c.getTypedExpr(unary.Value, runtime.NUMBER, scope)
		if err != nil {
			return llvm.Value{}, runtime.VOID, err
		}
		return c.builder.CreateFNeg(value, ".neg"), runtime.NUMBER, nil
	case ast.KIND_BINARY_EXPR:
		return c.generateBinaryExpr(expr, scope)
	case ast.KIND_ASSIGN_EXPR:
		return c.generateAssign(expr, scope)
	case ast.KIND_FN_CALL:
		call := expr.Node.(*ast.FnCall)
		if call.Name.Kind == token.PRINT {
			return c.generatePrint(expr, scope)
		}
		return c.generateFnCall(expr, scope)
	case ast.KIND_METHOD_CALL:
		return llvm.Value{}, runtime.VOID, c.errorf(expr, "method calls need a constant receiver")
	default:
		return llvm.Value{}, runtime.VOID, c.errorf(expr, "unimplemented expression")
	}
}

func (c *llvmCodegen) generateBinaryExpr(expr *ast.Node, scope *symbols) (llvm.Value, runtime.Kind, error) {
	binary := expr.Node.(*ast.BinaryExpr)
	if binary.Op == token.CONCAT {
		return llvm.Value{}, runtime.VOID, c.errorf(expr, "'><' needs constant operands")
	}

	lhs, lhsKind, err := c.getExpr(binary.Left, scope)
	if err != nil {
		return llvm.Value{}, runtime.VOID, err
	}
	rhs, rhsKind, err := c.getExpr(binary.Right, scope)
	if err != nil {
		return llvm.Value{}, runtime.VOID, err
	}
	if lhsKind != rhsKind {
		return llvm.Value{}, runtime.VOID, fmt.Errorf("%s: %w: operator '%s' applied to %s and %s",
			expr.Pos(), errTypeMismatch, binary.Op, lhsKind, rhsKind)
	}

	if lhsKind == runtime.BOOL {
		switch binary.Op {
		case token.EQUAL_EQUAL:
			return c.builder.CreateICmp(llvm.IntEQ, lhs, rhs, ".cmpeq"), runtime.BOOL, nil
		case token.BANG_EQUAL:
			return c.builder.CreateICmp(llvm.IntNE, lhs, rhs, ".cmpneq"), runtime.BOOL, nil
		}
	}
	if lhsKind != runtime.NUMBER {
		return llvm.Value{}, runtime.VOID, c.errorf(expr, "operator '%s' on %s values", binary.Op, lhsKind)
	}

	value, kind := c.generateArith(binary.Op, lhs, rhs, expr)
	return value, kind, nil
}

func (c *llvmCodegen) generateArith(op token.Kind, lhs, rhs llvm.Value, expr *ast.Node) (llvm.Value, runtime.Kind) {
	switch op {
	case token.EQUAL_EQUAL:
		return c.builder.CreateFCmp(llvm.FloatOEQ, lhs, rhs, ".cmpeq"), runtime.BOOL
	case token.BANG_EQUAL:
		// unordered, so NaN != NaN holds
		return c.builder.CreateFCmp(llvm.FloatUNE, lhs, rhs, ".cmpneq"), runtime.BOOL
	case token.LESS:
		return c.builder.CreateFCmp(llvm.FloatOLT, lhs, rhs, ".cmplt"), runtime.BOOL
	case token.LESS_EQ:
		return c.builder.CreateFCmp(llvm.FloatOLE, lhs, rhs, ".cmple"), runtime.BOOL
	case token.GREATER:
		return c.builder.CreateFCmp(llvm.FloatOGT, lhs, rhs, ".cmpgt"), runtime.BOOL
	case token.GREATER_EQ:
		return c.builder.CreateFCmp(llvm.FloatOGE, lhs, rhs, ".cmpge"), runtime.BOOL
	case token.PLUS:
		return c.builder.CreateFAdd(lhs, rhs, ".add"), runtime.NUMBER
	case token.MINUS:
		return c.builder.CreateFSub(lhs, rhs, ".sub"), runtime.NUMBER
	case token.STAR:
		return c.builder.CreateFMul(lhs, rhs, ".mul"), runtime.NUMBER
	case token.SLASH:
		c.checkDivisor(rhs, expr)
		return c.builder.CreateFDiv(lhs, rhs, ".div"), runtime.NUMBER
	case token.PERCENT:
		c.checkDivisor(rhs, expr)
		return c.builder.CreateFRem(lhs, rhs, ".rem"), runtime.NUMBER
	default:
		return c.builder.CreateCall(c.pow.Ty, c.pow.Fn, []llvm.Value{lhs, rhs}, ".pow"), runtime.NUMBER
	}
}

// guard traps with message when cond holds and continues in a new block
// otherwise.
func (c *llvmCodegen) guard(cond llvm.Value, message string) {
	fn := c.builder.GetInsertBlock().Parent()
	trapBlock := llvm.AddBasicBlock(fn, ".trap")
	okBlock := llvm.AddBasicBlock(fn, ".ok")
	c.builder.CreateCondBr(cond, trapBlock, okBlock)

	c.builder.SetInsertPointAtEnd(trapBlock)
	c.trap(message)

	c.builder.SetInsertPointAtEnd(okBlock)
}

func (c *llvmCodegen) checkDivisor(divisor llvm.Value, expr *ast.Node) {
	zero := llvm.ConstFloat(c.context.DoubleType(), 0)
	isZero := c.builder.CreateFCmp(llvm.FloatOEQ, divisor, zero, ".iszero")
	c.guard(isZero, fmt.Sprintf("%s: division by zero", expr.Pos()))
}

// checkInit traps when a global is used before its declaration ran. Locals
// and parameters have no flag.
func (c *llvmCodegen) checkInit(variable *Variable, expr *ast.Node, format string, args ...any) {
	if variable.Init.IsNil() {
		return
	}
	i1 := c.context.Int1Type()
	ready := c.builder.CreateLoad(i1, variable.Init, ".ready")
	missing := c.builder.CreateICmp(llvm.IntEQ, ready, llvm.ConstInt(i1, 0, false), ".missing")
	c.guard(missing, fmt.Sprintf("%s: undefined variable: %s", expr.Pos(), fmt.Sprintf(format, args...)))
}

func (c *llvmCodegen) generateAssign(expr *ast.Node, scope *symbols) (llvm.Value, runtime.Kind, error) {
	assign := expr.Node.(*ast.AssignExpr)
	name := assign.Target.Name()

	variable, ok := scope.lookup(name)
	if !ok {
		return llvm.Value{}, runtime.VOID, fmt.Errorf("%s: undefined variable: cannot assign to '%s', it is not declared", expr.Pos(), name)
	}
	c.checkInit(variable, expr, "cannot assign to '%s', it is not declared", name)

	op, compound := token.COMPOUND_ASSIGN[assign.Op]
	if !compound {
		value, err := c.getTypedExpr(assign.Value, variable.Kind, scope)
		if err != nil {
			return llvm.Value{}, runtime.VOID, err
		}
		c.builder.CreateStore(value, variable.Ptr)
		return value, variable.Kind, nil
	}

	if variable.Kind != runtime.NUMBER {
		return llvm.Value{}, runtime.VOID, fmt.Errorf("%s: %w: operator '%s' on %s variable '%s'",
			expr.Pos(), errTypeMismatch, assign.Op, variable.Kind, name)
	}
	current := c.builder.CreateLoad(variable.Ty, variable.Ptr, ".load")
	rhs, err := c.getTypedExpr(assign.Value, runtime.NUMBER, scope)
	if err != nil {
		return llvm.Value{}, runtime.VOID, err
	}
	value, _ := c.generateArith(op, current, rhs, expr)
	c.builder.CreateStore(value, variable.Ptr)
	return value, runtime.NUMBER, nil
}

func (c *llvmCodegen) generatePrint(expr *ast.Node, scope *symbols) (llvm.Value, runtime.Kind, error) {
	call := expr.Node.(*ast.FnCall)
	if len(call.Args) != 1 {
		return llvm.Value{}, runtime.VOID, fmt.Errorf("%s: arity error: print expects exactly 1 argument, got %d", expr.Pos(), len(call.Args))
	}

	value, kind, err := c.getExpr(call.Args[0], scope)
	if err != nil {
		return llvm.Value{}, runtime.VOID, err
	}

	var format string
	switch kind {
	case runtime.NUMBER:
		c.builder.CreateCall(c.printNum.Ty, c.printNum.Fn, []llvm.Value{value}, "")
		return llvm.Value{}, runtime.VOID, nil
	case runtime.STR:
		format = "%s\n"
	case runtime.BOOL:
		format = "%s\n"
		value = c.builder.CreateSelect(value,
			c.builder.CreateGlobalStringPtr("true", ".true"),
			c.builder.CreateGlobalStringPtr("false", ".false"), ".bool")
	default:
		return llvm.Value{}, runtime.VOID, fmt.Errorf("%s: %w: print argument does not produce a value", expr.Pos(), errTypeMismatch)
	}

	fmtPtr := c.builder.CreateGlobalStringPtr(format, ".fmt")
	c.builder.CreateCall(c.printf.Ty, c.printf.Fn, []llvm.Value{fmtPtr, value}, "")
	return llvm.Value{}, runtime.VOID, nil
}

func (c *llvmCodegen) generateFnCall(expr *ast.Node, scope *symbols) (llvm.Value, runtime.Kind, error) {
	call := expr.Node.(*ast.FnCall)
	name := call.Name.Name()

	function, ok := c.functions[name]
	if !ok {
		return llvm.Value{}, runtime.VOID, fmt.Errorf("%s: undefined function: function '%s' is not declared", expr.Pos(), name)
	}
	if len(call.Args) != len(function.Params) {
		return llvm.Value{}, runtime.VOID, fmt.Errorf("%s: arity error: function '%s' expects %d argument(s), got %d",
			expr.Pos(), name, len(function.Params), len(call.Args))
	}

	args := make([]llvm.Value, len(call.Args))
	for i, arg := range call.Args {
		value, err := c.getTypedExpr(arg, function.Params[i], scope)
		if err != nil {
			return llvm.Value{}, runtime.VOID, err
		}
		args[i] = value
	}

	i32 := c.context.Int32Type()
	depth := c.builder.CreateLoad(i32, c.depth, ".depth")
	tooDeep := c.builder.CreateICmp(llvm.IntSGE, depth, llvm.ConstInt(i32, uint64(c.maxCallDepth), false), ".toodeep")
	c.guard(tooDeep, fmt.Sprintf("%s: stack overflow: maximum call depth of %d exceeded calling '%s'",
		expr.Pos(), c.maxCallDepth, name))
	c.builder.CreateStore(c.builder.CreateAdd(depth, llvm.ConstInt(i32, 1, false), ""), c.depth)

	result := c.builder.CreateCall(function.Ty, function.Fn, args, ".call")
	c.builder.CreateStore(depth, c.depth)
	return result, function.Ret, nil
}

// Build writes the IR to a temporary directory, optimizes it with opt and
// links an executable named after the source file into outDir.
func Build(ir string, loc *ast.Loc, buildType config.BuildType, settings *config.Settings, outDir string, logger *slog.Logger) (string, error) {
	filenameNoExt := strings.TrimSuffix(filepath.Base(loc.Name), filepath.Ext(loc.Name))

	dir, err := os.MkdirTemp("", "boo-build")
	if err != nil {
		return "", err
	}

	irFilepath := filepath.Join(dir, filenameNoExt+".ll")
	optimizedIrFilepath := filepath.Join(dir, filenameNoExt+"_optimized.ll")

	err = os.WriteFile(irFilepath, []byte(ir), 0o644)
	if err != nil {
		return "", fmt.Errorf("writing IR: %w", err)
	}

	optLevel := buildType.OptLevel()
	cmd := exec.Command(settings.Opt, optLevel, "-S", "-o", optimizedIrFilepath, irFilepath)
	logger.Debug("running opt", slog.String("command", cmd.String()))
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("%s: %w\n%s", settings.Opt, err, out)
	}

	exe := filepath.Join(outDir, filenameNoExt)
	args := []string{optLevel, "-o", exe, optimizedIrFilepath, "-lm"}
	if buildType == config.RELEASE {
		args = append([]string{"-Wl,-s"}, args...)
	}
	cmd = exec.Command(settings.Clang, args...)
	logger.Debug("running clang", slog.String("command", cmd.String()))
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("%s: %w\n%s", settings.Clang, err, out)
	}

	if config.DEV {
		logger.Debug("keeping build directory", slog.String("dir", dir))
	} else if err := os.RemoveAll(dir); err != nil {
		return "", err
	}
	return exe, nil
}
