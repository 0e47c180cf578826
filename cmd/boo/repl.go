package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/boo-lang/boo/internal/ast"
	"github.com/boo-lang/boo/internal/config"
	"github.com/boo-lang/boo/internal/diagnostics"
	"github.com/boo-lang/boo/internal/interp"
	"github.com/boo-lang/boo/internal/lexer"
	"github.com/boo-lang/boo/internal/lexer/token"
	"github.com/boo-lang/boo/internal/parser"
	"github.com/boo-lang/boo/internal/runtime"
	"github.com/peterh/liner"
)

const (
	PROMPT      = "boo> "
	PROMPT_CONT = "...  "
	REPL_FILE   = "<repl>"
)

// repl reads one input at a time, keeping variables and functions between
// inputs. Errors are reported and the session goes on.
func repl(settings *config.Settings, logger *slog.Logger) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if f, err := os.Open(settings.HistoryFile); err == nil {
		_, _ = line.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(settings.HistoryFile); err == nil {
			_, _ = line.WriteHistory(f)
			_ = f.Close()
		} else {
			logger.Debug("could not save history", slog.String("error", err.Error()))
		}
	}()

	collector := diagnostics.New()
	machine := interp.New(
		interp.WithCollector(collector),
		interp.WithLogger(logger),
		interp.WithMaxCallDepth(settings.MaxCallDepth),
	)

	fmt.Println("boo repl, Ctrl-D or :quit to exit")

	var functions *ast.Scope
	for {
		src, ok := readInput(line)
		if !ok {
			fmt.Println()
			return nil
		}
		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}
		line.AppendHistory(strings.ReplaceAll(src, "\n", " "))
		if trimmed == ":quit" {
			return nil
		}

		program, err := parser.NewWithScope(collector, functions).ParseSource(REPL_FILE, []byte(src))
		if err != nil {
			continue
		}
		functions = program.Functions

		value, err := machine.Exec(program)
		if err != nil {
			continue
		}
		if shouldEcho(program, value) {
			fmt.Println(formatValue(value))
		}
	}
}

// readInput prompts until braces are balanced. It reports false at EOF.
func readInput(line *liner.State) (string, bool) {
	var b strings.Builder

	for {
		prompt := PROMPT
		if b.Len() > 0 {
			prompt = PROMPT_CONT
		}
		text, err := line.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(text)

		if openBlocks(b.String()) <= 0 {
			return b.String(), true
		}
	}
}

// openBlocks counts '{' not yet closed in src. Input that does not lex is
// treated as complete so the error is reported right away.
func openBlocks(src string) int {
	lex := lexer.New(REPL_FILE, []byte(src), diagnostics.NewWithWriter(io.Discard))
	tokens, err := lex.Tokenize()
	if err != nil {
		return 0
	}
	depth := 0
	for _, tok := range tokens {
		switch tok.Kind {
		case token.OPEN_CURLY:
			depth++
		case token.CLOSE_CURLY:
			depth--
		}
	}
	return depth
}

// shouldEcho reports whether the value of the input is worth showing: the
// input must end with an expression that produced a value and is not an
// assignment.
func shouldEcho(program *ast.Program, value runtime.Value) bool {
	if value.Kind == runtime.VOID || len(program.Body) == 0 {
		return false
	}
	last := program.Body[len(program.Body)-1]
	if last.Kind != ast.KIND_EXPR_STMT {
		return false
	}
	return last.Node.(*ast.ExprStmt).Expr.Kind != ast.KIND_ASSIGN_EXPR
}

func formatValue(value runtime.Value) string {
	if value.Kind == runtime.STR {
		return ast.Quote(value.Str)
	}
	return value.String()
}
