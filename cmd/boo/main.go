package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/boo-lang/boo/internal/ast"
	"github.com/boo-lang/boo/internal/codegen/llvm"
	"github.com/boo-lang/boo/internal/config"
	"github.com/boo-lang/boo/internal/diagnostics"
	"github.com/boo-lang/boo/internal/interp"
	"github.com/boo-lang/boo/internal/lexer"
	"github.com/boo-lang/boo/internal/parser"
	"github.com/kr/pretty"
)

// Set with -ldflags "-X main.DevMode=1"
var DevMode string

func main() {
	environ := environMap(os.Environ())
	config.SetDevMode(DevMode == "1" || environ["BOO_DEV"] == "1")

	settings, configDir, err := config.Setup(environ)
	if err != nil {
		log.Fatal(err)
	}

	level := slog.LevelInfo
	if config.DEV {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	logger.Debug("settings loaded", slog.String("dir", configDir))

	args, err := parseArgs(os.Args[1:], settings)
	if err != nil {
		log.Fatal(err)
	}

	// Lex, parse and runtime errors are already written to stderr by the
	// collector, so only the exit status is left to set.
	collector := diagnostics.New()

	switch args.Command {
	case COMMAND_HELP:
		fmt.Print(HELP_COMMAND)
	case COMMAND_ENV:
		settings.ShowAll(os.Stdout)
	case COMMAND_REPL:
		err = repl(settings, logger)
		if err != nil {
			log.Fatal(err)
		}
	case COMMAND_RUN:
		src, err := os.ReadFile(args.Path)
		if err != nil {
			log.Fatal(err)
		}
		_, err = interp.Run(args.Path, src,
			interp.WithCollector(collector),
			interp.WithLogger(logger),
			interp.WithMaxCallDepth(settings.MaxCallDepth),
		)
		exitOnError(err, collector)
	case COMMAND_TOKENS:
		lex, err := lexer.NewFromFilePath(args.Path, collector)
		if err != nil {
			log.Fatal(err)
		}
		tokens, err := lex.Tokenize()
		exitOnError(err, collector)
		for _, tok := range tokens {
			fmt.Println(tok)
		}
	case COMMAND_AST:
		program := parseFile(args.Path, collector)
		pretty.Println(program.Body)
	case COMMAND_FMT:
		program := parseFile(args.Path, collector)
		formatted := ast.Print(program)
		if !args.Write {
			fmt.Print(formatted)
			return
		}
		err = os.WriteFile(args.Path, []byte(formatted), 0o644)
		if err != nil {
			log.Fatal(err)
		}
	case COMMAND_EMIT_LLVM:
		program := parseFile(args.Path, collector)
		ir, err := generateIR(program, settings.MaxCallDepth)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Print(ir)
	case COMMAND_BUILD:
		program := parseFile(args.Path, collector)
		ir, err := generateIR(program, settings.MaxCallDepth)
		if err != nil {
			log.Fatal(err)
		}
		exe, err := llvm.Build(ir, program.Loc, args.BuildType, settings, args.OutDir, logger)
		if err != nil {
			log.Fatal(err)
		}
		logger.Info("build finished",
			slog.String("executable", exe),
			slog.String("mode", args.BuildType.String()))
	}
}

func parseFile(path string, collector *diagnostics.Collector) *ast.Program {
	if _, err := os.Stat(path); err != nil {
		log.Fatalf("No such file: %s\n", path)
	}
	program, err := parser.New(collector).ParseFile(path)
	exitOnError(err, collector)
	return program
}

func generateIR(program *ast.Program, maxCallDepth int) (string, error) {
	codegen := llvm.NewCG(program.Loc, program, maxCallDepth)
	defer codegen.Dispose()
	return codegen.Generate()
}

// exitOnError exits with status 1 if err is set. Errors the collector has
// not printed yet (I/O failures) are printed here.
func exitOnError(err error, collector *diagnostics.Collector) {
	if err == nil {
		return
	}
	if !collector.HasErrors() {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(1)
}

func environMap(environ []string) map[string]string {
	envs := make(map[string]string, len(environ))
	for _, entry := range environ {
		key, value, ok := strings.Cut(entry, "=")
		if ok {
			envs[key] = value
		}
	}
	return envs
}
