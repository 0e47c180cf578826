package main

import (
	"fmt"

	"github.com/boo-lang/boo/internal/config"
)

type Command int

const (
	COMMAND_RUN Command = iota
	COMMAND_REPL
	COMMAND_TOKENS
	COMMAND_AST
	COMMAND_FMT
	COMMAND_EMIT_LLVM
	COMMAND_BUILD
	COMMAND_HELP
	COMMAND_ENV
)

type CliResult struct {
	Command   Command
	Path      string
	BuildType config.BuildType
	OutDir    string
	Write     bool // fmt: rewrite the file in place
}

var HELP_COMMAND string = `boo - a small statically typed scripting language.

Usage:
  boo <command> [arguments]

Available Commands:
  run [file]                           Runs a program (defaults to the configured default file)
  repl                                 Starts an interactive session
  tokens [file]                        Prints the token stream of a program
  ast [file]                           Prints the syntax tree of a program
  fmt [file] [-w]                      Prints a program in canonical form
      -w            Rewrite the file instead of printing it
  emit-llvm [file]                     Prints the LLVM IR of a program
  build [file] [-release] [-debug] [-o dir]
                                       Compiles a program to a native executable
      -release      Build in release mode
      -debug        Build in debug mode (default)
      -o dir        Directory of the executable (defaults to the current directory)

  env                                  Show configuration, including environment overrides

  help                                 Show this help message

Examples:
  boo                                  Run the default file
  boo run fib.boo                      Run fib.boo
  boo fmt fib.boo -w                   Reformat fib.boo
  boo build fib.boo -release           Compile fib.boo with optimizations
`

// parseArgs turns the command line (without the program name) into a
// CliResult. With no arguments the default file is run.
func parseArgs(args []string, settings *config.Settings) (CliResult, error) {
	result := CliResult{Path: settings.DefaultFile, BuildType: config.DEBUG, OutDir: "."}

	if len(args) == 0 {
		result.Command = COMMAND_RUN
		return result, nil
	}

	command := args[0]
	rest := args[1:]

	switch command {
	case "help", "-h", "-help", "--help":
		result.Command = COMMAND_HELP
		return result, nil
	case "env":
		result.Command = COMMAND_ENV
		return result, expectNoArgs(command, rest)
	case "repl":
		result.Command = COMMAND_REPL
		return result, expectNoArgs(command, rest)
	case "run":
		result.Command = COMMAND_RUN
	case "tokens":
		result.Command = COMMAND_TOKENS
	case "ast":
		result.Command = COMMAND_AST
	case "fmt":
		result.Command = COMMAND_FMT
	case "emit-llvm":
		result.Command = COMMAND_EMIT_LLVM
	case "build":
		result.Command = COMMAND_BUILD
	default:
		return result, fmt.Errorf("unknown command %q, run 'boo help' for a list of commands", command)
	}

	releaseBuildSet, debugBuildSet, pathSet := false, false, false
	for i := 0; i < len(rest); i++ {
		arg := rest[i]
		switch {
		case arg == "-w" && result.Command == COMMAND_FMT:
			result.Write = true
		case (arg == "-release" || arg == "-debug") && result.Command == COMMAND_BUILD:
			buildType, _ := config.ParseBuildType(arg)
			result.BuildType = buildType
			releaseBuildSet = releaseBuildSet || buildType == config.RELEASE
			debugBuildSet = debugBuildSet || buildType == config.DEBUG
		case arg == "-o" && result.Command == COMMAND_BUILD:
			if i+1 >= len(rest) {
				return result, fmt.Errorf("-o expects a directory")
			}
			i++
			result.OutDir = rest[i]
		case len(arg) > 0 && arg[0] == '-':
			return result, fmt.Errorf("unknown flag %q for '%s'", arg, command)
		default:
			if pathSet {
				return result, fmt.Errorf("'%s' takes a single file, got %q and %q", command, result.Path, arg)
			}
			result.Path = arg
			pathSet = true
		}
	}

	if releaseBuildSet && debugBuildSet {
		return result, fmt.Errorf("choose either -release or -debug, not both")
	}
	return result, nil
}

func expectNoArgs(command string, rest []string) error {
	if len(rest) > 0 {
		return fmt.Errorf("'%s' takes no arguments, got %q", command, rest)
	}
	return nil
}
