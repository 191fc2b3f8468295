package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/vellumlang/vellum/bytecode"
	"github.com/vellumlang/vellum/compiler"
	"github.com/vellumlang/vellum/internal/cli"
	"github.com/vellumlang/vellum/lexer"
	"github.com/vellumlang/vellum/parser"
	"github.com/vellumlang/vellum/vm"
)

type runCmd struct {
	useEnv            bool
	useMemory         bool
	useDeepStackTrace bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Execute a Vellum source file" }
func (*runCmd) Usage() string {
	return `run [--use-env] [--use-memory] [--use-deep-stack-trace] <file>:
  Compile and execute a Vellum source file.
`
}

func (r *runCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.useEnv, "use-env", false, "grant access to window.env")
	f.BoolVar(&r.useMemory, "use-memory", false, "grant access to window.memory")
	f.BoolVar(&r.useDeepStackTrace, "use-deep-stack-trace", false, "keep synthetic frames in error traces")
}

func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fatalf("file not provided")
		return subcommands.ExitUsageError
	}
	filename := args[0]

	data, err := os.ReadFile(filename)
	if err != nil {
		fatalf("failed to read file: %v", err)
		return subcommands.ExitFailure
	}

	program, compileErr := compileSource(string(data))
	if compileErr != nil {
		fmt.Fprintln(os.Stderr, compileErr)
		return subcommands.ExitFailure
	}

	perms := cli.New(os.Args[1:]).PermissionSet()
	if r.useEnv {
		perms["env"] = true
	}
	if r.useMemory {
		perms["memory"] = true
	}
	if r.useDeepStackTrace {
		perms["deep-stack-trace"] = true
	}

	machine := vm.NewMachine(program, filename, perms)
	if err := machine.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return subcommands.ExitFailure
	}
	machine.RunShutdownCollection()

	return subcommands.ExitSuccess
}

// compileSource runs the full lex -> parse -> encode pipeline, collapsing
// every stage's error slice into a single error so callers can print and
// bail out uniformly.
func compileSource(source string) (bytecode.Program, error) {
	tokens, err := lexer.New(source).Scan()
	if err != nil {
		return bytecode.Program{}, err
	}

	stmts, parseErrs := parser.Make(tokens).Parse()
	if len(parseErrs) > 0 {
		return bytecode.Program{}, joinErrors(parseErrs)
	}

	enc := compiler.NewEncoder()
	if compileErrs := enc.CompileStatements(stmts); len(compileErrs) > 0 {
		return bytecode.Program{}, joinErrors(compileErrs)
	}

	return enc.Program(), nil
}

func joinErrors(errs []error) error {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("%s", strings.Join(msgs, "\n"))
}
