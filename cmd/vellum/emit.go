package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/vellumlang/vellum/compiler"
	"github.com/vellumlang/vellum/lexer"
	"github.com/vellumlang/vellum/parser"
	"github.com/vellumlang/vellum/vm"
)

type emitCmd struct {
	disassemble  bool
	dumpBytecode bool
}

func (*emitCmd) Name() string { return "emit" }
func (*emitCmd) Synopsis() string {
	return "Emit the compiled bytecode for a source file"
}
func (*emitCmd) Usage() string {
	return `emit [--disassemble] [--dump] <file>:
  Compile a Vellum source file without running it and print its bytecode.
`
}

func (cmd *emitCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.disassemble, "disassemble", true, "print a structural disassembly of the bytecode")
	f.BoolVar(&cmd.dumpBytecode, "dump", false, "print the raw bytecode as hexadecimal")
}

func (cmd *emitCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fatalf("file not provided")
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fatalf("failed to read file: %v", err)
		return subcommands.ExitFailure
	}

	tokens, lexErr := lexer.New(string(data)).Scan()
	if lexErr != nil {
		fatalf("lexing error: %v", lexErr)
		return subcommands.ExitFailure
	}

	stmts, parseErrs := parser.Make(tokens).Parse()
	if len(parseErrs) > 0 {
		fatalf("parsing error:")
		for _, pErr := range parseErrs {
			fmt.Fprintf(os.Stderr, "\t%v\n", pErr)
		}
		return subcommands.ExitFailure
	}

	enc := compiler.NewEncoder()
	if compileErrs := enc.CompileStatements(stmts); len(compileErrs) > 0 {
		fatalf("compilation error:")
		for _, cErr := range compileErrs {
			fmt.Fprintf(os.Stderr, "\t%v\n", cErr)
		}
		return subcommands.ExitFailure
	}

	program := enc.Program()

	if cmd.disassemble {
		fmt.Println(vm.Disassemble(program))
	}
	if cmd.dumpBytecode {
		fmt.Println(strings.ToUpper(hex.EncodeToString(program.Bytes)))
	}

	return subcommands.ExitSuccess
}
