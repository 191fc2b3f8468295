package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"github.com/vellumlang/vellum/bytecode"
	"github.com/vellumlang/vellum/compiler"
	"github.com/vellumlang/vellum/internal/cli"
	"github.com/vellumlang/vellum/lexer"
	"github.com/vellumlang/vellum/parser"
	"github.com/vellumlang/vellum/token"
	"github.com/vellumlang/vellum/vm"
)

type replCmd struct {
	useEnv            bool
	useMemory         bool
	useDeepStackTrace bool
}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive Vellum session" }
func (*replCmd) Usage() string {
	return `repl [--use-env] [--use-memory]:
  Start an interactive REPL session.
`
}

func (r *replCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.useEnv, "use-env", false, "grant access to window.env")
	f.BoolVar(&r.useMemory, "use-memory", false, "grant access to window.memory")
	f.BoolVar(&r.useDeepStackTrace, "use-deep-stack-trace", false, "keep synthetic frames in error traces")
}

func (r *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Println("\nWelcome to Vellum!")

	rl, err := readline.New(">>> ")
	if err != nil {
		fatalf("failed to start readline: %v", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

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

	machine := vm.NewMachine(bytecode.Program{Constants: []string{"window"}}, "repl.vl", perms)

	var buffer strings.Builder
	for {
		if buffer.Len() == 0 {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}

		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buffer.Reset()
			continue
		}
		if errors.Is(err, io.EOF) {
			return subcommands.ExitSuccess
		}
		if err != nil {
			fatalf("%v", err)
			return subcommands.ExitFailure
		}

		if strings.TrimSpace(line) == "exit" && buffer.Len() == 0 {
			return subcommands.ExitSuccess
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)
		source := buffer.String()

		tokens, lexErr := lexer.New(source).Scan()
		if lexErr != nil {
			fmt.Println(lexErr)
			buffer.Reset()
			continue
		}

		if !isInputReady(tokens) {
			continue
		}

		stmts, parseErrs := parser.Make(tokens).Parse()
		if len(parseErrs) > 0 {
			if allParseErrorsAtEOF(parseErrs, tokens[len(tokens)-1]) {
				continue
			}
			for _, pErr := range parseErrs {
				fmt.Fprintln(os.Stderr, pErr)
			}
			buffer.Reset()
			continue
		}

		enc := compiler.NewEncoder()
		if compileErrs := enc.CompileStatements(stmts); len(compileErrs) > 0 {
			fmt.Fprintln(os.Stderr, joinErrors(compileErrs))
			buffer.Reset()
			continue
		}

		machine.LoadProgram(enc.Program())
		if runErr := machine.Run(); runErr != nil {
			fmt.Fprintln(os.Stderr, runErr.Error())
		}
		buffer.Reset()
	}
}

// isInputReady reports whether the buffered source has balanced braces
// and does not end on a token that expects a continuation, so the REPL
// knows to keep reading instead of attempting to parse a partial
// statement.
func isInputReady(tokens []token.Token) bool {
	braceBalance := 0
	for _, tok := range tokens {
		switch tok.TokenType {
		case token.LCUR:
			braceBalance++
		case token.RCUR:
			braceBalance--
		}
	}
	if braceBalance > 0 {
		return false
	}

	last := lastNonEOF(tokens)
	if last == nil {
		return true
	}

	switch last.TokenType {
	case token.ASSIGN, token.ADD, token.SUB, token.MULT, token.DIV, token.BANG,
		token.EQUAL_EQUAL, token.NOT_EQUAL, token.LESS, token.LESS_EQUAL,
		token.LARGER, token.LARGER_EQUAL, token.COMMA, token.LPA, token.LCUR,
		token.IF, token.ELSE, token.ELIF, token.WHILE, token.FUNC,
		token.RETURN, token.VAR, token.CONST, token.AND, token.OR:
		return false
	}

	return true
}

func lastNonEOF(tokens []token.Token) *token.Token {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].TokenType != token.EOF {
			return &tokens[i]
		}
	}
	return nil
}

func allParseErrorsAtEOF(parseErrs []error, eof token.Token) bool {
	for _, parseErr := range parseErrs {
		syntaxErr, ok := parseErr.(parser.SyntaxError)
		if !ok {
			return false
		}
		if syntaxErr.Line != eof.Line || syntaxErr.Column != eof.Column {
			return false
		}
	}
	return len(parseErrs) > 0
}
