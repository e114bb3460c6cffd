package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"fortio.org/log"
	"github.com/davecgh/go-spew/spew"
	"github.com/smarthome-go/hmsconsole/console"
	"github.com/smarthome-go/hmsconsole/homescript/compiler"
	"github.com/smarthome-go/hmsconsole/homescript/diagnostic"
	"github.com/smarthome-go/hmsconsole/homescript/lexer"
	"github.com/smarthome-go/hmsconsole/homescript/runtime"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

func readSource(path string) (string, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("Could not read file `%s`: %w", path, err)
	}
	return string(file), nil
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Renders errors of the engine as diagnostics with a source excerpt.
// Errors without a position fall back to the console format.
func displayError(err error, source string, color bool) string {
	var syntaxErr *console.SyntaxError
	var userErr *console.UserError

	switch {
	case errors.As(err, &syntaxErr):
		return diagnostic.FromError(syntaxErr.Err).Display(syntaxErr.Source, color)
	case errors.As(err, &userErr):
		return diagnostic.FromException(userErr.Exception).Display(userErr.Source, color)
	default:
		return console.FormatError(err)
	}
}

func runFile(ctx context.Context, config console.Config, path string, dump bool, async bool) error {
	source, err := readSource(path)
	if err != nil {
		return err
	}

	options, err := config.RunnerOptions()
	if err != nil {
		return err
	}
	options.Filename = path

	if dump {
		if err := dumpFragment(source, options); err != nil {
			fmt.Fprintln(os.Stderr, displayError(err, source, stdoutIsTerminal()))
			return cli.Exit("", 1)
		}
	}

	runner, err := console.NewCodeRunner(nil, options)
	if err != nil {
		return err
	}
	run := runner.Run
	if async {
		run = runner.RunAsync
	}

	res, err := run(ctx, source)
	if err != nil {
		fmt.Fprintln(os.Stderr, displayError(err, source, stdoutIsTerminal()))
		return cli.Exit("", 1)
	}

	if res != nil {
		fmt.Println(console.ReprShorten(res, config.OutputLimit, 0, "..."))
	}

	return nil
}

// Prints the transformed tree and the compiled program of a fragment without running it.
func dumpFragment(source string, options console.RunnerOptions) error {
	tree, dedented, err := console.ParseFragment(source, options.Filename)
	if err != nil {
		return err
	}

	tree, _ = console.Transform(tree, options.ReturnMode)

	fmt.Println("=== TRANSFORMED ===")
	spew.Dump(tree)

	program, err := console.NewCompilerAdapter(options.Flags).Compile(tree, compiler.FlagTopLevelAwait, dedented)
	if err != nil {
		return err
	}

	fmt.Println("=== COMPILED ===")
	fmt.Println(program)

	log.Infof("Compiled %s with flags %s", options.Filename, program.Flags)
	return nil
}

func listImports(path string) error {
	source, err := readSource(path)
	if err != nil {
		return err
	}

	imports, err := console.FindImports(source)
	if err != nil {
		fmt.Fprintln(os.Stderr, displayError(err, source, stdoutIsTerminal()))
		return cli.Exit("", 1)
	}

	builtin := make(map[string]bool)
	for _, name := range runtime.BuiltinModuleNames() {
		builtin[name] = true
	}

	for _, name := range imports {
		if builtin[name] {
			fmt.Printf("%s (builtin)\n", name)
			continue
		}
		fmt.Println(name)
	}

	return nil
}

func listTokens(path string, trivia bool) error {
	source, err := readSource(path)
	if err != nil {
		return err
	}

	tokens, lexErr := lexer.Tokenize(source, path, trivia)
	if lexErr != nil {
		fmt.Fprintln(os.Stderr, diagnostic.FromError(*lexErr).Display(source, stdoutIsTerminal()))
		return cli.Exit("", 1)
	}

	for _, token := range tokens {
		fmt.Printf("%-4d:%-3d %-20s %q\n", token.Span.Start.Line, token.Span.Start.Column, token.Kind, token.Value)
	}

	return nil
}
