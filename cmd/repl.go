package main

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"fortio.org/log"
	"github.com/smarthome-go/hmsconsole/console"
	"golang.org/x/term"
)

const (
	primaryPrompt   = ">>> "
	secondaryPrompt = "... "
)

// Reads lines, returns io.EOF once the input is exhausted.
type lineReader interface {
	ReadLine() (string, error)
	SetPrompt(prompt string)
}

func runREPL(ctx context.Context, config console.Config) error {
	runnerOptions, err := config.RunnerOptions()
	if err != nil {
		return err
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return loop(ctx, config, runnerOptions, newPipeReader(os.Stdin), os.Stdout)
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		log.Warnf("Failed to set raw mode, falling back to line mode: %s", err)
		return loop(ctx, config, runnerOptions, newPipeReader(os.Stdin), os.Stdout)
	}
	defer func() {
		if err := term.Restore(fd, oldState); err != nil {
			log.Errf("Could not restore terminal: %s", err)
		}
	}()

	screen := struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}
	terminal := term.NewTerminal(screen, primaryPrompt)

	if width, height, err := term.GetSize(fd); err == nil {
		if err := terminal.SetSize(width, height); err != nil {
			log.Warnf("Could not set terminal size: %s", err)
		}
	}

	return loop(ctx, config, runnerOptions, terminal, terminal)
}

func loop(ctx context.Context, config console.Config, runnerOptions console.RunnerOptions, reader lineReader, output io.Writer) error {
	write := func(text string) {
		_, _ = io.WriteString(output, text)
	}

	options := console.DefaultConsoleOptions()
	options.Runner = runnerOptions
	options.Stdout = write
	options.Stderr = write
	options.PersistentRedirection = config.PersistentRedirection
	options.ImportHook = func(ctx context.Context, modules []string) error {
		log.LogVf("Fragment imports %v", modules)
		return nil
	}

	terminal, isTerminal := reader.(*term.Terminal)
	if isTerminal {
		// The raw terminal owns stdin, `input()` has to go through it.
		options.Stdin = func(int64) (string, error) {
			terminal.SetPrompt("")
			return terminal.ReadLine()
		}
	}

	session, err := console.NewConsole(nil, options)
	if err != nil {
		return err
	}
	defer session.Close()

	if isTerminal {
		terminal.AutoCompleteCallback = completer(session)
	}

	banner := config.Banner
	if banner == "" {
		banner = console.Banner()
	}
	write(banner + "\n")

	for {
		line, err := reader.ReadLine()
		if err == io.EOF {
			write("\n")
			return nil
		}
		if err != nil {
			return err
		}

		res := session.Push(ctx, line)

		switch res.Status {
		case console.PushIncomplete:
			reader.SetPrompt(secondaryPrompt)
			continue
		case console.PushSyntaxError:
			write(res.Output)
		case console.PushComplete:
			if res.Err != nil {
				write(res.Output)
			} else if res.Value != nil {
				write(console.ReprShorten(res.Value, config.OutputLimit, 0, "...") + "\n")
			}
		}

		reader.SetPrompt(primaryPrompt)
	}
}

// Completes the word before the cursor when tab is pressed.
// If there is exactly one completion it is inserted, multiple candidates are extended by their common prefix.
func completer(session *console.Console) func(line string, pos int, key rune) (string, int, bool) {
	return func(line string, pos int, key rune) (string, int, bool) {
		if key != '\t' {
			return "", 0, false
		}

		completions, start := session.Complete(line[:pos])
		if len(completions) == 0 {
			return "", 0, false
		}

		replacement := commonPrefix(completions)
		if len(replacement) <= pos-start {
			return "", 0, false
		}

		newLine := line[:start] + replacement + line[pos:]
		return newLine, start + len(replacement), true
	}
}

func commonPrefix(words []string) string {
	prefix := words[0]
	for _, word := range words[1:] {
		for !strings.HasPrefix(word, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	return prefix
}

//
// Piped input
//

type pipeReader struct {
	scanner *bufio.Scanner
}

func newPipeReader(input io.Reader) *pipeReader {
	return &pipeReader{scanner: bufio.NewScanner(input)}
}

func (self *pipeReader) ReadLine() (string, error) {
	if !self.scanner.Scan() {
		if err := self.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return self.scanner.Text(), nil
}

// Prompts are not shown for piped input.
func (self *pipeReader) SetPrompt(string) {}
