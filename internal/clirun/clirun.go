// Package clirun implements the corvid binary's CLI surface (spec.md §6.1):
// a zero-argument REPL, a one-argument file runner, and the usage/exit-code
// contract for any other invocation shape.
package clirun

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/hashicorp/go-multierror"
	"github.com/mna/corvid/internal/diag"
	"github.com/mna/corvid/lang/vm"
	"github.com/mna/mainer"
	"github.com/sirupsen/logrus"
)

// Exit codes, per spec.md §6.1.
const (
	ExitOk           = 0
	ExitUsage        = 64
	ExitCompileError = 65
	ExitRuntimeError = 70
)

// Cmd is the corvid binary's entry point.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	// Log receives CLI lifecycle and fatal-error events (§2.1). A nil Log
	// defaults to a discard logger.
	Log *logrus.Logger
}

// Main runs the CLI and returns the process exit code. args is the raw
// os.Args (args[0] is the program name, matched by the usage message).
func (c *Cmd) Main(args []string, stdio mainer.Stdio) int {
	log := c.Log
	if log == nil {
		log = diag.Discard()
	}

	prog := "corvid"
	if len(args) > 0 {
		prog = args[0]
	}
	rest := args[1:]

	switch len(rest) {
	case 0:
		log.Info("starting REPL")
		return runREPL(stdio, log)
	case 1:
		log.WithField("path", rest[0]).Info("running script")
		return runFile(stdio, rest[0], log)
	default:
		fmt.Fprintf(stdio.Stderr, "Usage: %s [path]\n", prog)
		return ExitUsage
	}
}

// runFile reads path into memory and interprets it once, per §6.1's
// one-argument mode.
func runFile(stdio mainer.Stdio, path string, log *logrus.Logger) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return ExitRuntimeError
	}

	v := vm.New(vm.WithStdout(stdio.Stdout), vm.WithLogger(log))
	return exitCode(v.Interpret(string(src)), stdio.Stderr)
}

// runREPL reads lines from stdin until EOF, interpreting each one against a
// single persistent VM so that globals and interned strings carry over
// between lines, per §7's REPL-reuse semantics.
func runREPL(stdio mainer.Stdio, log *logrus.Logger) int {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "> ",
		Stdin:       io.NopCloser(stdio.Stdin),
		Stdout:      stdio.Stdout,
		Stderr:      stdio.Stderr,
		HistoryFile: "",
	})
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return ExitRuntimeError
	}
	defer rl.Close()

	v := vm.New(vm.WithStdout(stdio.Stdout), vm.WithLogger(log))
	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or readline.ErrInterrupt
			return ExitOk
		}
		if err := v.Interpret(line); err != nil {
			printErr(stdio.Stderr, err)
		}
	}
}

// exitCode prints err (if any) in the §6.4 diagnostic format and maps it to
// the exit code its category requires.
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return ExitOk
	}
	printErr(stderr, err)

	var rerr *vm.RuntimeError
	if errors.As(err, &rerr) {
		return ExitRuntimeError
	}
	return ExitCompileError
}

// printErr writes err to w, expanding a *multierror.Error of *CompileError
// values one diagnostic per line (§4.2 panic-mode reports every error it
// recovers from, not just the first).
func printErr(w io.Writer, err error) {
	var merr *multierror.Error
	if errors.As(err, &merr) {
		for _, e := range merr.Errors {
			fmt.Fprintln(w, e)
		}
		return
	}
	fmt.Fprintln(w, err)
}
