// Package echo prints the arguments a program was invoked with.
package echo

import (
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Delimiter frames the echoed block.
const Delimiter = "-------------------------------------------------"

// MinArgs is the number of positional arguments Run requires.
const MinArgs = 2

// UsageError reports too few positional arguments.
type UsageError struct {
	Program string
	Got     int
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("%s: expected %d arguments, got %d", e.Program, MinArgs, e.Got)
}

// Usage returns the one-line usage text.
func (e *UsageError) Usage() string {
	return fmt.Sprintf("usage: %s [-log-level level] ARG1 ARG2", e.Program)
}

// Hook runs between the echoed arguments and the closing delimiter.
type Hook func() error

func moduleOne() error { return nil }

func moduleTwo() error { return nil }

// DefaultHooks are the two placeholder hooks run by every invocation.
func DefaultHooks() []Hook {
	return []Hook{moduleOne, moduleTwo}
}

// Program echoes its invocation to Out.
type Program struct {
	Out    io.Writer
	Hooks  []Hook
	Logger *zap.Logger
}

// New returns a Program writing to out with the default hooks.
func New(out io.Writer, logger *zap.Logger) *Program {
	return &Program{
		Out:    out,
		Hooks:  DefaultHooks(),
		Logger: logger,
	}
}

// Run echoes name and args. args holds positional arguments only; the count
// printed includes the program name. Fewer than MinArgs arguments yields a
// *UsageError and no output.
func (p *Program) Run(name string, args []string) error {
	if len(args) < MinArgs {
		return &UsageError{Program: name, Got: len(args)}
	}

	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	argv := append([]string{name}, args...)

	lines := []string{
		Delimiter,
		fmt.Sprintf("argc: %d", len(argv)),
		fmt.Sprintf("argv[0]: %s", argv[0]),
		fmt.Sprintf("argv[1]: %s", argv[1]),
		fmt.Sprintf("argv[2]: %s", argv[2]),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(p.Out, line); err != nil {
			return err
		}
	}

	for i, hook := range p.Hooks {
		logger.Debug("Running hook", zap.Int("hook", i+1))
		if err := hook(); err != nil {
			return fmt.Errorf("hook %d: %w", i+1, err)
		}
	}

	_, err := fmt.Fprintln(p.Out, Delimiter)
	return err
}
