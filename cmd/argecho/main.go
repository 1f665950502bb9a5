package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/woxQAQ/wasm-interop/internal/echo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// run executes the command with args[0] as the program name and returns the
// process exit status: 0 on success, 2 on bad usage and 1 otherwise.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(stderr)
	logLevel := fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	logger := newLogger(*logLevel, stderr)
	defer logger.Sync()

	err := echo.New(stdout, logger).Run(args[0], fs.Args())

	var usageErr *echo.UsageError
	switch {
	case errors.As(err, &usageErr):
		fmt.Fprintln(stderr, usageErr.Error())
		fmt.Fprintln(stderr, usageErr.Usage())
		return 2
	case err != nil:
		logger.Error("Echo failed", zap.Error(err))
		return 1
	}
	return 0
}

// newLogger writes development logs at debug level and JSON otherwise.
func newLogger(level string, w io.Writer) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	if lvl == zapcore.DebugLevel {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}
	return zap.New(zapcore.NewCore(encoder, zapcore.AddSync(w), lvl))
}
