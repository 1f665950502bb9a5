package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/woxQAQ/wasm-interop/internal/config"
	"github.com/woxQAQ/wasm-interop/internal/host"
	"github.com/woxQAQ/wasm-interop/internal/interop"
	"github.com/woxQAQ/wasm-interop/internal/wasm"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "", "Path to configuration file")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	native := flag.Bool("native", false, "Run the functions in-process instead of in the Wasm module")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		zap.NewExample().Fatal("Failed to load configuration", zap.Error(err))
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
		if err := cfg.Validate(); err != nil {
			zap.NewExample().Fatal("Invalid log level", zap.Error(err))
		}
	}

	// Initialize logger
	logger := zap.L()
	if cfg.LogLevel == "debug" {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}

	defer logger.Sync()

	logger.Info("Starting interop-host",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("date", date),
		zap.Bool("native", *native),
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	if err := run(ctx, cfg, logger, *native); err != nil {
		logger.Error("Demo failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	logger.Info("Demo complete")
}

// run executes the demo against the Wasm module, or in-process when native.
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, native bool) error {
	console := interop.ConsoleFunc(func(msg string) {
		os.Stdout.WriteString(msg + "\n")
	})

	var fns host.Functions
	if native {
		fns = interop.NewModule(console, cfg.Wasm.MaxBufferBytes)
	} else {
		session, err := host.NewSession(ctx, cfg, logger, wasm.WithConsole(console))
		if err != nil {
			return err
		}
		defer session.Close(context.Background())
		fns = session.Client()
	}

	_, err := host.RunDemo(ctx, fns, logger)
	return err
}
