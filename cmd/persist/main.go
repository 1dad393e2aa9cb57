package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/zoobzio/capitan"

	"github.com/zoobzio/persist"
)

// main is the entrypoint for the persist host.
func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run wires configuration, logging and the harness.
func run(outW io.Writer, args []string) error {
	cfg, shouldExit, err := parseConfig(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	hookSignals(logger)
	defer capitan.Shutdown()

	path, err := cfg.ArtifactPath()
	if err != nil {
		return err
	}
	codec, err := persist.CodecByName(cfg.Codec)
	if err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}

	opts := []persist.Option{
		persist.WithCodec(codec),
		persist.WithLoader(persist.NewPluginLoader(cfg.ShadowDir)),
	}
	if cfg.HaltOnExit {
		opts = append(opts, persist.WithHaltOnExit())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Debug("starting harness", "module", cfg.Module, "path", path)
	return persist.New(path, opts...).Run(ctx)
}
