package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gomathyk/sinkmux/internal/app"
	"github.com/gomathyk/sinkmux/internal/config"
	"github.com/gomathyk/sinkmux/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "relay start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	log.InfoObj("relay starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	relay, err := app.NewRelay(ctx, cfg, log)
	if err != nil {
		log.ErrorObj("failed to initialize relay", "error", err)
		return err
	}

	source, closeSource, err := openSource(cfg.SourceFile)
	if err != nil {
		return err
	}
	defer closeSource()

	if err := relay.Run(ctx, source); err != nil {
		return fmt.Errorf("relay run: %w", err)
	}
	return nil
}

// openSource returns the event source reader: stdin for "-", a file
// otherwise.
func openSource(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open source file: %w", err)
	}
	return f, func() { f.Close() }, nil
}
