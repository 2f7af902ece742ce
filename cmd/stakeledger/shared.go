package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/muesli/termenv"

	"github.com/lox/stakeledger/internal/config"
	"github.com/lox/stakeledger/internal/store"
)

// dsnEnv overrides the configured store DSN, so credentials can live in
// the environment or a .env file instead of the config file.
const dsnEnv = "STAKELEDGER_DSN"

// load reads .env and the config file and applies flag and environment
// overrides.
func (g *Globals) load() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.LogLevel != "" {
		cfg.Server.LogLevel = g.LogLevel
	}
	if dsn := os.Getenv(dsnEnv); dsn != "" {
		cfg.Store.DSN = dsn
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if g.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	return cfg, nil
}

// setupLogger returns a stderr logger at the given level.
func setupLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// openStore opens the configured store.
func openStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (store.Store, func() error, error) {
	st, closeFn, err := store.Open(ctx, cfg.StoreOptions(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return st, closeFn, nil
}

// signalContext is cancelled on interrupt signals.
func signalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Received signal, shutting down gracefully", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}
