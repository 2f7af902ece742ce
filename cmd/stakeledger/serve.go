package main

import (
	"context"
	"time"

	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/stakeledger/internal/server"
)

// ServeCmd runs the HTTP API.
type ServeCmd struct {
	Addr            string        `short:"a" help:"Server address to bind to (overrides config)"`
	ShutdownTimeout time.Duration `default:"10s" help:"Time allowed for in-flight requests and saves on shutdown"`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Server.LogLevel)

	ctx, cancel := signalContext(logger)
	defer cancel()

	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	addr := cfg.Address()
	if c.Addr != "" {
		addr = c.Addr
	}
	srv := server.New(st, logger, server.Config{
		Addr:     addr,
		Clock:    quartz.NewReal(),
		Debounce: cfg.Debounce(),
	})

	logger.Info("Starting stakeledger",
		"addr", addr,
		"store", cfg.Store.Backend,
		"fallback", cfg.Store.Fallback,
		"debounce", cfg.Debounce().Delay)

	group, gctx := errgroup.WithContext(ctx)
	group.Go(srv.ListenAndServe)
	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return group.Wait()
}
