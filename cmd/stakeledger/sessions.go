package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/lox/stakeledger/internal/game"
	"github.com/lox/stakeledger/internal/store"
	"github.com/lox/stakeledger/internal/tracker"
)

// SessionsCmd lists saved sessions for an account.
type SessionsCmd struct {
	Account string `short:"A" required:"" help:"Account id"`
	Game    string `short:"g" required:"" enum:"ladder,banker,pot" help:"Game variant (ladder, banker, pot)"`
}

func (c *SessionsCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Server.LogLevel)
	variant, err := game.ParseVariant(c.Game)
	if err != nil {
		return err
	}

	ctx := context.Background()
	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	list, err := st.List(ctx, c.Account, variant)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No sessions found")
		return nil
	}
	fmt.Println(renderSummaries(list))
	return nil
}

// ShowCmd prints a saved session.
type ShowCmd struct {
	ID     string `arg:"" help:"Session id"`
	Rounds bool   `short:"r" help:"Show every round, not just totals"`
}

func (c *ShowCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Server.LogLevel)

	ctx := context.Background()
	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	rec, err := st.Load(ctx, c.ID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("session %s not found", c.ID)
	}
	if err != nil {
		return err
	}
	return renderSession(os.Stdout, tracker.FromRecord(rec), c.Rounds)
}

// DeleteCmd removes a saved session.
type DeleteCmd struct {
	ID string `arg:"" help:"Session id"`
}

func (c *DeleteCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Server.LogLevel)

	ctx := context.Background()
	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := st.Delete(ctx, c.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("session %s not found", c.ID)
		}
		return err
	}
	logger.Info("Session deleted", "session", c.ID)
	return nil
}
