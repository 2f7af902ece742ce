package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/stakeledger/internal/game"
	"github.com/lox/stakeledger/internal/session"
	"github.com/lox/stakeledger/internal/store"
	"github.com/lox/stakeledger/internal/tracker"
)

// ReplayCmd applies a JSON-lines file of commands to a new session.
type ReplayCmd struct {
	File    string `arg:"" type:"existingfile" help:"File with one JSON command per line"`
	Game    string `short:"g" required:"" enum:"ladder,banker,pot" help:"Game variant (ladder, banker, pot)"`
	Name    string `short:"n" default:"Replay" help:"Session name"`
	Account string `short:"A" default:"local" help:"Account id the session belongs to"`
	Save    bool   `help:"Save the resulting session to the configured store"`
	Rounds  bool   `short:"r" help:"Show every round, not just totals"`
}

// replayLine is one decoded command and the line it came from.
type replayLine struct {
	Line int
	Cmd  session.Command
}

func (c *ReplayCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Server.LogLevel)
	variant, err := game.ParseVariant(c.Game)
	if err != nil {
		return err
	}

	f, err := os.Open(c.File)
	if err != nil {
		return err
	}
	defer f.Close()
	cmds, err := readCommands(f)
	if err != nil {
		return fmt.Errorf("%s: %w", c.File, err)
	}

	ctx := context.Background()
	var st store.Store = store.NewMemory()
	if c.Save {
		var closeStore func() error
		st, closeStore, err = openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()
	}

	t := tracker.New(session.New(variant, c.Account, c.Name), st, logger, tracker.Config{
		Clock:    quartz.NewReal(),
		Debounce: cfg.Debounce(),
	})
	state, err := replay(t, cmds, logger)
	if err != nil {
		t.Discard()
		return err
	}

	if c.Save {
		if err := t.Close(ctx); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		logger.Info("Session saved", "session", t.ID(), "rounds", state.Ledger.Len())
	} else {
		t.Discard()
	}
	return renderSession(os.Stdout, t.State(), c.Rounds)
}

// readCommands decodes one command per line. Blank lines and lines
// starting with # are skipped.
func readCommands(r io.Reader) ([]replayLine, error) {
	var out []replayLine
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	n := 0
	for scanner.Scan() {
		n++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		cmd, err := session.DecodeCommand(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		out = append(out, replayLine{Line: n, Cmd: cmd})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// replay applies cmds in order and stops at the first rejected one.
func replay(t *tracker.Tracker, cmds []replayLine, logger *log.Logger) (session.State, error) {
	state := t.State()
	for _, rl := range cmds {
		next, err := t.Apply(rl.Cmd)
		if err != nil {
			return state, fmt.Errorf("line %d: %w", rl.Line, err)
		}
		state = next
		logger.Debug("Replayed command", "line", rl.Line, "op", rl.Cmd.Op(), "phase", state.Phase())
	}
	return state, nil
}
