// Package tracker owns one live session. Commands are applied one at a
// time, stamped with the tracker's clock, and every change is handed to a
// debounced saver.
package tracker

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/stakeledger/internal/ledger"
	"github.com/lox/stakeledger/internal/session"
	"github.com/lox/stakeledger/internal/store"
)

// Config configures a Tracker.
type Config struct {
	Clock    quartz.Clock
	Debounce store.DebounceConfig
}

// Tracker serializes commands against one session.
type Tracker struct {
	mu     sync.Mutex
	state  session.State
	clock  quartz.Clock
	logger *log.Logger
	saver  *store.Debouncer
}

// New returns a tracker for state. Changes are saved to st after the
// configured debounce delay.
func New(state session.State, st store.Store, logger *log.Logger, cfg Config) *Tracker {
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	t := &Tracker{
		state:  state.Clone(),
		clock:  cfg.Clock,
		logger: logger.WithPrefix("tracker"),
	}
	debounce := cfg.Debounce
	if debounce.Clock == nil {
		debounce.Clock = cfg.Clock
	}
	debounce.OnSaved = t.saved
	t.saver = store.NewDebouncer(st, logger, debounce)
	return t
}

// Apply runs cmds in order and returns the resulting state. Either every
// command is applied or, on the first error, none are.
func (t *Tracker) Apply(cmds ...session.Command) (session.State, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.applyLocked(cmds)
}

// Update builds commands from the current state and applies them while the
// session is still locked, so commands derived from a read cannot race
// another writer. build receives a copy of the state.
func (t *Tracker) Update(build func(session.State) ([]session.Command, error)) (session.State, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cmds, err := build(t.state.Clone())
	if err != nil {
		return t.state.Clone(), err
	}
	return t.applyLocked(cmds)
}

func (t *Tracker) applyLocked(cmds []session.Command) (session.State, error) {
	if len(cmds) == 0 {
		return t.state.Clone(), nil
	}
	now := t.clock.Now().UTC()
	next := t.state
	for _, cmd := range cmds {
		var err error
		next, err = session.Apply(next, session.Stamp(cmd, now))
		if err != nil {
			t.logger.Debug("Command rejected", "session", t.state.ID, "op", cmd.Op(), "error", err)
			return t.state.Clone(), err
		}
		t.logger.Debug("Command applied", "session", next.ID, "op", cmd.Op(),
			"phase", next.Phase(), "rounds", next.Ledger.Len())
	}
	t.state = next
	t.saver.Schedule(ToRecord(next))
	return next.Clone(), nil
}

// State returns a copy of the current session.
func (t *Tracker) State() session.State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Clone()
}

// ID returns the session id, empty until the first save completes.
func (t *Tracker) ID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.ID
}

// Totals returns the running totals of the ledger.
func (t *Tracker) Totals() []ledger.Total {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Totals()
}

// Standings returns per-player statistics over the ledger.
func (t *Tracker) Standings() []ledger.Standing {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Ledger.Standings()
}

// Pending reports whether a change is waiting to be saved.
func (t *Tracker) Pending() bool {
	return t.saver.Pending()
}

// Flush saves any pending change now.
func (t *Tracker) Flush(ctx context.Context) error {
	return t.saver.Flush(ctx)
}

// Close flushes pending changes and stops saving.
func (t *Tracker) Close(ctx context.Context) error {
	return t.saver.Close(ctx)
}

// Discard stops saving and drops any unsaved change. Used when the session
// is deleted.
func (t *Tracker) Discard() {
	t.saver.Stop()
}

// saved records the id a store assigned on first save.
func (t *Tracker) saved(s store.Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.ID == "" {
		t.state.ID = s.ID
		t.logger.Info("Session created", "session", s.ID, "name", s.SessionName)
	}
}
