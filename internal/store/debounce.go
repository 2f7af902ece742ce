package store

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

// DebounceConfig configures a Debouncer.
type DebounceConfig struct {
	// Delay is how long the debouncer waits after the last change before
	// saving.
	Delay time.Duration
	// SaveTimeout bounds a single save.
	SaveTimeout time.Duration
	Clock       quartz.Clock
	// OnSaved, if set, is called after each successful save.
	OnSaved func(Session)
}

// Debouncer saves the latest scheduled session once changes stop arriving
// for Delay. A burst of changes produces one save of the final state. At
// most one save runs at a time; failures are logged and dropped, leaving the
// in-memory session as the source of truth until the next save.
type Debouncer struct {
	store  Store
	cfg    DebounceConfig
	logger *log.Logger

	mu      sync.Mutex
	pending *Session
	id      string
	timer   *quartz.Timer
	closed  bool

	// saving serializes saves.
	saving sync.Mutex
}

// NewDebouncer returns a debouncer writing to store.
func NewDebouncer(store Store, logger *log.Logger, cfg DebounceConfig) *Debouncer {
	if cfg.Delay <= 0 {
		cfg.Delay = 2 * time.Second
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = 10 * time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	return &Debouncer{
		store:  store,
		cfg:    cfg,
		logger: logger.WithPrefix("saver"),
	}
}

// Schedule records s as the state to save and restarts the delay.
func (d *Debouncer) Schedule(s Session) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	c := s.Clone()
	d.pending = &c
	if d.timer == nil {
		d.timer = d.cfg.Clock.AfterFunc(d.cfg.Delay, d.fire, "debounce")
		return
	}
	d.timer.Reset(d.cfg.Delay, "debounce")
}

// Pending reports whether a scheduled change has not been saved yet.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Flush saves any pending change immediately.
func (d *Debouncer) Flush(ctx context.Context) error {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()

	d.saving.Lock()
	defer d.saving.Unlock()
	return d.saveLocked(ctx)
}

// Close flushes pending changes and stops accepting new ones.
func (d *Debouncer) Close(ctx context.Context) error {
	err := d.Flush(ctx)
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return err
}

// Stop drops any pending change without saving it and stops accepting new
// ones. A save already in flight still completes.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = nil
	d.closed = true
}

func (d *Debouncer) fire() {
	if !d.saving.TryLock() {
		// A save is in flight; try again once the delay passes.
		d.mu.Lock()
		if !d.closed && d.timer != nil {
			d.timer.Reset(d.cfg.Delay, "debounce")
		}
		d.mu.Unlock()
		return
	}
	defer d.saving.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SaveTimeout)
	defer cancel()
	_ = d.saveLocked(ctx)
}

// saveLocked saves the pending session. d.saving must be held.
func (d *Debouncer) saveLocked(ctx context.Context) error {
	d.mu.Lock()
	pending := d.pending
	d.pending = nil
	if pending != nil && pending.ID == "" {
		pending.ID = d.id
	}
	d.mu.Unlock()

	if pending == nil {
		return nil
	}

	saved, err := d.store.Save(ctx, *pending)
	if err != nil {
		d.logger.Error("Session save failed", "session", pending.ID, "name", pending.SessionName, "error", err)
		return err
	}

	d.mu.Lock()
	d.id = saved.ID
	d.mu.Unlock()

	d.logger.Debug("Session saved", "session", saved.ID, "rounds", len(saved.History))
	if d.cfg.OnSaved != nil {
		d.cfg.OnSaved(saved)
	}
	return nil
}
