package server

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/stakeledger/internal/game"
	"github.com/lox/stakeledger/internal/session"
	"github.com/lox/stakeledger/internal/store"
	"github.com/lox/stakeledger/internal/tracker"
)

// Registry keeps one live tracker per session, loading sessions from the
// store on first use.
type Registry struct {
	store    store.Store
	logger   *log.Logger
	clock    quartz.Clock
	debounce store.DebounceConfig

	mu       sync.Mutex
	trackers map[string]*tracker.Tracker
}

// NewRegistry returns an empty registry over st.
func NewRegistry(st store.Store, logger *log.Logger, clock quartz.Clock, debounce store.DebounceConfig) *Registry {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Registry{
		store:    st,
		logger:   logger,
		clock:    clock,
		debounce: debounce,
		trackers: make(map[string]*tracker.Tracker),
	}
}

// Create starts a new session and saves it right away so it has an id.
func (r *Registry) Create(ctx context.Context, variant game.Variant, accountID, name string) (*tracker.Tracker, error) {
	state := session.New(variant, accountID, name)
	saved, err := r.store.Save(ctx, tracker.ToRecord(state))
	if err != nil {
		return nil, err
	}
	state.ID = saved.ID

	t := r.newTracker(state)
	r.mu.Lock()
	r.trackers[saved.ID] = t
	r.mu.Unlock()
	r.logger.Info("Session created", "session", saved.ID, "game", variant, "name", name)
	return t, nil
}

// Get returns the tracker for id. It returns store.ErrNotFound for unknown
// sessions.
func (r *Registry) Get(ctx context.Context, id string) (*tracker.Tracker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.trackers[id]; ok {
		return t, nil
	}
	rec, err := r.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	t := r.newTracker(tracker.FromRecord(rec))
	r.trackers[id] = t
	return t, nil
}

// List returns stored sessions for an account and variant. Pending changes
// may not be reflected until their debounced save runs.
func (r *Registry) List(ctx context.Context, accountID string, variant game.Variant) ([]store.Summary, error) {
	return r.store.List(ctx, accountID, variant)
}

// Delete drops the live tracker and removes the stored session.
func (r *Registry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	t, live := r.trackers[id]
	delete(r.trackers, id)
	r.mu.Unlock()

	if live {
		t.Discard()
	}
	err := r.store.Delete(ctx, id)
	if live && errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// Close saves every session with unsaved changes.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	trackers := make([]*tracker.Tracker, 0, len(r.trackers))
	for _, t := range r.trackers {
		trackers = append(trackers, t)
	}
	r.mu.Unlock()

	var errs []error
	for _, t := range trackers {
		if err := t.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) newTracker(state session.State) *tracker.Tracker {
	return tracker.New(state, r.store, r.logger, tracker.Config{
		Clock:    r.clock,
		Debounce: r.debounce,
	})
}
