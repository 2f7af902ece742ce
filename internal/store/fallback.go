package store

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"

	"github.com/lox/stakeledger/internal/game"
)

// Fallback uses a primary store and falls back to a secondary one whenever
// the primary fails. Failovers are logged, never returned.
type Fallback struct {
	primary   Store
	secondary Store
	logger    *log.Logger
}

// NewFallback combines primary and secondary.
func NewFallback(primary, secondary Store, logger *log.Logger) *Fallback {
	return &Fallback{
		primary:   primary,
		secondary: secondary,
		logger:    logger.WithPrefix("store"),
	}
}

// Save implements Store.
func (f *Fallback) Save(ctx context.Context, s Session) (Session, error) {
	saved, err := f.primary.Save(ctx, s)
	if err == nil {
		return saved, nil
	}
	f.logger.Warn("Primary store save failed, using fallback", "session", s.ID, "error", err)
	return f.secondary.Save(ctx, s)
}

// Load implements Store. Both stores are read, since a failover may have left
// a newer copy in the secondary; the most recently updated copy wins.
func (f *Fallback) Load(ctx context.Context, id string) (Session, error) {
	primary, perr := f.primary.Load(ctx, id)
	if perr != nil && !errors.Is(perr, ErrNotFound) {
		f.logger.Warn("Primary store load failed, using fallback", "session", id, "error", perr)
	}
	secondary, serr := f.secondary.Load(ctx, id)
	if serr != nil && !errors.Is(serr, ErrNotFound) {
		f.logger.Warn("Fallback store load failed", "session", id, "error", serr)
	}

	switch {
	case perr == nil && serr == nil:
		if secondary.LastUpdated.After(primary.LastUpdated) {
			return secondary, nil
		}
		return primary, nil
	case perr == nil:
		return primary, nil
	case serr == nil:
		return secondary, nil
	case errors.Is(perr, ErrNotFound):
		return Session{}, serr
	default:
		return Session{}, perr
	}
}

// List implements Store. Results from both stores are merged; when a
// session is in both, the most recently updated copy wins.
func (f *Fallback) List(ctx context.Context, accountID string, gameType game.Variant) ([]Summary, error) {
	primary, perr := f.primary.List(ctx, accountID, gameType)
	if perr != nil {
		f.logger.Warn("Primary store list failed, using fallback", "error", perr)
	}
	secondary, serr := f.secondary.List(ctx, accountID, gameType)
	if perr != nil && serr != nil {
		return nil, serr
	}

	byID := make(map[string]Summary, len(primary)+len(secondary))
	for _, s := range append(primary, secondary...) {
		if prev, ok := byID[s.ID]; !ok || s.LastUpdated.After(prev.LastUpdated) {
			byID[s.ID] = s
		}
	}
	out := make([]Summary, 0, len(byID))
	for _, s := range byID {
		out = append(out, s)
	}
	sortSummaries(out)
	return out, nil
}

// Delete implements Store. The session is removed from both stores.
func (f *Fallback) Delete(ctx context.Context, id string) error {
	perr := f.primary.Delete(ctx, id)
	serr := f.secondary.Delete(ctx, id)
	for _, err := range []error{perr, serr} {
		if err != nil && !errors.Is(err, ErrNotFound) {
			f.logger.Warn("Store delete failed", "session", id, "error", err)
		}
	}
	switch {
	case perr == nil || serr == nil:
		return nil
	case errors.Is(perr, ErrNotFound):
		return serr
	default:
		return perr
	}
}
