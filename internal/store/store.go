// Package store persists sessions.
//
// A Store saves a session's setup, players and round history as one record.
// The session core never sees how records are encoded: the file and SQL
// backends happen to use JSON, the memory backend keeps Go values.
//
// Backends:
//   - Memory keeps sessions in process memory.
//   - File writes one JSON document per session into a directory.
//   - SQL stores sessions in SQLite (modernc.org/sqlite) or PostgreSQL
//     (lib/pq).
//   - Fallback writes to a primary store and switches to a secondary one
//     when the primary fails.
//
// Debouncer sits in front of a Store and collapses bursts of changes into a
// single save.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/coder/quartz"

	"github.com/lox/stakeledger/internal/game"
	"github.com/lox/stakeledger/internal/ledger"
	"github.com/lox/stakeledger/internal/sessionid"
)

// ErrNotFound is returned when a session id is not stored.
var ErrNotFound = errors.New("session not found")

// Session is the persisted form of a tracking session.
type Session struct {
	ID          string         `json:"id"`
	AccountID   string         `json:"account_id"`
	GameType    game.Variant   `json:"game_type"`
	SessionName string         `json:"session_name"`
	Setup       *game.Setup    `json:"setup,omitempty"`
	Players     []game.Player  `json:"players"`
	History     []ledger.Round `json:"history"`
	NextRoundID int            `json:"next_round_id,omitempty"`
	Calculated  bool           `json:"calculated"`
	LastUpdated time.Time      `json:"last_updated"`
}

// Summary is the listing form of a session, without its payload.
type Summary struct {
	ID          string    `json:"id"`
	SessionName string    `json:"session_name"`
	LastUpdated time.Time `json:"last_updated"`
}

// Clone returns a deep copy of s.
func (s Session) Clone() Session {
	if s.Setup != nil {
		c := s.Setup.Clone()
		s.Setup = &c
	}
	s.Players = game.ClonePlayers(s.Players)
	if s.History != nil {
		history := make([]ledger.Round, len(s.History))
		for i, r := range s.History {
			history[i] = r.Clone()
		}
		s.History = history
	}
	return s
}

// Summary returns the listing form of s.
func (s Session) Summary() Summary {
	return Summary{ID: s.ID, SessionName: s.SessionName, LastUpdated: s.LastUpdated}
}

// Store is a persistence backend for sessions.
type Store interface {
	// Save creates the session when ID is empty and otherwise writes it
	// under its ID, replacing any stored copy. It returns the stored record with ID and LastUpdated set.
	Save(ctx context.Context, s Session) (Session, error)
	// Load returns ErrNotFound when id is not stored.
	Load(ctx context.Context, id string) (Session, error)
	// List returns the sessions of an account for one game type, most
	// recently updated first.
	List(ctx context.Context, accountID string, gameType game.Variant) ([]Summary, error)
	// Delete removes a session. Deleting a missing session returns
	// ErrNotFound.
	Delete(ctx context.Context, id string) error
}

// Option configures a backend.
type Option func(*base)

// WithClock sets the clock used for LastUpdated.
func WithClock(clock quartz.Clock) Option {
	return func(b *base) { b.clock = clock }
}

// WithIDGenerator sets the generator used for new session ids.
func WithIDGenerator(g *sessionid.Generator) Option {
	return func(b *base) { b.ids = g }
}

// base holds what every backend needs to stamp a record before saving it.
type base struct {
	clock quartz.Clock
	ids   *sessionid.Generator
}

func newBase(opts []Option) base {
	b := base{clock: quartz.NewReal(), ids: sessionid.NewGenerator(nil)}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// stamp assigns an id to new sessions and sets LastUpdated.
func (b base) stamp(s Session) (Session, error) {
	if s.ID == "" {
		id, err := b.ids.New()
		if err != nil {
			return s, err
		}
		s.ID = id
	}
	s.LastUpdated = b.clock.Now().UTC()
	return s, nil
}
