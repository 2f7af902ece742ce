// Package session implements the state machine of a tracking session.
//
// A State moves through three phases:
//
//	Setup ──SubmitSetup──▶ Active ──Calculate──▶ Calculated
//	                         ▲                      │
//	                         └──NewRound / Undo─────┘
//
// Every transition is a pure function: Apply returns a new State and never
// mutates the one it was given, so a session can be replayed from its list
// of commands and tested without any I/O.
package session

import (
	"fmt"

	"github.com/lox/stakeledger/internal/game"
	"github.com/lox/stakeledger/internal/ledger"
)

// Phase is the user-visible state of a session.
type Phase int

const (
	// PhaseSetup has no configured players.
	PhaseSetup Phase = iota
	// PhaseActive has players whose current round is not settled.
	PhaseActive
	// PhaseCalculated has a settled current round.
	PhaseCalculated
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseActive:
		return "active"
	case PhaseCalculated:
		return "calculated"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is one session: the in-progress round and the ledger of settled
// rounds. ID is opaque and only correlates the session with its store.
type State struct {
	ID        string
	AccountID string
	Name      string
	Variant   game.Variant

	Setup      *game.Setup
	Players    []game.Player
	Ledger     *ledger.Ledger
	Calculated bool
}

// New returns an empty session in PhaseSetup.
func New(variant game.Variant, accountID, name string) State {
	return State{
		AccountID: accountID,
		Name:      name,
		Variant:   variant,
		Ledger:    &ledger.Ledger{},
	}
}

// Restore rebuilds a session from persisted values. nextRoundID is the stored
// round id counter; zero restarts it after the highest id in history.
func Restore(id, accountID, name string, variant game.Variant, setup *game.Setup, players []game.Player, history []ledger.Round, nextRoundID int, calculated bool) State {
	s := New(variant, accountID, name)
	s.ID = id
	s.Ledger = ledger.FromRounds(history, nextRoundID)
	if setup != nil {
		c := setup.Clone()
		s.Setup = &c
		s.Players = game.ClonePlayers(players)
		s.Calculated = calculated && s.Ledger.Len() > 0
	}
	return s
}

// Phase reports the current phase.
func (s State) Phase() Phase {
	switch {
	case s.Setup == nil:
		return PhaseSetup
	case s.Calculated:
		return PhaseCalculated
	default:
		return PhaseActive
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	if s.Setup != nil {
		c := s.Setup.Clone()
		out.Setup = &c
	}
	out.Players = game.ClonePlayers(s.Players)
	if s.Ledger != nil {
		out.Ledger = s.Ledger.Clone()
	} else {
		out.Ledger = &ledger.Ledger{}
	}
	return out
}

// Totals returns the running per-player totals of the ledger.
func (s State) Totals() []ledger.Total {
	if s.Ledger == nil {
		return nil
	}
	return s.Ledger.Totals()
}

// Apply runs cmd against a copy of s. On error the original state is
// returned unchanged together with the error.
func Apply(s State, cmd Command) (State, error) {
	next := s.Clone()
	if err := cmd.apply(&next); err != nil {
		return s, fmt.Errorf("%s: %w", cmd.Op(), err)
	}
	return next, nil
}
