// Package ledger keeps the ordered history of settled rounds in a session.
//
// Rounds are self-contained snapshots: each stores deep copies of the players
// and the setup it was settled with, so editing or deleting one round never
// touches another. Round ids come from a monotonic counter and are never
// reused after a delete.
package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lox/stakeledger/internal/game"
	"github.com/lox/stakeledger/internal/settlement"
)

// Round is one settled round.
type Round struct {
	ID        int           `json:"id"`
	Players   []game.Player `json:"players"`
	Setup     game.Setup    `json:"setup"`
	Timestamp time.Time     `json:"timestamp"`
}

// Clone returns a deep copy of r.
func (r Round) Clone() Round {
	r.Players = game.ClonePlayers(r.Players)
	r.Setup = r.Setup.Clone()
	return r
}

// NotFoundError is returned when a round id is not in the ledger.
type NotFoundError struct {
	RoundID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("round %d not found", e.RoundID)
}

// Ledger is an ordered sequence of rounds. The zero value is an empty ledger.
type Ledger struct {
	rounds []Round
	nextID int
}

// FromRounds rebuilds a ledger from stored history, keeping the given order.
// nextID is the persisted id counter; it is raised past the highest stored id
// when it is lower, so a zero value is always safe.
func FromRounds(rounds []Round, nextID int) *Ledger {
	l := &Ledger{nextID: nextID}
	for _, r := range rounds {
		l.rounds = append(l.rounds, r.Clone())
		if r.ID >= l.nextID {
			l.nextID = r.ID + 1
		}
	}
	return l
}

// NextID returns the id the next appended round will get.
func (l *Ledger) NextID() int {
	if l.nextID == 0 {
		return len(l.rounds) + 1
	}
	return l.nextID
}

// Len returns the number of rounds.
func (l *Ledger) Len() int {
	return len(l.rounds)
}

// Rounds returns a deep copy of every round, oldest first.
func (l *Ledger) Rounds() []Round {
	if l.rounds == nil {
		return nil
	}
	out := make([]Round, len(l.rounds))
	for i, r := range l.rounds {
		out[i] = r.Clone()
	}
	return out
}

// Round returns a copy of the round with the given id.
func (l *Ledger) Round(id int) (Round, error) {
	idx := l.index(id)
	if idx < 0 {
		return Round{}, &NotFoundError{RoundID: id}
	}
	return l.rounds[idx].Clone(), nil
}

// Last returns a copy of the most recent round.
func (l *Ledger) Last() (Round, bool) {
	if len(l.rounds) == 0 {
		return Round{}, false
	}
	return l.rounds[len(l.rounds)-1].Clone(), true
}

// Clone returns an independent copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	return &Ledger{rounds: l.Rounds(), nextID: l.nextID}
}

// Append adds a settled round. players must already carry their money.
func (l *Ledger) Append(players []game.Player, setup game.Setup, at time.Time) (Round, error) {
	if err := checkSize(players, setup); err != nil {
		return Round{}, err
	}
	if l.nextID == 0 {
		l.nextID = len(l.rounds) + 1
	}
	r := Round{
		ID:        l.nextID,
		Players:   game.ClonePlayers(players),
		Setup:     setup.Clone(),
		Timestamp: at,
	}
	l.nextID++
	l.rounds = append(l.rounds, r)
	return r.Clone(), nil
}

// ReplaceLast overwrites the players and timestamp of the most recent round,
// so settling the same round again never grows the ledger.
func (l *Ledger) ReplaceLast(players []game.Player, at time.Time) (Round, error) {
	if len(l.rounds) == 0 {
		return Round{}, &NotFoundError{}
	}
	last := &l.rounds[len(l.rounds)-1]
	if err := checkSize(players, last.Setup); err != nil {
		return Round{}, err
	}
	last.Players = game.ClonePlayers(players)
	last.Timestamp = at
	return last.Clone(), nil
}

// Undo removes the most recent round and returns it.
func (l *Ledger) Undo() (Round, bool) {
	if len(l.rounds) == 0 {
		return Round{}, false
	}
	last := l.rounds[len(l.rounds)-1]
	l.rounds = l.rounds[:len(l.rounds)-1]
	// An undone round gives its id back when nothing newer was issued.
	if last.ID == l.nextID-1 {
		l.nextID = last.ID
	}
	return last, true
}

// Edit re-settles round id with new player inputs using the round's own
// setup. On any error the ledger is unchanged.
func (l *Ledger) Edit(id int, players []game.Player, at time.Time) (Round, error) {
	idx := l.index(id)
	if idx < 0 {
		return Round{}, &NotFoundError{RoundID: id}
	}
	if !samePlayers(l.rounds[idx].Players, players) {
		return Round{}, &settlement.InvalidInputError{
			Reason: fmt.Sprintf("players do not match round %d", id),
		}
	}
	settled, err := settlement.Settle(l.rounds[idx].Setup, players)
	if err != nil {
		return Round{}, err
	}
	l.rounds[idx].Players = settled
	l.rounds[idx].Timestamp = at
	return l.rounds[idx].Clone(), nil
}

// Delete removes round id. Other rounds are not recomputed.
func (l *Ledger) Delete(id int) error {
	idx := l.index(id)
	if idx < 0 {
		return &NotFoundError{RoundID: id}
	}
	l.rounds = append(l.rounds[:idx:idx], l.rounds[idx+1:]...)
	return nil
}

type wireLedger struct {
	Rounds []Round `json:"rounds"`
	NextID int     `json:"next_id"`
}

// MarshalJSON encodes the rounds together with the id counter.
func (l *Ledger) MarshalJSON() ([]byte, error) {
	rounds := l.rounds
	if rounds == nil {
		rounds = []Round{}
	}
	return json.Marshal(wireLedger{Rounds: rounds, NextID: l.NextID()})
}

// UnmarshalJSON decodes a ledger object. A bare list of rounds is also
// accepted; its counter restarts after the highest id.
func (l *Ledger) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		var rounds []Round
		if err := json.Unmarshal(trimmed, &rounds); err != nil {
			return err
		}
		*l = *FromRounds(rounds, 0)
		return nil
	}
	var w wireLedger
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*l = *FromRounds(w.Rounds, w.NextID)
	return nil
}

// samePlayers reports whether next carries exactly the player ids of prev.
func samePlayers(prev, next []game.Player) bool {
	if len(prev) != len(next) {
		return false
	}
	ids := make(map[int]bool, len(prev))
	for _, p := range prev {
		ids[p.ID] = true
	}
	for _, p := range next {
		if !ids[p.ID] {
			return false
		}
		delete(ids, p.ID)
	}
	return true
}

func (l *Ledger) index(id int) int {
	for i := range l.rounds {
		if l.rounds[i].ID == id {
			return i
		}
	}
	return -1
}

func checkSize(players []game.Player, setup game.Setup) error {
	if len(players) != setup.NumberOfPlayers {
		return fmt.Errorf("round has %d players, setup expects %d", len(players), setup.NumberOfPlayers)
	}
	return nil
}
