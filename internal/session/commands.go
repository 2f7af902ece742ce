package session

import (
	"fmt"
	"time"

	"github.com/lox/stakeledger/internal/game"
	"github.com/lox/stakeledger/internal/settlement"
)

// Command is a single user action on a session.
type Command interface {
	// Op is the command name used in logs and encoded command streams.
	Op() string
	apply(s *State) error
}

// SubmitSetup configures the players for a new table. Names are optional;
// players without one keep the name they had in the last settled round, or
// get a default name.
type SubmitSetup struct {
	Setup game.Setup `json:"setup"`
	Names []string   `json:"names,omitempty"`
}

// RenamePlayer changes a player's display name.
type RenamePlayer struct {
	PlayerID int    `json:"player_id"`
	Name     string `json:"name"`
}

// AssignPosition sets a Ladder player's finishing position.
type AssignPosition struct {
	PlayerID int           `json:"player_id"`
	Position game.Position `json:"position"`
}

// SetAdjustment sets a Ladder player's manual correction.
type SetAdjustment struct {
	PlayerID int   `json:"player_id"`
	Amount   int64 `json:"amount"`
}

// SetBanker moves the Banker designation to another player.
type SetBanker struct {
	PlayerID int `json:"player_id"`
}

// SetBet records a Banker player's bet and result.
type SetBet struct {
	PlayerID int         `json:"player_id"`
	Result   game.Result `json:"result"`
	Amount   int64       `json:"amount"`
}

// SetWinner picks the Pot winner and the tier they won.
type SetWinner struct {
	PlayerID int          `json:"player_id"`
	WinType  game.WinType `json:"win_type"`
}

// Calculate settles the current round. The first calculation of a round
// appends it to the ledger; later ones replace it.
type Calculate struct {
	At time.Time `json:"at"`
}

// NewRound starts the next round with cleared inputs.
type NewRound struct{}

// Undo removes the most recent round from the ledger.
type Undo struct{}

// Reset returns to the setup phase. The ledger is kept.
type Reset struct{}

// EditRound re-settles a past round with new player inputs.
type EditRound struct {
	RoundID int           `json:"round_id"`
	Players []game.Player `json:"players"`
	At      time.Time     `json:"at"`
}

// DeleteRound removes a past round.
type DeleteRound struct {
	RoundID int `json:"round_id"`
}

// Rename changes the session name.
type Rename struct {
	Name string `json:"name"`
}

func (SubmitSetup) Op() string    { return "setup" }
func (RenamePlayer) Op() string   { return "rename-player" }
func (AssignPosition) Op() string { return "assign-position" }
func (SetAdjustment) Op() string  { return "set-adjustment" }
func (SetBanker) Op() string      { return "set-banker" }
func (SetBet) Op() string         { return "set-bet" }
func (SetWinner) Op() string      { return "set-winner" }
func (Calculate) Op() string      { return "calculate" }
func (NewRound) Op() string       { return "new-round" }
func (Undo) Op() string           { return "undo" }
func (Reset) Op() string          { return "reset" }
func (EditRound) Op() string      { return "edit-round" }
func (DeleteRound) Op() string    { return "delete-round" }
func (Rename) Op() string         { return "rename" }

func (c SubmitSetup) apply(s *State) error {
	if err := require(s, c.Op(), PhaseSetup); err != nil {
		return err
	}
	if c.Setup.Variant != s.Variant {
		return fmt.Errorf("%w: session plays %s, setup is %s", ErrWrongVariant, s.Variant, c.Setup.Variant)
	}
	if err := c.Setup.Validate(); err != nil {
		return err
	}

	names := make([]string, c.Setup.NumberOfPlayers)
	if last, ok := s.Ledger.Last(); ok {
		for _, p := range last.Players {
			if p.ID >= 1 && p.ID <= len(names) {
				names[p.ID-1] = p.Name
			}
		}
	}
	for i, n := range c.Names {
		if i < len(names) && n != "" {
			names[i] = n
		}
	}

	setup := c.Setup.Clone()
	s.Setup = &setup
	s.Players = game.NewPlayers(setup, names)
	s.Calculated = false
	return nil
}

func (c RenamePlayer) apply(s *State) error {
	if err := require(s, c.Op(), PhaseActive, PhaseCalculated); err != nil {
		return err
	}
	idx := game.FindPlayer(s.Players, c.PlayerID)
	if idx < 0 {
		return fmt.Errorf("player %d: %w", c.PlayerID, game.ErrUnknownPlayer)
	}
	s.Players[idx].Name = c.Name
	return nil
}

func (c AssignPosition) apply(s *State) error {
	if err := requireInput(s, c.Op(), game.Ladder); err != nil {
		return err
	}
	return game.AssignPosition(s.Players, c.PlayerID, c.Position)
}

func (c SetAdjustment) apply(s *State) error {
	if err := requireInput(s, c.Op(), game.Ladder); err != nil {
		return err
	}
	idx := game.FindPlayer(s.Players, c.PlayerID)
	if idx < 0 {
		return fmt.Errorf("player %d: %w", c.PlayerID, game.ErrUnknownPlayer)
	}
	s.Players[idx].Adjustment = c.Amount
	return nil
}

func (c SetBanker) apply(s *State) error {
	if err := requireInput(s, c.Op(), game.Banker); err != nil {
		return err
	}
	// The banker is part of the round setup, which is fixed once settled.
	if s.Calculated {
		return &PhaseError{Op: c.Op(), Phase: PhaseCalculated}
	}
	if err := game.SetBanker(s.Players, c.PlayerID); err != nil {
		return err
	}
	s.Setup.Banker.BankerID = c.PlayerID
	return nil
}

func (c SetBet) apply(s *State) error {
	if err := requireInput(s, c.Op(), game.Banker); err != nil {
		return err
	}
	if !c.Result.Valid() {
		return fmt.Errorf("invalid result %q", c.Result)
	}
	if c.Amount < 0 {
		return fmt.Errorf("bet amount must not be negative")
	}
	idx := game.FindPlayer(s.Players, c.PlayerID)
	if idx < 0 {
		return fmt.Errorf("player %d: %w", c.PlayerID, game.ErrUnknownPlayer)
	}
	if s.Players[idx].IsHouse {
		return fmt.Errorf("player %d is the banker and cannot bet", c.PlayerID)
	}
	s.Players[idx].Result = c.Result
	s.Players[idx].BetAmount = c.Amount
	return nil
}

func (c SetWinner) apply(s *State) error {
	if err := requireInput(s, c.Op(), game.Pot); err != nil {
		return err
	}
	return game.SetWinner(s.Players, c.PlayerID, c.WinType)
}

func (c Calculate) apply(s *State) error {
	if err := require(s, c.Op(), PhaseActive, PhaseCalculated); err != nil {
		return err
	}
	settled, err := settlement.Settle(*s.Setup, s.Players)
	if err != nil {
		return err
	}
	if s.Calculated {
		if _, err := s.Ledger.ReplaceLast(settled, c.At); err != nil {
			return err
		}
	} else {
		if _, err := s.Ledger.Append(settled, *s.Setup, c.At); err != nil {
			return err
		}
	}
	s.Players = settled
	s.Calculated = true
	return nil
}

func (c NewRound) apply(s *State) error {
	if err := require(s, c.Op(), PhaseCalculated); err != nil {
		return err
	}
	for i := range s.Players {
		s.Players[i].ClearRound()
	}
	s.Calculated = false
	return nil
}

func (c Undo) apply(s *State) error {
	if err := require(s, c.Op(), PhaseActive, PhaseCalculated); err != nil {
		return err
	}
	if _, ok := s.Ledger.Undo(); !ok {
		return ErrNothingToUndo
	}
	if last, ok := s.Ledger.Last(); ok {
		s.Players = last.Players
		setup := last.Setup
		s.Setup = &setup
	} else {
		for i := range s.Players {
			s.Players[i].ClearRound()
		}
	}
	s.Calculated = false
	return nil
}

func (c Reset) apply(s *State) error {
	s.Setup = nil
	s.Players = nil
	s.Calculated = false
	return nil
}

func (c EditRound) apply(s *State) error {
	last, hasLast := s.Ledger.Last()
	edited, err := s.Ledger.Edit(c.RoundID, c.Players, c.At)
	if err != nil {
		return err
	}
	// The settled current round mirrors the last ledger entry.
	if s.Calculated && hasLast && last.ID == edited.ID {
		s.Players = edited.Players
	}
	return nil
}

func (c DeleteRound) apply(s *State) error {
	last, hasLast := s.Ledger.Last()
	if err := s.Ledger.Delete(c.RoundID); err != nil {
		return err
	}
	// Recalculating must not overwrite an older round.
	if hasLast && last.ID == c.RoundID {
		s.Calculated = false
	}
	return nil
}

func (c Rename) apply(s *State) error {
	s.Name = c.Name
	return nil
}

func require(s *State, op string, allowed ...Phase) error {
	phase := s.Phase()
	for _, p := range allowed {
		if p == phase {
			return nil
		}
	}
	return &PhaseError{Op: op, Phase: phase}
}

func requireInput(s *State, op string, variant game.Variant) error {
	if err := require(s, op, PhaseActive, PhaseCalculated); err != nil {
		return err
	}
	if s.Variant != variant {
		return fmt.Errorf("%w: %s is a %s command", ErrWrongVariant, op, variant)
	}
	return nil
}

// Stamp fills in the settlement time of commands that record one and were
// built without it.
func Stamp(cmd Command, at time.Time) Command {
	switch c := cmd.(type) {
	case Calculate:
		if c.At.IsZero() {
			c.At = at
		}
		return c
	case EditRound:
		if c.At.IsZero() {
			c.At = at
		}
		return c
	}
	return cmd
}
