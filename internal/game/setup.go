package game

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSetup is wrapped by every setup validation failure.
	ErrInvalidSetup = errors.New("invalid setup")
	// ErrUnknownPlayer is returned when a player id is not in the round.
	ErrUnknownPlayer = errors.New("unknown player")
)

// LadderRule selects how a Ladder round pays out.
type LadderRule string

const (
	// WinnerTakesAll pays the nhat player BetAmount from every other player.
	WinnerTakesAll LadderRule = "winner-takes-all"
	// Tiered settles bet→nhat for Level1 and ba→nhi for Level2.
	Tiered LadderRule = "tiered"
)

// LadderSetup configures the Ladder variant.
type LadderSetup struct {
	Rule      LadderRule `json:"rule"`
	BetAmount int64      `json:"bet_amount,omitempty"`
	Level1    int64      `json:"level1,omitempty"`
	Level2    int64      `json:"level2,omitempty"`
}

// BankerSetup configures the Banker variant.
type BankerSetup struct {
	BankerID int `json:"banker_id"`
}

// PotSetup configures the Pot variant.
type PotSetup struct {
	DefaultBet int64 `json:"default_bet"`
	JackpotBet int64 `json:"jackpot_bet"`
}

// Setup is the configuration a round is settled with. Exactly one of the
// variant blocks is set, matching Variant.
type Setup struct {
	Variant         Variant      `json:"variant"`
	NumberOfPlayers int          `json:"number_of_players"`
	Ladder          *LadderSetup `json:"ladder,omitempty"`
	Banker          *BankerSetup `json:"banker,omitempty"`
	Pot             *PotSetup    `json:"pot,omitempty"`
}

// Clone returns a deep copy of s.
func (s Setup) Clone() Setup {
	out := s
	if s.Ladder != nil {
		l := *s.Ladder
		out.Ladder = &l
	}
	if s.Banker != nil {
		b := *s.Banker
		out.Banker = &b
	}
	if s.Pot != nil {
		p := *s.Pot
		out.Pot = &p
	}
	return out
}

// TierBet returns the Pot bet for the given win type.
func (s Setup) TierBet(wt WinType) int64 {
	if s.Pot == nil {
		return 0
	}
	if wt == Jackpot {
		return s.Pot.JackpotBet
	}
	return s.Pot.DefaultBet
}

// Validate checks the setup is self-consistent.
func (s Setup) Validate() error {
	def, ok := Lookup(s.Variant)
	if !ok {
		return fmt.Errorf("%w: unknown variant %d", ErrInvalidSetup, int(s.Variant))
	}
	if s.NumberOfPlayers < def.MinPlayers || s.NumberOfPlayers > def.MaxPlayers {
		return fmt.Errorf("%w: %s needs %d-%d players, got %d",
			ErrInvalidSetup, def.Name, def.MinPlayers, def.MaxPlayers, s.NumberOfPlayers)
	}

	blocks := 0
	for _, set := range []bool{s.Ladder != nil, s.Banker != nil, s.Pot != nil} {
		if set {
			blocks++
		}
	}
	if blocks != 1 {
		return fmt.Errorf("%w: exactly one variant block must be set, got %d", ErrInvalidSetup, blocks)
	}

	switch s.Variant {
	case Ladder:
		if s.Ladder == nil {
			return fmt.Errorf("%w: ladder setup missing", ErrInvalidSetup)
		}
		return s.Ladder.validate(s.NumberOfPlayers)
	case Banker:
		if s.Banker == nil {
			return fmt.Errorf("%w: banker setup missing", ErrInvalidSetup)
		}
		if s.Banker.BankerID < 1 || s.Banker.BankerID > s.NumberOfPlayers {
			return fmt.Errorf("%w: banker id %d out of range 1-%d",
				ErrInvalidSetup, s.Banker.BankerID, s.NumberOfPlayers)
		}
	case Pot:
		if s.Pot == nil {
			return fmt.Errorf("%w: pot setup missing", ErrInvalidSetup)
		}
		if s.Pot.DefaultBet < 0 || s.Pot.JackpotBet < 0 {
			return fmt.Errorf("%w: pot bets must not be negative", ErrInvalidSetup)
		}
	}
	return nil
}

func (l *LadderSetup) validate(players int) error {
	switch l.Rule {
	case WinnerTakesAll:
		if l.BetAmount < 0 {
			return fmt.Errorf("%w: bet amount must not be negative", ErrInvalidSetup)
		}
	case Tiered:
		if players != len(Positions) {
			return fmt.Errorf("%w: tiered rule needs exactly %d players, got %d",
				ErrInvalidSetup, len(Positions), players)
		}
		if l.Level1 < 0 || l.Level2 < 0 {
			return fmt.Errorf("%w: bet levels must not be negative", ErrInvalidSetup)
		}
	default:
		return fmt.Errorf("%w: unknown ladder rule %q", ErrInvalidSetup, l.Rule)
	}
	return nil
}

// NewPlayers creates fresh players for setup with ids 1..n. Names are taken
// from names where present and non-empty, otherwise DefaultName is used.
func NewPlayers(setup Setup, names []string) []Player {
	players := make([]Player, setup.NumberOfPlayers)
	for i := range players {
		id := i + 1
		name := DefaultName(id)
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		players[i] = Player{ID: id, Name: name}
	}
	if setup.Variant == Banker && setup.Banker != nil {
		_ = SetBanker(players, setup.Banker.BankerID)
	}
	return players
}
