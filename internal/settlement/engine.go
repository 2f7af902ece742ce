// Package settlement computes each player's money for a round.
//
// Settle is pure: it never mutates the players it is given and always
// recomputes money from zero, so settling the same input twice yields the
// same result.
package settlement

import (
	"fmt"

	"github.com/lox/stakeledger/internal/game"
)

type settleFunc func(setup game.Setup, players []game.Player) error

var settlers = map[game.Variant]settleFunc{
	game.Ladder: settleLadder,
	game.Banker: settleBanker,
	game.Pot:    settlePot,
}

// Settle validates the round input and returns a copy of players with Money
// filled in. It returns *IncompleteInputError when players are missing
// input, *InvalidInputError for input that cannot settle, and an error
// wrapping game.ErrInvalidSetup when setup itself is inconsistent.
func Settle(setup game.Setup, players []game.Player) ([]game.Player, error) {
	if err := setup.Validate(); err != nil {
		return nil, fmt.Errorf("settle: %w", err)
	}
	if len(players) != setup.NumberOfPlayers {
		return nil, invalidf("setup has %d players, round has %d", setup.NumberOfPlayers, len(players))
	}

	seen := make(map[int]bool, len(players))
	for _, p := range players {
		if seen[p.ID] {
			return nil, invalidf("duplicate player id %d", p.ID)
		}
		seen[p.ID] = true
	}

	fn, ok := settlers[setup.Variant]
	if !ok {
		return nil, fmt.Errorf("settle: no settlement for variant %s", setup.Variant)
	}

	out := game.ClonePlayers(players)
	for i := range out {
		out[i].Money = 0
	}
	if err := fn(setup, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Net returns the sum of every player's money. A round without ladder
// adjustments always nets to zero.
func Net(players []game.Player) int64 {
	var sum int64
	for _, p := range players {
		sum += p.Money
	}
	return sum
}
