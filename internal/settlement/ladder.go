package settlement

import "github.com/lox/stakeledger/internal/game"

func settleLadder(setup game.Setup, players []game.Player) error {
	holders := make(map[game.Position]int, len(game.Positions))
	missing := 0
	for i, p := range players {
		if p.Position == game.PositionNone {
			missing++
			continue
		}
		if !p.Position.Valid() {
			return invalidf("player %d has unknown position %q", p.ID, p.Position)
		}
		if _, dup := holders[p.Position]; dup {
			return invalidf("position %s is held by more than one player", p.Position)
		}
		holders[p.Position] = i
	}
	if missing > 0 {
		return &IncompleteInputError{Missing: missing}
	}

	rules := setup.Ladder
	switch rules.Rule {
	case game.WinnerTakesAll:
		winner, ok := holders[game.Nhat]
		if !ok {
			return invalidf("no player holds %s", game.Nhat)
		}
		for i := range players {
			if i == winner {
				players[i].Money = rules.BetAmount * int64(len(players)-1)
			} else {
				players[i].Money = -rules.BetAmount
			}
		}
	case game.Tiered:
		for _, pos := range game.Positions {
			if _, ok := holders[pos]; !ok {
				return invalidf("tiered rule needs a player at %s", pos)
			}
		}
		transfer(players, holders[game.Bet], holders[game.Nhat], rules.Level1)
		transfer(players, holders[game.Ba], holders[game.Nhi], rules.Level2)
	}

	for i := range players {
		players[i].Money += players[i].Adjustment
	}
	return nil
}

func transfer(players []game.Player, from, to int, amount int64) {
	players[from].Money -= amount
	players[to].Money += amount
}
