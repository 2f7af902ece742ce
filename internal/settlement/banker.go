package settlement

import "github.com/lox/stakeledger/internal/game"

func settleBanker(setup game.Setup, players []game.Player) error {
	house := game.FindPlayer(players, setup.Banker.BankerID)
	if house < 0 {
		return invalidf("banker %d is not in the round", setup.Banker.BankerID)
	}
	for i, p := range players {
		if p.IsHouse && i != house {
			return invalidf("player %d is marked as banker but setup names %d", p.ID, setup.Banker.BankerID)
		}
	}

	missing := 0
	for i, p := range players {
		if i == house {
			continue
		}
		if !p.Result.Valid() {
			return invalidf("player %d has unknown result %q", p.ID, p.Result)
		}
		if p.Result == game.ResultNone || p.BetAmount <= 0 {
			missing++
		}
	}
	if missing > 0 {
		return &IncompleteInputError{Missing: missing}
	}

	for i, p := range players {
		if i == house {
			continue
		}
		switch p.Result {
		case game.Win:
			transfer(players, house, i, p.BetAmount)
		case game.Lose:
			transfer(players, i, house, p.BetAmount)
		}
	}
	return nil
}
