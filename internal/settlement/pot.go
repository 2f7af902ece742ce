package settlement

import "github.com/lox/stakeledger/internal/game"

func settlePot(setup game.Setup, players []game.Player) error {
	winner := -1
	for i, p := range players {
		if !p.IsWinner {
			continue
		}
		if winner >= 0 {
			return invalidf("more than one winner")
		}
		winner = i
	}
	if winner < 0 {
		return &IncompleteInputError{Missing: 1}
	}
	wt := players[winner].WinType
	if !wt.Valid() {
		return invalidf("player %d has unknown win type %q", players[winner].ID, wt)
	}
	if wt == game.WinTypeNone {
		return &IncompleteInputError{Missing: 1}
	}

	tier := setup.TierBet(wt)
	for i := range players {
		if i == winner {
			players[i].Money = tier * int64(len(players)-1)
		} else {
			players[i].Money = -tier
		}
	}
	return nil
}
