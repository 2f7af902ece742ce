// Package game defines the card-game variants tracked by stakeledger and the
// per-round data they settle: players, their role inputs, and the round setup.
//
// Three payout variants are supported:
//
//   - Ladder: players are ranked nhat, nhi, ba, bet (first to last). The
//     winner-takes-all rule pays the nhat player from everyone else; the tiered
//     rule settles two pairwise transfers (bet pays nhat, ba pays nhi).
//     Ladder players may also carry a manual adjustment for special hands.
//   - Banker: one house player settles against each other player's bet.
//   - Pot: a single winner collects a normal or jackpot tier from everyone.
//
// # Basic Usage
//
//	setup := game.Setup{
//	    Variant:         game.Ladder,
//	    NumberOfPlayers: 3,
//	    Ladder:          &game.LadderSetup{Rule: game.WinnerTakesAll, BetAmount: 10000},
//	}
//	players := game.NewPlayers(setup, nil)
//	game.AssignPosition(players, 1, game.Nhat)
//
// The helpers that assign roles (AssignPosition, SetBanker, SetWinner) keep the
// uniqueness invariants of each variant: assigning a role to one player clears
// it from whichever player held it before.
package game
