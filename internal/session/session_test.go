package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/stakeledger/internal/game"
	"github.com/lox/stakeledger/internal/ledger"
	"github.com/lox/stakeledger/internal/settlement"
)

var t0 = time.Date(2025, 5, 10, 19, 30, 0, 0, time.UTC)

// run applies cmds in order, failing the test on the first error.
func run(t *testing.T, s State, cmds ...Command) State {
	t.Helper()
	for _, cmd := range cmds {
		var err error
		s, err = Apply(s, cmd)
		require.NoError(t, err, cmd.Op())
	}
	return s
}

func ladderSetup(n int) game.Setup {
	return game.Setup{
		Variant:         game.Ladder,
		NumberOfPlayers: n,
		Ladder:          &game.LadderSetup{Rule: game.WinnerTakesAll, BetAmount: 10000},
	}
}

func money(players []game.Player) []int64 {
	out := make([]int64, len(players))
	for i, p := range players {
		out[i] = p.Money
	}
	return out
}

func TestPhases(t *testing.T) {
	t.Parallel()

	s := New(game.Ladder, "acct", "Friday")
	assert.Equal(t, PhaseSetup, s.Phase())

	s = run(t, s, SubmitSetup{Setup: ladderSetup(3), Names: []string{"An", "Binh"}})
	assert.Equal(t, PhaseActive, s.Phase())
	require.Len(t, s.Players, 3)
	assert.Equal(t, "An", s.Players[0].Name)
	assert.Equal(t, "Player 3", s.Players[2].Name)

	s = run(t, s,
		AssignPosition{PlayerID: 1, Position: game.Nhat},
		AssignPosition{PlayerID: 2, Position: game.Nhi},
		AssignPosition{PlayerID: 3, Position: game.Bet},
		Calculate{At: t0},
	)
	assert.Equal(t, PhaseCalculated, s.Phase())
	assert.Equal(t, []int64{20000, -10000, -10000}, money(s.Players))
	assert.Equal(t, 1, s.Ledger.Len())

	s = run(t, s, NewRound{})
	assert.Equal(t, PhaseActive, s.Phase())
	for _, p := range s.Players {
		assert.Zero(t, p.Money)
		assert.Equal(t, game.PositionNone, p.Position)
	}
	assert.Equal(t, "An", s.Players[0].Name)

	s = run(t, s, Reset{})
	assert.Equal(t, PhaseSetup, s.Phase())
	assert.Nil(t, s.Players)
	assert.Equal(t, 1, s.Ledger.Len(), "reset keeps history")
}

func TestSubmitSetupOnlyFromSetupPhase(t *testing.T) {
	t.Parallel()

	active := run(t, New(game.Ladder, "", ""), SubmitSetup{Setup: ladderSetup(2)})
	calculated := run(t, active,
		AssignPosition{PlayerID: 1, Position: game.Nhat},
		AssignPosition{PlayerID: 2, Position: game.Nhi},
		Calculate{At: t0},
	)
	for _, s := range []State{active, calculated} {
		_, err := Apply(s, SubmitSetup{Setup: ladderSetup(3)})
		var phaseErr *PhaseError
		require.ErrorAs(t, err, &phaseErr)
		assert.Equal(t, s.Phase(), phaseErr.Phase)
	}

	s := run(t, calculated, Reset{}, SubmitSetup{Setup: ladderSetup(3)})
	assert.Len(t, s.Players, 3)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	s := run(t, New(game.Ladder, "", ""), SubmitSetup{Setup: ladderSetup(2)})
	before := s.Clone()

	next := run(t, s,
		AssignPosition{PlayerID: 1, Position: game.Nhat},
		AssignPosition{PlayerID: 2, Position: game.Nhi},
		Calculate{At: t0},
	)

	assert.Equal(t, before, s)
	assert.Equal(t, 0, s.Ledger.Len())
	assert.Equal(t, 1, next.Ledger.Len())
}

func TestCalculateIsIdempotent(t *testing.T) {
	t.Parallel()

	s := run(t, New(game.Pot, "", ""),
		SubmitSetup{Setup: game.Setup{Variant: game.Pot, NumberOfPlayers: 3,
			Pot: &game.PotSetup{DefaultBet: 100, JackpotBet: 400}}},
		SetWinner{PlayerID: 2, WinType: game.Normal},
		Calculate{At: t0},
	)
	first := money(s.Players)

	s = run(t, s, Calculate{At: t0.Add(time.Minute)})
	assert.Equal(t, 1, s.Ledger.Len())
	assert.Equal(t, first, money(s.Players))

	// Changing input after calculating re-settles the same round.
	s = run(t, s, SetWinner{PlayerID: 3, WinType: game.Jackpot}, Calculate{At: t0.Add(2 * time.Minute)})
	assert.Equal(t, 1, s.Ledger.Len())
	last, _ := s.Ledger.Last()
	assert.Equal(t, []int64{-400, -400, 800}, money(last.Players))
	assert.Equal(t, t0.Add(2*time.Minute), last.Timestamp)
}

func TestCalculateIncompleteInput(t *testing.T) {
	t.Parallel()

	s := run(t, New(game.Ladder, "", ""),
		SubmitSetup{Setup: ladderSetup(4)},
		AssignPosition{PlayerID: 1, Position: game.Nhat},
		AssignPosition{PlayerID: 2, Position: game.Nhi},
		AssignPosition{PlayerID: 3, Position: game.Ba},
	)

	next, err := Apply(s, Calculate{At: t0})
	var incomplete *settlement.IncompleteInputError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, 1, incomplete.Missing)
	assert.Equal(t, s, next)
	assert.Equal(t, 0, next.Ledger.Len())
	assert.Equal(t, PhaseActive, next.Phase())
}

func TestUndoRestoresPreviousRound(t *testing.T) {
	t.Parallel()

	s := run(t, New(game.Banker, "", ""),
		SubmitSetup{Setup: game.Setup{Variant: game.Banker, NumberOfPlayers: 3,
			Banker: &game.BankerSetup{BankerID: 1}}},
		SetBet{PlayerID: 2, Result: game.Win, Amount: 5000},
		SetBet{PlayerID: 3, Result: game.Lose, Amount: 3000},
		Calculate{At: t0},
	)
	round1 := s.Clone()

	s = run(t, s,
		NewRound{},
		SetBet{PlayerID: 2, Result: game.Lose, Amount: 100},
		SetBet{PlayerID: 3, Result: game.Lose, Amount: 100},
		Calculate{At: t0.Add(time.Hour)},
	)
	require.Equal(t, 2, s.Ledger.Len())

	s = run(t, s, Undo{})
	assert.Equal(t, 1, s.Ledger.Len())
	assert.Equal(t, PhaseActive, s.Phase())
	assert.Equal(t, round1.Players, s.Players)
	assert.Equal(t, *round1.Setup, *s.Setup)

	// The restored players are a copy, not the ledger's snapshot.
	s.Players[0].Money = 1
	last, _ := s.Ledger.Last()
	assert.Equal(t, int64(-2000), last.Players[0].Money)
}

func TestUndoToEmptyLedgerBlanksInputs(t *testing.T) {
	t.Parallel()

	s := run(t, New(game.Ladder, "", ""),
		SubmitSetup{Setup: ladderSetup(2), Names: []string{"An", "Binh"}},
		AssignPosition{PlayerID: 1, Position: game.Nhi},
		AssignPosition{PlayerID: 2, Position: game.Nhat},
		SetAdjustment{PlayerID: 1, Amount: 500},
		Calculate{At: t0},
		Undo{},
	)

	assert.Equal(t, 0, s.Ledger.Len())
	assert.Equal(t, PhaseActive, s.Phase())
	assert.Equal(t, []game.Player{{ID: 1, Name: "An"}, {ID: 2, Name: "Binh"}}, s.Players)

	_, err := Apply(s, Undo{})
	assert.ErrorIs(t, err, ErrNothingToUndo)
}

func TestEditRoundIsolation(t *testing.T) {
	t.Parallel()

	potSetup := game.Setup{Variant: game.Pot, NumberOfPlayers: 3,
		Pot: &game.PotSetup{DefaultBet: 100, JackpotBet: 400}}
	s := run(t, New(game.Pot, "", ""), SubmitSetup{Setup: potSetup})
	for _, w := range []int{1, 2, 3} {
		s = run(t, s, SetWinner{PlayerID: w, WinType: game.Normal}, Calculate{At: t0})
		if w < 3 {
			s = run(t, s, NewRound{})
		}
	}
	before := s.Ledger.Rounds()

	inputs := game.NewPlayers(potSetup, nil)
	inputs[0].IsWinner, inputs[0].WinType = true, game.Jackpot
	s = run(t, s, EditRound{RoundID: 2, Players: inputs, At: t0.Add(time.Hour)})

	after := s.Ledger.Rounds()
	assert.Equal(t, before[0], after[0])
	assert.Equal(t, before[2], after[2])
	assert.Equal(t, []int64{800, -400, -400}, money(after[1].Players))

	_, err := Apply(s, EditRound{RoundID: 99, Players: inputs})
	var notFound *ledger.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	foreign := game.ClonePlayers(inputs)
	for i := range foreign {
		foreign[i].ID += 10
	}
	next, err := Apply(s, EditRound{RoundID: 2, Players: foreign, At: t0})
	var invalid *settlement.InvalidInputError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, s, next)
	assert.Equal(t, after, s.Ledger.Rounds())
}

func TestEditLastRoundRefreshesCurrentPlayers(t *testing.T) {
	t.Parallel()

	s := run(t, New(game.Ladder, "", ""),
		SubmitSetup{Setup: ladderSetup(2)},
		AssignPosition{PlayerID: 1, Position: game.Nhat},
		AssignPosition{PlayerID: 2, Position: game.Nhi},
		Calculate{At: t0},
	)
	inputs := game.ClonePlayers(s.Players)
	inputs[0].Position, inputs[1].Position = game.Nhi, game.Nhat

	s = run(t, s, EditRound{RoundID: 1, Players: inputs, At: t0})
	assert.Equal(t, []int64{-10000, 10000}, money(s.Players))
}

func TestDeleteLastRoundStopsRecalculation(t *testing.T) {
	t.Parallel()

	s := run(t, New(game.Ladder, "", ""),
		SubmitSetup{Setup: ladderSetup(2)},
		AssignPosition{PlayerID: 1, Position: game.Nhat},
		AssignPosition{PlayerID: 2, Position: game.Nhi},
		Calculate{At: t0},
		NewRound{},
		AssignPosition{PlayerID: 2, Position: game.Nhat},
		AssignPosition{PlayerID: 1, Position: game.Nhi},
		Calculate{At: t0},
		DeleteRound{RoundID: 2},
	)
	assert.Equal(t, PhaseActive, s.Phase())

	s = run(t, s, Calculate{At: t0})
	rounds := s.Ledger.Rounds()
	require.Len(t, rounds, 2)
	assert.Equal(t, []int64{10000, -10000}, money(rounds[0].Players))
	assert.Equal(t, 3, rounds[1].ID)
}

func TestRoleCommandsCheckVariantAndPhase(t *testing.T) {
	t.Parallel()

	s := New(game.Ladder, "", "")
	_, err := Apply(s, AssignPosition{PlayerID: 1, Position: game.Nhat})
	var phaseErr *PhaseError
	require.ErrorAs(t, err, &phaseErr)
	assert.Equal(t, PhaseSetup, phaseErr.Phase)

	s = run(t, s, SubmitSetup{Setup: ladderSetup(2)})
	_, err = Apply(s, SetWinner{PlayerID: 1, WinType: game.Normal})
	assert.ErrorIs(t, err, ErrWrongVariant)

	_, err = Apply(s, NewRound{})
	assert.ErrorAs(t, err, &phaseErr)

	_, err = Apply(s, SubmitSetup{Setup: ladderSetup(2)})
	assert.ErrorAs(t, err, &phaseErr)

	_, err = Apply(s, RenamePlayer{PlayerID: 7, Name: "x"})
	assert.ErrorIs(t, err, game.ErrUnknownPlayer)

	_, err = Apply(New(game.Pot, "", ""), SubmitSetup{Setup: ladderSetup(2)})
	assert.ErrorIs(t, err, ErrWrongVariant)
}

func TestBankerChangesApplyToNextRound(t *testing.T) {
	t.Parallel()

	s := run(t, New(game.Banker, "", ""),
		SubmitSetup{Setup: game.Setup{Variant: game.Banker, NumberOfPlayers: 3,
			Banker: &game.BankerSetup{BankerID: 1}}},
		SetBanker{PlayerID: 2},
	)
	assert.Equal(t, 2, s.Setup.Banker.BankerID)
	assert.True(t, s.Players[1].IsHouse)
	assert.False(t, s.Players[0].IsHouse)

	_, err := Apply(s, SetBet{PlayerID: 2, Result: game.Win, Amount: 10})
	assert.Error(t, err)

	s = run(t, s,
		SetBet{PlayerID: 1, Result: game.Win, Amount: 10},
		SetBet{PlayerID: 3, Result: game.Win, Amount: 10},
		Calculate{At: t0},
	)
	_, err = Apply(s, SetBanker{PlayerID: 3})
	var phaseErr *PhaseError
	assert.ErrorAs(t, err, &phaseErr)

	s = run(t, s, NewRound{})
	assert.True(t, s.Players[1].IsHouse, "banker survives a new round")
}

func TestSubmitSetupReusesNamesFromHistory(t *testing.T) {
	t.Parallel()

	s := run(t, New(game.Ladder, "", ""),
		SubmitSetup{Setup: ladderSetup(2), Names: []string{"An", "Binh"}},
		AssignPosition{PlayerID: 1, Position: game.Nhat},
		AssignPosition{PlayerID: 2, Position: game.Nhi},
		Calculate{At: t0},
		Reset{},
		SubmitSetup{Setup: ladderSetup(3), Names: []string{"", "", "Chi"}},
	)
	assert.Equal(t, "An", s.Players[0].Name)
	assert.Equal(t, "Binh", s.Players[1].Name)
	assert.Equal(t, "Chi", s.Players[2].Name)
}

func TestRestore(t *testing.T) {
	t.Parallel()

	s := run(t, New(game.Ladder, "acct", "Friday"),
		SubmitSetup{Setup: ladderSetup(2)},
		AssignPosition{PlayerID: 1, Position: game.Nhat},
		AssignPosition{PlayerID: 2, Position: game.Nhi},
		Calculate{At: t0},
	)

	restored := Restore("id-1", s.AccountID, s.Name, s.Variant, s.Setup, s.Players, s.Ledger.Rounds(), s.Ledger.NextID(), true)
	assert.Equal(t, PhaseCalculated, restored.Phase())
	assert.Equal(t, s.Ledger.Rounds(), restored.Ledger.Rounds())

	restored = run(t, restored, Calculate{At: t0})
	assert.Equal(t, 1, restored.Ledger.Len())

	empty := Restore("id-2", "", "", game.Pot, nil, nil, nil, 0, true)
	assert.Equal(t, PhaseSetup, empty.Phase())
}
