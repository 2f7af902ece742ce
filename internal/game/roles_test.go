package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ladderSetup(n int) Setup {
	return Setup{
		Variant:         Ladder,
		NumberOfPlayers: n,
		Ladder:          &LadderSetup{Rule: WinnerTakesAll, BetAmount: 100},
	}
}

func TestNewPlayers(t *testing.T) {
	t.Parallel()

	players := NewPlayers(ladderSetup(3), []string{"An", "", "Chi"})
	require.Len(t, players, 3)
	assert.Equal(t, "An", players[0].Name)
	assert.Equal(t, "Player 2", players[1].Name)
	assert.Equal(t, "Chi", players[2].Name)
	for i, p := range players {
		assert.Equal(t, i+1, p.ID)
		assert.Zero(t, p.Money)
	}
}

func TestNewPlayersMarksBanker(t *testing.T) {
	t.Parallel()

	setup := Setup{Variant: Banker, NumberOfPlayers: 3, Banker: &BankerSetup{BankerID: 2}}
	players := NewPlayers(setup, nil)
	assert.False(t, players[0].IsHouse)
	assert.True(t, players[1].IsHouse)
	assert.False(t, players[2].IsHouse)
}

func TestAssignPositionClearsPreviousHolder(t *testing.T) {
	t.Parallel()

	players := NewPlayers(ladderSetup(3), nil)
	require.NoError(t, AssignPosition(players, 1, Nhat))
	require.NoError(t, AssignPosition(players, 2, Nhat))

	assert.Equal(t, PositionNone, players[0].Position)
	assert.Equal(t, Nhat, players[1].Position)

	require.NoError(t, AssignPosition(players, 2, PositionNone))
	assert.Equal(t, PositionNone, players[1].Position)

	assert.ErrorIs(t, AssignPosition(players, 9, Nhi), ErrUnknownPlayer)
	assert.Error(t, AssignPosition(players, 1, Position("first")))
}

func TestSetBankerKeepsExactlyOneHouse(t *testing.T) {
	t.Parallel()

	setup := Setup{Variant: Banker, NumberOfPlayers: 4, Banker: &BankerSetup{BankerID: 1}}
	players := NewPlayers(setup, nil)
	players[2].BetAmount = 500
	players[2].Result = Win

	require.NoError(t, SetBanker(players, 3))

	houses := 0
	for _, p := range players {
		if p.IsHouse {
			houses++
		}
	}
	assert.Equal(t, 1, houses)
	assert.True(t, players[2].IsHouse)
	assert.Zero(t, players[2].BetAmount)
	assert.Equal(t, ResultNone, players[2].Result)
}

func TestSetWinnerKeepsAtMostOneWinner(t *testing.T) {
	t.Parallel()

	setup := Setup{Variant: Pot, NumberOfPlayers: 3, Pot: &PotSetup{DefaultBet: 10, JackpotBet: 50}}
	players := NewPlayers(setup, nil)

	require.NoError(t, SetWinner(players, 1, Normal))
	require.NoError(t, SetWinner(players, 3, Jackpot))

	assert.False(t, players[0].IsWinner)
	assert.Equal(t, WinTypeNone, players[0].WinType)
	assert.True(t, players[2].IsWinner)
	assert.Equal(t, Jackpot, players[2].WinType)

	require.NoError(t, SetWinner(players, 3, WinTypeNone))
	assert.False(t, players[2].IsWinner)
}

func TestClearRoundKeepsIdentity(t *testing.T) {
	t.Parallel()

	p := Player{ID: 4, Name: "Dung", Position: Ba, Adjustment: -50, IsHouse: true, Money: 900}
	p.ClearRound()

	assert.Equal(t, Player{ID: 4, Name: "Dung", IsHouse: true}, p)
}

func TestSetupValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   Setup
		wantErr bool
	}{
		{name: "ladder winner takes all", setup: ladderSetup(3)},
		{
			name:  "ladder tiered with four players",
			setup: Setup{Variant: Ladder, NumberOfPlayers: 4, Ladder: &LadderSetup{Rule: Tiered, Level1: 20, Level2: 10}},
		},
		{
			name:    "ladder tiered with three players",
			setup:   Setup{Variant: Ladder, NumberOfPlayers: 3, Ladder: &LadderSetup{Rule: Tiered, Level1: 20, Level2: 10}},
			wantErr: true,
		},
		{name: "ladder with five players", setup: ladderSetup(5), wantErr: true},
		{name: "single player", setup: ladderSetup(1), wantErr: true},
		{
			name:    "unknown ladder rule",
			setup:   Setup{Variant: Ladder, NumberOfPlayers: 3, Ladder: &LadderSetup{Rule: "split"}},
			wantErr: true,
		},
		{
			name:  "banker",
			setup: Setup{Variant: Banker, NumberOfPlayers: 5, Banker: &BankerSetup{BankerID: 5}},
		},
		{
			name:    "banker out of range",
			setup:   Setup{Variant: Banker, NumberOfPlayers: 3, Banker: &BankerSetup{BankerID: 4}},
			wantErr: true,
		},
		{
			name:    "mismatched block",
			setup:   Setup{Variant: Pot, NumberOfPlayers: 3, Banker: &BankerSetup{BankerID: 1}},
			wantErr: true,
		},
		{
			name: "two blocks",
			setup: Setup{Variant: Pot, NumberOfPlayers: 3,
				Pot: &PotSetup{DefaultBet: 1, JackpotBet: 2}, Banker: &BankerSetup{BankerID: 1}},
			wantErr: true,
		},
		{
			name:    "negative pot bet",
			setup:   Setup{Variant: Pot, NumberOfPlayers: 3, Pot: &PotSetup{DefaultBet: -1, JackpotBet: 2}},
			wantErr: true,
		},
		{name: "unknown variant", setup: Setup{NumberOfPlayers: 3}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.setup.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSetup)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSetupCloneIsDeep(t *testing.T) {
	t.Parallel()

	s := ladderSetup(3)
	c := s.Clone()
	c.Ladder.BetAmount = 1

	assert.Equal(t, int64(100), s.Ladder.BetAmount)
}

func TestVariantText(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Setup{Variant: Pot, NumberOfPlayers: 2, Pot: &PotSetup{}})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"variant":"pot"`)

	var s Setup
	require.NoError(t, json.Unmarshal([]byte(`{"variant":"Banker","number_of_players":2}`), &s))
	assert.Equal(t, Banker, s.Variant)

	_, err = ParseVariant("poker")
	assert.Error(t, err)
	assert.Len(t, Definitions(), 3)
}
