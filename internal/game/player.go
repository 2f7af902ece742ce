package game

import "fmt"

// Position is a finishing rank in the Ladder variant.
type Position string

// Ladder positions, first to last. PositionNone means not yet entered.
const (
	PositionNone Position = ""
	Nhat         Position = "nhat"
	Nhi          Position = "nhi"
	Ba           Position = "ba"
	Bet          Position = "bet"
)

// Positions lists the ladder positions in rank order.
var Positions = []Position{Nhat, Nhi, Ba, Bet}

// Valid reports whether p is a known position (including none).
func (p Position) Valid() bool {
	switch p {
	case PositionNone, Nhat, Nhi, Ba, Bet:
		return true
	}
	return false
}

// Result is a player's outcome against the banker.
type Result string

const (
	ResultNone Result = ""
	Win        Result = "win"
	Lose       Result = "lose"
)

// Valid reports whether r is a known result (including none).
func (r Result) Valid() bool {
	return r == ResultNone || r == Win || r == Lose
}

// WinType selects the bet tier paid to a Pot winner.
type WinType string

const (
	WinTypeNone WinType = ""
	Normal      WinType = "normal"
	Jackpot     WinType = "jackpot"
)

// Valid reports whether w is a known win type (including none).
func (w WinType) Valid() bool {
	return w == WinTypeNone || w == Normal || w == Jackpot
}

// Player is one participant in a round. Only the role fields belonging to
// the session's variant are meaningful.
type Player struct {
	ID   int    `json:"id"`
	Name string `json:"name"`

	// Ladder
	Position   Position `json:"position,omitempty"`
	Adjustment int64    `json:"adjustment,omitempty"`

	// Banker
	IsHouse   bool   `json:"is_house,omitempty"`
	BetAmount int64  `json:"bet_amount,omitempty"`
	Result    Result `json:"result,omitempty"`

	// Pot
	IsWinner bool    `json:"is_winner,omitempty"`
	WinType  WinType `json:"win_type,omitempty"`

	// Money is the signed delta settled for the round.
	Money int64 `json:"money"`
}

// ClearRound clears the transient per-round inputs and money, keeping the
// player's identity and the banker designation.
func (p *Player) ClearRound() {
	p.Position = PositionNone
	p.Adjustment = 0
	p.BetAmount = 0
	p.Result = ResultNone
	p.IsWinner = false
	p.WinType = WinTypeNone
	p.Money = 0
}

// ClonePlayers returns a deep copy of players.
func ClonePlayers(players []Player) []Player {
	if players == nil {
		return nil
	}
	out := make([]Player, len(players))
	copy(out, players)
	return out
}

// DefaultName is the name given to a player created without one.
func DefaultName(id int) string {
	return fmt.Sprintf("Player %d", id)
}

// FindPlayer returns the index of the player with the given id, or -1.
func FindPlayer(players []Player, id int) int {
	for i := range players {
		if players[i].ID == id {
			return i
		}
	}
	return -1
}

// AssignPosition gives the player with id the ladder position pos, clearing
// it from whichever player held it before. PositionNone clears the player's
// position.
func AssignPosition(players []Player, id int, pos Position) error {
	if !pos.Valid() {
		return fmt.Errorf("invalid position %q", pos)
	}
	idx := FindPlayer(players, id)
	if idx < 0 {
		return fmt.Errorf("player %d: %w", id, ErrUnknownPlayer)
	}
	if pos != PositionNone {
		for i := range players {
			if players[i].Position == pos {
				players[i].Position = PositionNone
			}
		}
	}
	players[idx].Position = pos
	return nil
}

// SetBanker makes the player with id the only house player.
func SetBanker(players []Player, id int) error {
	idx := FindPlayer(players, id)
	if idx < 0 {
		return fmt.Errorf("player %d: %w", id, ErrUnknownPlayer)
	}
	for i := range players {
		players[i].IsHouse = false
	}
	players[idx].IsHouse = true
	// The banker does not place a bet against itself.
	players[idx].BetAmount = 0
	players[idx].Result = ResultNone
	return nil
}

// SetWinner makes the player with id the only Pot winner. WinTypeNone clears
// the player's win.
func SetWinner(players []Player, id int, wt WinType) error {
	if !wt.Valid() {
		return fmt.Errorf("invalid win type %q", wt)
	}
	idx := FindPlayer(players, id)
	if idx < 0 {
		return fmt.Errorf("player %d: %w", id, ErrUnknownPlayer)
	}
	if wt == WinTypeNone {
		players[idx].IsWinner = false
		players[idx].WinType = WinTypeNone
		return nil
	}
	for i := range players {
		players[i].IsWinner = false
		players[i].WinType = WinTypeNone
	}
	players[idx].IsWinner = true
	players[idx].WinType = wt
	return nil
}
