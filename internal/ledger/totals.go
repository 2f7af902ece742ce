package ledger

import "sort"

// Total is a player's accumulated money across every round in the ledger.
type Total struct {
	PlayerID int    `json:"player_id"`
	Name     string `json:"name"`
	Money    int64  `json:"money"`
}

// Standing extends Total with per-round figures.
type Standing struct {
	Total
	Rounds int   `json:"rounds"`
	Won    int   `json:"won"`
	Lost   int   `json:"lost"`
	Best   int64 `json:"best"`
	Worst  int64 `json:"worst"`
}

// Totals sums money per player id, naming each player by the most recent
// round they appear in. Entries are ordered by player id.
func (l *Ledger) Totals() []Total {
	standings := l.Standings()
	out := make([]Total, len(standings))
	for i, s := range standings {
		out[i] = s.Total
	}
	return out
}

// Standings returns Totals together with rounds played, rounds won and lost,
// and the best and worst single-round results for each player.
func (l *Ledger) Standings() []Standing {
	byID := make(map[int]*Standing)
	for _, r := range l.rounds {
		for _, p := range r.Players {
			s, ok := byID[p.ID]
			if !ok {
				s = &Standing{Total: Total{PlayerID: p.ID}, Best: p.Money, Worst: p.Money}
				byID[p.ID] = s
			}
			s.Name = p.Name
			s.Money += p.Money
			s.Rounds++
			switch {
			case p.Money > 0:
				s.Won++
			case p.Money < 0:
				s.Lost++
			}
			s.Best = max(s.Best, p.Money)
			s.Worst = min(s.Worst, p.Money)
		}
	}

	out := make([]Standing, 0, len(byID))
	for _, s := range byID {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out
}

// Net returns the sum of all totals. It is zero unless ladder adjustments
// were entered.
func (l *Ledger) Net() int64 {
	var sum int64
	for _, r := range l.rounds {
		for _, p := range r.Players {
			sum += p.Money
		}
	}
	return sum
}
