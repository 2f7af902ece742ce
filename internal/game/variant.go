package game

import (
	"fmt"
	"strings"
)

// Variant identifies a payout rule family.
type Variant int

const (
	// Ladder settles by finishing rank.
	Ladder Variant = iota + 1
	// Banker settles each player against a single house player.
	Banker
	// Pot pays a single winner from every other player.
	Pot
)

// Definition describes a variant and the inputs each player must supply
// before a round can be settled.
type Definition struct {
	Variant     Variant
	Name        string
	Title       string
	Description string
	MinPlayers  int
	MaxPlayers  int
	// Inputs lists the per-player fields required to settle.
	Inputs []string
}

var definitions = []Definition{
	{
		Variant:     Ladder,
		Name:        "ladder",
		Title:       "Ladder",
		Description: "Rank-based settlement: nhat, nhi, ba, bet",
		MinPlayers:  2,
		MaxPlayers:  4,
		Inputs:      []string{"position"},
	},
	{
		Variant:     Banker,
		Name:        "banker",
		Title:       "Banker",
		Description: "One house player settles against every other player's bet",
		MinPlayers:  2,
		MaxPlayers:  12,
		Inputs:      []string{"result", "bet_amount"},
	},
	{
		Variant:     Pot,
		Name:        "pot",
		Title:       "Pot",
		Description: "A single winner collects a normal or jackpot tier from everyone",
		MinPlayers:  2,
		MaxPlayers:  12,
		Inputs:      []string{"winner", "win_type"},
	},
}

// Definitions returns every supported variant, in declaration order.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// Lookup returns the definition of v.
func Lookup(v Variant) (Definition, bool) {
	for _, d := range definitions {
		if d.Variant == v {
			return d, true
		}
	}
	return Definition{}, false
}

// ParseVariant parses a variant name such as "ladder".
func ParseVariant(s string) (Variant, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, d := range definitions {
		if d.Name == name {
			return d.Variant, nil
		}
	}
	return 0, fmt.Errorf("unknown game variant %q", s)
}

// Valid reports whether v is a known variant.
func (v Variant) Valid() bool {
	_, ok := Lookup(v)
	return ok
}

func (v Variant) String() string {
	if d, ok := Lookup(v); ok {
		return d.Name
	}
	return fmt.Sprintf("variant(%d)", int(v))
}

// MarshalText implements encoding.TextMarshaler.
func (v Variant) MarshalText() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("unknown game variant %d", int(v))
	}
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Variant) UnmarshalText(text []byte) error {
	parsed, err := ParseVariant(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
