package settlement

import "fmt"

// IncompleteInputError reports that Missing players have not entered the
// input their variant needs. Callers keep their previous state and surface
// the count to the user.
type IncompleteInputError struct {
	Missing int
}

func (e *IncompleteInputError) Error() string {
	if e.Missing == 1 {
		return "1 player is missing input"
	}
	return fmt.Sprintf("%d players are missing input", e.Missing)
}

// InvalidInputError reports player input that can never settle as given,
// such as a duplicated role or a player count that does not match the setup.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid round input: " + e.Reason
}

func invalidf(format string, args ...any) error {
	return &InvalidInputError{Reason: fmt.Sprintf(format, args...)}
}
