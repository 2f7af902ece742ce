package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNothingToUndo is returned by Undo on an empty ledger.
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrWrongVariant is returned for a role command that does not belong to
	// the session's variant.
	ErrWrongVariant = errors.New("command does not apply to this game variant")
)

// PhaseError reports a command that is not allowed in the current phase.
type PhaseError struct {
	Op    string
	Phase Phase
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s is not allowed in the %s phase", e.Op, e.Phase)
}
