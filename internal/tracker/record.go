package tracker

import (
	"github.com/lox/stakeledger/internal/session"
	"github.com/lox/stakeledger/internal/store"
)

// ToRecord converts a session into its persisted form. LastUpdated is left
// for the store to set.
func ToRecord(s session.State) store.Session {
	rec := store.Session{
		ID:          s.ID,
		AccountID:   s.AccountID,
		GameType:    s.Variant,
		SessionName: s.Name,
		Players:     s.Players,
		Setup:       s.Setup,
		Calculated:  s.Calculated,
	}
	if s.Ledger != nil {
		rec.History = s.Ledger.Rounds()
		rec.NextRoundID = s.Ledger.NextID()
	}
	return rec.Clone()
}

// FromRecord rebuilds a session from its persisted form.
func FromRecord(rec store.Session) session.State {
	return session.Restore(rec.ID, rec.AccountID, rec.SessionName, rec.GameType,
		rec.Setup, rec.Players, rec.History, rec.NextRoundID, rec.Calculated)
}
