package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/lox/stakeledger/internal/game"
	"github.com/lox/stakeledger/internal/ledger"
	"github.com/lox/stakeledger/internal/session"
	"github.com/lox/stakeledger/internal/settlement"
	"github.com/lox/stakeledger/internal/store"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error   string `json:"error"`
	Missing int    `json:"missing,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeCommandError maps a rejected command to a status. Anything not
// recognized is a bad request, since commands fail only on their input.
func writeCommandError(w http.ResponseWriter, err error) {
	var incomplete *settlement.IncompleteInputError
	if errors.As(err, &incomplete) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Missing: incomplete.Missing})
		return
	}
	writeError(w, commandStatus(err), err.Error())
}

func commandStatus(err error) int {
	var phase *session.PhaseError
	var round *ledger.NotFoundError
	switch {
	case errors.As(err, &phase), errors.Is(err, session.ErrNothingToUndo):
		return http.StatusConflict
	case errors.As(err, &round), errors.Is(err, game.ErrUnknownPlayer):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

// writeStoreError maps a persistence failure to a status.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

// readJSON decodes the request body into v, rejecting unknown fields.
func readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
