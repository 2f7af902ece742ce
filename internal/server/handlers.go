package server

import (
	"io"
	"net/http"
	"strconv"

	"github.com/lox/stakeledger/internal/game"
	"github.com/lox/stakeledger/internal/ledger"
	"github.com/lox/stakeledger/internal/session"
	"github.com/lox/stakeledger/internal/store"
	"github.com/lox/stakeledger/internal/tracker"
)

type createRequest struct {
	AccountID string       `json:"account_id"`
	GameType  game.Variant `json:"game_type"`
	Name      string       `json:"name"`
}

type renameRequest struct {
	Name string `json:"name"`
}

// playerPatch carries any subset of a player's inputs. Each field present
// becomes one command; all are applied together or not at all.
type playerPatch struct {
	Name       *string        `json:"name"`
	Position   *game.Position `json:"position"`
	Adjustment *int64         `json:"adjustment"`
	Banker     *bool          `json:"banker"`
	Result     *game.Result   `json:"result"`
	Bet        *int64         `json:"bet"`
	WinType    *game.WinType  `json:"win_type"`
}

type editRoundRequest struct {
	Players []game.Player `json:"players"`
}

// sessionView is the full JSON form of a session.
type sessionView struct {
	ID        string         `json:"id"`
	AccountID string         `json:"account_id"`
	Name      string         `json:"name"`
	GameType  game.Variant   `json:"game_type"`
	Phase     session.Phase  `json:"phase"`
	Setup     *game.Setup    `json:"setup,omitempty"`
	Players   []game.Player  `json:"players"`
	History   []ledger.Round `json:"history"`
	Totals    []ledger.Total `json:"totals"`
	Net       int64          `json:"net"`
	Unsaved   bool           `json:"unsaved"`
}

func newSessionView(s session.State, unsaved bool) sessionView {
	v := sessionView{
		ID:        s.ID,
		AccountID: s.AccountID,
		Name:      s.Name,
		GameType:  s.Variant,
		Phase:     s.Phase(),
		Setup:     s.Setup,
		Players:   s.Players,
		History:   s.Ledger.Rounds(),
		Totals:    s.Totals(),
		Net:       s.Ledger.Net(),
		Unsaved:   unsaved,
	}
	if v.Players == nil {
		v.Players = []game.Player{}
	}
	if v.History == nil {
		v.History = []ledger.Round{}
	}
	return v
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.AccountID == "" {
		writeError(w, http.StatusBadRequest, "account_id is required")
		return
	}
	if !req.GameType.Valid() {
		writeError(w, http.StatusBadRequest, "game_type is required")
		return
	}

	t, err := s.sessions.Create(r.Context(), req.GameType, req.AccountID, req.Name)
	if err != nil {
		s.logger.Error("Failed to create session", "error", err)
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionView(t.State(), false))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "account_id is required")
		return
	}
	variant, err := game.ParseVariant(r.URL.Query().Get("game_type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := s.sessions.List(r.Context(), accountID, variant)
	if err != nil {
		s.logger.Error("Failed to list sessions", "account", accountID, "error", err)
		writeStoreError(w, err)
		return
	}
	if list == nil {
		list = []store.Summary{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tracker(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(t.State(), t.Pending()))
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tracker(w, r)
	if !ok {
		return
	}
	standings := t.Standings()
	if standings == nil {
		standings = []ledger.Standing{}
	}
	writeJSON(w, http.StatusOK, standings)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.apply(w, r, session.Rename{Name: req.Name})
}

func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	var cmd session.SubmitSetup
	if err := readJSON(r, &cmd); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.apply(w, r, cmd)
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	pid, err := strconv.Atoi(r.PathValue("pid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid player id")
		return
	}
	var patch playerPatch
	if err := readJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	t, ok := s.tracker(w, r)
	if !ok {
		return
	}

	if patch.Banker != nil && !*patch.Banker {
		writeError(w, http.StatusBadRequest, "banker can only be moved to a player, not cleared")
		return
	}
	if patch == (playerPatch{}) {
		writeError(w, http.StatusBadRequest, "no player fields to update")
		return
	}

	// The commands are built under the session lock so a partial bet update
	// merges with the player's input as it is at apply time.
	state, err := t.Update(func(current session.State) ([]session.Command, error) {
		return patch.commands(pid, current.Players), nil
	})
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(state, t.Pending()))
}

// commands turns the set fields of p into commands for player pid. A partial
// bet update keeps the other half of the player's current input.
func (p playerPatch) commands(pid int, current []game.Player) []session.Command {
	var cmds []session.Command
	if p.Name != nil {
		cmds = append(cmds, session.RenamePlayer{PlayerID: pid, Name: *p.Name})
	}
	if p.Position != nil {
		cmds = append(cmds, session.AssignPosition{PlayerID: pid, Position: *p.Position})
	}
	if p.Adjustment != nil {
		cmds = append(cmds, session.SetAdjustment{PlayerID: pid, Amount: *p.Adjustment})
	}
	if p.Banker != nil {
		cmds = append(cmds, session.SetBanker{PlayerID: pid})
	}
	if p.Result != nil || p.Bet != nil {
		bet := session.SetBet{PlayerID: pid}
		if idx := game.FindPlayer(current, pid); idx >= 0 {
			bet.Result = current[idx].Result
			bet.Amount = current[idx].BetAmount
		}
		if p.Result != nil {
			bet.Result = *p.Result
		}
		if p.Bet != nil {
			bet.Amount = *p.Bet
		}
		cmds = append(cmds, bet)
	}
	if p.WinType != nil {
		cmds = append(cmds, session.SetWinner{PlayerID: pid, WinType: *p.WinType})
	}
	return cmds
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, session.Calculate{})
}

func (s *Server) handleNewRound(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, session.NewRound{})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, session.Undo{})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, session.Reset{})
}

func (s *Server) handleEditRound(w http.ResponseWriter, r *http.Request) {
	rid, err := strconv.Atoi(r.PathValue("rid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid round id")
		return
	}
	var req editRoundRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.apply(w, r, session.EditRound{RoundID: rid, Players: req.Players})
}

func (s *Server) handleDeleteRound(w http.ResponseWriter, r *http.Request) {
	rid, err := strconv.Atoi(r.PathValue("rid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid round id")
		return
	}
	s.apply(w, r, session.DeleteRound{RoundID: rid})
}

// handleCommand accepts any command in its {"op": ...} form.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cmd, err := session.DecodeCommand(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.apply(w, r, cmd)
}

func (s *Server) tracker(w http.ResponseWriter, r *http.Request) (*tracker.Tracker, bool) {
	t, err := s.sessions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return nil, false
	}
	return t, true
}

func (s *Server) apply(w http.ResponseWriter, r *http.Request, cmds ...session.Command) {
	t, ok := s.tracker(w, r)
	if !ok {
		return
	}
	s.applyTo(w, t, cmds...)
}

func (s *Server) applyTo(w http.ResponseWriter, t *tracker.Tracker, cmds ...session.Command) {
	state, err := t.Apply(cmds...)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(state, t.Pending()))
}
