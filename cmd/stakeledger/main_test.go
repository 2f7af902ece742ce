package main

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/stakeledger/internal/game"
	"github.com/lox/stakeledger/internal/session"
	"github.com/lox/stakeledger/internal/store"
	"github.com/lox/stakeledger/internal/tracker"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

const potReplay = `# friday pot game
{"op":"setup","setup":{"variant":"pot","number_of_players":3,"pot":{"default_bet":100,"jackpot_bet":500}},"names":["An","Binh","Chi"]}
{"op":"set-winner","player_id":1,"win_type":"normal"}
{"op":"calculate"}

{"op":"new-round"}
{"op":"set-winner","player_id":3,"win_type":"jackpot"}
{"op":"calculate"}
`

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func newReplayTracker(t *testing.T) *tracker.Tracker {
	t.Helper()
	return tracker.New(session.New(game.Pot, "local", "Friday"), store.NewMemory(), quietLogger(), tracker.Config{
		Clock: quartz.NewMock(t),
	})
}

func TestReadCommands(t *testing.T) {
	t.Parallel()

	cmds, err := readCommands(strings.NewReader(potReplay))
	require.NoError(t, err)
	require.Len(t, cmds, 6)
	assert.Equal(t, 2, cmds[0].Line)
	assert.Equal(t, "setup", cmds[0].Cmd.Op())
	assert.Equal(t, 6, cmds[3].Line, "blank lines still count")
	assert.Equal(t, session.SetWinner{PlayerID: 3, WinType: game.Jackpot}, cmds[4].Cmd)

	_, err = readCommands(strings.NewReader("{\"op\":\"undo\"}\n{\"op\":\"shuffle\"}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReplay(t *testing.T) {
	t.Parallel()

	cmds, err := readCommands(strings.NewReader(potReplay))
	require.NoError(t, err)

	tr := newReplayTracker(t)
	state, err := replay(tr, cmds, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, state.Ledger.Len())

	totals := state.Totals()
	require.Len(t, totals, 3)
	assert.Equal(t, []int64{-300, -600, 900}, []int64{totals[0].Money, totals[1].Money, totals[2].Money})
	tr.Discard()
}

func TestReplayStopsAtRejectedCommand(t *testing.T) {
	t.Parallel()

	cmds, err := readCommands(strings.NewReader(`{"op":"setup","setup":{"variant":"pot","number_of_players":2,"pot":{"default_bet":10,"jackpot_bet":20}}}
{"op":"calculate"}
{"op":"new-round"}
`))
	require.NoError(t, err)

	tr := newReplayTracker(t)
	state, err := replay(tr, cmds, quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Equal(t, session.PhaseActive, state.Phase())
	tr.Discard()
}

func TestRenderSession(t *testing.T) {
	t.Parallel()

	cmds, err := readCommands(strings.NewReader(potReplay))
	require.NoError(t, err)
	tr := newReplayTracker(t)
	state, err := replay(tr, cmds, quietLogger())
	require.NoError(t, err)
	tr.Discard()

	var b strings.Builder
	require.NoError(t, renderSession(&b, state, true))
	out := b.String()
	assert.Contains(t, out, "Friday")
	assert.Contains(t, out, "pot, calculated, 2 rounds")
	assert.Contains(t, out, "Round 1")
	assert.Contains(t, out, "Round 2")
	assert.Contains(t, out, "jackpot")
	assert.Contains(t, out, "+900")
	assert.Contains(t, out, "-600")
	assert.NotContains(t, out, "does not balance")

	b.Reset()
	require.NoError(t, renderSession(&b, session.New(game.Ladder, "local", ""), false))
	assert.Contains(t, b.String(), "Untitled")
	assert.Contains(t, b.String(), "No rounds settled yet")
}

func TestFormatMoney(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "+25", formatMoney(25))
	assert.Equal(t, "0", formatMoney(0))
	assert.Equal(t, "-7", formatMoney(-7))
}
