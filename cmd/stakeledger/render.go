package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/lox/stakeledger/internal/game"
	"github.com/lox/stakeledger/internal/ledger"
	"github.com/lox/stakeledger/internal/session"
	"github.com/lox/stakeledger/internal/store"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	winStyle  = cellStyle.Foreground(lipgloss.Color("10"))
	lossStyle = cellStyle.Foreground(lipgloss.Color("9"))

	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// moneyColumn is the index of the signed amount column in money tables.
const moneyColumn = 1

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...)
}

// styleMoney colors the money column by sign.
func styleMoney(rows [][]string) table.StyleFunc {
	return func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		if col == moneyColumn && row >= 0 && row < len(rows) {
			switch {
			case strings.HasPrefix(rows[row][col], "+"):
				return winStyle
			case strings.HasPrefix(rows[row][col], "-"):
				return lossStyle
			}
		}
		return cellStyle
	}
}

func formatMoney(m int64) string {
	if m > 0 {
		return "+" + strconv.FormatInt(m, 10)
	}
	return strconv.FormatInt(m, 10)
}

func renderSummaries(list []store.Summary) string {
	rows := make([][]string, len(list))
	for i, s := range list {
		rows[i] = []string{s.ID, s.SessionName, s.LastUpdated.Local().Format(time.DateTime)}
	}
	return newTable("ID", "Name", "Last updated").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

func renderStandings(standings []ledger.Standing) string {
	rows := make([][]string, len(standings))
	for i, s := range standings {
		rows[i] = []string{
			s.Name,
			formatMoney(s.Money),
			strconv.Itoa(s.Rounds),
			strconv.Itoa(s.Won),
			strconv.Itoa(s.Lost),
			formatMoney(s.Best),
			formatMoney(s.Worst),
		}
	}
	return newTable("Player", "Total", "Rounds", "Won", "Lost", "Best", "Worst").
		Rows(rows...).
		StyleFunc(styleMoney(rows)).
		String()
}

func renderRound(r ledger.Round) string {
	rows := make([][]string, len(r.Players))
	for i, p := range r.Players {
		rows[i] = []string{p.Name, formatMoney(p.Money), roleOf(r.Setup.Variant, p)}
	}
	title := fmt.Sprintf("Round %d  %s", r.ID, mutedStyle.Render(r.Timestamp.Local().Format(time.DateTime)))
	return title + "\n" + newTable("Player", "Money", "Input").
		Rows(rows...).
		StyleFunc(styleMoney(rows)).
		String()
}

// roleOf describes a player's round input for the variant.
func roleOf(v game.Variant, p game.Player) string {
	switch v {
	case game.Ladder:
		role := string(p.Position)
		if p.Adjustment != 0 {
			role += fmt.Sprintf(" (adj %s)", formatMoney(p.Adjustment))
		}
		return role
	case game.Banker:
		if p.IsHouse {
			return "banker"
		}
		return fmt.Sprintf("%s %d", p.Result, p.BetAmount)
	case game.Pot:
		if p.IsWinner {
			return string(p.WinType)
		}
	}
	return ""
}

// renderSession writes a session summary: its totals and optionally every
// round.
func renderSession(w io.Writer, s session.State, rounds bool) error {
	var b strings.Builder
	name := s.Name
	if name == "" {
		name = "Untitled"
	}
	fmt.Fprintf(&b, "%s  %s\n", titleStyle.Render(name), mutedStyle.Render(fmt.Sprintf("%s, %s, %d rounds", s.Variant, s.Phase(), s.Ledger.Len())))
	if s.ID != "" {
		fmt.Fprintln(&b, mutedStyle.Render(s.ID))
	}

	if rounds {
		for _, r := range s.Ledger.Rounds() {
			b.WriteString("\n")
			b.WriteString(renderRound(r))
			b.WriteString("\n")
		}
	}

	standings := s.Ledger.Standings()
	b.WriteString("\n")
	if len(standings) == 0 {
		b.WriteString("No rounds settled yet\n")
	} else {
		b.WriteString(renderStandings(standings))
		b.WriteString("\n")
		if net := s.Ledger.Net(); net != 0 {
			fmt.Fprintf(&b, "%s\n", lossStyle.Render(fmt.Sprintf("Ledger does not balance: net %s", formatMoney(net))))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
