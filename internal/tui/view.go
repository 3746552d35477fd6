package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/calcrush/internal/game"
	"github.com/verte-zerg/calcrush/internal/model"
)

const (
	timerBarWidth = 30
	displayWidth  = 14
)

var (
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	valueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	challengeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true).Padding(1, 0)
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Padding(1, 0)
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4A4A4A")).
			Padding(0, 2).
			Align(lipgloss.Center)
	displayStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#4A4A4A")).
			Padding(0, 1)

	timerGreen  = lipgloss.Color("#52C41A")
	timerYellow = lipgloss.Color("#FADB14")
	timerRed    = lipgloss.Color("#FF4D4F")
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	sections := []string{
		m.renderScoreboard(),
		renderChallenge(m.state.Challenge),
		renderTimer(m.state.TimeRemaining),
		m.renderFlash(),
		m.renderDisplay(),
	}
	if len(m.rounds.Rows()) > 0 {
		sections = append(sections, "", m.rounds.View())
	}
	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	footer := footerStyle.Render(m.help.View(m.keys))
	if m.width == 0 || m.height == 0 {
		return content + "\n" + footer
	}
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderScoreboard() string {
	cards := []string{
		scoreCard("Score", strconv.Itoa(m.state.Score)),
		scoreCard("Level", strconv.Itoa(m.state.Level)),
		scoreCard("Combo", fmt.Sprintf("%dx", m.state.Combo)),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func scoreCard(label, value string) string {
	return cardStyle.Render(labelStyle.Render(label) + "\n" + valueStyle.Render(value))
}

func renderChallenge(c *game.Challenge) string {
	if c == nil {
		return pendingStyle.Render("Get ready...")
	}
	return challengeStyle.Render(c.Question)
}

func renderTimer(remaining int) string {
	style := lipgloss.NewStyle().Foreground(timerColor(remaining))
	return style.Render(timerBar(remaining, timerBarWidth)) + fmt.Sprintf(" %2ds", remaining)
}

// timerColor picks green above half the question time, yellow above a
// quarter and red below.
func timerColor(remaining int) lipgloss.Color {
	pct := float64(remaining) / float64(game.TimePerQuestion) * 100
	switch {
	case pct > 50:
		return timerGreen
	case pct > 25:
		return timerYellow
	default:
		return timerRed
	}
}

func timerBar(remaining, width int) string {
	remaining = max(0, min(remaining, game.TimePerQuestion))
	filled := remaining * width / game.TimePerQuestion
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func (m *Model) renderFlash() string {
	switch m.flash.kind {
	case flashCorrect:
		return correctStyle.Render(fmt.Sprintf("Correct! +%d points", m.flash.points))
	case flashWrong:
		return incorrectStyle.Render("Wrong answer")
	case flashError:
		return incorrectStyle.Render(m.flash.text)
	default:
		return " "
	}
}

func (m *Model) renderDisplay() string {
	op, _ := m.calc.PendingOperator()
	return displayStyle.Render(formatDisplay(m.calc.Display(), op, displayWidth))
}

// formatDisplay right-aligns the calculator text in width cells, keeping the
// least significant digits when it does not fit. The pending operator sits
// in a fixed-width column on the left.
func formatDisplay(display string, op model.Operator, width int) string {
	if w := runewidth.StringWidth(display); w > width {
		display = runewidth.TruncateLeft(display, w-width+1, "…")
	}
	opCol := " "
	if op != "" {
		opCol = string(op)
	}
	return runewidth.FillRight(opCol, 2) + runewidth.FillLeft(display, width)
}

func newRoundsTable(height int) table.Model {
	columns := []table.Column{
		{Title: "#", Width: 4},
		{Title: "Challenge", Width: 12},
		{Title: "Answer", Width: 8},
		{Title: "Yours", Width: 8},
		{Title: "Result", Width: 8},
		{Title: "Points", Width: 6},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(height+1),
	)
	t.SetStyles(roundsTableStyles())
	return t
}

func roundsTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell
	return styles
}

func roundRows(rounds []model.Round) []table.Row {
	rows := make([]table.Row, 0, len(rounds))
	for _, r := range rounds {
		submitted := "-"
		if r.Submitted != nil {
			submitted = formatValue(*r.Submitted)
		}
		rows = append(rows, table.Row{
			strconv.Itoa(r.Seq),
			r.Expression,
			formatValue(r.Answer),
			submitted,
			string(r.Outcome),
			strconv.Itoa(r.Points),
		})
	}
	return rows
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
