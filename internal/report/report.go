// Package report renders the end-of-run summary.
package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/verte-zerg/calcrush/internal/model"
)

const (
	sparkChars          = " .:-=+*#%@"
	sparkLabel          = "Points  "
	terminalWidthBackup = 80
	minSparkWidth       = 10
)

// Accuracy returns the share of rounds answered correctly.
func Accuracy(s model.GameSummary) float64 {
	if s.Rounds == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Rounds)
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// TerminalWidth returns the stdout width, or 80 when it is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// RenderSummary prints the summary of one game. rounds are newest first,
// as returned by the round log.
func RenderSummary(w io.Writer, s model.GameSummary, aggs []model.OperatorAggregate, rounds []model.Round, width int) error {
	if s.Rounds == 0 {
		_, err := fmt.Fprintln(w, "No rounds played.")
		return err
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Final score: %d", s.FinalScore),
		fmt.Sprintf("Final level: %d", s.FinalLevel),
		fmt.Sprintf("Rounds: %d (%d correct, %d wrong, %d timed out)", s.Rounds, s.Correct, s.Wrong, s.Timeouts),
		fmt.Sprintf("Accuracy: %.1f%%", Accuracy(s)*100),
		fmt.Sprintf("Best combo: %dx", s.BestCombo),
	}
	if !s.EndedAt.IsZero() {
		lines = append(lines, fmt.Sprintf("Duration: %s", s.EndedAt.Sub(s.StartedAt).Round(time.Second)))
	}
	if spark := pointsSparkline(rounds, width); spark != "" {
		lines = append(lines, "", sparkLabel+spark)
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if len(aggs) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return renderOperatorTable(w, aggs)
}

func pointsSparkline(rounds []model.Round, width int) string {
	if len(rounds) < 2 {
		return ""
	}
	if width <= 0 {
		width = terminalWidthBackup
	}
	limit := max(minSparkWidth, width-len(sparkLabel))
	values := make([]float64, 0, len(rounds))
	for i := len(rounds) - 1; i >= 0; i-- {
		values = append(values, float64(rounds[i].Points))
	}
	if len(values) > limit {
		values = values[len(values)-limit:]
	}
	return Sparkline(values)
}

func renderOperatorTable(w io.Writer, aggs []model.OperatorAggregate) error {
	headers := []string{"Op", "Correct", "Wrong", "Timeout", "Accuracy", "Points"}
	rows := make([][]string, 0, len(aggs))
	for _, agg := range aggs {
		total := agg.Correct + agg.Wrong + agg.Timeouts
		acc := 0.0
		if total > 0 {
			acc = float64(agg.Correct) / float64(total)
		}
		rows = append(rows, []string{
			string(agg.Op),
			fmt.Sprintf("%d", agg.Correct),
			fmt.Sprintf("%d", agg.Wrong),
			fmt.Sprintf("%d", agg.Timeouts),
			fmt.Sprintf("%.1f%%", acc*100),
			fmt.Sprintf("%d", agg.Points),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true}
	if _, err := fmt.Fprintln(w, "Per Operator"); err != nil {
		return err
	}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
