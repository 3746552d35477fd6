package tui

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/calcrush/internal/calculator"
	"github.com/verte-zerg/calcrush/internal/game"
	"github.com/verte-zerg/calcrush/internal/generator"
	"github.com/verte-zerg/calcrush/internal/history"
	"github.com/verte-zerg/calcrush/internal/model"
)

func newTestModel(t *testing.T, start bool) (*Model, *game.Engine) {
	t.Helper()
	eng := game.New(
		game.WithGenerator(generator.NewSeeded(42)),
		game.WithTickInterval(time.Hour),
	)
	t.Cleanup(eng.Cleanup)
	if start {
		if err := eng.StartGame(); err != nil {
			t.Fatalf("start game: %v", err)
		}
	}
	log, err := history.Open()
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	t.Cleanup(func() {
		_ = log.Close()
	})
	gameID, err := log.BeginGame(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("begin game: %v", err)
	}
	m := NewModel(model.Config{Recent: 3}, calculator.New(), eng, log, gameID, nil)
	return m, eng
}

func typeKeys(m *Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		cmd = m.handleKey(k)
	}
	return cmd
}

func solveKeys(c *game.Challenge) []string {
	opKey := map[model.Operator]string{
		model.OpAdd: "+",
		model.OpSub: "-",
		model.OpMul: "*",
		model.OpDiv: "/",
	}
	var keys []string
	for _, r := range strconv.Itoa(c.Left) {
		keys = append(keys, string(r))
	}
	keys = append(keys, opKey[c.Op])
	for _, r := range strconv.Itoa(c.Right) {
		keys = append(keys, string(r))
	}
	return append(keys, "enter")
}

func TestKeysIgnoredWhileInactive(t *testing.T) {
	m, _ := newTestModel(t, false)
	if cmd := typeKeys(m, "5", "+", "3", "enter"); cmd != nil {
		t.Fatalf("expected no command while inactive")
	}
	if got := m.calc.Display(); got != "0" {
		t.Fatalf("expected display untouched, got %q", got)
	}
}

func TestCorrectAnswerThroughKeys(t *testing.T) {
	m, eng := newTestModel(t, true)
	challenge := m.state.Challenge
	if challenge == nil {
		t.Fatalf("expected a challenge after start")
	}

	if cmd := typeKeys(m, solveKeys(challenge)...); cmd == nil {
		t.Fatalf("expected flash and reset commands")
	}
	if m.flash.kind != flashCorrect || m.flash.points != 72 {
		t.Fatalf("expected correct flash worth 72, got %+v", m.flash)
	}
	state := eng.GetState()
	if state.Score != 72 || state.Combo != 1 {
		t.Fatalf("unexpected state after correct answer: %+v", state)
	}
	if m.state.Round != 2 {
		t.Fatalf("expected the model to hold the new challenge, round %d", m.state.Round)
	}
	rows := m.rounds.Rows()
	if len(rows) != 1 || rows[0][1] != challenge.Expression || rows[0][4] != "correct" || rows[0][5] != "72" {
		t.Fatalf("unexpected rounds table: %+v", rows)
	}
}

func TestWrongAnswerKeepsChallenge(t *testing.T) {
	m, eng := newTestModel(t, true)
	challenge := *m.state.Challenge

	m.submit(challenge.Answer + 1)
	if m.flash.kind != flashWrong {
		t.Fatalf("expected wrong flash, got %+v", m.flash)
	}
	state := eng.GetState()
	if state.Challenge == nil || *state.Challenge != challenge || state.Score != 0 {
		t.Fatalf("wrong answer should keep the challenge: %+v", state)
	}
	rows := m.rounds.Rows()
	if len(rows) != 1 || rows[0][4] != "wrong" || rows[0][3] != formatValue(challenge.Answer+1) {
		t.Fatalf("unexpected rounds table: %+v", rows)
	}
}

func TestDivisionByZeroShowsError(t *testing.T) {
	m, eng := newTestModel(t, true)
	typeKeys(m, "5", "/", "0", "enter")
	if m.flash.kind != flashError || m.flash.text != "Cannot divide by zero" {
		t.Fatalf("expected division error flash, got %+v", m.flash)
	}
	if len(m.rounds.Rows()) != 0 {
		t.Fatalf("error must not be submitted")
	}
	if eng.GetState().Round != 1 {
		t.Fatalf("challenge should not change")
	}
}

func TestTimeoutRecordedOnSync(t *testing.T) {
	m, _ := newTestModel(t, true)
	expired := *m.state.Challenge
	next := m.state
	next.Timeouts++
	next.Round++
	next.Challenge = &game.Challenge{Expression: "1 + 1", Op: model.OpAdd, Answer: 2}

	m.sync(next)
	rows := m.rounds.Rows()
	if len(rows) != 1 || rows[0][1] != expired.Expression || rows[0][3] != "-" || rows[0][4] != "timeout" {
		t.Fatalf("expected recorded timeout, got %+v", rows)
	}
	m.sync(next)
	if len(m.rounds.Rows()) != 1 {
		t.Fatalf("same snapshot must not record twice")
	}
}

func TestResetAfterSubmission(t *testing.T) {
	m, _ := newTestModel(t, true)
	m.submit(-1000)
	typeKeys(m, "4", "2")
	m.Update(resetCalcMsg{seq: m.inputSeq - 2})
	if got := m.calc.Display(); got != "42" {
		t.Fatalf("stale reset should be ignored, got %q", got)
	}
	m.Update(resetCalcMsg{seq: m.inputSeq})
	if got := m.calc.Display(); got != "0" {
		t.Fatalf("expected reset display, got %q", got)
	}
}

func TestFlashExpiry(t *testing.T) {
	m, _ := newTestModel(t, true)
	m.submit(-1000)
	m.submit(-1000)
	m.Update(flashExpiredMsg{seq: m.flashSeq - 1})
	if m.flash.kind != flashWrong {
		t.Fatalf("older flash timer must not clear a newer flash")
	}
	m.Update(flashExpiredMsg{seq: m.flashSeq})
	if m.flash.kind != flashNone {
		t.Fatalf("expected flash cleared, got %+v", m.flash)
	}
}

func TestQuitStopsEngine(t *testing.T) {
	m, eng := newTestModel(t, true)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if eng.GetState().Active {
		t.Fatalf("expected inactive game after quit")
	}
	if err := eng.StartGame(); !errors.Is(err, game.ErrClosed) {
		t.Fatalf("expected ErrClosed after quit, got %v", err)
	}
	if m.View() != "" {
		t.Fatalf("expected empty view after quit")
	}
}

func TestViewBeforeStart(t *testing.T) {
	m, _ := newTestModel(t, false)
	out := m.View()
	for _, want := range []string{"Get ready...", "Score", "0x", "30s"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
}

func TestTimerColor(t *testing.T) {
	cases := map[int]string{30: "green", 16: "green", 15: "yellow", 8: "yellow", 7: "red", 0: "red"}
	colors := map[string]any{"green": timerGreen, "yellow": timerYellow, "red": timerRed}
	for remaining, name := range cases {
		if got := timerColor(remaining); got != colors[name] {
			t.Fatalf("timerColor(%d) = %v, want %s", remaining, got, name)
		}
	}
}

func TestTimerBar(t *testing.T) {
	bar := timerBar(15, 30)
	if strings.Count(bar, "█") != 15 || strings.Count(bar, "░") != 15 {
		t.Fatalf("unexpected half bar %q", bar)
	}
	if bar := timerBar(-3, 10); strings.Count(bar, "░") != 10 {
		t.Fatalf("expected empty bar, got %q", bar)
	}
}

func TestFormatDisplay(t *testing.T) {
	if got := formatDisplay("12", model.OpAdd, 6); got != "+ "+"    12" {
		t.Fatalf("unexpected display %q", got)
	}
	got := formatDisplay("1234567890", "", 4)
	if !strings.HasPrefix(got, "  ") || !strings.HasSuffix(got, "890") {
		t.Fatalf("expected truncated tail, got %q", got)
	}
}
