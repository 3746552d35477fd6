// Package tui provides the Bubble Tea game screen.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/verte-zerg/calcrush/internal/calculator"
	"github.com/verte-zerg/calcrush/internal/game"
	"github.com/verte-zerg/calcrush/internal/history"
	"github.com/verte-zerg/calcrush/internal/model"
)

const (
	correctFlashDuration = 2000 * time.Millisecond
	wrongFlashDuration   = 1500 * time.Millisecond
	errorFlashDuration   = 1500 * time.Millisecond

	defaultPollInterval = 100 * time.Millisecond
	defaultResetDelay   = 500 * time.Millisecond
	defaultRecent       = 5
)

type flashKind int

const (
	flashNone flashKind = iota
	flashCorrect
	flashWrong
	flashError
)

type flash struct {
	kind   flashKind
	points int
	text   string
}

type pollMsg struct{}

type flashExpiredMsg struct {
	seq int
}

type resetCalcMsg struct {
	seq int
}

// Model implements the Bubble Tea game screen. It renders engine snapshots
// and forwards calculator results as answers.
type Model struct {
	config model.Config
	calc   *calculator.Engine
	game   *game.Engine
	log    *history.Log
	gameID string
	logger *zap.Logger

	keys   keyMap
	help   help.Model
	rounds table.Model

	width  int
	height int

	state game.State

	flash    flash
	flashSeq int
	// inputSeq advances on every calculator key; a scheduled reset only
	// fires if nothing was typed after the submission.
	inputSeq int
	quitting bool
}

// NewModel constructs the game screen. The game engine should already be
// started; log may be nil to disable the round log.
func NewModel(cfg model.Config, calc *calculator.Engine, eng *game.Engine, log *history.Log, gameID string, logger *zap.Logger) *Model {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.ResetDelay <= 0 {
		cfg.ResetDelay = defaultResetDelay
	}
	if cfg.Recent <= 0 {
		cfg.Recent = defaultRecent
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Model{
		config: cfg,
		calc:   calc,
		game:   eng,
		log:    log,
		gameID: gameID,
		logger: logger,
		keys:   newKeyMap(),
		help:   help.New(),
		rounds: newRoundsTable(cfg.Recent),
		state:  eng.GetState(),
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.poll()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case pollMsg:
		if m.quitting {
			return m, nil
		}
		m.sync(m.game.GetState())
		return m, m.poll()
	case flashExpiredMsg:
		if msg.seq == m.flashSeq {
			m.flash = flash{}
		}
		return m, nil
	case resetCalcMsg:
		if msg.seq == m.inputSeq {
			m.calc.Reset()
		}
		return m, nil
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quit()
			return m, tea.Quit
		}
		return m, m.handleKey(msg.String())
	default:
		return m, nil
	}
}

func (m *Model) poll() tea.Cmd {
	return tea.Tick(m.config.PollInterval, func(time.Time) tea.Msg {
		return pollMsg{}
	})
}

func (m *Model) handleKey(k string) tea.Cmd {
	if !m.state.Active {
		return nil
	}
	action, ok := calculator.ParseKey(k)
	if !ok {
		return nil
	}
	m.inputSeq++
	value, submit, err := m.calc.Apply(action)
	if err != nil {
		return m.showFlash(flash{kind: flashError, text: errorText(err)}, errorFlashDuration)
	}
	if !submit {
		return nil
	}
	return m.submit(value)
}

func (m *Model) submit(value float64) tea.Cmd {
	before := m.game.GetState()
	m.sync(before)
	if before.Challenge == nil || !before.Active {
		return nil
	}
	res := m.game.CheckAnswer(value)
	after := m.game.GetState()

	submitted := value
	round := model.Round{
		GameID:        m.gameID,
		Expression:    before.Challenge.Expression,
		Op:            before.Challenge.Op,
		Answer:        before.Challenge.Answer,
		Submitted:     &submitted,
		Outcome:       model.OutcomeWrong,
		Points:        res.Points,
		Level:         before.Level,
		Combo:         after.Combo,
		TimeRemaining: before.TimeRemaining,
		At:            time.Now(),
	}
	if res.Correct {
		round.Outcome = model.OutcomeCorrect
	}
	m.record(round)
	m.sync(after)

	var flashCmd tea.Cmd
	if res.Correct {
		flashCmd = m.showFlash(flash{kind: flashCorrect, points: res.Points}, correctFlashDuration)
	} else {
		flashCmd = m.showFlash(flash{kind: flashWrong}, wrongFlashDuration)
	}
	seq := m.inputSeq
	resetCmd := tea.Tick(m.config.ResetDelay, func(time.Time) tea.Msg {
		return resetCalcMsg{seq: seq}
	})
	return tea.Batch(flashCmd, resetCmd)
}

// sync adopts a fresh snapshot, recording any expiry that happened since the
// previous one.
func (m *Model) sync(next game.State) {
	missed := next.Timeouts - m.state.Timeouts
	if missed > 0 && m.state.Challenge != nil {
		m.record(model.Round{
			GameID:     m.gameID,
			Expression: m.state.Challenge.Expression,
			Op:         m.state.Challenge.Op,
			Answer:     m.state.Challenge.Answer,
			Outcome:    model.OutcomeTimeout,
			Level:      m.state.Level,
			At:         time.Now(),
		})
		if missed > 1 {
			m.logger.Warn("several challenges expired between polls", zap.Int("missed", missed))
		}
	}
	m.state = next
}

func (m *Model) record(r model.Round) {
	if m.log == nil {
		return
	}
	ctx := context.Background()
	if _, err := m.log.RecordRound(ctx, r); err != nil {
		m.logger.Warn("failed to record round", zap.Error(err))
		return
	}
	recent, err := m.log.RecentRounds(ctx, m.gameID, m.config.Recent)
	if err != nil {
		m.logger.Warn("failed to load recent rounds", zap.Error(err))
		return
	}
	m.rounds.SetRows(roundRows(recent))
}

func (m *Model) showFlash(f flash, d time.Duration) tea.Cmd {
	m.flashSeq++
	m.flash = f
	seq := m.flashSeq
	return tea.Tick(d, func(time.Time) tea.Msg {
		return flashExpiredMsg{seq: seq}
	})
}

func (m *Model) quit() {
	if m.quitting {
		return
	}
	m.quitting = true
	m.game.StopGame()
	m.game.Cleanup()
	m.sync(m.game.GetState())
}

func errorText(err error) string {
	switch {
	case errors.Is(err, calculator.ErrDivisionByZero):
		return "Cannot divide by zero"
	case errors.Is(err, calculator.ErrNonFinite):
		return "Result too large"
	default:
		return "Invalid input"
	}
}
