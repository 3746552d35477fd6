// Package game runs the challenge lifecycle: generation, scoring, levels and
// the per-question countdown.
package game

import (
	"errors"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/calcrush/internal/generator"
)

// TimePerQuestion is the countdown length of every challenge, in seconds.
const TimePerQuestion = 30

const (
	defaultTickInterval = time.Second
	answerTolerance     = 0.001
	maxComboBonus       = 50
	levelUpEvery        = 3
)

// ErrClosed is returned by StartGame after Cleanup.
var ErrClosed = errors.New("game engine is closed")

// Challenge is the problem currently presented to the player.
type Challenge = generator.Challenge

// Result reports the outcome of a submitted answer.
type Result struct {
	Correct bool
	Points  int
}

// State is a point-in-time snapshot of a game.
type State struct {
	Score         int
	Level         int
	Combo         int
	TimeRemaining int
	Challenge     *Challenge
	Active        bool

	// Round counts challenges generated since StartGame.
	Round     int
	Timeouts  int
	BestCombo int
}

// Option configures an Engine.
type Option func(*Engine)

// WithGenerator sets the challenge source.
func WithGenerator(gen *generator.Generator) Option {
	return func(e *Engine) {
		e.gen = gen
	}
}

// WithTickInterval overrides the one-second countdown period.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine owns the game state. All methods are safe for concurrent use; the
// countdown goroutine is the only mutator not driven by a method call.
type Engine struct {
	mu        sync.Mutex
	state     State
	gen       *generator.Generator
	interval  time.Duration
	logger    *zap.Logger
	countdown *countdown
	closed    bool
}

// New returns an idle engine. Call StartGame to begin.
func New(opts ...Option) *Engine {
	e := &Engine{
		state: State{
			Level:         1,
			TimeRemaining: TimePerQuestion,
		},
		interval: defaultTickInterval,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.gen == nil {
		e.gen = generator.NewSeeded(0)
	}
	return e
}

// StartGame resets progress, generates the first challenge and starts the
// countdown.
func (e *Engine) StartGame() error {
	e.stopCountdown()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.state = State{
		Level:  1,
		Active: true,
	}
	e.generateLocked()
	if e.countdown == nil {
		e.countdown = startCountdown(e.interval, e.tick)
	}
	e.logger.Info("game started", zap.String("challenge", e.state.Challenge.Expression))
	return nil
}

// StopGame deactivates the game and cancels the countdown. It returns after
// the countdown goroutine has exited.
func (e *Engine) StopGame() {
	e.mu.Lock()
	wasActive := e.state.Active
	e.state.Active = false
	e.mu.Unlock()

	e.stopCountdown()
	if wasActive {
		e.logger.Info("game stopped")
	}
}

// Cleanup stops the game for good. No state changes after it returns and
// later StartGame calls fail with ErrClosed.
func (e *Engine) Cleanup() {
	e.mu.Lock()
	e.closed = true
	e.state.Active = false
	e.mu.Unlock()

	e.stopCountdown()
}

// GenerateChallenge replaces the current challenge with a new one for the
// current level and resets the countdown.
func (e *Engine) GenerateChallenge() Challenge {
	e.mu.Lock()
	defer e.mu.Unlock()
	return *e.generateLocked()
}

// CheckAnswer scores a submitted answer against the current challenge.
// Without a challenge, or while the game is inactive, it returns a zero
// Result and changes nothing.
func (e *Engine) CheckAnswer(answer float64) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	challenge := e.state.Challenge
	if challenge == nil || !e.state.Active {
		return Result{}
	}
	// Written as !(x < tol) so NaN never counts as a match.
	if !(math.Abs(answer-challenge.Answer) < answerTolerance) {
		e.state.Combo = 0
		e.logger.Debug("wrong answer",
			zap.String("challenge", challenge.Expression),
			zap.Float64("answer", answer))
		return Result{}
	}

	e.state.Combo++
	if e.state.Combo > e.state.BestCombo {
		e.state.BestCombo = e.state.Combo
	}
	points := Points(e.state.Level, e.state.Combo, e.state.TimeRemaining)
	e.state.Score += points
	if e.state.Combo%levelUpEvery == 0 {
		e.state.Level++
		e.logger.Debug("level up", zap.Int("level", e.state.Level))
	}
	e.logger.Debug("correct answer",
		zap.String("challenge", challenge.Expression),
		zap.Int("points", points),
		zap.Int("combo", e.state.Combo))
	e.generateLocked()
	return Result{Correct: true, Points: points}
}

// GetState returns a snapshot that shares no memory with the engine.
func (e *Engine) GetState() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.state
	if s.Challenge != nil {
		c := *s.Challenge
		s.Challenge = &c
	}
	return s
}

// Points computes the reward for a correct answer.
func Points(level, combo, timeRemaining int) int {
	comboBonus := 2 * combo
	if comboBonus > maxComboBonus {
		comboBonus = maxComboBonus
	}
	return 10*level + comboBonus + 2*timeRemaining
}

func (e *Engine) generateLocked() *Challenge {
	c := e.gen.Generate(e.state.Level)
	e.state.Challenge = &c
	e.state.TimeRemaining = TimePerQuestion
	e.state.Round++
	return e.state.Challenge
}

// tick advances the countdown by one second. stop is the owning
// countdown's cancellation channel; a cancelled tick is dropped.
func (e *Engine) tick(stop <-chan struct{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	select {
	case <-stop:
		return
	default:
	}
	if !e.state.Active {
		return
	}
	e.state.TimeRemaining--
	if e.state.TimeRemaining > 0 {
		return
	}
	e.state.TimeRemaining = 0
	e.state.Combo = 0
	e.state.Timeouts++
	if e.state.Challenge != nil {
		e.logger.Debug("challenge expired", zap.String("challenge", e.state.Challenge.Expression))
	}
	e.generateLocked()
}

func (e *Engine) stopCountdown() {
	e.mu.Lock()
	cd := e.countdown
	e.countdown = nil
	e.mu.Unlock()
	if cd != nil {
		cd.cancel()
	}
}
