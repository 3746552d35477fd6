// Package model defines shared data structures.
package model

import "time"

// Operator is one of the four binary arithmetic operators.
type Operator string

const (
	OpAdd Operator = "+"
	OpSub Operator = "-"
	OpMul Operator = "×"
	OpDiv Operator = "÷"
)

// Valid reports whether o is one of the four supported operators.
func (o Operator) Valid() bool {
	switch o {
	case OpAdd, OpSub, OpMul, OpDiv:
		return true
	default:
		return false
	}
}

// Config defines play settings.
type Config struct {
	Seed         int64
	PollInterval time.Duration
	ResetDelay   time.Duration
	LogFile      string
	LogLevel     string
	Recent       int
}

// Outcome classifies how a round ended.
type Outcome string

const (
	OutcomeCorrect Outcome = "correct"
	OutcomeWrong   Outcome = "wrong"
	OutcomeTimeout Outcome = "timeout"
)

// Round captures one submission or expiry against a challenge. Level is the
// level the challenge was posed at; Combo is the streak after the round.
type Round struct {
	GameID        string
	Seq           int
	Expression    string
	Op            Operator
	Answer        float64
	Submitted     *float64
	Outcome       Outcome
	Points        int
	Level         int
	Combo         int
	TimeRemaining int
	At            time.Time
}

// GameSummary aggregates the rounds of a single game.
type GameSummary struct {
	GameID     string
	StartedAt  time.Time
	EndedAt    time.Time
	Rounds     int
	Correct    int
	Wrong      int
	Timeouts   int
	Points     int
	BestCombo  int
	FinalScore int
	FinalLevel int
}

// OperatorAggregate aggregates rounds per challenge operator.
type OperatorAggregate struct {
	Op       Operator
	Correct  int
	Wrong    int
	Timeouts int
	Points   int
}
