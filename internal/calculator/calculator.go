// Package calculator implements the keypad calculator used to answer challenges.
//
// Evaluation is strictly left to right: every operator press folds the
// pending operation into the display before arming the next one, so
// "2 + 3 × 4 =" yields 20.
package calculator

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/verte-zerg/calcrush/internal/model"
)

var (
	// ErrDivisionByZero is returned when a fold divides by zero.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrNonFinite is returned when a fold overflows to an infinite value.
	ErrNonFinite = errors.New("result is not finite")
	// ErrUnparseableDisplay is returned when the display is not a number.
	ErrUnparseableDisplay = errors.New("display is not a number")
	// ErrUnknownOperator is returned for operators outside + - × ÷.
	ErrUnknownOperator = errors.New("unknown operator")
)

const initialDisplay = "0"

// pending is the captured left operand and the operator waiting for its
// right operand. Both are present or both are absent.
type pending struct {
	value float64
	op    model.Operator
}

// Engine holds a single calculator's input buffer and pending operation.
// It is not safe for concurrent use.
type Engine struct {
	display           string
	pending           *pending
	waitingForOperand bool
}

// New returns a cleared calculator.
func New() *Engine {
	e := &Engine{}
	e.Clear()
	return e
}

// Display returns the current display buffer.
func (e *Engine) Display() string {
	return e.display
}

// Waiting reports whether the next digit starts a new operand.
func (e *Engine) Waiting() bool {
	return e.waitingForOperand
}

// PendingOperator returns the armed operator, if any.
func (e *Engine) PendingOperator() (model.Operator, bool) {
	if e.pending == nil {
		return "", false
	}
	return e.pending.op, true
}

// InputDigit appends a digit to the display.
func (e *Engine) InputDigit(d byte) error {
	if d < '0' || d > '9' {
		return fmt.Errorf("invalid digit %q", d)
	}
	switch {
	case e.waitingForOperand:
		e.display = string(d)
		e.waitingForOperand = false
	case e.display == initialDisplay:
		e.display = string(d)
	default:
		e.display += string(d)
	}
	return nil
}

// InputDecimal inserts a decimal point unless the display already has one.
func (e *Engine) InputDecimal() {
	if e.waitingForOperand {
		e.display = "0."
		e.waitingForOperand = false
		return
	}
	if !strings.Contains(e.display, ".") {
		e.display += "."
	}
}

// PerformOperation captures or folds the current operand and arms op.
// It returns the captured or folded left operand. On error the calculator
// is left exactly as it was.
func (e *Engine) PerformOperation(op model.Operator) (float64, error) {
	if !op.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownOperator, op)
	}
	current, err := e.parseDisplay()
	if err != nil {
		return 0, err
	}
	if e.pending == nil {
		e.pending = &pending{value: current, op: op}
		e.waitingForOperand = true
		return current, nil
	}
	folded, err := Calculate(e.pending.value, current, e.pending.op)
	if err != nil {
		return 0, err
	}
	e.display = formatNumber(folded)
	e.pending = &pending{value: folded, op: op}
	e.waitingForOperand = true
	return folded, nil
}

// Equals folds any pending operation against the display and returns the
// result. Without a pending operation it returns the parsed display.
// On error the calculator is left exactly as it was.
func (e *Engine) Equals() (float64, error) {
	current, err := e.parseDisplay()
	if err != nil {
		return 0, err
	}
	if e.pending == nil {
		return current, nil
	}
	result, err := Calculate(e.pending.value, current, e.pending.op)
	if err != nil {
		return 0, err
	}
	e.display = formatNumber(result)
	e.pending = nil
	e.waitingForOperand = true
	return result, nil
}

// Clear resets the calculator to its initial state.
func (e *Engine) Clear() {
	e.display = initialDisplay
	e.pending = nil
	e.waitingForOperand = false
}

// Reset is an alias for Clear.
func (e *Engine) Reset() {
	e.Clear()
}

// Backspace removes the last display character. It does nothing while
// waiting for an operand.
func (e *Engine) Backspace() {
	if e.waitingForOperand {
		return
	}
	next := e.display[:len(e.display)-1]
	if next == "" || next == "-" {
		next = initialDisplay
	}
	e.display = next
}

// CurrentValue returns the parsed display, or 0 when it does not parse.
func (e *Engine) CurrentValue() float64 {
	v, err := e.parseDisplay()
	if err != nil {
		return 0
	}
	return v
}

// Calculate applies op to a and b.
func Calculate(a, b float64, op model.Operator) (float64, error) {
	var result float64
	switch op {
	case model.OpAdd:
		result = a + b
	case model.OpSub:
		result = a - b
	case model.OpMul:
		result = a * b
	case model.OpDiv:
		if b == 0 {
			return 0, fmt.Errorf("%v %s %v: %w", a, op, b, ErrDivisionByZero)
		}
		result = a / b
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownOperator, op)
	}
	if math.IsInf(result, 0) || math.IsNaN(result) {
		return 0, fmt.Errorf("%v %s %v: %w", a, op, b, ErrNonFinite)
	}
	return result, nil
}

func (e *Engine) parseDisplay() (float64, error) {
	v, err := strconv.ParseFloat(e.display, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: %q", ErrUnparseableDisplay, e.display)
	}
	return v, nil
}

func formatNumber(v float64) string {
	if v == 0 {
		// Avoid "-0".
		return initialDisplay
	}
	if math.Abs(v) >= 1e21 {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
