package calculator

import (
	"fmt"

	"github.com/verte-zerg/calcrush/internal/model"
)

// ActionKind identifies one of the calculator inputs.
type ActionKind int

const (
	ActionDigit ActionKind = iota + 1
	ActionDecimal
	ActionOperator
	ActionEquals
	ActionBackspace
	ActionClear
)

// Action is a single discrete calculator input.
type Action struct {
	Kind  ActionKind
	Digit byte
	Op    model.Operator
}

// ParseKey maps a key name to a calculator action. Only digits, ".",
// "+", "-", "*", "/", "×", "÷", "=", "enter", "backspace", "esc", "escape",
// "c" and "C" are recognized.
func ParseKey(key string) (Action, bool) {
	if len(key) == 1 && key[0] >= '0' && key[0] <= '9' {
		return Action{Kind: ActionDigit, Digit: key[0]}, true
	}
	switch key {
	case ".":
		return Action{Kind: ActionDecimal}, true
	case "+":
		return Action{Kind: ActionOperator, Op: model.OpAdd}, true
	case "-":
		return Action{Kind: ActionOperator, Op: model.OpSub}, true
	case "*", "×":
		return Action{Kind: ActionOperator, Op: model.OpMul}, true
	case "/", "÷":
		return Action{Kind: ActionOperator, Op: model.OpDiv}, true
	case "=", "enter":
		return Action{Kind: ActionEquals}, true
	case "backspace":
		return Action{Kind: ActionBackspace}, true
	case "esc", "escape", "c", "C":
		return Action{Kind: ActionClear}, true
	}
	return Action{}, false
}

// ParseSequence splits a compact expression such as "12+3*4=" into actions.
// Spaces are ignored; "C" clears and "<" is a backspace.
func ParseSequence(seq string) ([]Action, error) {
	actions := make([]Action, 0, len(seq))
	for _, r := range seq {
		key := string(r)
		switch r {
		case ' ', '\t':
			continue
		case '<':
			key = "backspace"
		}
		action, ok := ParseKey(key)
		if !ok {
			return nil, fmt.Errorf("unrecognized key %q", r)
		}
		actions = append(actions, action)
	}
	return actions, nil
}

// Apply feeds an action into the engine. The returned bool is true when the
// action was an equals that produced a result worth submitting.
func (e *Engine) Apply(a Action) (float64, bool, error) {
	switch a.Kind {
	case ActionDigit:
		return 0, false, e.InputDigit(a.Digit)
	case ActionDecimal:
		e.InputDecimal()
	case ActionOperator:
		if _, err := e.PerformOperation(a.Op); err != nil {
			return 0, false, err
		}
	case ActionEquals:
		v, err := e.Equals()
		if err != nil {
			return 0, false, err
		}
		return v, true, nil
	case ActionBackspace:
		e.Backspace()
	case ActionClear:
		e.Clear()
	default:
		return 0, false, fmt.Errorf("unknown action kind %d", a.Kind)
	}
	return 0, false, nil
}
