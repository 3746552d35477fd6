// Package generator builds arithmetic challenges.
package generator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/verte-zerg/calcrush/internal/model"
)

// Level thresholds for the difficulty tiers.
const (
	EasyMaxLevel   = 3
	MediumMaxLevel = 6
)

var (
	easyOps   = []model.Operator{model.OpAdd, model.OpSub}
	mediumOps = []model.Operator{model.OpAdd, model.OpSub, model.OpMul}
	hardOps   = []model.Operator{model.OpAdd, model.OpSub, model.OpMul, model.OpDiv}
)

// Challenge is a single arithmetic problem. It is never mutated once built.
type Challenge struct {
	Left       int
	Right      int
	Op         model.Operator
	Expression string
	Question   string
	Answer     float64
}

// Generator produces randomized challenges.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator drawing from src.
func New(src rand.Source) *Generator {
	return &Generator{rnd: rand.New(src)}
}

// NewSeeded returns a Generator seeded with seed, or with the current time
// when seed is zero.
func NewSeeded(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return New(rand.NewSource(seed))
}

// Generate builds a challenge for the given level.
func (g *Generator) Generate(level int) Challenge {
	switch {
	case level <= EasyMaxLevel:
		op := easyOps[g.rnd.Intn(len(easyOps))]
		return build(g.between(1, 10), g.between(1, 10), op)
	case level <= MediumMaxLevel:
		op := mediumOps[g.rnd.Intn(len(mediumOps))]
		return build(g.between(1, 50), g.between(1, 50), op)
	default:
		op := hardOps[g.rnd.Intn(len(hardOps))]
		if op == model.OpDiv {
			divisor := g.between(2, 11)
			quotient := g.between(1, 10)
			return build(divisor*quotient, divisor, op)
		}
		return build(g.between(10, 109), g.between(10, 109), op)
	}
}

// between draws uniformly from [lo, hi].
func (g *Generator) between(lo, hi int) int {
	return lo + g.rnd.Intn(hi-lo+1)
}

func build(left, right int, op model.Operator) Challenge {
	expression := fmt.Sprintf("%d %s %d", left, op, right)
	return Challenge{
		Left:       left,
		Right:      right,
		Op:         op,
		Expression: expression,
		Question:   "Solve: " + expression,
		Answer:     answer(left, right, op),
	}
}

func answer(left, right int, op model.Operator) float64 {
	switch op {
	case model.OpAdd:
		return float64(left + right)
	case model.OpSub:
		return float64(left - right)
	case model.OpMul:
		return float64(left * right)
	default:
		return float64(left / right)
	}
}
