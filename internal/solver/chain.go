// Package solver holds the deterministic fast-path solvers and the ordered
// chain that tries them before any external service is consulted.
package solver

import (
	"go.uber.org/zap"

	"github.com/math-agent/backend/pkg/logger"
)

// Solver is one pure fast-path solver. A false return means "no match",
// structurally distinct from a matched empty answer.
type Solver interface {
	Source() string
	Solve(question string) (string, bool)
}

// Step pairs a solver with an optional gate the caller evaluates before the
// solver runs. The router uses this for the non-linear guard in front of
// the linear solver.
type Step struct {
	Solver Solver
	Gate   func(question string) bool
}

// Chain tries its steps in order and returns the first match. A panicking
// solver is logged and treated as a non-match; the chain continues.
type Chain struct {
	steps []Step
}

func NewChain(steps ...Step) *Chain {
	return &Chain{steps: steps}
}

func (c *Chain) Solve(question string) (answer, source string, ok bool) {
	for _, step := range c.steps {
		if step.Gate != nil && !step.Gate(question) {
			continue
		}
		if ans, matched := c.trySolve(step.Solver, question); matched {
			return ans, step.Solver.Source(), true
		}
	}
	return "", "", false
}

func (c *Chain) trySolve(s Solver, question string) (answer string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Solver panicked, treating as non-match",
				zap.String("source", s.Source()),
				zap.Any("panic", r),
			)
			answer, ok = "", false
		}
	}()
	return s.Solve(question)
}
