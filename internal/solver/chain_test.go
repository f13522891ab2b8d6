package solver

import "testing"

type fakeSolver struct {
	source string
	fn     func(question string) (string, bool)
	calls  int
}

func (f *fakeSolver) Source() string {
	return f.source
}

func (f *fakeSolver) Solve(question string) (string, bool) {
	f.calls++
	return f.fn(question)
}

func TestChainShortCircuits(t *testing.T) {
	first := &fakeSolver{source: "first", fn: func(string) (string, bool) { return "answer", true }}
	second := &fakeSolver{source: "second", fn: func(string) (string, bool) { return "unreached", true }}

	chain := NewChain(Step{Solver: first}, Step{Solver: second})

	answer, source, ok := chain.Solve("q")
	if !ok || answer != "answer" || source != "first" {
		t.Fatalf("Solve = (%q, %q, %v), want (answer, first, true)", answer, source, ok)
	}
	if second.calls != 0 {
		t.Errorf("second solver called %d times, want 0", second.calls)
	}
}

func TestChainFallsThrough(t *testing.T) {
	first := &fakeSolver{source: "first", fn: func(string) (string, bool) { return "", false }}
	second := &fakeSolver{source: "second", fn: func(string) (string, bool) { return "late", true }}

	chain := NewChain(Step{Solver: first}, Step{Solver: second})

	answer, source, ok := chain.Solve("q")
	if !ok || answer != "late" || source != "second" {
		t.Fatalf("Solve = (%q, %q, %v), want (late, second, true)", answer, source, ok)
	}
	if first.calls != 1 {
		t.Errorf("first solver called %d times, want 1", first.calls)
	}
}

func TestChainGateSkipsSolver(t *testing.T) {
	gated := &fakeSolver{source: "gated", fn: func(string) (string, bool) { return "skip me", true }}
	fallback := &fakeSolver{source: "fallback", fn: func(string) (string, bool) { return "taken", true }}

	chain := NewChain(
		Step{Solver: gated, Gate: func(string) bool { return false }},
		Step{Solver: fallback},
	)

	answer, source, ok := chain.Solve("q")
	if !ok || answer != "taken" || source != "fallback" {
		t.Fatalf("Solve = (%q, %q, %v), want (taken, fallback, true)", answer, source, ok)
	}
	if gated.calls != 0 {
		t.Errorf("gated solver called %d times, want 0", gated.calls)
	}
}

func TestChainRecoversPanickingSolver(t *testing.T) {
	angry := &fakeSolver{source: "angry", fn: func(string) (string, bool) { panic("boom") }}
	calm := &fakeSolver{source: "calm", fn: func(string) (string, bool) { return "ok", true }}

	chain := NewChain(Step{Solver: angry}, Step{Solver: calm})

	answer, source, ok := chain.Solve("q")
	if !ok || answer != "ok" || source != "calm" {
		t.Fatalf("Solve = (%q, %q, %v), want (ok, calm, true)", answer, source, ok)
	}
}

func TestChainNoMatch(t *testing.T) {
	chain := NewChain(Step{Solver: &fakeSolver{source: "s", fn: func(string) (string, bool) { return "", false }}})

	if answer, source, ok := chain.Solve("q"); ok {
		t.Fatalf("Solve = (%q, %q, true), want no match", answer, source)
	}
}
