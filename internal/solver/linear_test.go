package solver

import "testing"

func TestLinearSolve(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     string
	}{
		{"coefficient and constant", "2x + 5 = 15", "x = 5"},
		{"bare variable", "x - 3 = 2", "x = 5"},
		{"uppercase variable", "X + 1 = 3", "x = 2"},
		{"negative coefficient", "-2x = 4", "x = -2"},
		{"no constant", "3x = 9", "x = 3"},
		{"fractional root", "2x = 5", "x = 2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Linear{}.Solve(tt.question)
			if !ok {
				t.Fatalf("Solve(%q) = no match, want %q", tt.question, tt.want)
			}
			if got != tt.want {
				t.Errorf("Solve(%q) = %q, want %q", tt.question, got, tt.want)
			}
		})
	}
}

func TestLinearNonMatches(t *testing.T) {
	questions := []string{
		"x^2 = 4",       // caret
		"x² = 4",        // superscript glyph
		"x2 = 4",        // variable immediately followed by digit
		"x + x = 2",     // more than one variable symbol
		"2x + 5 = 15 = 3",
		"x = y",
		"5 = 5",
		"2 + 2",
		"",
	}

	for _, q := range questions {
		if got, ok := (Linear{}).Solve(q); ok {
			t.Errorf("Solve(%q) = %q, want no match", q, got)
		}
	}
}

func TestLinearSource(t *testing.T) {
	if got := (Linear{}).Source(); got != "solver" {
		t.Errorf("Source() = %q, want %q", got, "solver")
	}
}
