package solver

import "testing"

func TestArithmeticSolve(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     string
	}{
		{"plain addition", "3+10", "13"},
		{"wrapped question", "What is 2 + 2?", "4"},
		{"division", "12 / 4", "3"},
		{"multiplication glyph x", "3 x 4", "12"},
		{"multiplication glyph times", "3 × 4", "12"},
		{"division glyph", "10 ÷ 4", "2.5"},
		{"power", "2^10", "1024"},
		{"decimals", "2.5 + 0.5", "3"},
		{"fractional result", "7 / 2", "3.5"},
		{"negative operand", "5 - -3", "8"},
		{"calculate prefix", "Calculate 6*7", "42"},
		{"division by zero", "6/0", "Division by zero error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Arithmetic{}.Solve(tt.question)
			if !ok {
				t.Fatalf("Solve(%q) = no match, want %q", tt.question, tt.want)
			}
			if got != tt.want {
				t.Errorf("Solve(%q) = %q, want %q", tt.question, got, tt.want)
			}
		})
	}
}

func TestArithmeticNonMatches(t *testing.T) {
	questions := []string{
		"solve 2x + 5 = 15",
		"hello there",
		"1 + 2 + 3",
		"derivative of x^2",
		"0 ^ -1", // +Inf, not a usable answer
		"",
	}

	for _, q := range questions {
		if got, ok := (Arithmetic{}).Solve(q); ok {
			t.Errorf("Solve(%q) = %q, want no match", q, got)
		}
	}
}

func TestArithmeticSource(t *testing.T) {
	if got := (Arithmetic{}).Source(); got != "computed" {
		t.Errorf("Source() = %q, want %q", got, "computed")
	}
}
