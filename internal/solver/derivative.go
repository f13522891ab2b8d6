package solver

import "strings"

// derivativeTable holds the only forms this tier knows. It is a lookup,
// not a symbolic differentiator: anything outside the table falls through.
var derivativeTable = []struct {
	forms  []string
	answer string
}{
	{[]string{"x^2", "x**2"}, "Derivative of x^2 is 2x"},
	{[]string{"x^3", "x**3"}, "Derivative of x^3 is 3x^2"},
	{[]string{"sin(x)", "sinx"}, "Derivative of sin(x) is cos(x)"},
	{[]string{"cos(x)", "cosx"}, "Derivative of cos(x) is -sin(x)"},
	{[]string{"ln(x)", "log(x)"}, "Derivative of ln(x) is 1/x"},
}

// Derivative answers canonical derivative-lookup questions such as
// "derivative of x^2" or "d/dx sin(x)".
type Derivative struct{}

func (Derivative) Source() string {
	return "lookup"
}

func (Derivative) Solve(question string) (string, bool) {
	t := strings.ReplaceAll(strings.ToLower(question), " ", "")

	if !strings.Contains(t, "d/dx") && !strings.HasPrefix(t, "derivative") && !strings.HasPrefix(t, "deriv") {
		return "", false
	}

	for _, entry := range derivativeTable {
		for _, form := range entry.forms {
			if strings.Contains(t, form) {
				return entry.answer, true
			}
		}
	}

	return "", false
}
