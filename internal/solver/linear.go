package solver

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// Rejects anything that looks non-linear once spaces are stripped:
	// carets, superscript digits, or a variable immediately followed by
	// a digit.
	nonLinearTerm = regexp.MustCompile(`(?i)(\^|[²³]|x\d)`)

	bareVariable = regexp.MustCompile(`(^|[+\-])x`)
	coefficient  = regexp.MustCompile(`([+\-]?\d+(?:\.\d+)?)x`)
	constantTerm = regexp.MustCompile(`[+\-]?\d+(?:\.\d+)?`)
)

// Linear solves single-variable equations of the form ax + b = c, such as
// "2x + 5 = 15" or "x - 3 = 2". It is deliberately conservative: exactly
// one equality sign, one variable symbol, a numeric right-hand side, and
// nothing that hints at a higher degree.
type Linear struct{}

func (Linear) Source() string {
	return "solver"
}

func (Linear) Solve(question string) (string, bool) {
	t := strings.ReplaceAll(strings.TrimSpace(question), " ", "")
	if !strings.Contains(t, "=") || !strings.Contains(strings.ToLower(t), "x") {
		return "", false
	}
	if nonLinearTerm.MatchString(t) {
		return "", false
	}
	if strings.Count(t, "=") != 1 || strings.Count(strings.ToLower(t), "x") != 1 {
		return "", false
	}

	parts := strings.SplitN(t, "=", 2)
	left := strings.ReplaceAll(parts[0], "X", "x")
	right := parts[1]

	// A bare or signed variable carries an implicit coefficient of 1.
	left = bareVariable.ReplaceAllString(left, "${1}1x")

	loc := coefficient.FindStringSubmatchIndex(left)
	if loc == nil {
		return "", false
	}
	a, err := strconv.ParseFloat(left[loc[2]:loc[3]], 64)
	if err != nil || a == 0 {
		return "", false
	}

	// Sum the remaining constants on the variable's side.
	remainder := left[:loc[0]] + left[loc[1]:]
	var b float64
	for _, c := range constantTerm.FindAllString(remainder, -1) {
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return "", false
		}
		b += v
	}

	// The opposite side must be a bare numeral with no variable.
	if strings.Contains(strings.ToLower(right), "x") {
		return "", false
	}
	c, err := strconv.ParseFloat(right, 64)
	if err != nil {
		return "", false
	}

	x := (c - b) / a
	return "x = " + formatNumber(x), true
}
