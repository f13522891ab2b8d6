package solver

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// arithmeticPattern matches exactly one two-operand expression after
// normalization. Multiplication glyphs (×, x, X) are rewritten to * first.
var arithmeticPattern = regexp.MustCompile(`^\s*([-+]?\d+(?:\.\d+)?|\.\d+)\s*([+\-*/^])\s*([-+]?\d+(?:\.\d+)?|\.\d+)\s*$`)

var multiplyGlyphs = strings.NewReplacer("×", "*", "÷", "/", "X", "*", "x", "*")

var questionPrefixes = []string{
	"what is", "what's", "calculate", "compute", "evaluate", "how much is",
}

// stripQuestionWrapper removes a leading interrogative phrase and trailing
// punctuation so "What is 2 + 2?" reduces to the bare expression.
func stripQuestionWrapper(text string) string {
	t := strings.TrimSpace(text)
	lower := strings.ToLower(t)
	for _, prefix := range questionPrefixes {
		if strings.HasPrefix(lower, prefix) {
			t = strings.TrimSpace(t[len(prefix):])
			break
		}
	}
	return strings.TrimRight(t, " ?=.")
}

// Arithmetic evaluates a single binary expression such as "3+10" or
// "12 / 4". Division by zero answers with a textual error; non-finite
// results (0^-1 and friends) are treated as non-matches.
type Arithmetic struct{}

func (Arithmetic) Source() string {
	return "computed"
}

func (Arithmetic) Solve(question string) (string, bool) {
	t := multiplyGlyphs.Replace(stripQuestionWrapper(question))

	m := arithmeticPattern.FindStringSubmatch(t)
	if m == nil {
		return "", false
	}

	a, errA := strconv.ParseFloat(m[1], 64)
	b, errB := strconv.ParseFloat(m[3], 64)
	if errA != nil || errB != nil {
		return "", false
	}

	var res float64
	switch m[2] {
	case "+":
		res = a + b
	case "-":
		res = a - b
	case "*":
		res = a * b
	case "/":
		if b == 0 {
			return "Division by zero error", true
		}
		res = a / b
	case "^":
		res = math.Pow(a, b)
	default:
		return "", false
	}

	if math.IsInf(res, 0) || math.IsNaN(res) {
		return "", false
	}

	return formatNumber(res), true
}

// formatNumber renders integral values without a decimal point and
// everything else as a terminating decimal numeral.
func formatNumber(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
