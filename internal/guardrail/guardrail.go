// Package guardrail screens raw input before any resolution tier runs.
package guardrail

import (
	"regexp"
	"strings"
)

type Verdict int

const (
	Allowed Verdict = iota
	Blocked
	NotMathDomain
)

func (v Verdict) String() string {
	switch v {
	case Allowed:
		return "allowed"
	case Blocked:
		return "blocked"
	case NotMathDomain:
		return "not_math_domain"
	default:
		return "unknown"
	}
}

// denyList covers instruction-override, jailbreak, and off-task phrases.
// Matching is case-insensitive substring; it runs before domain
// classification so a blocked request never reaches any solver.
var denyList = []string{
	"ignore previous", "system prompt", "change rules", "bypass", "act as",
	"jailbreak", "reveal", "show hidden", "write code", "malware",
	"sql injection", "prompt injection", "delete all", "sudo", "hack",
	"disable filter",
}

var mathKeywords = []string{
	"solve", "equation", "value of", "simplify", "add", "subtract",
	"multiply", "divide", "integrate", "differentiate", "derivative",
	"limit", "function", "geometry", "theorem", "triangle", "circle",
	"area", "perimeter", "algebra", "calculus", "trigonometry", "sin",
	"cos", "tan", "log", "root", "square", "cube", "mean", "median",
	"mode", "probability", "statistics", "vector", "matrix", "formula",
	"radius", "diameter", "volume", "height", "base", "hypotenuse",
	"pythagoras", "slope",
}

// mathPattern matches structural evidence of an expression: operators,
// variable-with-exponent tokens, or digit-operator-digit sequences.
var mathPattern = regexp.MustCompile(`[+\-*/=^]|x\d|x\^|\d+\s*x|\d+\s*[+\-*/]\s*\d+`)

type Filter struct{}

func New() *Filter {
	return &Filter{}
}

// Classify is a pure check with no side effects. The deny list is examined
// first; only allowed, in-domain questions proceed down the pipeline.
func (f *Filter) Classify(question string) (Verdict, string) {
	lower := strings.ToLower(question)

	for _, phrase := range denyList {
		if strings.Contains(lower, phrase) {
			return Blocked, phrase
		}
	}

	for _, word := range mathKeywords {
		if strings.Contains(lower, word) {
			return Allowed, ""
		}
	}
	if mathPattern.MatchString(lower) {
		return Allowed, ""
	}

	return NotMathDomain, ""
}
