// Package router orders the resolution tiers and short-circuits at the
// first one that produces an answer.
package router

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/math-agent/backend/internal/guardrail"
	"github.com/math-agent/backend/internal/llm"
	"github.com/math-agent/backend/internal/metrics"
	"github.com/math-agent/backend/internal/retrieval"
	"github.com/math-agent/backend/internal/search/web"
	"github.com/math-agent/backend/pkg/logger"
	"github.com/math-agent/backend/pkg/utils"
)

// Answer source tags, one per resolving tier.
const (
	SourceGuardrail  = "guardrail"
	SourceComputed   = "computed"
	SourceSolver     = "solver"
	SourceLookup     = "lookup"
	SourceKB         = "kb"
	SourceGenerative = "generative"
	SourceFallback   = "fallback"
)

const (
	blockedMessage    = "Sorry, this request looks unsafe or tries to change system behavior."
	notMathMessage    = "I can only help with math questions. Please ask a math question."
	noBackendMessage  = "I couldn't find this in my knowledge base and no model backend is configured."
	modelErrorMessage = "The model backend is currently unavailable. Please try again later."

	answerCacheTTL = time.Hour
)

// nonLinearPattern gates the linear solver: exponents and squared/cubed
// glyphs mean the equation is out of its reach.
var nonLinearPattern = regexp.MustCompile(`(?i)(\bx\s*\^|\b\d+\s*\^|[²³]|\bx\d)`)

type Answer struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

type Guard interface {
	Classify(question string) (guardrail.Verdict, string)
}

type SolverChain interface {
	Solve(question string) (answer, source string, ok bool)
}

type Ranker interface {
	Rank(ctx context.Context, question string) (retrieval.Outcome, error)
}

// Searcher is the best-effort augmentation tier.
type Searcher interface {
	Search(ctx context.Context, question string, limit int) web.Outcome
}

type Generator interface {
	Answer(ctx context.Context, question string, contextSnippets []string) (string, error)
}

// AnswerCache stores answers from the deterministic tiers only. Knowledge
// base answers are never cached so a deprecation sweep takes effect on the
// next request.
type AnswerCache interface {
	GetAnswer(ctx context.Context, questionHash string, answer interface{}) (bool, error)
	SetAnswer(ctx context.Context, questionHash string, answer interface{}, ttl time.Duration) error
}

// TraceFunc observes tier transitions. Used by the websocket handler to
// stream progress; nil is fine.
type TraceFunc func(tier string)

type Router struct {
	guard       Guard
	solvers     SolverChain
	ranker      Ranker
	searcher    Searcher
	generator   Generator
	cache       AnswerCache
	searchLimit int
}

type Options struct {
	Guard       Guard
	Solvers     SolverChain
	Ranker      Ranker
	Searcher    Searcher
	Generator   Generator
	Cache       AnswerCache
	SearchLimit int
}

func New(opts Options) *Router {
	limit := opts.SearchLimit
	if limit <= 0 {
		limit = retrieval.ContextBound
	}
	return &Router{
		guard:       opts.Guard,
		solvers:     opts.Solvers,
		ranker:      opts.Ranker,
		searcher:    opts.Searcher,
		generator:   opts.Generator,
		cache:       opts.Cache,
		searchLimit: limit,
	}
}

// Route walks the tiers in order. The only error it returns is a retrieval
// failure; everything downstream of retrieval degrades to a fallback answer
// instead of failing the request.
func (r *Router) Route(ctx context.Context, question string, trace TraceFunc) (Answer, error) {
	started := time.Now()
	answer, err := r.route(ctx, question, trace)
	if err != nil {
		return Answer{}, err
	}

	metrics.AnswersTotal.WithLabelValues(answer.Source).Inc()
	metrics.AnswerDuration.WithLabelValues(answer.Source).Observe(time.Since(started).Seconds())

	logger.Info("Question answered",
		zap.String("source", answer.Source),
		zap.Duration("elapsed", time.Since(started)),
	)

	return answer, nil
}

func (r *Router) route(ctx context.Context, question string, trace TraceFunc) (Answer, error) {
	emit(trace, "guardrail")

	verdict, phrase := r.guard.Classify(question)
	switch verdict {
	case guardrail.Blocked:
		metrics.GuardrailBlocked.WithLabelValues(verdict.String()).Inc()
		logger.Warn("Question blocked", zap.String("phrase", phrase))
		return Answer{Source: SourceGuardrail, Text: blockedMessage}, nil
	case guardrail.NotMathDomain:
		metrics.GuardrailBlocked.WithLabelValues(verdict.String()).Inc()
		return Answer{Source: SourceGuardrail, Text: notMathMessage}, nil
	}

	emit(trace, "solver")

	if cached, ok := r.cachedAnswer(ctx, question); ok {
		return cached, nil
	}

	if text, source, ok := r.solvers.Solve(question); ok {
		answer := Answer{Source: source, Text: text}
		r.cacheAnswer(ctx, question, answer)
		return answer, nil
	}

	emit(trace, "kb")

	outcome, err := r.ranker.Rank(ctx, question)
	if err != nil {
		return Answer{}, fmt.Errorf("retrieval failed: %w", err)
	}
	if outcome.Confident {
		return Answer{Source: SourceKB, Text: outcome.Answer}, nil
	}

	emit(trace, "web_search")

	contextSnippets := kbContext(outcome.Context)
	if r.searcher != nil {
		metrics.WebSearchTriggered.Inc()
		result := r.searcher.Search(ctx, question, r.searchLimit)
		for _, s := range result.Snippets {
			contextSnippets = append(contextSnippets, fmt.Sprintf("Source: %s (%s)\n%s", s.Title, s.URL, s.Text))
		}
	}

	emit(trace, "generative")

	text, err := r.generator.Answer(ctx, question, contextSnippets)
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			return Answer{Source: SourceFallback, Text: noBackendMessage}, nil
		}
		logger.Error("Generative tier failed", zap.Error(err))
		return Answer{Source: SourceFallback, Text: modelErrorMessage}, nil
	}

	return Answer{Source: SourceGenerative, Text: text}, nil
}

func emit(trace TraceFunc, tier string) {
	if trace != nil {
		trace(tier)
	}
}

// cacheable reports whether a source is deterministic and safe to serve
// from cache.
func cacheable(source string) bool {
	switch source {
	case SourceComputed, SourceSolver, SourceLookup:
		return true
	}
	return false
}

func (r *Router) cachedAnswer(ctx context.Context, question string) (Answer, bool) {
	if r.cache == nil {
		return Answer{}, false
	}

	var answer Answer
	found, err := r.cache.GetAnswer(ctx, utils.HashString(question), &answer)
	if err != nil {
		logger.Debug("Answer cache lookup failed", zap.Error(err))
		return Answer{}, false
	}
	if !found || !cacheable(answer.Source) {
		return Answer{}, false
	}

	metrics.CacheHits.WithLabelValues("answer").Inc()
	return answer, true
}

func (r *Router) cacheAnswer(ctx context.Context, question string, answer Answer) {
	if r.cache == nil || !cacheable(answer.Source) {
		return
	}

	if err := r.cache.SetAnswer(ctx, utils.HashString(question), answer, answerCacheTTL); err != nil {
		logger.Debug("Answer cache write failed", zap.Error(err))
	}
}

func kbContext(hits []retrieval.RankedHit) []string {
	snippets := make([]string, 0, len(hits))
	for _, hit := range hits {
		snippets = append(snippets, fmt.Sprintf("[%s] Q: %s A: %s", hit.Provenance, hit.Question, hit.Answer))
	}
	return snippets
}

// NonLinearGate is the gate in front of the linear solver step.
func NonLinearGate(question string) bool {
	return !nonLinearPattern.MatchString(question)
}
