// Package retrieval ranks knowledge-base neighbors for a question and
// decides whether the best one is confident enough to answer outright.
package retrieval

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/math-agent/backend/internal/knowledge"
	"github.com/math-agent/backend/internal/metrics"
	"github.com/math-agent/backend/pkg/logger"
)

const (
	// TopK neighbors fetched per question.
	TopK = 10
	// FeedbackBoost is added to the raw similarity of human_feedback entries.
	FeedbackBoost = 0.25
	// ConfidenceThreshold is the adjusted score above which a hit answers
	// the question without any further tier.
	ConfidenceThreshold = 0.85
	// ContextBound caps how many ranked hits are handed to the generative
	// tier as hints.
	ContextBound = 3
)

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store is the read side of the knowledge base.
type Store interface {
	Search(ctx context.Context, vector []float32, topK int) ([]knowledge.Hit, error)
}

// RankedHit is a hit with its boost-adjusted score. It lives only for the
// duration of one request.
type RankedHit struct {
	knowledge.Hit
	Adjusted float32
}

// Outcome is either a confident answer or an ordered context for the
// generative tier. An empty neighbor set yields an empty context, not an
// error.
type Outcome struct {
	Confident bool
	Answer    string
	Context   []RankedHit
}

type Ranker struct {
	embedder Embedder
	store    Store
}

func NewRanker(embedder Embedder, store Store) *Ranker {
	return &Ranker{embedder: embedder, store: store}
}

// Rank embeds the question, fetches neighbors, drops deprecated entries,
// boosts human-feedback provenance, and applies the confidence threshold.
// Embedder or store failures are returned, not degraded: there is no
// cheaper tier to fall back to below retrieval.
func (r *Ranker) Rank(ctx context.Context, question string) (Outcome, error) {
	vector, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to embed question: %w", err)
	}

	hits, err := r.store.Search(ctx, vector, TopK)
	if err != nil {
		return Outcome{}, fmt.Errorf("kb search failed: %w", err)
	}

	ranked := make([]RankedHit, 0, len(hits))
	for _, h := range hits {
		if h.Deprecated {
			continue
		}
		adjusted := h.Score
		if h.Provenance == knowledge.ProvenanceHumanFeedback {
			adjusted += FeedbackBoost
		}
		ranked = append(ranked, RankedHit{Hit: h, Adjusted: adjusted})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Adjusted > ranked[j].Adjusted
	})

	if len(ranked) > 0 {
		metrics.RetrievalConfidence.Observe(float64(ranked[0].Adjusted))
	}

	if len(ranked) > 0 && ranked[0].Adjusted > ConfidenceThreshold {
		logger.Info("Confident KB hit",
			zap.String("id", ranked[0].ID),
			zap.Float32("adjusted", ranked[0].Adjusted),
			zap.String("provenance", string(ranked[0].Provenance)),
		)
		return Outcome{Confident: true, Answer: ranked[0].Answer}, nil
	}

	if len(ranked) > ContextBound {
		ranked = ranked[:ContextBound]
	}

	logger.Debug("KB inconclusive, returning context",
		zap.Int("candidates", len(ranked)),
	)

	return Outcome{Context: ranked}, nil
}
