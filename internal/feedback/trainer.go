// Package feedback records user verdicts on served answers and promotes
// corrections into the knowledge base.
package feedback

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/math-agent/backend/internal/knowledge"
	"github.com/math-agent/backend/internal/metrics"
	"github.com/math-agent/backend/internal/storage/models"
	"github.com/math-agent/backend/pkg/logger"
)

const (
	// NeighborCount is how many existing entries the deprecation sweep
	// inspects around a fresh correction.
	NeighborCount = 6
	// DeprecationThreshold: neighbors strictly above this similarity are
	// considered the same question and get tombstoned.
	DeprecationThreshold = 0.7
)

// Store is the write side of the knowledge base.
type Store interface {
	Upsert(ctx context.Context, entries []knowledge.Entry) error
	Search(ctx context.Context, vector []float32, topK int) ([]knowledge.Hit, error)
	MarkDeprecated(ctx context.Context, id string) error
}

// DB is the feedback audit log.
type DB interface {
	SaveFeedback(fb *models.Feedback) (int64, error)
	AllFeedback() ([]models.Feedback, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Trainer struct {
	db       DB
	store    Store
	embedder Embedder
}

func NewTrainer(db DB, store Store, embedder Embedder) *Trainer {
	return &Trainer{
		db:       db,
		store:    store,
		embedder: embedder,
	}
}

// RecordRating stores a plain helpful / not-helpful verdict. No knowledge
// base write happens here; corrections go through Train.
func (t *Trainer) RecordRating(question, answer string, helpful bool, comment string) (int64, error) {
	id, err := t.db.SaveFeedback(&models.Feedback{
		Question: question,
		Answer:   answer,
		Helpful:  helpful,
		Comment:  comment,
	})
	if err != nil {
		return 0, err
	}

	metrics.FeedbackTotal.WithLabelValues(strconv.FormatBool(helpful)).Inc()
	return id, nil
}

// Train applies a user correction: it writes the audit row, embeds the
// question, inserts the corrected answer as a human_feedback entry, then
// best-effort deprecates near-duplicate neighbors. The audit row is written
// first so a failed knowledge base write still leaves a trace.
func (t *Trainer) Train(ctx context.Context, question, correctedAnswer, comment string) (int64, error) {
	feedbackID, err := t.db.SaveFeedback(&models.Feedback{
		Question:        question,
		Helpful:         false,
		CorrectedAnswer: correctedAnswer,
		Comment:         comment,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to record correction: %w", err)
	}

	metrics.FeedbackTotal.WithLabelValues("false").Inc()

	vector, err := t.embedder.Embed(ctx, question)
	if err != nil {
		return feedbackID, fmt.Errorf("failed to embed correction: %w", err)
	}

	entry := knowledge.Entry{
		ID:         uuid.NewString(),
		Vector:     vector,
		Question:   question,
		Answer:     correctedAnswer,
		Provenance: knowledge.ProvenanceHumanFeedback,
		FeedbackID: feedbackID,
		Comment:    comment,
	}

	if err := t.store.Upsert(ctx, []knowledge.Entry{entry}); err != nil {
		return feedbackID, fmt.Errorf("failed to store correction: %w", err)
	}

	logger.Info("Correction stored",
		zap.String("entry_id", entry.ID),
		zap.Int64("feedback_id", feedbackID),
	)

	t.sweepNeighbors(ctx, entry.ID, vector)

	return feedbackID, nil
}

// sweepNeighbors tombstones entries that look like the question just
// corrected. Any failure is logged and swallowed; the correction itself is
// already committed.
func (t *Trainer) sweepNeighbors(ctx context.Context, selfID string, vector []float32) {
	hits, err := t.store.Search(ctx, vector, NeighborCount)
	if err != nil {
		logger.Warn("Deprecation sweep search failed", zap.Error(err))
		return
	}

	deprecated := 0
	for _, hit := range hits {
		if hit.ID == selfID {
			continue
		}
		if hit.Score <= DeprecationThreshold {
			continue
		}
		if hit.Deprecated {
			continue
		}

		if err := t.store.MarkDeprecated(ctx, hit.ID); err != nil {
			logger.Warn("Failed to deprecate entry",
				zap.String("entry_id", hit.ID),
				zap.Error(err),
			)
			continue
		}

		metrics.EntriesDeprecated.Inc()
		deprecated++
	}

	if deprecated > 0 {
		logger.Info("Deprecation sweep completed",
			zap.String("entry_id", selfID),
			zap.Int("deprecated", deprecated),
		)
	}
}

// History returns the full audit log, newest first.
func (t *Trainer) History() ([]models.Feedback, error) {
	return t.db.AllFeedback()
}
