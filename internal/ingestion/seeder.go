// Package ingestion loads the seed question set into the knowledge base.
package ingestion

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/math-agent/backend/internal/knowledge"
	"github.com/math-agent/backend/pkg/logger"
)

type Store interface {
	Upsert(ctx context.Context, entries []knowledge.Entry) error
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type sample struct {
	id       string
	question string
	answer   string
}

// Seed ids are stable so re-ingesting upserts instead of duplicating.
var samples = []sample{
	{"seed-1", "What is 2 + 2?", "2 + 2 = 4"},
	{"seed-2", "Solve 2x + 5 = 15", "x = 5"},
	{"seed-3", "What is the square root of 16?", "√16 = 4"},
}

type Seeder struct {
	store    Store
	embedder Embedder
}

func NewSeeder(store Store, embedder Embedder) *Seeder {
	return &Seeder{store: store, embedder: embedder}
}

// Run embeds and upserts all seed samples. Returns how many were written.
func (s *Seeder) Run(ctx context.Context) (int, error) {
	entries := make([]knowledge.Entry, 0, len(samples))
	for _, sm := range samples {
		vector, err := s.embedder.Embed(ctx, sm.question)
		if err != nil {
			return 0, fmt.Errorf("failed to embed seed %q: %w", sm.id, err)
		}

		entries = append(entries, knowledge.Entry{
			ID:         sm.id,
			Vector:     vector,
			Question:   sm.question,
			Answer:     sm.answer,
			Provenance: knowledge.ProvenanceSeed,
		})
	}

	if err := s.store.Upsert(ctx, entries); err != nil {
		return 0, fmt.Errorf("failed to upsert seed entries: %w", err)
	}

	logger.Info("Seed entries ingested", zap.Int("count", len(entries)))
	return len(entries), nil
}
