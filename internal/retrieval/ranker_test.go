package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/math-agent/backend/internal/knowledge"
)

type mockEmbedder struct {
	embedFunc func(ctx context.Context, text string) ([]float32, error)
	calls     int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.calls++
	if m.embedFunc != nil {
		return m.embedFunc(ctx, text)
	}
	return []float32{0.1, 0.2}, nil
}

type mockStore struct {
	searchFunc func(ctx context.Context, vector []float32, topK int) ([]knowledge.Hit, error)
	calls      int
	lastTopK   int
}

func (m *mockStore) Search(ctx context.Context, vector []float32, topK int) ([]knowledge.Hit, error) {
	m.calls++
	m.lastTopK = topK
	return m.searchFunc(ctx, vector, topK)
}

func hit(id string, score float32, prov knowledge.Provenance, deprecated bool) knowledge.Hit {
	return knowledge.Hit{
		Entry: knowledge.Entry{
			ID:         id,
			Question:   "q-" + id,
			Answer:     "a-" + id,
			Provenance: prov,
			Deprecated: deprecated,
		},
		Score: score,
	}
}

func TestRankConfidentHit(t *testing.T) {
	store := &mockStore{searchFunc: func(ctx context.Context, v []float32, k int) ([]knowledge.Hit, error) {
		return []knowledge.Hit{hit("e1", 0.9, knowledge.ProvenanceSeed, false)}, nil
	}}

	r := NewRanker(&mockEmbedder{}, store)

	out, err := r.Rank(context.Background(), "q")
	if err != nil {
		t.Fatalf("Rank returned error: %v", err)
	}
	if !out.Confident || out.Answer != "a-e1" {
		t.Fatalf("Rank = %+v, want confident answer a-e1", out)
	}
	if store.lastTopK != TopK {
		t.Errorf("search topK = %d, want %d", store.lastTopK, TopK)
	}
}

// Deprecated entries never answer, whatever their raw score.
func TestRankFiltersDeprecated(t *testing.T) {
	store := &mockStore{searchFunc: func(ctx context.Context, v []float32, k int) ([]knowledge.Hit, error) {
		return []knowledge.Hit{
			hit("dead", 0.95, knowledge.ProvenanceSeed, true),
			hit("live", 0.5, knowledge.ProvenanceSeed, false),
		}, nil
	}}

	r := NewRanker(&mockEmbedder{}, store)

	out, err := r.Rank(context.Background(), "q")
	if err != nil {
		t.Fatalf("Rank returned error: %v", err)
	}
	if out.Confident {
		t.Fatal("Rank confident on deprecated entry")
	}
	if len(out.Context) != 1 || out.Context[0].ID != "live" {
		t.Fatalf("Context = %+v, want only the live entry", out.Context)
	}
}

// A correction at 0.65 raw outranks a seed at 0.80 once boosted, and the
// boost alone can push it over the confidence threshold.
func TestRankBoostsHumanFeedback(t *testing.T) {
	store := &mockStore{searchFunc: func(ctx context.Context, v []float32, k int) ([]knowledge.Hit, error) {
		return []knowledge.Hit{
			hit("seed", 0.80, knowledge.ProvenanceSeed, false),
			hit("corr", 0.65, knowledge.ProvenanceHumanFeedback, false),
		}, nil
	}}

	r := NewRanker(&mockEmbedder{}, store)

	out, err := r.Rank(context.Background(), "q")
	if err != nil {
		t.Fatalf("Rank returned error: %v", err)
	}
	if !out.Confident || out.Answer != "a-corr" {
		t.Fatalf("Rank = %+v, want confident corrected answer", out)
	}
}

// The threshold is strict: exactly 0.85 is not confident.
func TestRankThresholdIsStrict(t *testing.T) {
	store := &mockStore{searchFunc: func(ctx context.Context, v []float32, k int) ([]knowledge.Hit, error) {
		return []knowledge.Hit{hit("edge", ConfidenceThreshold, knowledge.ProvenanceSeed, false)}, nil
	}}

	r := NewRanker(&mockEmbedder{}, store)

	out, err := r.Rank(context.Background(), "q")
	if err != nil {
		t.Fatalf("Rank returned error: %v", err)
	}
	if out.Confident {
		t.Fatal("Rank confident at exactly the threshold, want strict greater-than")
	}
}

func TestRankEmptyStore(t *testing.T) {
	store := &mockStore{searchFunc: func(ctx context.Context, v []float32, k int) ([]knowledge.Hit, error) {
		return nil, nil
	}}

	r := NewRanker(&mockEmbedder{}, store)

	out, err := r.Rank(context.Background(), "q")
	if err != nil {
		t.Fatalf("Rank returned error: %v", err)
	}
	if out.Confident || len(out.Context) != 0 {
		t.Fatalf("Rank = %+v, want empty context", out)
	}
}

func TestRankCapsContext(t *testing.T) {
	store := &mockStore{searchFunc: func(ctx context.Context, v []float32, k int) ([]knowledge.Hit, error) {
		return []knowledge.Hit{
			hit("a", 0.5, knowledge.ProvenanceSeed, false),
			hit("b", 0.6, knowledge.ProvenanceSeed, false),
			hit("c", 0.4, knowledge.ProvenanceSeed, false),
			hit("d", 0.3, knowledge.ProvenanceSeed, false),
			hit("e", 0.7, knowledge.ProvenanceSeed, false),
		}, nil
	}}

	r := NewRanker(&mockEmbedder{}, store)

	out, err := r.Rank(context.Background(), "q")
	if err != nil {
		t.Fatalf("Rank returned error: %v", err)
	}
	if len(out.Context) != ContextBound {
		t.Fatalf("len(Context) = %d, want %d", len(out.Context), ContextBound)
	}
	if out.Context[0].ID != "e" || out.Context[1].ID != "b" || out.Context[2].ID != "a" {
		t.Errorf("Context order = %s, %s, %s; want e, b, a",
			out.Context[0].ID, out.Context[1].ID, out.Context[2].ID)
	}
}

func TestRankEmbedErrorPropagates(t *testing.T) {
	wantErr := errors.New("embed down")
	embedder := &mockEmbedder{embedFunc: func(ctx context.Context, text string) ([]float32, error) {
		return nil, wantErr
	}}
	store := &mockStore{searchFunc: func(ctx context.Context, v []float32, k int) ([]knowledge.Hit, error) {
		t.Fatal("store searched despite embed failure")
		return nil, nil
	}}

	r := NewRanker(embedder, store)

	if _, err := r.Rank(context.Background(), "q"); !errors.Is(err, wantErr) {
		t.Fatalf("Rank error = %v, want %v", err, wantErr)
	}
}

func TestRankSearchErrorPropagates(t *testing.T) {
	wantErr := errors.New("kb down")
	store := &mockStore{searchFunc: func(ctx context.Context, v []float32, k int) ([]knowledge.Hit, error) {
		return nil, wantErr
	}}

	r := NewRanker(&mockEmbedder{}, store)

	if _, err := r.Rank(context.Background(), "q"); !errors.Is(err, wantErr) {
		t.Fatalf("Rank error = %v, want %v", err, wantErr)
	}
}
