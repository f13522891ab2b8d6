// Package milvus implements the knowledge-base vector store: one collection
// of fixed-dimension vectors under cosine similarity, upsert keyed by id.
package milvus

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"

	"github.com/math-agent/backend/internal/knowledge"
	"github.com/math-agent/backend/pkg/logger"
)

var outputFields = []string{"id", "question", "answer", "provenance", "deprecated", "feedback_id", "comment"}

type Client struct {
	client         client.Client
	collectionName string
	vectorDim      int
}

func NewClient(endpoint, collectionName string, vectorDim int) (*Client, error) {
	c, err := client.NewGrpcClient(context.Background(), endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	logger.Info("Milvus client initialized",
		zap.String("endpoint", endpoint),
		zap.String("collection", collectionName),
		zap.Int("dim", vectorDim),
	)

	return &Client{
		client:         c,
		collectionName: collectionName,
		vectorDim:      vectorDim,
	}, nil
}

func (m *Client) Close() error {
	return m.client.Close()
}

func (m *Client) Collections(ctx context.Context) ([]string, error) {
	colls, err := m.client.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	names := make([]string, 0, len(colls))
	for _, c := range colls {
		names = append(names, c.Name)
	}
	return names, nil
}

// EnsureCollection creates, indexes, and loads the KB collection. Calling
// it against an existing collection is a no-op.
func (m *Client) EnsureCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, m.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if has {
		logger.Info("Collection already exists", zap.String("collection", m.collectionName))
		return nil
	}

	schema := &entity.Schema{
		CollectionName: m.collectionName,
		Description:    "Math knowledge-base entries",
		Fields: []*entity.Field{
			{
				Name:       "id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "embedding",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", m.vectorDim),
				},
			},
			{
				Name:     "question",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "2048",
				},
			},
			{
				Name:     "answer",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "4096",
				},
			},
			{
				Name:     "provenance",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "32",
				},
			},
			{
				Name:     "deprecated",
				DataType: entity.FieldTypeBool,
			},
			{
				Name:     "feedback_id",
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:     "comment",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "1024",
				},
			},
		},
	}

	err = m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := entity.NewIndexIvfFlat(entity.COSINE, 1024)
	if err != nil {
		return fmt.Errorf("failed to build index spec: %w", err)
	}
	err = m.client.CreateIndex(ctx, m.collectionName, "embedding", idx, false)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	err = m.client.LoadCollection(ctx, m.collectionName, false)
	if err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	logger.Info("Collection created and loaded", zap.String("collection", m.collectionName))

	return nil
}

// Upsert inserts or replaces entries keyed by id.
func (m *Client) Upsert(ctx context.Context, entries []knowledge.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	ids := make([]string, len(entries))
	embeddings := make([][]float32, len(entries))
	questions := make([]string, len(entries))
	answers := make([]string, len(entries))
	provenances := make([]string, len(entries))
	deprecated := make([]bool, len(entries))
	feedbackIDs := make([]int64, len(entries))
	comments := make([]string, len(entries))

	for i, e := range entries {
		if !e.Provenance.Valid() {
			return fmt.Errorf("invalid provenance %q for entry %s", e.Provenance, e.ID)
		}
		if len(e.Vector) != m.vectorDim {
			return fmt.Errorf("entry %s has vector dim %d, want %d", e.ID, len(e.Vector), m.vectorDim)
		}
		ids[i] = e.ID
		embeddings[i] = e.Vector
		questions[i] = e.Question
		answers[i] = e.Answer
		provenances[i] = string(e.Provenance)
		deprecated[i] = e.Deprecated
		feedbackIDs[i] = e.FeedbackID
		comments[i] = e.Comment
	}

	_, err := m.client.Upsert(
		ctx,
		m.collectionName,
		"",
		entity.NewColumnVarChar("id", ids),
		entity.NewColumnFloatVector("embedding", m.vectorDim, embeddings),
		entity.NewColumnVarChar("question", questions),
		entity.NewColumnVarChar("answer", answers),
		entity.NewColumnVarChar("provenance", provenances),
		entity.NewColumnBool("deprecated", deprecated),
		entity.NewColumnInt64("feedback_id", feedbackIDs),
		entity.NewColumnVarChar("comment", comments),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert entries: %w", err)
	}

	err = m.client.Flush(ctx, m.collectionName, false)
	if err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}

	logger.Info("Entries upserted into KB", zap.Int("count", len(entries)))

	return nil
}

// Search returns the topK nearest neighbors by cosine similarity. Hits
// include deprecated entries; filtering them is the ranker's job.
func (m *Client) Search(ctx context.Context, vector []float32, topK int) ([]knowledge.Hit, error) {
	sp, _ := entity.NewIndexIvfFlatSearchParam(16)

	searchResult, err := m.client.Search(
		ctx,
		m.collectionName,
		[]string{},
		"",
		outputFields,
		[]entity.Vector{entity.FloatVector(vector)},
		"embedding",
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	hits := make([]knowledge.Hit, 0)
	for _, sr := range searchResult {
		for i := 0; i < sr.ResultCount; i++ {
			entry, err := entryFromColumns(sr.Fields, i)
			if err != nil {
				return nil, err
			}
			hits = append(hits, knowledge.Hit{Entry: entry, Score: sr.Scores[i]})
		}
	}

	logger.Debug("Vector search completed",
		zap.Int("topK", topK),
		zap.Int("results", len(hits)),
	)

	return hits, nil
}

// MarkDeprecated sets the tombstone flag on one entry. The entry stays in
// the collection for audit; setting the flag twice is a no-op, and nothing
// in this store ever resets it to false.
func (m *Client) MarkDeprecated(ctx context.Context, id string) error {
	rs, err := m.client.Query(
		ctx,
		m.collectionName,
		nil,
		fmt.Sprintf(`id == "%s"`, id),
		append([]string{"embedding"}, outputFields...),
	)
	if err != nil {
		return fmt.Errorf("failed to load entry %s: %w", id, err)
	}

	vecCol, ok := rs.GetColumn("embedding").(*entity.ColumnFloatVector)
	if !ok || vecCol.Len() == 0 {
		return fmt.Errorf("entry %s not found", id)
	}

	entry, err := entryFromColumns(rs, 0)
	if err != nil {
		return err
	}
	entry.Vector = vecCol.Data()[0]
	entry.Deprecated = true

	if err := m.Upsert(ctx, []knowledge.Entry{entry}); err != nil {
		return fmt.Errorf("failed to deprecate entry %s: %w", id, err)
	}

	logger.Info("KB entry deprecated", zap.String("id", id))

	return nil
}

type columnSet interface {
	GetColumn(name string) entity.Column
}

func entryFromColumns(cols columnSet, i int) (knowledge.Entry, error) {
	var e knowledge.Entry

	get := func(name string) (interface{}, error) {
		col := cols.GetColumn(name)
		if col == nil {
			return nil, fmt.Errorf("result missing column %q", name)
		}
		return col.Get(i)
	}

	for _, field := range []struct {
		name   string
		assign func(v interface{}) bool
	}{
		{"id", func(v interface{}) bool { s, ok := v.(string); e.ID = s; return ok }},
		{"question", func(v interface{}) bool { s, ok := v.(string); e.Question = s; return ok }},
		{"answer", func(v interface{}) bool { s, ok := v.(string); e.Answer = s; return ok }},
		{"provenance", func(v interface{}) bool {
			s, ok := v.(string)
			e.Provenance = knowledge.Provenance(s)
			return ok
		}},
		{"deprecated", func(v interface{}) bool { b, ok := v.(bool); e.Deprecated = b; return ok }},
		{"feedback_id", func(v interface{}) bool { n, ok := v.(int64); e.FeedbackID = n; return ok }},
		{"comment", func(v interface{}) bool { s, ok := v.(string); e.Comment = s; return ok }},
	} {
		v, err := get(field.name)
		if err != nil {
			return e, err
		}
		if !field.assign(v) {
			return e, fmt.Errorf("column %q has unexpected type %T", field.name, v)
		}
	}

	return e, nil
}
