package vectorstore

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docs-agent/internal/models"
)

// fakeEmbedder returns deterministic vectors; explicit vectors can be
// pinned per text to control similarity ordering.
type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.embed(t)
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return f.embed(text), nil
}

func (f *fakeEmbedder) embed(text string) []float32 {
	if v, ok := f.vectors[text]; ok {
		return v
	}
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()
	vec := make([]float32, 8)
	var norm float64
	for i := range vec {
		seed = seed*1664525 + 1013904223
		vec[i] = float32(seed%1000)/1000.0 + 0.01
		norm += float64(vec[i]) * float64(vec[i])
	}
	n := float32(math.Sqrt(norm))
	for i := range vec {
		vec[i] /= n
	}
	return vec
}

// failEmbedder fails document embedding but not query embedding, so a
// failed rebuild can be observed against a still-working index.
type failEmbedder struct {
	fakeEmbedder
}

func (f *failEmbedder) EmbedDocuments(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("embedding backend unreachable")
}

func axis(i int) []float32 {
	v := make([]float32, 8)
	v[i] = 1
	return v
}

func testChunks() []models.Chunk {
	return []models.Chunk{
		{Text: "LangGraph uses a StateGraph to define nodes.", Source: "langgraph-llms.txt", Sequence: 0},
		{Text: "LangChain chains compose LLM calls.", Source: "langchain-llms.txt", Sequence: 0},
	}
}

func TestOpenWithoutIndex(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "idx"), "docs", &fakeEmbedder{})
	err := s.Open()
	require.ErrorIs(t, err, ErrIndexNotFound)
}

func TestRebuildAndQuery(t *testing.T) {
	ctx := context.Background()
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"LangGraph uses a StateGraph to define nodes.": axis(0),
		"LangChain chains compose LLM calls.":          axis(1),
		"What does LangGraph use to define nodes?":     axis(0),
	}}
	s := New(filepath.Join(t.TempDir(), "idx"), "docs", emb)

	require.NoError(t, s.Rebuild(ctx, testChunks()))
	assert.Equal(t, 2, s.Count())

	got, err := s.Query(ctx, "What does LangGraph use to define nodes?", 4)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "langgraph-llms.txt", got[0].Source)
	assert.Equal(t, 0, got[0].Sequence)
	assert.Contains(t, got[0].Text, "StateGraph")
	assert.GreaterOrEqual(t, got[0].Similarity, got[1].Similarity)
}

func TestRebuildReplacesPreviousChunks(t *testing.T) {
	ctx := context.Background()
	s := New(filepath.Join(t.TempDir(), "idx"), "docs", &fakeEmbedder{})

	require.NoError(t, s.Rebuild(ctx, []models.Chunk{
		{Text: "old content about graphs", Source: "old.txt", Sequence: 0},
	}))
	require.NoError(t, s.Rebuild(ctx, []models.Chunk{
		{Text: "new content about agents", Source: "new.txt", Sequence: 0},
	}))

	got, err := s.Query(ctx, "anything", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new.txt", got[0].Source)
}

func TestQueryEmptyIndex(t *testing.T) {
	ctx := context.Background()
	s := New(filepath.Join(t.TempDir(), "idx"), "docs", &fakeEmbedder{})

	require.NoError(t, s.Rebuild(ctx, nil))

	got, err := s.Query(ctx, "anything", 4)
	require.NoError(t, err)
	assert.Empty(t, got)

	// an empty collection does not satisfy the open precondition
	fresh := New(s.path, "docs", &fakeEmbedder{})
	require.ErrorIs(t, fresh.Open(), ErrIndexNotFound)
}

func TestQueryWithoutOpen(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "idx"), "docs", &fakeEmbedder{})
	_, err := s.Query(context.Background(), "anything", 4)
	require.ErrorIs(t, err, ErrIndexNotFound)
}

func TestFailedRebuildKeepsPreviousIndex(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "idx")

	good := New(path, "docs", &fakeEmbedder{})
	require.NoError(t, good.Rebuild(ctx, testChunks()))

	bad := New(path, "docs", &failEmbedder{})
	require.NoError(t, bad.Open())
	err := bad.Rebuild(ctx, testChunks())
	require.Error(t, err)

	// previous collection still queryable through the attached handle
	got, err := bad.Query(ctx, "StateGraph", 4)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// and still present on disk for a fresh open
	reopened := New(path, "docs", &fakeEmbedder{})
	require.NoError(t, reopened.Open())
	assert.Equal(t, 2, reopened.Count())
}

func TestOpenThenQuery(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "idx")

	builder := New(path, "docs", &fakeEmbedder{})
	require.NoError(t, builder.Rebuild(ctx, testChunks()))

	s := New(path, "docs", &fakeEmbedder{})
	require.NoError(t, s.Open())
	assert.Equal(t, 2, s.Count())

	got, err := s.Query(ctx, "chains", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
