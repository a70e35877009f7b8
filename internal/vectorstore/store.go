package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"docs-agent/internal/models"
)

const compress = false

// ErrIndexNotFound means no persisted, non-empty collection exists. In
// offline mode this is a startup precondition failure, not a runtime one.
var ErrIndexNotFound = errors.New("vector index not found: run the ingest step first")

// Store owns the persisted chromem collection. Reads may run concurrently;
// Rebuild builds into a fresh directory and swaps it in, so readers keep
// the previous collection until the swap completes.
type Store struct {
	path       string
	collection string
	embedder   embeddings.Embedder

	mu  sync.RWMutex
	db  *chromem.DB
	col *chromem.Collection
}

// New creates a store handle. No disk access happens until Open or Rebuild.
func New(path, collection string, embedder embeddings.Embedder) *Store {
	return &Store{path: path, collection: collection, embedder: embedder}
}

// Open attaches to the persisted collection without rebuilding. It fails
// with ErrIndexNotFound when the collection is absent or empty.
func (s *Store) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openLocked()
}

func (s *Store) openLocked() error {
	db, err := chromem.NewPersistentDB(s.path, compress)
	if err != nil {
		return fmt.Errorf("failed to open vector database: %w", err)
	}
	col := db.GetCollection(s.collection, nil)
	if col == nil || col.Count() == 0 {
		return ErrIndexNotFound
	}
	s.db = db
	s.col = col
	return nil
}

// Count returns the number of indexed chunks, 0 when not opened.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.col == nil {
		return 0
	}
	return s.col.Count()
}

// Rebuild embeds every chunk and replaces the persisted collection
// wholesale. The new collection is built under a scratch path first; the
// active one is only dropped once the build succeeded, then the scratch
// directory is renamed into place and the handle reattached. A failed
// embed therefore leaves the previous index untouched and queryable.
func (s *Store) Rebuild(ctx context.Context, chunks []models.Chunk) error {
	scratch := s.path + ".rebuild"
	if err := os.RemoveAll(scratch); err != nil {
		return fmt.Errorf("failed to clear scratch index: %w", err)
	}

	db, err := chromem.NewPersistentDB(scratch, compress)
	if err != nil {
		return fmt.Errorf("failed to create scratch index: %w", err)
	}
	col, err := db.GetOrCreateCollection(s.collection, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}
		vectors, err := s.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			_ = os.RemoveAll(scratch)
			return fmt.Errorf("failed to embed chunks: %w", err)
		}
		docs := make([]chromem.Document, len(chunks))
		for i, c := range chunks {
			docs[i] = chromem.Document{
				ID:      fmt.Sprintf("%s-%d", c.Source, c.Sequence),
				Content: c.Text,
				Metadata: map[string]string{
					models.MetaSourceName:    c.Source,
					models.MetaSequenceIndex: strconv.Itoa(c.Sequence),
				},
				Embedding: vectors[i],
			}
		}
		if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			_ = os.RemoveAll(scratch)
			return fmt.Errorf("failed to add documents: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("failed to drop previous index: %w", err)
	}
	if err := os.Rename(scratch, s.path); err != nil {
		return fmt.Errorf("failed to activate new index: %w", err)
	}
	if err := s.reopenLocked(); err != nil {
		return err
	}
	log.Info().Int("chunks", len(chunks)).Str("collection", s.collection).Msg("Vector index rebuilt")
	return nil
}

// reopenLocked reattaches after a swap. An empty collection is fine here:
// the rebuild happened, queries simply return nothing.
func (s *Store) reopenLocked() error {
	db, err := chromem.NewPersistentDB(s.path, compress)
	if err != nil {
		return fmt.Errorf("failed to reopen vector database: %w", err)
	}
	s.db = db
	s.col = db.GetCollection(s.collection, nil)
	return nil
}

// Query returns up to k chunks nearest to the question, most similar
// first. A zero-entry index yields an empty result, not an error.
func (s *Store) Query(ctx context.Context, question string, k int) ([]models.RetrievedChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.col == nil {
		return nil, ErrIndexNotFound
	}
	if k <= 0 {
		k = 4
	}
	if count := s.col.Count(); count < k {
		k = count
	}
	if k == 0 {
		return nil, nil
	}

	vector, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := s.col.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: vector,
		NResults:       k,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	chunks := make([]models.RetrievedChunk, 0, len(results))
	for _, res := range results {
		seq, _ := strconv.Atoi(res.Metadata[models.MetaSequenceIndex])
		chunks = append(chunks, models.RetrievedChunk{
			Chunk: models.Chunk{
				Text:     res.Content,
				Source:   res.Metadata[models.MetaSourceName],
				Sequence: seq,
			},
			Similarity: res.Similarity,
		})
	}
	return chunks, nil
}
