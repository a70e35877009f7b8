package chunker

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"docs-agent/internal/models"
)

// Separators tried in priority order: paragraph break, then markdown
// headers of decreasing level, then list-item markers. Matches the
// structure of the ingested llms.txt documentation files.
var defaultSeparators = []string{"\n\n", "\n## ", "\n### ", "\n- ", "\n1. "}

const (
	defaultChunkSize    = 800
	defaultChunkOverlap = 100
)

// Splitter turns raw documentation text into overlapping chunks with
// provenance. Splitting is a pure function of the input and settings.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
	splitter     textsplitter.RecursiveCharacter
}

// New creates a splitter. Non-positive values fall back to defaults.
func New(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = defaultChunkOverlap
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 2
	}
	return &Splitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators(defaultSeparators),
		),
	}
}

// ChunkSize returns the configured maximum span.
func (s *Splitter) ChunkSize() int { return s.chunkSize }

// ChunkOverlap returns the configured overlap window.
func (s *Splitter) ChunkOverlap() int { return s.chunkOverlap }

// Chunk splits rawText into chunks tagged with sourceName and their
// position among the chunks of that source. Empty input yields no chunks.
func (s *Splitter) Chunk(sourceName, rawText string) ([]models.Chunk, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, nil
	}

	pieces, err := s.splitter.SplitText(rawText)
	if err != nil {
		return nil, fmt.Errorf("failed to split %s: %w", sourceName, err)
	}

	chunks := make([]models.Chunk, 0, len(pieces))
	for _, piece := range pieces {
		if strings.TrimSpace(piece) == "" {
			continue
		}
		chunks = append(chunks, models.Chunk{
			Text:     piece,
			Source:   sourceName,
			Sequence: len(chunks),
		})
	}
	return chunks, nil
}

// ChunkAll chunks every source document in order.
func (s *Splitter) ChunkAll(docs []models.SourceDoc) ([]models.Chunk, error) {
	var all []models.Chunk
	for _, doc := range docs {
		chunks, err := s.Chunk(doc.Name, doc.Text)
		if err != nil {
			return nil, err
		}
		all = append(all, chunks...)
	}
	return all, nil
}
