package models

// Chunk is a bounded span of source text with provenance. Chunks are
// created in bulk during an index rebuild and never updated in place.
type Chunk struct {
	Text     string `json:"text"`
	Source   string `json:"source"`
	Sequence int    `json:"sequence"`
}

// RetrievedChunk is a chunk returned by a similarity query.
type RetrievedChunk struct {
	Chunk
	Similarity float32 `json:"similarity"`
}

// SourceDoc is a raw document loaded from disk before chunking.
type SourceDoc struct {
	Name string
	Text string
}
