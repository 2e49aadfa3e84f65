package domain

import "context"

// Document represents a single source file loaded for ingestion.
type Document struct {
	ID      string
	Path    string
	Content string
}

// Chunk is a contiguous span of a document used for indexing.
// Chunks are immutable once created.
type Chunk struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Position int    `json:"position"`
	Text     string `json:"text"`
}

// Vector is an embedding produced by an Embedder.
type Vector []float32

// SearchResult represents a matching chunk with its similarity score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Answer is the plain text produced by the language model.
type Answer struct {
	Text string
}

// Embedder converts free text into a numeric vector representation.
// All vectors returned by one Embedder share the same model identifier and dimension.
type Embedder interface {
	Model() string
	Embed(ctx context.Context, text string) (Vector, error)
	// EmbedMany returns one vector per input, in input order.
	EmbedMany(ctx context.Context, texts []string) ([]Vector, error)
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Index is a read-only, loaded vector index. Implementations must be safe
// for concurrent readers.
type Index interface {
	Model() string
	Dimension() int
	Len() int
	// Query returns at most k results ordered by non-increasing score.
	// Equal scores keep insertion order.
	Query(vector Vector, k int) ([]SearchResult, error)
}

// VectorStore builds and persists an Index at a fixed location and loads it back.
type VectorStore interface {
	Save(ctx context.Context, chunks []Chunk) (Index, error)
	Load(ctx context.Context) (Index, error)
	Path() string
}

// LanguageModel sends a prompt to a hosted LLM and returns the generated text.
type LanguageModel interface {
	Generate(ctx context.Context, prompt string, temperature float64) (Answer, error)
}
