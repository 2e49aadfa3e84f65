package memory

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"askdoc/internal/domain"
)

// Index is an immutable in-memory vector index using brute-force cosine similarity.
// It never changes after construction, so concurrent queries need no locking.
type Index struct {
	model     string
	dimension int
	chunks    []domain.Chunk
	vectors   []domain.Vector
	norms     []float64
}

// NewIndex builds an index over chunks and their vectors. vectors[i] belongs
// to chunks[i]; the slice order is the insertion order used for tie-breaks.
func NewIndex(model string, chunks []domain.Chunk, vectors []domain.Vector) (*Index, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks to index", domain.ErrEmptyInput)
	}
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("%w: %d chunks but %d vectors", domain.ErrInvalidArgument, len(chunks), len(vectors))
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: zero-length vector", domain.ErrInvalidArgument)
	}
	idx := &Index{
		model:     model,
		dimension: dim,
		chunks:    slices.Clone(chunks),
		vectors:   make([]domain.Vector, len(vectors)),
		norms:     make([]float64, len(vectors)),
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d", domain.ErrInvalidArgument, i, len(v), dim)
		}
		idx.vectors[i] = slices.Clone(v)
		idx.norms[i] = norm(v)
	}
	return idx, nil
}

// Model returns the embedding model identifier the vectors were produced with.
func (x *Index) Model() string { return x.model }

// Dimension returns the vector dimension.
func (x *Index) Dimension() int { return x.dimension }

// Len returns the number of indexed chunks.
func (x *Index) Len() int { return len(x.chunks) }

// Chunks returns a copy of the indexed chunks in insertion order.
func (x *Index) Chunks() []domain.Chunk { return slices.Clone(x.chunks) }

// Vectors returns the vectors in insertion order. Callers must not modify them.
func (x *Index) Vectors() []domain.Vector { return x.vectors }

// Query returns the k most similar chunks, highest score first.
func (x *Index) Query(vector domain.Vector, k int) ([]domain.SearchResult, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be >= 1, got %d", domain.ErrInvalidArgument, k)
	}
	if len(vector) != x.dimension {
		return nil, fmt.Errorf("%w: query dimension %d, index dimension %d", domain.ErrRetrievalFailed, len(vector), x.dimension)
	}
	qn := norm(vector)
	order := make([]int, len(x.vectors))
	scores := make([]float64, len(x.vectors))
	for i, v := range x.vectors {
		order[i] = i
		scores[i] = cosine(vector, v, qn, x.norms[i])
	}
	// stable: equal scores keep insertion order
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(scores[b], scores[a])
	})
	k = min(k, len(order))
	out := make([]domain.SearchResult, k)
	for i := 0; i < k; i++ {
		j := order[i]
		out[i] = domain.SearchResult{Chunk: x.chunks[j], Score: scores[j]}
	}
	return out, nil
}

func cosine(a, b domain.Vector, na, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	s := sum / (na * nb)
	if math.IsNaN(s) {
		return 0
	}
	return s
}

func norm(v domain.Vector) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
