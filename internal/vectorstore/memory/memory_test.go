package memory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askdoc/internal/domain"
)

func chunks(n int) []domain.Chunk {
	out := make([]domain.Chunk, n)
	for i := range out {
		out[i] = domain.Chunk{ID: fmt.Sprintf("doc:%d", i), Source: "doc.txt", Position: i, Text: fmt.Sprintf("chunk %d", i)}
	}
	return out
}

func TestQueryOrdersByScore(t *testing.T) {
	vecs := []domain.Vector{{1, 0}, {0, 1}, {0.8, 0.6}}
	idx, err := NewIndex("m", chunks(3), vecs)
	require.NoError(t, err)

	res, err := idx.Query(domain.Vector{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, 0, res[0].Chunk.Position)
	assert.Equal(t, 2, res[1].Chunk.Position)
	assert.Equal(t, 1, res[2].Chunk.Position)
	for i := 1; i < len(res); i++ {
		assert.GreaterOrEqual(t, res[i-1].Score, res[i].Score)
	}
	assert.InDelta(t, 1.0, res[0].Score, 1e-9)
}

func TestQueryTiesKeepInsertionOrder(t *testing.T) {
	vecs := []domain.Vector{{0, 1}, {1, 0}, {2, 0}, {1, 0}}
	idx, err := NewIndex("m", chunks(4), vecs)
	require.NoError(t, err)

	res, err := idx.Query(domain.Vector{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{res[0].Chunk.Position, res[1].Chunk.Position, res[2].Chunk.Position})
}

func TestQueryAtMostK(t *testing.T) {
	idx, err := NewIndex("m", chunks(2), []domain.Vector{{1, 0}, {0, 1}})
	require.NoError(t, err)

	res, err := idx.Query(domain.Vector{1, 1}, 1)
	require.NoError(t, err)
	assert.Len(t, res, 1)

	res, err = idx.Query(domain.Vector{1, 1}, 10)
	require.NoError(t, err)
	assert.Len(t, res, 2)
}

func TestQueryReflexive(t *testing.T) {
	vecs := []domain.Vector{{1, 2, 3}, {3, 2, 1}, {0, 1, 0}, {5, 0, 1}}
	idx, err := NewIndex("m", chunks(4), vecs)
	require.NoError(t, err)
	for i, v := range vecs {
		res, err := idx.Query(v, 1)
		require.NoError(t, err)
		assert.Equal(t, i, res[0].Chunk.Position)
	}
}

func TestQueryErrors(t *testing.T) {
	idx, err := NewIndex("m", chunks(1), []domain.Vector{{1, 0}})
	require.NoError(t, err)

	_, err = idx.Query(domain.Vector{1, 0}, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = idx.Query(domain.Vector{1, 0, 0}, 1)
	assert.ErrorIs(t, err, domain.ErrRetrievalFailed)
}

func TestNewIndexValidation(t *testing.T) {
	_, err := NewIndex("m", nil, nil)
	assert.ErrorIs(t, err, domain.ErrEmptyInput)

	_, err = NewIndex("m", chunks(2), []domain.Vector{{1}})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = NewIndex("m", chunks(2), []domain.Vector{{1, 0}, {1}})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestIndexIsIsolatedFromCallerSlices(t *testing.T) {
	cs := chunks(1)
	vecs := []domain.Vector{{1, 0}}
	idx, err := NewIndex("model-x", cs, vecs)
	require.NoError(t, err)

	cs[0].Text = "mutated"
	vecs[0][0] = -1

	res, err := idx.Query(domain.Vector{1, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, "chunk 0", res[0].Chunk.Text)
	assert.InDelta(t, 1.0, res[0].Score, 1e-9)
	assert.Equal(t, "model-x", idx.Model())
	assert.Equal(t, 2, idx.Dimension())
	assert.Equal(t, 1, idx.Len())
}
