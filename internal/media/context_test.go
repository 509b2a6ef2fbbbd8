package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmonin/semknow/internal/domain"
)

func TestWithChunksAssignsDenseIndexesAndAdvancesBase(t *testing.T) {
	mc := MediaContext{Document: &domain.Document{ID: "doc-1"}, BaseIndex: 2}

	next := mc.WithChunks([]domain.Chunk{
		{Content: "a"},
		{Content: "b"},
	}, true)

	require.Len(t, next.Chunks, 2)
	assert.Equal(t, 2, next.Chunks[0].ChunkIndex)
	assert.Equal(t, 3, next.Chunks[1].ChunkIndex)
	assert.Equal(t, 4, next.BaseIndex)
	assert.Equal(t, "doc-1", next.Chunks[0].ParentDocID)
	assert.NotEmpty(t, next.Chunks[0].ID)
	assert.NotEqual(t, next.Chunks[0].ID, next.Chunks[1].ID)
}

func TestWithChunksWithoutIncrementLeavesBaseIndexUnchanged(t *testing.T) {
	mc := MediaContext{Document: &domain.Document{ID: "doc-1"}, BaseIndex: 0}

	next := mc.WithChunks([]domain.Chunk{{Content: "a"}}, false)

	assert.Equal(t, 0, next.BaseIndex)
	assert.Len(t, next.Chunks, 1)
}

func TestWithChunksDoesNotMutateOriginalContext(t *testing.T) {
	mc := MediaContext{Document: &domain.Document{ID: "doc-1"}, BaseIndex: 0}

	_ = mc.WithChunks([]domain.Chunk{{Content: "a"}}, true)

	assert.Empty(t, mc.Chunks)
	assert.Equal(t, 0, mc.BaseIndex)
}
