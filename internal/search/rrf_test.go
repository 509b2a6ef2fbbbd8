package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vmonin/semknow/internal/domain"
	"github.com/vmonin/semknow/internal/store"
)

func TestFuseHybridMissingListContributesZero(t *testing.T) {
	vector := []store.Hit{{ChunkID: "a", Score: 0.1}, {ChunkID: "b", Score: 0.2}}
	fts := []store.Hit{{ChunkID: "a", Score: 5}}

	fused := FuseHybrid(vector, fts, 60)

	var aScore, bScore float64
	for _, f := range fused {
		if f.ChunkID == "a" {
			aScore = f.RRFScore
		}
		if f.ChunkID == "b" {
			bScore = f.RRFScore
		}
	}
	assert.InDelta(t, 1.0/61.0+1.0/61.0, aScore, 1e-9)
	assert.InDelta(t, 1.0/62.0, bScore, 1e-9)
	assert.Greater(t, aScore, bScore)
}

func TestFuseHybridTiesBreakByChunkIDAscending(t *testing.T) {
	// "z" and "a" each sit at rank 1 of one list, so both score 1/61.
	vector := []store.Hit{{ChunkID: "z", Score: 0.1}}
	fts := []store.Hit{{ChunkID: "a", Score: 5}}

	fused := FuseHybrid(vector, fts, 60)

	require := assert.New(t)
	require.Equal("a", fused[0].ChunkID)
	require.Equal("z", fused[1].ChunkID)
}

func TestMaxRRFScoreIsFixedCeilingForTwoMethods(t *testing.T) {
	assert.InDelta(t, 2.0/61.0, MaxRRFScore(60), 1e-9)
}

func TestNormalizeClampsAtOneHundred(t *testing.T) {
	assert.Equal(t, 100.0, Normalize(MaxRRFScore(60)*2, 60))
	assert.InDelta(t, 50.0, Normalize(MaxRRFScore(60)/2, 60), 1e-9)
}

func TestExpandContextWindowOrdersByOriginalRankThenChunkIndex(t *testing.T) {
	doc := &domain.Document{ID: "doc-1"}
	match := ChunkResult{
		Chunk:     domain.Chunk{ID: "c2", ParentDocID: "doc-1", ChunkIndex: 2},
		Document:  doc,
		Score:     1,
		MatchType: domain.MatchTypeVector,
	}
	siblings := map[string][]domain.Chunk{
		"c2": {
			{ID: "c1", ParentDocID: "doc-1", ChunkIndex: 1},
			{ID: "c2", ParentDocID: "doc-1", ChunkIndex: 2},
			{ID: "c3", ParentDocID: "doc-1", ChunkIndex: 3},
		},
	}

	out := expandContextWindow([]ChunkResult{match}, siblings)

	require := assert.New(t)
	require.Len(out, 3)
	require.Equal("c1", out[0].Chunk.ID)
	require.Equal(domain.MatchTypeContext, out[0].MatchType)
	require.Equal("c2", out[1].Chunk.ID)
	require.Equal(domain.MatchTypeVector, out[1].MatchType)
	require.Equal("c3", out[2].Chunk.ID)
	require.Equal(domain.MatchTypeContext, out[2].MatchType)
}
