// Package search implements hybrid retrieval over the engine's store:
// independent vector and FTS searches fused by Reciprocal Rank Fusion,
// plus context-window expansion and the two result surfaces (chunk-level
// and document-level).
package search

import (
	"github.com/vmonin/semknow/internal/domain"
)

// ChunkResult is one chunk-level hit.
type ChunkResult struct {
	Chunk     domain.Chunk
	Document  *domain.Document
	Score     float64
	MatchType domain.MatchType
}

// DocumentResult aggregates ChunkResults by parent document: the
// best-scoring chunk represents the document, alongside how many of its
// chunks matched.
type DocumentResult struct {
	Document     domain.Document
	BestChunk    domain.Chunk
	Score        float64
	MatchedCount int
}
