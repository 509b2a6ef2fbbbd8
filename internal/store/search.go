package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Hit is one ranked chunk id coming out of a single-method search (vector
// or fts). The search package turns these into fully hydrated
// domain.Chunk-bearing results and performs RRF fusion across methods;
// store itself never mixes methods.
type Hit struct {
	ChunkID string
	Score   float32
}

// SearchVector runs a k-nearest-neighbor search over the vector index,
// restricted to chunks whose parent document matches filters, ordered by
// ascending distance with ties broken by chunk id ascending. Score is
// the raw distance; callers that want a normalized similarity use Score
// from VectorIndex directly where available.
func (s *Store) SearchVector(ctx context.Context, queryVec []float32, filters Filters, limit int) ([]Hit, error) {
	// Over-fetch from the HNSW graph since filtering happens after the
	// vector search (the graph has no notion of document metadata), then
	// trim to limit once the filter has been applied.
	overfetch := limit * 10
	if overfetch < limit {
		overfetch = limit
	}
	raw, err := s.vec.Search(queryVec, overfetch)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	allowed, err := s.allowedChunkIDs(ctx, filters)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(raw))
	for _, r := range raw {
		if allowed != nil {
			if _, ok := allowed[r.ChunkID]; !ok {
				continue
			}
		}
		hits = append(hits, Hit{ChunkID: r.ChunkID, Score: r.Distance})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score < hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// allowedChunkIDs returns the set of chunk ids whose parent document
// matches filters, or nil (meaning "no restriction") when filters is empty.
func (s *Store) allowedChunkIDs(ctx context.Context, filters Filters) (map[string]struct{}, error) {
	if len(filters) == 0 {
		return nil, nil
	}

	where, args := filters.whereClause(0)
	query := `SELECT c.id FROM chunks c JOIN documents d ON d.id = c.document_id WHERE ` + where

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query filtered chunk ids: %w", err)
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		set[id] = struct{}{}
	}
	return set, rows.Err()
}

// SearchFTS runs a full-text search over chunks_fts, scoring by the
// engine's bm25 rank (more negative is more relevant; score reported here
// is the absolute value) and limited to chunks whose document
// matches filters.
func (s *Store) SearchFTS(ctx context.Context, queryText string, filters Filters, limit int) ([]Hit, error) {
	sanitized := SanitizeFTSQuery(queryText)
	if sanitized == "" {
		return nil, nil
	}

	where, args := filters.whereClause(0)
	query := `
		SELECT f.chunk_id, bm25(chunks_fts) AS rank
		FROM chunks_fts f
		JOIN chunks c ON c.id = f.chunk_id
		JOIN documents d ON d.id = c.document_id
		WHERE chunks_fts MATCH ?
	`
	args = append([]any{sanitized}, args...)
	if where != "" {
		query += " AND " + where
	}
	query += " ORDER BY rank ASC, f.chunk_id ASC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fts search: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var id string
		var rank float64
		if err := rows.Scan(&id, &rank); err != nil {
			return nil, err
		}
		if rank < 0 {
			rank = -rank
		}
		hits = append(hits, Hit{ChunkID: id, Score: float32(rank)})
	}
	return hits, rows.Err()
}

// ftsSpecialChars are the FTS5 query-syntax characters a raw user query
// must not be allowed to inject.
var ftsSpecialChars = []string{`"`, "*", "^", "(", ")", ":", "-"}

// SanitizeFTSQuery neutralizes FTS5 query-syntax operators in a raw
// search string while preserving multi-word semantics: each remaining
// token is individually double-quoted so the engine treats the whole
// input as a phrase/AND-of-terms rather than parsing operator characters.
func SanitizeFTSQuery(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}

	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		cleaned := f
		for _, ch := range ftsSpecialChars {
			cleaned = strings.ReplaceAll(cleaned, ch, "")
		}
		cleaned = strings.ReplaceAll(cleaned, `"`, `""`)
		if cleaned == "" {
			continue
		}
		quoted = append(quoted, `"`+cleaned+`"`)
	}
	return strings.Join(quoted, " ")
}
