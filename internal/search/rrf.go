package search

import (
	"sort"

	"github.com/vmonin/semknow/internal/domain"
	"github.com/vmonin/semknow/internal/store"
)

// DefaultRRFConstant is the default RRF smoothing parameter (k=60).
const DefaultRRFConstant = 60

// fusedHit is one chunk id's combined rank contribution across the
// vector and fts methods, before hydration into a ChunkResult.
type fusedHit struct {
	ChunkID  string
	RRFScore float64
}

// FuseHybrid combines independent vector and fts hit lists into chunk-level
// RRF scores: score(c) = sum over methods of 1/(k+rank(c)), where a chunk
// missing from one list contributes 0 for that list rather than a penalty
// rank. Both input lists are expected to already be capped by the caller;
// this function only fuses and sorts. Ties break by chunk id ascending.
func FuseHybrid(vector, fts []store.Hit, k int) []fusedHit {
	if k <= 0 {
		k = DefaultRRFConstant
	}

	scores := make(map[string]float64, len(vector)+len(fts))
	order := make([]string, 0, len(vector)+len(fts))

	add := func(hits []store.Hit) {
		for rank, h := range hits {
			if _, seen := scores[h.ChunkID]; !seen {
				order = append(order, h.ChunkID)
			}
			scores[h.ChunkID] += 1.0 / float64(k+rank+1)
		}
	}
	add(vector)
	add(fts)

	results := make([]fusedHit, 0, len(order))
	for _, id := range order {
		results = append(results, fusedHit{ChunkID: id, RRFScore: scores[id]})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].RRFScore != results[j].RRFScore {
			return results[i].RRFScore > results[j].RRFScore
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	return results
}

// MaxRRFScore is the theoretical RRF ceiling for two fused methods:
// 1/(k+1) per method, summed.
func MaxRRFScore(k int) float64 {
	if k <= 0 {
		k = DefaultRRFConstant
	}
	return 2.0 / float64(k+1)
}

// Normalize maps a raw RRF score onto a 0-100 UI scale using the fixed
// theoretical ceiling rather than the batch's own observed maximum, so
// scores stay comparable across separate search calls.
func Normalize(score float64, k int) float64 {
	n := score / MaxRRFScore(k)
	if n > 1 {
		n = 1
	}
	return n * 100
}

// expandContextWindow merges fetched siblings into results, deduplicating
// by chunk id and ordering by (original rank, chunk_index). Siblings
// introduced this way carry score=0 and match_type=context; the
// originally-matched chunk keeps its score and match type.
func expandContextWindow(results []ChunkResult, siblings map[string][]domain.Chunk) []ChunkResult {
	if len(siblings) == 0 {
		return results
	}

	type placed struct {
		result       ChunkResult
		originalRank int
	}

	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		seen[r.Chunk.ID] = struct{}{}
	}

	var all []placed
	for rank, r := range results {
		all = append(all, placed{result: r, originalRank: rank})
		for _, sib := range siblings[r.Chunk.ID] {
			if _, ok := seen[sib.ID]; ok {
				continue
			}
			seen[sib.ID] = struct{}{}
			all = append(all, placed{
				originalRank: rank,
				result: ChunkResult{
					Chunk:     sib,
					Document:  r.Document,
					Score:     0,
					MatchType: domain.MatchTypeContext,
				},
			})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].originalRank != all[j].originalRank {
			return all[i].originalRank < all[j].originalRank
		}
		return all[i].result.Chunk.ChunkIndex < all[j].result.Chunk.ChunkIndex
	})

	out := make([]ChunkResult, len(all))
	for i, p := range all {
		out[i] = p.result
	}
	return out
}
