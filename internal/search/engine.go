package search

import (
	"context"
	"fmt"

	"github.com/vmonin/semknow/internal/aiclient"
	"github.com/vmonin/semknow/internal/domain"
	"github.com/vmonin/semknow/internal/store"
)

const topKPerMethod = 100

// Engine is the hybrid search entry point, wrapping the store's two
// independent indices and an embedder for query-side vectorization.
type Engine struct {
	store    *store.Store
	embedder aiclient.Embedder
	rrfK     int
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithRRFConstant overrides the default k=60 RRF smoothing constant.
func WithRRFConstant(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.rrfK = k
		}
	}
}

// NewEngine wires a search Engine over store and embedder.
func NewEngine(st *store.Store, embedder aiclient.Embedder, opts ...Option) *Engine {
	e := &Engine{store: st, embedder: embedder, rrfK: DefaultRRFConstant}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Mode selects which retrieval method(s) SearchChunks/SearchDocuments run.
type Mode string

const (
	ModeVector Mode = "vector"
	ModeFTS    Mode = "fts"
	ModeHybrid Mode = "hybrid"
)

// Options configures one search call.
type Options struct {
	Mode          Mode
	Filters       store.Filters
	Limit         int
	ContextWindow int // 0 disables sibling expansion
}

// SearchChunks is the granular search surface.
func (e *Engine) SearchChunks(ctx context.Context, query string, opts Options) ([]ChunkResult, error) {
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModeHybrid
	}

	var results []ChunkResult
	var err error

	switch mode {
	case ModeVector:
		results, err = e.searchVectorOnly(ctx, query, opts)
	case ModeFTS:
		results, err = e.searchFTSOnly(ctx, query, opts)
	case ModeHybrid:
		results, err = e.searchHybrid(ctx, query, opts)
	default:
		return nil, fmt.Errorf("unknown search mode %q", mode)
	}
	if err != nil {
		return nil, err
	}

	if opts.ContextWindow > 0 {
		siblings, err := e.fetchSiblings(ctx, results, opts.ContextWindow)
		if err != nil {
			return nil, err
		}
		results = expandContextWindow(results, siblings)
	}

	return results, nil
}

func (e *Engine) searchVectorOnly(ctx context.Context, query string, opts Options) ([]ChunkResult, error) {
	vec, err := e.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := e.store.SearchVector(ctx, vec, opts.Filters, opts.Limit)
	if err != nil {
		return nil, err
	}
	return e.hydrate(ctx, hits, domain.MatchTypeVector)
}

func (e *Engine) searchFTSOnly(ctx context.Context, query string, opts Options) ([]ChunkResult, error) {
	hits, err := e.store.SearchFTS(ctx, query, opts.Filters, opts.Limit)
	if err != nil {
		return nil, err
	}
	return e.hydrate(ctx, hits, domain.MatchTypeFTS)
}

func (e *Engine) searchHybrid(ctx context.Context, query string, opts Options) ([]ChunkResult, error) {
	vec, err := e.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	vectorHits, err := e.store.SearchVector(ctx, vec, opts.Filters, topKPerMethod)
	if err != nil {
		return nil, err
	}
	ftsHits, err := e.store.SearchFTS(ctx, query, opts.Filters, topKPerMethod)
	if err != nil {
		return nil, err
	}

	fused := FuseHybrid(vectorHits, ftsHits, e.rrfK)
	if len(fused) > opts.Limit {
		fused = fused[:opts.Limit]
	}

	results := make([]ChunkResult, 0, len(fused))
	for _, f := range fused {
		chunk, doc, err := e.loadChunkAndDocument(ctx, f.ChunkID)
		if err != nil {
			return nil, err
		}
		results = append(results, ChunkResult{
			Chunk:     *chunk,
			Document:  doc,
			Score:     f.RRFScore,
			MatchType: domain.MatchTypeHybrid,
		})
	}
	return results, nil
}

func (e *Engine) hydrate(ctx context.Context, hits []store.Hit, matchType domain.MatchType) ([]ChunkResult, error) {
	results := make([]ChunkResult, 0, len(hits))
	for _, h := range hits {
		chunk, doc, err := e.loadChunkAndDocument(ctx, h.ChunkID)
		if err != nil {
			return nil, err
		}
		results = append(results, ChunkResult{
			Chunk:     *chunk,
			Document:  doc,
			Score:     float64(h.Score),
			MatchType: matchType,
		})
	}
	return results, nil
}

// loadChunkAndDocument fetches a chunk and its owning document by scanning
// the document's chunks, since store has no single-chunk-by-id lookup
// beyond siblings/full-document fetches.
func (e *Engine) loadChunkAndDocument(ctx context.Context, chunkID string) (*domain.Chunk, *domain.Document, error) {
	siblings, err := e.store.GetSiblingChunks(ctx, chunkID, 0)
	if err != nil {
		return nil, nil, err
	}
	if len(siblings) == 0 {
		return nil, nil, fmt.Errorf("chunk %s not found", chunkID)
	}
	chunk := siblings[0]

	doc, err := e.store.GetDocument(ctx, chunk.ParentDocID)
	if err != nil {
		return nil, nil, err
	}
	return &chunk, doc, nil
}

func (e *Engine) fetchSiblings(ctx context.Context, results []ChunkResult, window int) (map[string][]domain.Chunk, error) {
	out := make(map[string][]domain.Chunk, len(results))
	for _, r := range results {
		sibs, err := e.store.GetSiblingChunks(ctx, r.Chunk.ID, window)
		if err != nil {
			return nil, err
		}
		out[r.Chunk.ID] = sibs
	}
	return out, nil
}

// SearchDocuments is the aggregated search surface: chunk results
// grouped by parent document, keeping each document's best-scoring chunk
// and a count of how many of its chunks matched.
func (e *Engine) SearchDocuments(ctx context.Context, query string, opts Options) ([]DocumentResult, error) {
	chunkOpts := opts
	chunkOpts.ContextWindow = 0 // grouping happens before any sibling expansion
	chunkResults, err := e.SearchChunks(ctx, query, chunkOpts)
	if err != nil {
		return nil, err
	}

	byDoc := make(map[string]*DocumentResult)
	var order []string
	for _, cr := range chunkResults {
		docID := cr.Chunk.ParentDocID
		existing, ok := byDoc[docID]
		if !ok {
			order = append(order, docID)
			byDoc[docID] = &DocumentResult{
				Document:     *cr.Document,
				BestChunk:    cr.Chunk,
				Score:        cr.Score,
				MatchedCount: 1,
			}
			continue
		}
		existing.MatchedCount++
		if scoreIsBetter(cr.Score, existing.Score, cr.MatchType) {
			existing.BestChunk = cr.Chunk
			existing.Score = cr.Score
		}
	}

	out := make([]DocumentResult, 0, len(order))
	for _, id := range order {
		out = append(out, *byDoc[id])
	}
	return out, nil
}

// scoreIsBetter reports whether candidate ranks ahead of current under the
// scoring convention of matchType: vector's score is a raw distance (lower
// is better), while fts's |rank| and hybrid's RRF score both increase
// with relevance (higher is better).
func scoreIsBetter(candidate, current float64, matchType domain.MatchType) bool {
	if matchType == domain.MatchTypeVector {
		return candidate < current
	}
	return candidate > current
}
