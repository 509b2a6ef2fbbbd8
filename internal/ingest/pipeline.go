// Package ingest implements the ingestion pipeline: parse, split,
// optionally enrich embedded/direct media, form vector text via the
// Context Strategy, and persist: synchronously (embed inline) or
// asynchronously (mark pending for the BatchManager/MediaQueueProcessor to
// finish later). Per-chunk enrichment failures are recorded on the chunk
// and never abort the run.
package ingest

import (
	"context"
	"time"

	"github.com/vmonin/semknow/internal/aiclient"
	"github.com/vmonin/semknow/internal/config"
	"github.com/vmonin/semknow/internal/contextstrategy"
	"github.com/vmonin/semknow/internal/domain"
	"github.com/vmonin/semknow/internal/media"
	"github.com/vmonin/semknow/internal/parser"
	"github.com/vmonin/semknow/internal/splitter"
	"github.com/vmonin/semknow/internal/store"
)

// Dependencies are the collaborators a Pipeline needs. Analyzers and
// RateLimiters are keyed by domain.MediaType (image/audio/video); a media
// type absent from Analyzers simply cannot be enriched.
type Dependencies struct {
	Store        *store.Store
	Embedder     aiclient.Embedder
	Parser       *parser.MarkdownNodeParser
	Splitter     *splitter.SmartSplitter
	Strategy     *contextstrategy.HierarchicalContextStrategy
	Analyzers    map[domain.MediaType]aiclient.Analyzer
	RateLimiters map[domain.MediaType]*aiclient.RateLimiter

	// DirectMediaPipeline runs against the single analysis result a
	// direct-media document produces. Defaults to Summary+Transcription+OCR
	// when nil; pass media.New(media.SummaryStep{}) for a summary-only
	// pipeline.
	DirectMediaPipeline *media.MediaPipeline

	MaxRetries int           // retry_with_backoff's max_retries
	BaseDelay  time.Duration // retry_with_backoff's base_delay

	MediaCfg config.MediaConfig
}

// Pipeline ingests one domain.Document at a time.
type Pipeline struct {
	deps Dependencies
}

// New returns a Pipeline over deps, filling in the default direct-media
// sub-pipeline when the caller didn't supply one.
func New(deps Dependencies) *Pipeline {
	if deps.DirectMediaPipeline == nil {
		deps.DirectMediaPipeline = media.New(
			media.SummaryStep{},
			media.TranscriptionStep{EnableTimecodes: deps.MediaCfg.Processing.EnableTimecodes},
			media.OCRStep{ParserMode: deps.MediaCfg.Processing.OCRParserMode},
		)
	}
	return &Pipeline{deps: deps}
}

// Options configures one Ingest call.
type Options struct {
	Mode        domain.IngestMode
	EnrichMedia bool
	// SourceDir anchors relative media reference paths encountered while
	// walking a text document's chunks.
	SourceDir string
}

// Ingest runs the full pipeline over doc, returning the persisted document.
// doc.ID must already be set by the caller (domain.NewDocumentID).
func (p *Pipeline) Ingest(ctx context.Context, doc *domain.Document, opts Options) (*domain.Document, error) {
	if doc.MediaType != domain.MediaTypeText {
		return p.ingestDirectMedia(ctx, doc, opts)
	}
	return p.ingestText(ctx, doc, opts)
}

// analyze wraps one analyzer call with its media type's rate limiter and
// the shared retry_with_backoff policy.
func (p *Pipeline) analyze(ctx context.Context, mt domain.MediaType, analyzer aiclient.Analyzer, req aiclient.MediaRequest) (domain.MediaAnalysisResult, error) {
	if rl, ok := p.deps.RateLimiters[mt]; ok {
		rl.Wait()
	}

	var result domain.MediaAnalysisResult
	err := aiclient.RetryWithBackoff(ctx, p.deps.MaxRetries, p.deps.BaseDelay, func(ctx context.Context) error {
		r, aerr := analyzer.Analyze(ctx, req)
		if aerr != nil {
			return aerr
		}
		result = r
		return nil
	})
	return result, err
}

// vectorizeAndPersist forms vector_text for every chunk via the Context
// Strategy, embeds inline (sync) or marks pending (async), and persists
// doc+chunks atomically.
func (p *Pipeline) vectorizeAndPersist(ctx context.Context, doc *domain.Document, chunks []domain.Chunk, mode domain.IngestMode) error {
	vectorTexts := make([]string, len(chunks))
	for i := range chunks {
		vectorTexts[i] = p.deps.Strategy.VectorText(doc, &chunks[i])
	}

	if mode == domain.IngestModeAsync {
		for i := range chunks {
			if chunks[i].Metadata == nil {
				chunks[i].Metadata = map[string]string{}
			}
			chunks[i].Metadata[domain.MetaKeyVectorSource] = vectorTexts[i]
			chunks[i].EmbeddingStatus = domain.EmbeddingStatusPending
		}
		return p.deps.Store.Save(ctx, doc, chunks)
	}

	if len(chunks) > 0 {
		vecs, err := p.deps.Embedder.EmbedDocuments(ctx, vectorTexts)
		if err != nil {
			return err
		}
		for i := range chunks {
			chunks[i].Embedding = vecs[i]
			chunks[i].EmbeddingStatus = domain.EmbeddingStatusReady
		}
	}
	return p.deps.Store.Save(ctx, doc, chunks)
}
