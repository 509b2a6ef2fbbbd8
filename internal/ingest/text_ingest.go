package ingest

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vmonin/semknow/internal/domain"
	"github.com/vmonin/semknow/internal/media"
)

// mediaEnrichmentParallelism bounds how many chunk enrichments run at once
// per document, rather than firing every analyzer call at once.
const mediaEnrichmentParallelism = 4

// ingestText handles a text document: parse into segments, split into
// chunks, and, when enrich_media is set, walk the resulting chunks for
// *_ref media references, resolving each one's path and enriching it in
// place. Each chunk owns disjoint metadata/content fields, so
// the walk runs with bounded concurrency across chunks of one document.
func (p *Pipeline) ingestText(ctx context.Context, doc *domain.Document, opts Options) (*domain.Document, error) {
	segs := p.deps.Parser.Parse(doc.Content)
	chunks := p.deps.Splitter.Split(segs, doc.ID)

	if opts.EnrichMedia {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(mediaEnrichmentParallelism)
		for i := range chunks {
			i := i
			g.Go(func() error {
				p.enrichMediaReference(gctx, doc, chunks, i, opts)
				return nil
			})
		}
		_ = g.Wait() // enrichMediaReference records failures in chunk metadata, never aborts
	}

	if err := p.vectorizeAndPersist(ctx, doc, chunks, opts.Mode); err != nil {
		return nil, err
	}
	return doc, nil
}

// enrichMediaReference resolves and analyzes (or enqueues) the media
// reference at chunks[i], mutating that chunk in place. Chunks that aren't
// *_ref, or whose reference is a URL/data-URI, are left untouched; a path
// that doesn't resolve to a file on disk is not analyzed and is recorded
// in the chunk's _media_error metadata.
func (p *Pipeline) enrichMediaReference(ctx context.Context, doc *domain.Document, chunks []domain.Chunk, i int, opts Options) {
	chunk := &chunks[i]
	mt, isRef := mediaTypeForChunkType(chunk.ChunkType)
	if !isRef {
		return
	}
	if chunk.Metadata == nil {
		chunk.Metadata = map[string]string{}
	}

	ref := chunk.Content
	if isUnresolvableRef(ref) {
		return
	}
	resolved, ok := resolveMediaPath(ref, opts.SourceDir)
	if !ok {
		chunk.Metadata[domain.MetaKeyMediaError] = "media file not found: " + ref
		return
	}
	chunk.Metadata[domain.MetaKeyOriginalPath] = resolved

	contextText := neighborContext(chunks, i)

	if opts.Mode == domain.IngestModeAsync {
		now := asOfNow()
		task := domain.MediaTask{
			ID:            domain.NewOpaqueID(),
			DocumentID:    doc.ID,
			MediaPath:     resolved,
			MediaType:     mt,
			MimeType:      mimeTypeForPath(resolved),
			ContextText:   contextText,
			ResultChunkID: chunk.ID,
			Status:        domain.MediaTaskStatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := p.deps.Store.SaveMediaTask(ctx, &task); err != nil {
			chunk.Metadata[domain.MetaKeyMediaError] = err.Error()
			return
		}
		chunk.Metadata[domain.MetaKeyPendingEnrich] = "true"
		return
	}

	analyzer, ok := p.deps.Analyzers[mt]
	if !ok {
		return
	}
	req := aiclientMediaRequest(resolved, mimeTypeForPath(resolved), mt, contextText, "")
	analysis, err := p.analyze(ctx, mt, analyzer, req)
	if err != nil {
		chunk.Metadata[domain.MetaKeyMediaError] = err.Error()
		return
	}

	if analysis.Description != nil {
		chunk.Content = *analysis.Description
	}
	media.WriteEnrichment(chunk.Metadata, mt, analysis)
}

// neighborContext builds the surrounding-text excerpt an analyzer uses as
// context_text: the preceding and following text chunks' content, plus any
// headers on the reference chunk itself.
func neighborContext(chunks []domain.Chunk, i int) string {
	var parts []string
	if headers := chunks[i].Metadata[domain.MetaKeyHeaders]; headers != "" {
		parts = append(parts, "headers: "+headers)
	}
	if i > 0 && chunks[i-1].ChunkType == domain.ChunkTypeText {
		parts = append(parts, "prev: "+chunks[i-1].Content)
	}
	if i < len(chunks)-1 && chunks[i+1].ChunkType == domain.ChunkTypeText {
		parts = append(parts, "next: "+chunks[i+1].Content)
	}
	return strings.Join(parts, "\n")
}
