package ingest

import (
	"context"
	"time"

	"github.com/vmonin/semknow/internal/domain"
	"github.com/vmonin/semknow/internal/engerr"
	"github.com/vmonin/semknow/internal/media"
)

// ingestDirectMedia handles a non-text document: doc.Content is the
// absolute media path. One bare *_ref chunk is always produced; when
// enrich_media is set, a sync ingest runs the analyzer (and the
// DirectMediaPipeline over its result) inline, while an async ingest
// enqueues a MediaTask for the MediaQueueProcessor to finish later.
func (p *Pipeline) ingestDirectMedia(ctx context.Context, doc *domain.Document, opts Options) (*domain.Document, error) {
	refType, ok := domain.RefChunkType(doc.MediaType)
	if !ok {
		return nil, engerr.InvalidInput("media_type", "no *_ref chunk type for media type "+string(doc.MediaType))
	}

	refChunk := domain.Chunk{
		ParentDocID:     doc.ID,
		ChunkIndex:      0,
		Content:         doc.Content,
		ChunkType:       refType,
		Metadata:        map[string]string{domain.MetaKeyOriginalPath: doc.Content},
		EmbeddingStatus: domain.EmbeddingStatusPending,
	}
	refChunk.ID = domain.NewChunkID(doc.ID, 0, doc.Content)
	chunks := []domain.Chunk{refChunk}

	if opts.EnrichMedia {
		analyzer, haveAnalyzer := p.deps.Analyzers[doc.MediaType]

		switch {
		case opts.Mode == domain.IngestModeSync && haveAnalyzer:
			req := aiclientMediaRequest(doc.Content, mimeTypeForPath(doc.Content), doc.MediaType, "", "")
			analysis, err := p.analyze(ctx, doc.MediaType, analyzer, req)
			if err != nil {
				chunks[0].Metadata[domain.MetaKeyMediaError] = err.Error()
				chunks[0].EmbeddingStatus = domain.EmbeddingStatusPending
			} else {
				mc := media.MediaContext{
					MediaPath: doc.Content,
					Document:  doc,
					Analysis:  analysis,
					BaseIndex: 0,
					Services:  map[string]any{"splitter": p.deps.Splitter},
				}
				out, perr := p.deps.DirectMediaPipeline.Run(ctx, mc)
				if perr != nil {
					return nil, perr
				}
				chunks = out.Chunks
				for i := range chunks {
					if chunks[i].Metadata == nil {
						chunks[i].Metadata = map[string]string{}
					}
					chunks[i].Metadata[domain.MetaKeyOriginalPath] = doc.Content
				}
			}

		case opts.Mode == domain.IngestModeAsync:
			now := asOfNow()
			task := domain.MediaTask{
				ID:         domain.NewOpaqueID(),
				DocumentID: doc.ID,
				MediaPath:  doc.Content,
				MediaType:  doc.MediaType,
				MimeType:   mimeTypeForPath(doc.Content),
				Status:     domain.MediaTaskStatusPending,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := p.deps.Store.SaveMediaTask(ctx, &task); err != nil {
				return nil, err
			}
			chunks[0].Metadata[domain.MetaKeyPendingEnrich] = "true"
		}
	}

	if err := p.vectorizeAndPersist(ctx, doc, chunks, opts.Mode); err != nil {
		return nil, err
	}
	return doc, nil
}

// asOfNow exists so every MediaTask timestamp in this package goes through
// one call site; time.Now is otherwise unused here.
func asOfNow() time.Time { return time.Now().UTC() }
