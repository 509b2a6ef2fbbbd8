// Package media implements the media processing pipeline: an immutable
// MediaContext threaded through an ordered sequence of ProcessingSteps
// (SummaryStep, TranscriptionStep, OCRStep) that turn one analyzer result
// into the chunks a document persists.
package media

import (
	"github.com/vmonin/semknow/internal/domain"
)

// MediaContext is the immutable value threaded through a MediaPipeline.
// Every mutating method returns a new value; callers must never observe a
// step mutating its input.
type MediaContext struct {
	MediaPath        string
	Document         *domain.Document
	Analysis         domain.MediaAnalysisResult
	Chunks           []domain.Chunk
	BaseIndex        int
	Services         map[string]any
	UserInstructions string
}

// WithChunks returns a new context with newChunks appended, their
// ChunkIndex fields assigned starting at BaseIndex. When incrementIndex is
// true (the default any step should pass), BaseIndex advances by
// len(newChunks); a step that wants to re-number without consuming index
// space (there is none in this pipeline today) can pass false.
func (c MediaContext) WithChunks(newChunks []domain.Chunk, incrementIndex bool) MediaContext {
	numbered := make([]domain.Chunk, len(newChunks))
	idx := c.BaseIndex
	for i, ch := range newChunks {
		ch.ChunkIndex = idx
		ch.ParentDocID = c.parentDocID()
		// Chunk ids are content-addressable by (parent, index, content);
		// recompute rather than trust a caller-assigned id built against a
		// different (pre-renumbering) index.
		ch.ID = domain.NewChunkID(ch.ParentDocID, idx, ch.Content)
		numbered[i] = ch
		idx++
	}

	next := c
	next.Chunks = append(append([]domain.Chunk{}, c.Chunks...), numbered...)
	if incrementIndex {
		next.BaseIndex = idx
	}
	return next
}

func (c MediaContext) parentDocID() string {
	if c.Document == nil {
		return ""
	}
	return c.Document.ID
}

// Service looks up an optional named dependency (e.g. a Splitter, a
// *slog.Logger) a step needs but the context doesn't carry as a typed
// field.
func (c MediaContext) Service(name string) (any, bool) {
	v, ok := c.Services[name]
	return v, ok
}
