package media

import (
	"context"

	"github.com/vmonin/semknow/internal/domain"
)

// SummaryStep always runs: it produces exactly one chunk carrying the
// analysis description plus per-kind enrichment fields, role=summary.
type SummaryStep struct{ AlwaysRuns }

// Name identifies this step.
func (SummaryStep) Name() string { return "summary" }

// IsOptional reports false: summary is the one step every media document
// requires to be searchable at all.
func (SummaryStep) IsOptional() bool { return false }

// Process builds the single summary chunk from mc.Analysis.
func (SummaryStep) Process(_ context.Context, mc MediaContext) (MediaContext, error) {
	chunkType := domain.ChunkTypeText
	if mc.Document != nil {
		if ct, ok := domain.RefChunkType(mc.Document.MediaType); ok {
			chunkType = ct
		}
	}

	content := ""
	if mc.Analysis.Description != nil {
		content = *mc.Analysis.Description
	}

	meta := map[string]string{domain.MetaKeyRole: string(domain.ChunkRoleSummary)}
	if mc.Document != nil {
		WriteEnrichment(meta, mc.Document.MediaType, mc.Analysis)
	}

	chunk := domain.Chunk{
		Content:         content,
		ChunkType:       chunkType,
		Metadata:        meta,
		EmbeddingStatus: domain.EmbeddingStatusPending,
	}
	chunk.ID = domain.NewChunkID(mc.parentDocID(), mc.BaseIndex, content)

	return mc.WithChunks([]domain.Chunk{chunk}, true), nil
}

// WriteEnrichment writes the per-kind "_vision_*"/"_audio_*"/"_video_*"
// metadata families the Context Strategy's kind-specialized vector text
// consumes, and marks the chunk enriched so that strategy takes the
// enriched branch rather than the bare-reference one. Shared by SummaryStep
// (keyed on the document's media type) and the ingestion pipeline's
// per-chunk media enrichment walk (keyed on the chunk's *_ref type).
func WriteEnrichment(meta map[string]string, mt domain.MediaType, analysis domain.MediaAnalysisResult) {
	meta[domain.MetaKeyEnriched] = "true"

	description := ""
	if analysis.Description != nil {
		description = *analysis.Description
	}
	keywords := domain.EncodeList(analysis.Keywords)

	switch mt {
	case domain.MediaTypeImage:
		meta[domain.MetaKeyVisionDescription] = description
		if analysis.OCRText != nil {
			meta[domain.MetaKeyVisionOCR] = *analysis.OCRText
		}
		meta[domain.MetaKeyVisionKeywords] = keywords

	case domain.MediaTypeAudio:
		if analysis.Transcription != nil {
			meta[domain.MetaKeyAudioTranscription] = *analysis.Transcription
		}
		meta[domain.MetaKeyAudioSpeakers] = domain.EncodeList(analysis.Participants)
		meta[domain.MetaKeyAudioActionItems] = domain.EncodeList(analysis.ActionItems)
		meta[domain.MetaKeyAudioKeywords] = keywords
		if analysis.DurationSeconds != nil {
			meta[domain.MetaKeyAudioDuration] = formatDuration(*analysis.DurationSeconds)
		}

	case domain.MediaTypeVideo:
		meta[domain.MetaKeyVideoDescription] = description
		if analysis.Transcription != nil {
			meta[domain.MetaKeyVideoTranscription] = *analysis.Transcription
		}
		if analysis.OCRText != nil {
			meta[domain.MetaKeyVideoVisibleText] = *analysis.OCRText
		}
		meta[domain.MetaKeyVideoKeywords] = keywords
		if analysis.DurationSeconds != nil {
			meta[domain.MetaKeyVideoDuration] = formatDuration(*analysis.DurationSeconds)
		}
	}
}
