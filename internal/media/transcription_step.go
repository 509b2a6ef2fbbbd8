package media

import (
	"context"

	"github.com/vmonin/semknow/internal/domain"
	"github.com/vmonin/semknow/internal/engerr"
	"github.com/vmonin/semknow/internal/parser"
)

// TranscriptionStep runs when the analysis carries a non-empty
// transcription: it splits the text through the injected Splitter, tags
// each resulting chunk role=transcript, and (when enabled) attaches
// per-chunk timecodes.
type TranscriptionStep struct {
	// EnableTimecodes mirrors config.MediaProcessingConfig.EnableTimecodes
	// (default true).
	EnableTimecodes bool
}

// Name identifies this step.
func (TranscriptionStep) Name() string { return "transcription" }

// IsOptional reports true: a transcription failure is one enrichment
// failing, not the whole ingestion.
func (TranscriptionStep) IsOptional() bool { return true }

// ShouldRun reports whether mc.Analysis carries a non-empty transcription.
func (TranscriptionStep) ShouldRun(mc MediaContext) bool {
	return mc.Analysis.Transcription != nil && *mc.Analysis.Transcription != ""
}

// Process splits the transcription and assigns timecodes.
func (s TranscriptionStep) Process(_ context.Context, mc MediaContext) (MediaContext, error) {
	split, ok := mc.Service(splitterServiceKey)
	if !ok {
		return mc, engerr.DependencyMissing(splitterServiceKey, "inject a Splitter via MediaContext.Services")
	}
	splitter, ok := split.(Splitter)
	if !ok {
		return mc, engerr.DependencyMissing(splitterServiceKey, "service must implement media.Splitter")
	}

	text := *mc.Analysis.Transcription
	segs := []parser.Segment{{Type: domain.ChunkTypeText, Content: text}}
	chunks := splitter.Split(segs, mc.parentDocID())

	for i := range chunks {
		if chunks[i].Metadata == nil {
			chunks[i].Metadata = map[string]string{}
		}
		chunks[i].Metadata[domain.MetaKeyRole] = string(domain.ChunkRoleTranscript)
		chunks[i].Metadata[domain.MetaKeyParentMediaPath] = mc.MediaPath
	}

	if s.EnableTimecodes {
		contents := make([]string, len(chunks))
		for i, c := range chunks {
			contents[i] = c.Content
		}
		duration := 0.0
		if mc.Analysis.DurationSeconds != nil {
			duration = *mc.Analysis.DurationSeconds
		}
		assignments := assignTimecodes(contents, duration)
		for i := range chunks {
			chunks[i].Metadata[domain.MetaKeyStartSeconds] = formatDuration(assignments[i].StartSeconds)
			if assignments[i].Original != "" {
				chunks[i].Metadata[domain.MetaKeyTimecodeOriginal] = assignments[i].Original
			}
		}
	}

	return mc.WithChunks(chunks, true), nil
}
