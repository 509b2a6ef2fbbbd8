package media

import (
	"context"
	"log/slog"

	"github.com/vmonin/semknow/internal/domain"
	"github.com/vmonin/semknow/internal/engerr"
	"github.com/vmonin/semknow/internal/parser"
)

// OCRStep runs when the analysis carries non-empty OCR text: it splits the
// text in either "markdown" mode (fenced code recognized as code chunks) or
// "plain" mode (everything stays text), tags chunks role=ocr, and warns
// when the resulting code ratio suggests the wrong mode was configured.
type OCRStep struct {
	// ParserMode is "markdown" or "plain" (config.MediaProcessingConfig.OCRParserMode).
	ParserMode string
}

// Name identifies this step.
func (OCRStep) Name() string { return "ocr" }

// IsOptional reports true, matching TranscriptionStep.
func (OCRStep) IsOptional() bool { return true }

// ShouldRun reports whether mc.Analysis carries non-empty OCR text.
func (OCRStep) ShouldRun(mc MediaContext) bool {
	return mc.Analysis.OCRText != nil && *mc.Analysis.OCRText != ""
}

// Process splits the OCR text and tags the resulting chunks.
func (s OCRStep) Process(_ context.Context, mc MediaContext) (MediaContext, error) {
	split, ok := mc.Service(splitterServiceKey)
	if !ok {
		return mc, engerr.DependencyMissing(splitterServiceKey, "inject a Splitter via MediaContext.Services")
	}
	splitter, ok := split.(Splitter)
	if !ok {
		return mc, engerr.DependencyMissing(splitterServiceKey, "service must implement media.Splitter")
	}

	text := *mc.Analysis.OCRText
	var segs []parser.Segment
	if s.ParserMode == "plain" {
		segs = []parser.Segment{{Type: domain.ChunkTypeText, Content: text}}
	} else {
		segs = parser.New().Parse(text)
	}
	chunks := splitter.Split(segs, mc.parentDocID())

	codeCount := 0
	for i := range chunks {
		if chunks[i].Metadata == nil {
			chunks[i].Metadata = map[string]string{}
		}
		chunks[i].Metadata[domain.MetaKeyRole] = string(domain.ChunkRoleOCR)
		if chunks[i].ChunkType == domain.ChunkTypeCode {
			codeCount++
		}
	}

	if len(chunks) > 0 {
		codeRatio := float64(codeCount) / float64(len(chunks))
		if codeRatio > 0.5 {
			slog.Warn("OCR output is mostly code, consider ocr_parser_mode=plain",
				slog.Float64("code_ratio", codeRatio),
				slog.String("media_path", mc.MediaPath))
		}
	}

	return mc.WithChunks(chunks, true), nil
}
