// Package contextstrategy implements the hierarchical context strategy:
// the pure function turning a chunk and its parent document into the
// vector text that is actually embedded and searched.
package contextstrategy

import (
	"fmt"
	"strings"

	"github.com/vmonin/semknow/internal/domain"
)

// Config toggles whether the document title line is emitted.
type Config struct {
	IncludeDocumentTitle bool
}

// HierarchicalContextStrategy is pure: identical (doc, chunk) input always
// yields an identical vector text.
type HierarchicalContextStrategy struct {
	cfg Config
}

// New returns a strategy configured per cfg.
func New(cfg Config) *HierarchicalContextStrategy {
	return &HierarchicalContextStrategy{cfg: cfg}
}

// DocumentTitle returns the title line source: metadata["title"], falling
// back to metadata[domain.MetaKeySource].
func DocumentTitle(doc *domain.Document) string {
	if doc == nil {
		return ""
	}
	if t, ok := doc.Metadata["title"]; ok && t != "" {
		return t
	}
	return doc.Metadata[domain.MetaKeySource]
}

// VectorText builds the deterministic multi-line string embedded/searched
// for chunk, specialized by chunk kind and enrichment state.
func (s *HierarchicalContextStrategy) VectorText(doc *domain.Document, chunk *domain.Chunk) string {
	var lines []string

	if s.cfg.IncludeDocumentTitle {
		if title := DocumentTitle(doc); title != "" {
			lines = append(lines, fmt.Sprintf("Document: %s", title))
		}
	}

	headers := domain.DecodeHeaders(chunk.Metadata[domain.MetaKeyHeaders])
	if len(headers) > 0 {
		lines = append(lines, fmt.Sprintf("Section: %s", domain.HeaderBreadcrumb(headers)))
	}

	lines = append(lines, kindSpecificLines(chunk)...)

	if src := sourceLine(doc, chunk); src != "" {
		lines = append(lines, src)
	}

	return strings.Join(lines, "\n")
}

func enriched(chunk *domain.Chunk) bool {
	return chunk.Metadata[domain.MetaKeyEnriched] == "true"
}

func kindSpecificLines(chunk *domain.Chunk) []string {
	switch chunk.ChunkType {
	case domain.ChunkTypeText:
		return []string{"Type: Text", chunk.Content}
	case domain.ChunkTypeCode:
		return []string{"Type: Code", chunk.Content}
	case domain.ChunkTypeImageRef:
		return imageLines(chunk)
	case domain.ChunkTypeAudioRef:
		return audioLines(chunk)
	case domain.ChunkTypeVideoRef:
		return videoLines(chunk)
	default:
		return []string{chunk.Content}
	}
}

func imageLines(chunk *domain.Chunk) []string {
	if !enriched(chunk) {
		return []string{"Type: Image Reference", fmt.Sprintf("Description: %s", chunk.Metadata[domain.MetaKeyAlt])}
	}
	lines := []string{
		"Type: Image",
		fmt.Sprintf("Description: %s", chunk.Metadata[domain.MetaKeyVisionDescription]),
	}
	if ocr := chunk.Metadata[domain.MetaKeyVisionOCR]; ocr != "" {
		lines = append(lines, fmt.Sprintf("Visible text: %s", ocr))
	}
	if kw := chunk.Metadata[domain.MetaKeyVisionKeywords]; kw != "" {
		lines = append(lines, fmt.Sprintf("Keywords: %s", kw))
	}
	return lines
}

func audioLines(chunk *domain.Chunk) []string {
	if !enriched(chunk) {
		return []string{"Type: Audio Reference", fmt.Sprintf("Description: %s", chunk.Metadata[domain.MetaKeyAlt])}
	}
	lines := []string{
		"Type: Audio",
		fmt.Sprintf("Transcription: %s", chunk.Metadata[domain.MetaKeyAudioTranscription]),
		fmt.Sprintf("Speakers: %s", chunk.Metadata[domain.MetaKeyAudioSpeakers]),
		fmt.Sprintf("Action items: %s", chunk.Metadata[domain.MetaKeyAudioActionItems]),
		fmt.Sprintf("Keywords: %s", chunk.Metadata[domain.MetaKeyAudioKeywords]),
	}
	if d := chunk.Metadata[domain.MetaKeyAudioDuration]; d != "" {
		lines = append(lines, fmt.Sprintf("Duration: %ss", d))
	}
	return lines
}

func videoLines(chunk *domain.Chunk) []string {
	if !enriched(chunk) {
		return []string{"Type: Video Reference", fmt.Sprintf("Description: %s", chunk.Metadata[domain.MetaKeyAlt])}
	}
	lines := []string{
		"Type: Video",
		fmt.Sprintf("Description: %s", chunk.Metadata[domain.MetaKeyVideoDescription]),
		fmt.Sprintf("Audio transcription: %s", chunk.Metadata[domain.MetaKeyVideoTranscription]),
		fmt.Sprintf("Visible text: %s", chunk.Metadata[domain.MetaKeyVideoVisibleText]),
		fmt.Sprintf("Keywords: %s", chunk.Metadata[domain.MetaKeyVideoKeywords]),
	}
	if d := chunk.Metadata[domain.MetaKeyVideoDuration]; d != "" {
		lines = append(lines, fmt.Sprintf("Duration: %ss", d))
	}
	return lines
}

// sourceLine emits "Source: <path>" when relevant: media chunks and
// direct-media documents carry a source path worth surfacing to the
// embedder.
func sourceLine(doc *domain.Document, chunk *domain.Chunk) string {
	switch chunk.ChunkType {
	case domain.ChunkTypeImageRef, domain.ChunkTypeAudioRef, domain.ChunkTypeVideoRef:
		if p := chunk.Metadata[domain.MetaKeyOriginalPath]; p != "" {
			return fmt.Sprintf("Source: %s", p)
		}
		if doc != nil {
			if p := doc.Metadata[domain.MetaKeySource]; p != "" {
				return fmt.Sprintf("Source: %s", p)
			}
		}
	}
	return ""
}
