// Package mediaservice implements the MediaService read-model:
// aggregating a document's summary/transcript/OCR chunks into one
// MediaDetails view, plus the ReprocessDocument write operation that
// deletes those role-tagged chunks and rebuilds them from the saved
// source path. Built on store's chunk retrieval and the media package's
// pipeline, the same collaborators ingest.Pipeline wires.
package mediaservice

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vmonin/semknow/internal/aiclient"
	"github.com/vmonin/semknow/internal/config"
	"github.com/vmonin/semknow/internal/contextstrategy"
	"github.com/vmonin/semknow/internal/domain"
	"github.com/vmonin/semknow/internal/engerr"
	"github.com/vmonin/semknow/internal/media"
	"github.com/vmonin/semknow/internal/splitter"
	"github.com/vmonin/semknow/internal/store"
)

// extMimeTypes mirrors ingest's extension table; ReprocessDocument needs
// the same by-extension MIME lookup ingestDirectMedia used to build the
// original MediaTask/analyze request.
var extMimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
}

func mimeTypeForPath(path string) string {
	if mt, ok := extMimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mt
	}
	return "application/octet-stream"
}

// TimelineItem is one entry in a MediaDetails.Timeline, sorted ascending
// by StartSeconds.
type TimelineItem struct {
	ChunkID        string
	StartSeconds   float64
	FormattedTime  string
	ContentPreview string
	Role           domain.ChunkRole
	ChunkType      domain.ChunkType
}

// MediaDetails is the aggregated read model GetMediaDetails returns.
type MediaDetails struct {
	DocumentID string
	Summary    string
	Transcript string
	OCR        string
	Timeline   []TimelineItem
}

// previewLen bounds TimelineItem.ContentPreview.
const previewLen = 120

// Dependencies are the collaborators Service needs for ReprocessDocument.
// GetMediaDetails only needs Store.
type Dependencies struct {
	Store    *store.Store
	Embedder aiclient.Embedder
	Splitter *splitter.SmartSplitter
	Strategy *contextstrategy.HierarchicalContextStrategy

	Analyzers    map[domain.MediaType]aiclient.Analyzer
	RateLimiters map[domain.MediaType]*aiclient.RateLimiter
	MaxRetries   int
	BaseDelay    time.Duration
	MediaCfg     config.MediaConfig
}

// Service exposes the media read model and the reprocess operation.
type Service struct {
	deps Dependencies
}

// New returns a Service over deps.
func New(deps Dependencies) *Service {
	return &Service{deps: deps}
}

// GetMediaDetails aggregates documentID's summary (first one found),
// transcript chunks (concatenated in chunk_index order, when
// includeTranscript), OCR chunks (same, when includeOCR), and a timeline
// of every chunk carrying a start_seconds metadata value, sorted
// ascending and capped at media.processing.max_timeline_items.
func (s *Service) GetMediaDetails(ctx context.Context, documentID string, includeTranscript, includeOCR bool) (*MediaDetails, error) {
	chunks, err := s.deps.Store.GetChunks(ctx, documentID)
	if err != nil {
		return nil, err
	}

	details := &MediaDetails{DocumentID: documentID}
	var transcriptParts, ocrParts []string
	var timeline []TimelineItem

	for _, c := range chunks {
		role := domain.ChunkRole(c.Metadata[domain.MetaKeyRole])
		switch role {
		case domain.ChunkRoleSummary:
			if details.Summary == "" {
				details.Summary = c.Content
			}
		case domain.ChunkRoleTranscript:
			if includeTranscript {
				transcriptParts = append(transcriptParts, c.Content)
			}
		case domain.ChunkRoleOCR:
			if includeOCR {
				ocrParts = append(ocrParts, c.Content)
			}
		}

		if raw, ok := c.Metadata[domain.MetaKeyStartSeconds]; ok && raw != "" {
			secs, perr := strconv.ParseFloat(raw, 64)
			if perr == nil {
				timeline = append(timeline, TimelineItem{
					ChunkID:        c.ID,
					StartSeconds:   secs,
					FormattedTime:  formattedTime(secs),
					ContentPreview: preview(c.Content),
					Role:           role,
					ChunkType:      c.ChunkType,
				})
			}
		}
	}

	details.Transcript = strings.Join(transcriptParts, "\n\n")
	details.OCR = strings.Join(ocrParts, "\n\n")

	sort.Slice(timeline, func(i, j int) bool { return timeline[i].StartSeconds < timeline[j].StartSeconds })
	if max := s.deps.MediaCfg.Processing.MaxTimelineItems; max > 0 && len(timeline) > max {
		timeline = timeline[:max]
	}
	details.Timeline = timeline

	return details, nil
}

// formattedTime renders seconds as MM:SS when under an hour, H:MM:SS
// otherwise.
func formattedTime(seconds float64) string {
	total := int64(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	sec := total % 60
	if h == 0 {
		return pad2(m) + ":" + pad2(sec)
	}
	return strconv.FormatInt(h, 10) + ":" + pad2(m) + ":" + pad2(sec)
}

func pad2(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) < 2 {
		return "0" + s
	}
	return s
}

func preview(content string) string {
	r := []rune(content)
	if len(r) <= previewLen {
		return content
	}
	return string(r[:previewLen])
}

var mediaRoles = map[domain.ChunkRole]struct{}{
	domain.ChunkRoleSummary:    {},
	domain.ChunkRoleTranscript: {},
	domain.ChunkRoleOCR:        {},
}

// ReprocessDocument reloads documentID, verifies it is a media document
// with a live source file, deletes every existing summary/transcript/OCR
// chunk (in that order, before any new chunk is created, so no duplicate
// chunk_index ever appears), re-runs the analyzer with customInstructions
// injected into its prompt template, rebuilds chunks via the full
// MediaPipeline, and persists the result.
func (s *Service) ReprocessDocument(ctx context.Context, documentID, customInstructions string) (*domain.Document, error) {
	doc, err := s.deps.Store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.MediaType != domain.MediaTypeImage && doc.MediaType != domain.MediaTypeAudio && doc.MediaType != domain.MediaTypeVideo {
		return nil, engerr.InvalidInput("media_type", "reprocess requires an image, audio, or video document")
	}

	source := doc.Metadata[domain.MetaKeySource]
	if source == "" {
		return nil, engerr.InvalidInput("metadata.source", "document has no source path recorded")
	}
	if _, statErr := os.Stat(source); statErr != nil {
		return nil, engerr.FileNotFound(source)
	}

	existing, err := s.deps.Store.GetChunks(ctx, documentID)
	if err != nil {
		return nil, err
	}

	kept := existing[:0:0]
	maxIndex := -1
	for _, c := range existing {
		role := domain.ChunkRole(c.Metadata[domain.MetaKeyRole])
		if _, isMediaRole := mediaRoles[role]; isMediaRole {
			continue
		}
		kept = append(kept, c)
		if c.ChunkIndex > maxIndex {
			maxIndex = c.ChunkIndex
		}
	}

	analyzer, ok := s.deps.Analyzers[doc.MediaType]
	if !ok {
		return nil, engerr.DependencyMissing(string(doc.MediaType)+"_analyzer", "configure an analyzer for this media type")
	}
	if rl, ok := s.deps.RateLimiters[doc.MediaType]; ok {
		rl.Wait()
	}

	req := aiclient.MediaRequest{
		Path:       source,
		MimeType:   mimeTypeForPath(source),
		UserPrompt: applyCustomInstructions(promptTemplateFor(s.deps.MediaCfg, doc.MediaType), customInstructions),
		MediaType:  doc.MediaType,
	}

	var analysis domain.MediaAnalysisResult
	analyzeErr := aiclient.RetryWithBackoff(ctx, s.deps.MaxRetries, s.deps.BaseDelay, func(ctx context.Context) error {
		r, aerr := analyzer.Analyze(ctx, req)
		if aerr != nil {
			return aerr
		}
		analysis = r
		return nil
	})
	if analyzeErr != nil {
		return nil, analyzeErr
	}

	pipeline := media.New(
		media.SummaryStep{},
		media.TranscriptionStep{EnableTimecodes: s.deps.MediaCfg.Processing.EnableTimecodes},
		media.OCRStep{ParserMode: s.deps.MediaCfg.Processing.OCRParserMode},
	)
	mc := media.MediaContext{
		MediaPath:        source,
		Document:         doc,
		Analysis:         analysis,
		BaseIndex:        maxIndex + 1,
		Services:         map[string]any{"splitter": s.deps.Splitter},
		UserInstructions: customInstructions,
	}
	out, err := pipeline.Run(ctx, mc)
	if err != nil {
		return nil, err
	}
	for i := range out.Chunks {
		if out.Chunks[i].Metadata == nil {
			out.Chunks[i].Metadata = map[string]string{}
		}
		out.Chunks[i].Metadata[domain.MetaKeyOriginalPath] = source
	}

	final := append(kept, out.Chunks...)
	vectorTexts := make([]string, len(final))
	for i := range final {
		vectorTexts[i] = s.deps.Strategy.VectorText(doc, &final[i])
	}
	if len(final) > 0 && s.deps.Embedder != nil {
		vecs, embErr := s.deps.Embedder.EmbedDocuments(ctx, vectorTexts)
		if embErr != nil {
			return nil, embErr
		}
		for i := range final {
			final[i].Embedding = vecs[i]
			final[i].EmbeddingStatus = domain.EmbeddingStatusReady
		}
	}

	if err := s.deps.Store.Save(ctx, doc, final); err != nil {
		return nil, err
	}
	return doc, nil
}

// promptTemplateFor resolves the per-kind prompt template a custom
// instruction is injected into.
func promptTemplateFor(cfg config.MediaConfig, mt domain.MediaType) string {
	switch mt {
	case domain.MediaTypeImage:
		return cfg.Prompts.ImageInstructions
	case domain.MediaTypeAudio:
		return cfg.Prompts.AudioInstructions
	case domain.MediaTypeVideo:
		return cfg.Prompts.VideoInstructions
	default:
		return ""
	}
}

// applyCustomInstructions injects custom into template at the
// "{custom_instructions}" placeholder. A non-empty template without the
// placeholder is returned unchanged and custom is not added; an empty
// template yields custom as is.
func applyCustomInstructions(template, custom string) string {
	if strings.Contains(template, "{custom_instructions}") {
		return strings.ReplaceAll(template, "{custom_instructions}", custom)
	}
	if template == "" {
		return custom
	}
	return template
}
