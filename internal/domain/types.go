// Package domain holds the engine's core entity types: Document, Chunk,
// BatchJob, MediaTask and ChatMessage, plus the closed enums and reserved
// metadata keys they share. Nothing in this package touches storage, I/O,
// or any external provider; it is the vocabulary every other package
// imports.
package domain

import "time"

// MediaType is the closed set of document/media kinds.
type MediaType string

const (
	MediaTypeText  MediaType = "text"
	MediaTypeImage MediaType = "image"
	MediaTypeAudio MediaType = "audio"
	MediaTypeVideo MediaType = "video"
)

// ChunkType is the closed set of chunk kinds.
type ChunkType string

const (
	ChunkTypeText     ChunkType = "text"
	ChunkTypeCode     ChunkType = "code"
	ChunkTypeImageRef ChunkType = "image_ref"
	ChunkTypeAudioRef ChunkType = "audio_ref"
	ChunkTypeVideoRef ChunkType = "video_ref"
)

// RefChunkType reports the *_ref chunk type for a media document kind, or
// ("", false) for text/unknown.
func RefChunkType(mt MediaType) (ChunkType, bool) {
	switch mt {
	case MediaTypeImage:
		return ChunkTypeImageRef, true
	case MediaTypeAudio:
		return ChunkTypeAudioRef, true
	case MediaTypeVideo:
		return ChunkTypeVideoRef, true
	default:
		return "", false
	}
}

// EmbeddingStatus is the closed set of per-chunk embedding states.
type EmbeddingStatus string

const (
	EmbeddingStatusReady   EmbeddingStatus = "ready"
	EmbeddingStatusPending EmbeddingStatus = "pending"
	EmbeddingStatusFailed  EmbeddingStatus = "failed"
)

// ChunkRole identifies the media-pipeline role a chunk plays, stored under
// the MetaKeyRole metadata key. Empty string means "not a media chunk".
type ChunkRole string

const (
	ChunkRoleSummary    ChunkRole = "summary"
	ChunkRoleTranscript ChunkRole = "transcript"
	ChunkRoleOCR        ChunkRole = "ocr"
)

// BatchJobStatus is the closed lifecycle of a BatchJob.
type BatchJobStatus string

const (
	BatchJobStatusPending   BatchJobStatus = "pending"
	BatchJobStatusRunning   BatchJobStatus = "running"
	BatchJobStatusCompleted BatchJobStatus = "completed"
	BatchJobStatusFailed    BatchJobStatus = "failed"
)

// MediaTaskStatus is the closed lifecycle of a MediaTask.
type MediaTaskStatus string

const (
	MediaTaskStatusPending    MediaTaskStatus = "pending"
	MediaTaskStatusProcessing MediaTaskStatus = "processing"
	MediaTaskStatusCompleted  MediaTaskStatus = "completed"
	MediaTaskStatusFailed     MediaTaskStatus = "failed"
)

// MatchType identifies which retrieval method produced a ChunkResult.
type MatchType string

const (
	MatchTypeVector  MatchType = "vector"
	MatchTypeFTS     MatchType = "fts"
	MatchTypeHybrid  MatchType = "hybrid"
	MatchTypeContext MatchType = "context"
)

// IngestMode selects synchronous vs. asynchronous embedding/enrichment.
type IngestMode string

const (
	IngestModeSync  IngestMode = "sync"
	IngestModeAsync IngestMode = "async"
)

// ChatRole is the closed set of chat turn roles.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
	ChatRoleSystem    ChatRole = "system"
)

// Reserved metadata keys. The engine owns any key with this set of exact
// names (or, for the vision/audio/video families, any key sharing the
// family's prefix); user-supplied metadata must not collide with them.
const (
	MetaKeyOriginalPath    = "_original_path"
	MetaKeyEnriched        = "_enriched"
	MetaKeyVisionPrefix    = "_vision_"
	MetaKeyAudioPrefix     = "_audio_"
	MetaKeyVideoPrefix     = "_video_"
	MetaKeyVectorSource    = "_vector_source"
	MetaKeyEmbeddingStatus = "_embedding_status"
	MetaKeyMediaError      = "_media_error"
	MetaKeyParentMediaPath = "parent_media_path"
	MetaKeyPendingEnrich   = "_pending_enrichment"

	MetaKeyRole             = "role"
	MetaKeyStartSeconds     = "start_seconds"
	MetaKeyTimecodeOriginal = "timecode_original"
	MetaKeyHeaders          = "headers"
	MetaKeyAlt              = "alt"
	MetaKeyTitle            = "title"
	MetaKeySource           = "source"

	// MetaKeyContextualContext holds the document-level preface a context
	// strategy prepended, kept for debugging and inspection.
	MetaKeyContextualContext = "contextual_context"
)

// Document is the root entity of the store: one row of original content (or,
// for direct media, the absolute source path) plus its owned chunks.
type Document struct {
	ID        string
	Content   string
	MediaType MediaType
	Metadata  map[string]string
	CreatedAt time.Time
}

// Chunk is the smallest searchable unit, owned by exactly one Document.
type Chunk struct {
	ID              string
	ParentDocID     string
	ChunkIndex      int
	Content         string
	ChunkType       ChunkType
	Language        string
	Metadata        map[string]string
	Embedding       []float32
	EmbeddingStatus EmbeddingStatus
	BatchJobID      string
	ErrorMessage    string
}

// BatchJob groups chunks submitted together to a remote batch-embedding API.
type BatchJob struct {
	ID           string
	Status       BatchJobStatus
	RemoteJobID  string
	ChunkCount   int
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MediaAnalysisResult is the typed, schema-constrained result an
// image/audio/video analyzer returns. Every scalar field is a pointer so
// that "absent" (nil) and "present but empty" are distinguishable; the list
// fields (Keywords, Participants, ActionItems) are plain slices, nil when
// absent.
type MediaAnalysisResult struct {
	Description     *string
	AltText         *string
	Keywords        []string
	OCRText         *string
	Transcription   *string
	Participants    []string
	ActionItems     []string
	DurationSeconds *float64
}

// MediaTask is a persisted unit of queued media analysis work.
type MediaTask struct {
	ID              string
	DocumentID      string
	MediaPath       string
	MediaType       MediaType
	MimeType        string
	UserPrompt      string
	ContextText     string
	Status          MediaTaskStatus
	ErrorMessage    string
	Description     *string
	AltText         *string
	Keywords        []string
	OCRText         *string
	Transcription   *string
	Participants    []string
	ActionItems     []string
	DurationSeconds *float64
	ResultChunkID   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ChatMessage is a transient chat turn; never persisted by the core.
type ChatMessage struct {
	Role    ChatRole
	Content string
	Tokens  int
}
