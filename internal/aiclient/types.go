// Package aiclient defines the external AI provider contracts:
// Embedder, media analyzers, the chat LLM provider, and the cross-cutting
// RateLimiter / retry decorator that wrap them. Concrete providers are
// external collaborators; this package only shapes the interfaces and
// the wrapping policy.
package aiclient

import (
	"context"

	"github.com/vmonin/semknow/internal/domain"
)

// Embedder produces fixed-dimension vectors for text, synchronously or in
// a remote batch.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// SubmitBatch submits chunks (paired with their already-formed vector
	// texts) for asynchronous embedding and returns the remote job id.
	SubmitBatch(ctx context.Context, items []BatchEmbedItem) (remoteJobID string, err error)

	// PollBatch returns the remote status and, when complete, the results
	// keyed by custom_id ("chunk_<id>").
	PollBatch(ctx context.Context, remoteJobID string) (BatchPollResult, error)

	// Dimension reports the fixed embedding dimension every vector this
	// embedder produces will have.
	Dimension() int
}

// BatchEmbedItem pairs a chunk id with the vector text to embed for it.
type BatchEmbedItem struct {
	ChunkID    string
	VectorText string
}

// BatchStatus mirrors domain.BatchJobStatus for the subset a remote
// provider reports.
type BatchStatus string

const (
	BatchStatusRunning   BatchStatus = "running"
	BatchStatusCompleted BatchStatus = "completed"
	BatchStatusFailed    BatchStatus = "failed"
)

// BatchPollResult is what PollBatch returns. Embeddings is keyed by
// custom_id; a custom_id missing from a completed response is a partial
// result and is left pending by the caller, not failed.
type BatchPollResult struct {
	Status     BatchStatus
	Embeddings map[string][]float32
	Error      string
}

// MediaRequest is the input to an image/audio/video analyzer.
type MediaRequest struct {
	Path        string
	MimeType    string
	ContextText string
	UserPrompt  string
	MediaType   domain.MediaType

	// VideoFrameSampling configures how a video analyzer samples frames;
	// zero value means the analyzer's own default.
	VideoFrameSampling VideoFrameSampling
}

// VideoFrameSamplingMode selects how frames are chosen from a video.
type VideoFrameSamplingMode string

const (
	VideoFrameSamplingTotal    VideoFrameSamplingMode = "total"
	VideoFrameSamplingFPS      VideoFrameSamplingMode = "fps"
	VideoFrameSamplingInterval VideoFrameSamplingMode = "interval"
)

// VideoFrameSampling is a per-kind configuration knob on MediaRequest.
type VideoFrameSampling struct {
	Mode        VideoFrameSamplingMode
	FrameCount  int
	Quality     string
	IntervalSec float64
	FPS         float64
}

// Analyzer produces a typed, schema-constrained analysis result for one
// media file. Parsing failures are provider errors (and therefore
// potentially retryable); an analyzer must never hand-parse a JSON blob
// behind this contract's back.
type Analyzer interface {
	Analyze(ctx context.Context, req MediaRequest) (domain.MediaAnalysisResult, error)
}

// ChatHistoryTurn is one prior turn fed to the LLM provider.
type ChatHistoryTurn struct {
	Role    domain.ChatRole
	Content string
}

// GenerationResult is what the LLM provider returns for one call.
type GenerationResult struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
	FinishReason string
}

// LLMProvider generates an answer from a prompt, optional system prompt,
// and optional prior chat history. Role mapping onto the concrete
// provider's wire format is the provider's responsibility.
type LLMProvider interface {
	Generate(ctx context.Context, prompt string, systemPrompt string, temperature float64, maxTokens int, history []ChatHistoryTurn) (GenerationResult, error)
}
