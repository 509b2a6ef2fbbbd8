package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Default configuration tests
// =============================================================================

func TestDefaultConfig_ReturnsDefaults(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1800, cfg.Processing.ChunkSize)
	assert.Equal(t, 2000, cfg.Processing.CodeChunkSize)

	assert.Equal(t, 1500, cfg.Media.ChunkSizes.Summary)
	assert.Equal(t, 2000, cfg.Media.ChunkSizes.Transcript)
	assert.Equal(t, 1800, cfg.Media.ChunkSizes.OCRText)
	assert.Equal(t, 2000, cfg.Media.ChunkSizes.OCRCode)

	assert.Equal(t, "markdown", cfg.Media.Processing.OCRParserMode)
	assert.True(t, cfg.Media.Processing.EnableTimecodes)
	assert.False(t, cfg.Media.Processing.StrictTimecodeOrdering)
	assert.Equal(t, 100, cfg.Media.Processing.MaxTimelineItems)
	assert.Equal(t, 65536, cfg.Media.MaxOutputTokens)

	assert.Equal(t, 15, cfg.Rate.ImageRPM)
	assert.Equal(t, 10, cfg.Rate.AudioRPM)
	assert.Equal(t, 5, cfg.Rate.VideoRPM)

	assert.Equal(t, 60, cfg.Search.RRFConstant) // industry-standard k=60

	assert.Equal(t, 5, cfg.RAG.ContextChunks)
	assert.Equal(t, 0.2, cfg.RAG.Temperature)
	assert.Equal(t, 2048, cfg.RAG.MaxTokens)
}

func TestDefaultConfig_PassesValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

// =============================================================================
// Validate: processing bounds
// =============================================================================

func TestValidate_ChunkSizeOutOfBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Processing.ChunkSize = 100
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "processing.chunk_size")
}

func TestValidate_CodeChunkSizeOutOfBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Processing.CodeChunkSize = 20000
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "processing.code_chunk_size")
}

// =============================================================================
// Validate: media bounds
// =============================================================================

func TestValidate_MediaSummaryChunkSizeOutOfBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Media.ChunkSizes.Summary = 100
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "media.chunk_sizes.summary")
}

func TestValidate_MediaTranscriptChunkSizeOutOfBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Media.ChunkSizes.Transcript = 9000
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "media.chunk_sizes.transcript")
}

func TestValidate_OCRParserModeRejectsUnknownValue(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Media.Processing.OCRParserMode = "html"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ocr_parser_mode")
}

func TestValidate_OCRParserModeAcceptsPlain(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Media.Processing.OCRParserMode = "plain"
	require.NoError(t, cfg.Validate())
}

// =============================================================================
// Validate: rate, search, RAG bounds
// =============================================================================

func TestValidate_RRFConstantMustBePositive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Search.RRFConstant = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rrf_constant")
}

func TestValidate_RateRPMsMustBePositive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rate.AudioRPM = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate.*_rpm")
}

func TestValidate_ContextChunksMustBePositive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RAG.ContextChunks = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rag.context_chunks")
}

func TestValidate_TemperatureMustBeInRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RAG.Temperature = 2.5
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rag.temperature")
}
