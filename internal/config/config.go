// Package config defines the engine's flat, nested configuration schema
// along with its defaults and bounds validation. Reading a YAML file from
// disk is a front-end concern; this package only shapes the struct a
// caller deserializes into.
package config

import "fmt"

// Config is the complete engine configuration.
type Config struct {
	Processing ProcessingConfig `yaml:"processing" json:"processing"`
	Media      MediaConfig      `yaml:"media" json:"media"`
	Rate       RateConfig       `yaml:"rate" json:"rate"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	RAG        RAGConfig        `yaml:"rag" json:"rag"`
}

// ProcessingConfig controls text/code chunk sizing.
type ProcessingConfig struct {
	ChunkSize     int `yaml:"chunk_size" json:"chunk_size"`
	CodeChunkSize int `yaml:"code_chunk_size" json:"code_chunk_size"`
}

// MediaChunkSizesConfig controls per-role media chunk sizing.
type MediaChunkSizesConfig struct {
	Summary    int `yaml:"summary" json:"summary"`
	Transcript int `yaml:"transcript" json:"transcript"`
	OCRText    int `yaml:"ocr_text" json:"ocr_text"`
	OCRCode    int `yaml:"ocr_code" json:"ocr_code"`
}

// MediaProcessingConfig controls media-pipeline behavior.
type MediaProcessingConfig struct {
	OCRParserMode          string `yaml:"ocr_parser_mode" json:"ocr_parser_mode"` // "markdown" | "plain"
	EnableTimecodes        bool   `yaml:"enable_timecodes" json:"enable_timecodes"`
	StrictTimecodeOrdering bool   `yaml:"strict_timecode_ordering" json:"strict_timecode_ordering"`
	MaxTimelineItems       int    `yaml:"max_timeline_items" json:"max_timeline_items"`
}

// MediaPromptsConfig holds custom-instruction templates per media kind.
type MediaPromptsConfig struct {
	ImageInstructions string `yaml:"image_instructions" json:"image_instructions"`
	AudioInstructions string `yaml:"audio_instructions" json:"audio_instructions"`
	VideoInstructions string `yaml:"video_instructions" json:"video_instructions"`
}

// MediaConfig groups every media-pipeline-related configuration family.
type MediaConfig struct {
	ChunkSizes      MediaChunkSizesConfig `yaml:"chunk_sizes" json:"chunk_sizes"`
	Processing      MediaProcessingConfig `yaml:"processing" json:"processing"`
	Prompts         MediaPromptsConfig    `yaml:"prompts" json:"prompts"`
	OutputLanguage  string                `yaml:"output_language" json:"output_language"`
	MaxOutputTokens int                   `yaml:"max_output_tokens" json:"max_output_tokens"`
}

// RateConfig holds the per-media-type token-bucket budgets (requests per
// minute).
type RateConfig struct {
	ImageRPM int `yaml:"image_rpm" json:"image_rpm"`
	AudioRPM int `yaml:"audio_rpm" json:"audio_rpm"`
	VideoRPM int `yaml:"video_rpm" json:"video_rpm"`
}

// SearchConfig holds hybrid-fusion tuning.
type SearchConfig struct {
	RRFConstant int `yaml:"rrf_constant" json:"rrf_constant"`
}

// RAGConfig holds the RAG engine's retrieval and generation tuning.
type RAGConfig struct {
	ContextChunks int     `yaml:"context_chunks" json:"context_chunks"`
	Temperature   float64 `yaml:"temperature" json:"temperature"`
	MaxTokens     int     `yaml:"max_tokens" json:"max_tokens"`
}

// DefaultConfig returns the configuration with every documented default
// applied.
func DefaultConfig() Config {
	return Config{
		Processing: ProcessingConfig{
			ChunkSize:     1800,
			CodeChunkSize: 2000,
		},
		Media: MediaConfig{
			ChunkSizes: MediaChunkSizesConfig{
				Summary:    1500,
				Transcript: 2000,
				OCRText:    1800,
				OCRCode:    2000,
			},
			Processing: MediaProcessingConfig{
				OCRParserMode:          "markdown",
				EnableTimecodes:        true,
				StrictTimecodeOrdering: false,
				MaxTimelineItems:       100,
			},
			MaxOutputTokens: 65536,
		},
		Rate: RateConfig{
			ImageRPM: 15,
			AudioRPM: 10,
			VideoRPM: 5,
		},
		Search: SearchConfig{
			RRFConstant: 60,
		},
		RAG: RAGConfig{
			ContextChunks: 5,
			Temperature:   0.2,
			MaxTokens:     2048,
		},
	}
}

// Validate checks every bounded option, returning the first violation.
func (c *Config) Validate() error {
	if err := boundsCheck("processing.chunk_size", c.Processing.ChunkSize, 500, 8000); err != nil {
		return err
	}
	if err := boundsCheck("processing.code_chunk_size", c.Processing.CodeChunkSize, 500, 10000); err != nil {
		return err
	}
	if err := boundsCheck("media.chunk_sizes.summary", c.Media.ChunkSizes.Summary, 500, 5000); err != nil {
		return err
	}
	if err := boundsCheck("media.chunk_sizes.transcript", c.Media.ChunkSizes.Transcript, 500, 8000); err != nil {
		return err
	}
	if c.Media.Processing.OCRParserMode != "markdown" && c.Media.Processing.OCRParserMode != "plain" {
		return fmt.Errorf("media.processing.ocr_parser_mode must be \"markdown\" or \"plain\", got %q", c.Media.Processing.OCRParserMode)
	}
	if c.Search.RRFConstant <= 0 {
		return fmt.Errorf("search.rrf_constant must be positive, got %d", c.Search.RRFConstant)
	}
	if c.Rate.ImageRPM <= 0 || c.Rate.AudioRPM <= 0 || c.Rate.VideoRPM <= 0 {
		return fmt.Errorf("rate.*_rpm values must be positive")
	}
	if c.RAG.ContextChunks <= 0 {
		return fmt.Errorf("rag.context_chunks must be positive, got %d", c.RAG.ContextChunks)
	}
	if c.RAG.Temperature < 0 || c.RAG.Temperature > 2 {
		return fmt.Errorf("rag.temperature must be between 0 and 2, got %f", c.RAG.Temperature)
	}
	return nil
}

func boundsCheck(name string, v, lo, hi int) error {
	if v < lo || v > hi {
		return fmt.Errorf("%s must be between %d and %d, got %d", name, lo, hi, v)
	}
	return nil
}
