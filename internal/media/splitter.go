package media

import (
	"github.com/vmonin/semknow/internal/domain"
	"github.com/vmonin/semknow/internal/parser"
)

// Splitter is the dependency TranscriptionStep and OCRStep inject via
// ctx.Services["splitter"], satisfied by *splitter.SmartSplitter.
type Splitter interface {
	Split(segs []parser.Segment, parentDocID string) []domain.Chunk
}

const splitterServiceKey = "splitter"
