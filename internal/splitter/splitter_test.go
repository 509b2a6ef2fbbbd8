package splitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmonin/semknow/internal/domain"
	"github.com/vmonin/semknow/internal/parser"
)

func TestExactSizeTextBufferEmitsOneChunk(t *testing.T) {
	content := strings.Repeat("a", 1800)
	s := New(Config{TextChunkSize: 1800, CodeChunkSize: 2000})
	chunks := s.Split([]parser.Segment{{Type: domain.ChunkTypeText, Content: content}}, "doc-1")
	require.Len(t, chunks, 1)
	assert.Equal(t, content, chunks[0].Content)
}

func TestOverflowingTextBufferSplits(t *testing.T) {
	content := strings.Repeat("a", 1801)
	s := New(Config{TextChunkSize: 1800, CodeChunkSize: 2000})
	chunks := s.Split([]parser.Segment{{Type: domain.ChunkTypeText, Content: content}}, "doc-1")
	assert.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Content), 1800)
	}
}

func TestMediaSegmentFlushesTextFirst(t *testing.T) {
	s := New(DefaultConfig())
	chunks := s.Split([]parser.Segment{
		{Type: domain.ChunkTypeText, Content: "intro paragraph"},
		{Type: domain.ChunkTypeImageRef, Content: "photo.jpg", Alt: "a photo"},
	}, "doc-1")
	require.Len(t, chunks, 2)
	assert.Equal(t, domain.ChunkTypeText, chunks[0].ChunkType)
	assert.Equal(t, domain.ChunkTypeImageRef, chunks[1].ChunkType)
	assert.Equal(t, "a photo", chunks[1].Metadata[domain.MetaKeyAlt])
}

func TestChunkIndexIsDenseAndStartsAtZero(t *testing.T) {
	s := New(DefaultConfig())
	chunks := s.Split([]parser.Segment{
		{Type: domain.ChunkTypeText, Content: "one"},
		{Type: domain.ChunkTypeCode, Content: "fmt.Println(1)", Language: "go"},
		{Type: domain.ChunkTypeText, Content: "two"},
	}, "doc-1")
	require.Len(t, chunks, 3)
	for i, c := range chunks {
		assert.Equal(t, i, c.ChunkIndex)
	}
}

func TestCodeSplitPreservesLineIntegrity(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 200; i++ {
		b.WriteString("line of go code that is reasonably long for testing\n")
	}
	chunks := splitCodePreservingLines(b.String(), 500)
	for _, c := range chunks {
		for _, line := range strings.Split(c, "\n") {
			assert.LessOrEqual(t, len(line), 500)
		}
	}
}

func TestHeadersPropagateToChunkMetadata(t *testing.T) {
	s := New(DefaultConfig())
	chunks := s.Split([]parser.Segment{
		{Type: domain.ChunkTypeText, Content: "body", Headers: []string{"A", "B"}},
	}, "doc-1")
	require.Len(t, chunks, 1)
	assert.Equal(t, []string{"A", "B"}, domain.DecodeHeaders(chunks[0].Metadata[domain.MetaKeyHeaders]))
}
