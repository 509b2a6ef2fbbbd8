package contextstrategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vmonin/semknow/internal/domain"
)

func TestVectorTextIsPureAndDeterministic(t *testing.T) {
	s := New(Config{IncludeDocumentTitle: true})
	doc := &domain.Document{Metadata: map[string]string{"title": "Guide"}}
	chunk := &domain.Chunk{
		ChunkType: domain.ChunkTypeText,
		Content:   "hello world",
		Metadata:  map[string]string{domain.MetaKeyHeaders: domain.EncodeHeaders([]string{"A", "B"})},
	}
	a := s.VectorText(doc, chunk)
	b := s.VectorText(doc, chunk)
	assert.Equal(t, a, b)
	assert.Contains(t, a, "Document: Guide")
	assert.Contains(t, a, "Section: A > B")
	assert.Contains(t, a, "Type: Text")
	assert.Contains(t, a, "hello world")
}

func TestImageBeforeEnrichment(t *testing.T) {
	s := New(Config{})
	chunk := &domain.Chunk{
		ChunkType: domain.ChunkTypeImageRef,
		Metadata:  map[string]string{domain.MetaKeyAlt: "a cat"},
	}
	text := s.VectorText(nil, chunk)
	assert.Contains(t, text, "Type: Image Reference")
	assert.Contains(t, text, "Description: a cat")
}

func TestImageAfterEnrichment(t *testing.T) {
	s := New(Config{})
	chunk := &domain.Chunk{
		ChunkType: domain.ChunkTypeImageRef,
		Metadata: map[string]string{
			domain.MetaKeyEnriched:          "true",
			domain.MetaKeyVisionDescription: "a cat on a mat",
			domain.MetaKeyVisionKeywords:    "cat; mat",
			domain.MetaKeyOriginalPath:      "/abs/photo.jpg",
		},
	}
	text := s.VectorText(nil, chunk)
	assert.Contains(t, text, "Type: Image")
	assert.Contains(t, text, "Description: a cat on a mat")
	assert.Contains(t, text, "Keywords: cat; mat")
	assert.Contains(t, text, "Source: /abs/photo.jpg")
}

func TestAudioAfterEnrichment(t *testing.T) {
	s := New(Config{})
	chunk := &domain.Chunk{
		ChunkType: domain.ChunkTypeAudioRef,
		Metadata: map[string]string{
			domain.MetaKeyEnriched:           "true",
			domain.MetaKeyAudioTranscription: "hello",
			domain.MetaKeyAudioDuration:      "12.5",
		},
	}
	text := s.VectorText(nil, chunk)
	assert.Contains(t, text, "Type: Audio")
	assert.Contains(t, text, "Transcription: hello")
	assert.Contains(t, text, "Duration: 12.5s")
}
