package media

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmonin/semknow/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestSummaryStepAlwaysRunsAndIsNotOptional(t *testing.T) {
	s := SummaryStep{}
	assert.True(t, s.ShouldRun(MediaContext{}))
	assert.False(t, s.IsOptional())
}

func TestSummaryStepProducesOneChunkWithDescriptionAndRole(t *testing.T) {
	doc := &domain.Document{ID: "doc-1", MediaType: domain.MediaTypeImage}
	mc := MediaContext{
		Document: doc,
		Analysis: domain.MediaAnalysisResult{
			Description: strPtr("a red bicycle"),
			Keywords:    []string{"red", "bicycle"},
		},
	}

	out, err := SummaryStep{}.Process(context.Background(), mc)
	require.NoError(t, err)
	require.Len(t, out.Chunks, 1)

	c := out.Chunks[0]
	assert.Equal(t, "a red bicycle", c.Content)
	assert.Equal(t, domain.ChunkTypeImageRef, c.ChunkType)
	assert.Equal(t, string(domain.ChunkRoleSummary), c.Metadata[domain.MetaKeyRole])
	assert.Equal(t, "true", c.Metadata[domain.MetaKeyEnriched])
	assert.Equal(t, "a red bicycle", c.Metadata[domain.MetaKeyVisionDescription])
	assert.Equal(t, "red; bicycle", c.Metadata[domain.MetaKeyVisionKeywords])
}

func TestSummaryStepFallsBackToTextChunkTypeForTextDocuments(t *testing.T) {
	doc := &domain.Document{ID: "doc-1", MediaType: domain.MediaTypeText}
	mc := MediaContext{Document: doc, Analysis: domain.MediaAnalysisResult{Description: strPtr("x")}}

	out, err := SummaryStep{}.Process(context.Background(), mc)
	require.NoError(t, err)
	assert.Equal(t, domain.ChunkTypeText, out.Chunks[0].ChunkType)
}
