package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmonin/semknow/internal/domain"
)

func TestImageOnlyParagraphIsMediaSegment(t *testing.T) {
	p := New()
	segs := p.Parse("# Title\n\n![a cat](photo.jpg \"My cat\")\n")
	require.Len(t, segs, 1)
	assert.Equal(t, domain.ChunkTypeImageRef, segs[0].Type)
	assert.Equal(t, "photo.jpg", segs[0].Content)
	assert.Equal(t, "a cat", segs[0].Alt)
	assert.Equal(t, "My cat", segs[0].Title)
	assert.Equal(t, []string{"Title"}, segs[0].Headers)
}

func TestInlineImageStaysTextual(t *testing.T) {
	p := New()
	segs := p.Parse("Here is ![a cat](photo.jpg) inline in a sentence.")
	require.Len(t, segs, 1)
	assert.Equal(t, domain.ChunkTypeText, segs[0].Type)
	assert.Contains(t, segs[0].Content, "photo.jpg")
}

func TestUnknownExtensionFallsBackToImageRef(t *testing.T) {
	p := New()
	segs := p.Parse("![weird](file.xyz)")
	require.Len(t, segs, 1)
	assert.Equal(t, domain.ChunkTypeImageRef, segs[0].Type)
}

func TestAudioLinkYieldsAudioRef(t *testing.T) {
	p := New()
	segs := p.Parse("[listen here](episode.mp3)")
	require.Len(t, segs, 1)
	assert.Equal(t, domain.ChunkTypeAudioRef, segs[0].Type)
	assert.Equal(t, "episode.mp3", segs[0].Content)
}

func TestTextualLinkStaysText(t *testing.T) {
	p := New()
	segs := p.Parse("[see docs](https://example.com/docs)")
	require.Len(t, segs, 1)
	assert.Equal(t, domain.ChunkTypeText, segs[0].Type)
}

func TestCodeFenceExtractsLanguage(t *testing.T) {
	p := New()
	segs := p.Parse("```go\nfunc main() {}\n```\n")
	require.Len(t, segs, 1)
	assert.Equal(t, domain.ChunkTypeCode, segs[0].Type)
	assert.Equal(t, "go", segs[0].Language)
	assert.Equal(t, "func main() {}", segs[0].Content)
}

func TestHeaderStackBreadcrumbs(t *testing.T) {
	p := New()
	segs := p.Parse("# A\n\n## B\n\nsome text\n")
	require.Len(t, segs, 1)
	assert.Equal(t, []string{"A", "B"}, segs[0].Headers)
}

func TestHeaderStackResetsOnShallowerHeader(t *testing.T) {
	p := New()
	segs := p.Parse("# A\n\n## B\n\ntext1\n\n# C\n\ntext2\n")
	require.Len(t, segs, 2)
	assert.Equal(t, []string{"A", "B"}, segs[0].Headers)
	assert.Equal(t, []string{"C"}, segs[1].Headers)
}
