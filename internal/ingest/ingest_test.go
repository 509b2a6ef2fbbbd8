package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmonin/semknow/internal/aiclient"
	"github.com/vmonin/semknow/internal/contextstrategy"
	"github.com/vmonin/semknow/internal/domain"
	"github.com/vmonin/semknow/internal/parser"
	"github.com/vmonin/semknow/internal/splitter"
	"github.com/vmonin/semknow/internal/store"
)

const testEmbedDim = 4

type fakeEmbedder struct{ dim int }

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, f.dim)
		v[0] = float32(len(texts[i]))
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	v := make([]float32, f.dim)
	v[0] = 1
	return v, nil
}

func (f *fakeEmbedder) SubmitBatch(ctx context.Context, items []aiclient.BatchEmbedItem) (string, error) {
	return "job-1", nil
}

func (f *fakeEmbedder) PollBatch(ctx context.Context, remoteJobID string) (aiclient.BatchPollResult, error) {
	return aiclient.BatchPollResult{Status: aiclient.BatchStatusCompleted}, nil
}

func (f *fakeEmbedder) Dimension() int { return f.dim }

type fakeAnalyzer struct {
	result domain.MediaAnalysisResult
	err    error
	calls  int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, req aiclient.MediaRequest) (domain.MediaAnalysisResult, error) {
	f.calls++
	return f.result, f.err
}

func newTestPipeline(t *testing.T, analyzers map[domain.MediaType]aiclient.Analyzer) (*Pipeline, *store.Store) {
	t.Helper()
	st, err := store.Open(context.Background(), ":memory:", testEmbedDim)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	p := New(Dependencies{
		Store:      st,
		Embedder:   &fakeEmbedder{dim: testEmbedDim},
		Parser:     parser.New(),
		Splitter:   splitter.New(splitter.DefaultConfig()),
		Strategy:   contextstrategy.New(contextstrategy.Config{IncludeDocumentTitle: true}),
		Analyzers:  analyzers,
		MaxRetries: 1,
		BaseDelay:  time.Millisecond,
	})
	return p, st
}

func descPtr(s string) *string { return &s }

func TestIngestTextDocumentSyncEmbedsAllChunks(t *testing.T) {
	p, st := newTestPipeline(t, nil)

	content := "# Title\n\nSome introductory paragraph about the project.\n"
	doc := &domain.Document{
		ID:        domain.NewDocumentID(content),
		Content:   content,
		MediaType: domain.MediaTypeText,
		Metadata:  map[string]string{domain.MetaKeySource: "notes.md"},
		CreatedAt: time.Now(),
	}

	out, err := p.Ingest(context.Background(), doc, Options{Mode: domain.IngestModeSync})
	require.NoError(t, err)
	assert.Equal(t, doc.ID, out.ID)

	chunks, err := st.GetChunks(context.Background(), doc.ID)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.Equal(t, domain.EmbeddingStatusReady, c.EmbeddingStatus)
	}
	// GetChunks does not load vectors back into Chunk.Embedding; the
	// vector index holds them, one per embedded chunk.
	info, err := st.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(chunks), info.VectorCount)
}

func TestIngestTextDocumentAsyncMarksChunksPending(t *testing.T) {
	p, st := newTestPipeline(t, nil)

	content := "Just one plain paragraph, nothing fancy.\n"
	doc := &domain.Document{
		ID:        domain.NewDocumentID(content),
		Content:   content,
		MediaType: domain.MediaTypeText,
		CreatedAt: time.Now(),
	}

	_, err := p.Ingest(context.Background(), doc, Options{Mode: domain.IngestModeAsync})
	require.NoError(t, err)

	chunks, err := st.GetChunks(context.Background(), doc.ID)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.Equal(t, domain.EmbeddingStatusPending, c.EmbeddingStatus)
		assert.NotEmpty(t, c.Metadata[domain.MetaKeyVectorSource])
	}
}

func TestIngestDirectMediaSyncEnrichesWithAnalyzer(t *testing.T) {
	analyzer := &fakeAnalyzer{result: domain.MediaAnalysisResult{
		Description: descPtr("a red bicycle leaning on a wall"),
		Keywords:    []string{"red", "bicycle"},
	}}
	p, st := newTestPipeline(t, map[domain.MediaType]aiclient.Analyzer{domain.MediaTypeImage: analyzer})

	doc := &domain.Document{
		ID:        domain.NewDocumentID("/photos/bike.jpg"),
		Content:   "/photos/bike.jpg",
		MediaType: domain.MediaTypeImage,
		CreatedAt: time.Now(),
	}

	_, err := p.Ingest(context.Background(), doc, Options{Mode: domain.IngestModeSync, EnrichMedia: true})
	require.NoError(t, err)
	assert.Equal(t, 1, analyzer.calls)

	chunks, err := st.GetChunks(context.Background(), doc.ID)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Equal(t, string(domain.ChunkRoleSummary), chunks[0].Metadata[domain.MetaKeyRole])
	assert.Equal(t, "true", chunks[0].Metadata[domain.MetaKeyEnriched])
}

func TestIngestDirectMediaAsyncEnqueuesMediaTask(t *testing.T) {
	p, st := newTestPipeline(t, map[domain.MediaType]aiclient.Analyzer{domain.MediaTypeAudio: &fakeAnalyzer{}})

	doc := &domain.Document{
		ID:        domain.NewDocumentID("/audio/call.mp3"),
		Content:   "/audio/call.mp3",
		MediaType: domain.MediaTypeAudio,
		CreatedAt: time.Now(),
	}

	_, err := p.Ingest(context.Background(), doc, Options{Mode: domain.IngestModeAsync, EnrichMedia: true})
	require.NoError(t, err)

	chunks, err := st.GetChunks(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "true", chunks[0].Metadata[domain.MetaKeyPendingEnrich])

	tasks, err := st.NextPendingMediaTasks(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, doc.ID, tasks[0].DocumentID)
}

func TestIngestTextDocumentEnrichesEmbeddedImageReference(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "diagram.png")
	require.NoError(t, os.WriteFile(imgPath, []byte("fake"), 0o644))

	analyzer := &fakeAnalyzer{result: domain.MediaAnalysisResult{Description: descPtr("an architecture diagram")}}
	p, st := newTestPipeline(t, map[domain.MediaType]aiclient.Analyzer{domain.MediaTypeImage: analyzer})

	content := "# Architecture\n\n![diagram](diagram.png)\n\nSee above for the overview.\n"
	doc := &domain.Document{
		ID:        domain.NewDocumentID(content),
		Content:   content,
		MediaType: domain.MediaTypeText,
		CreatedAt: time.Now(),
	}

	_, err := p.Ingest(context.Background(), doc, Options{Mode: domain.IngestModeSync, EnrichMedia: true, SourceDir: dir})
	require.NoError(t, err)
	assert.Equal(t, 1, analyzer.calls)

	chunks, err := st.GetChunks(context.Background(), doc.ID)
	require.NoError(t, err)
	var sawEnriched bool
	for _, c := range chunks {
		if c.ChunkType == domain.ChunkTypeImageRef {
			sawEnriched = true
			assert.Equal(t, "an architecture diagram", c.Content)
			assert.Equal(t, "true", c.Metadata[domain.MetaKeyEnriched])
		}
	}
	assert.True(t, sawEnriched)
}

func TestIngestTextDocumentSkipsUnresolvableImageReference(t *testing.T) {
	analyzer := &fakeAnalyzer{result: domain.MediaAnalysisResult{Description: descPtr("should not run")}}
	p, st := newTestPipeline(t, map[domain.MediaType]aiclient.Analyzer{domain.MediaTypeImage: analyzer})

	content := "![remote](https://example.com/pic.png)\n\nSome text.\n"
	doc := &domain.Document{
		ID:        domain.NewDocumentID(content),
		Content:   content,
		MediaType: domain.MediaTypeText,
		CreatedAt: time.Now(),
	}

	_, err := p.Ingest(context.Background(), doc, Options{Mode: domain.IngestModeSync, EnrichMedia: true})
	require.NoError(t, err)
	assert.Equal(t, 0, analyzer.calls)

	chunks, err := st.GetChunks(context.Background(), doc.ID)
	require.NoError(t, err)
	for _, c := range chunks {
		if c.ChunkType == domain.ChunkTypeImageRef {
			assert.Equal(t, "https://example.com/pic.png", c.Content)
		}
	}
}
