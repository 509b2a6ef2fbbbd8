package mediaqueue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmonin/semknow/internal/aiclient"
	"github.com/vmonin/semknow/internal/config"
	"github.com/vmonin/semknow/internal/contextstrategy"
	"github.com/vmonin/semknow/internal/domain"
	"github.com/vmonin/semknow/internal/splitter"
	"github.com/vmonin/semknow/internal/store"
)

type fakeAnalyzer struct {
	result domain.MediaAnalysisResult
	err    error
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, req aiclient.MediaRequest) (domain.MediaAnalysisResult, error) {
	return f.result, f.err
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(context.Background(), ":memory:", 4)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func ptr(s string) *string { return &s }

func newProcessor(st *store.Store, analyzer aiclient.Analyzer, mt domain.MediaType) *Processor {
	return New(Dependencies{
		Store:        st,
		Splitter:     splitter.New(splitter.DefaultConfig()),
		Strategy:     contextstrategy.New(contextstrategy.Config{IncludeDocumentTitle: true}),
		Analyzers:    map[domain.MediaType]aiclient.Analyzer{mt: analyzer},
		RateLimiters: map[domain.MediaType]*aiclient.RateLimiter{},
		MaxRetries:   1,
		BaseDelay:    time.Millisecond,
		MediaCfg:     config.DefaultConfig().Media,
	})
}

func TestProcessOneReturnsFalseWhenQueueEmpty(t *testing.T) {
	st := newTestStore(t)
	p := newProcessor(st, &fakeAnalyzer{}, domain.MediaTypeImage)

	picked, err := p.ProcessOne(context.Background())
	require.NoError(t, err)
	assert.False(t, picked)
}

func TestProcessOneCompletesDirectMediaTask(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	docID := "doc-1"
	doc := &domain.Document{
		ID:        docID,
		Content:   "/abs/path/photo.jpg",
		MediaType: domain.MediaTypeImage,
		Metadata:  map[string]string{domain.MetaKeySource: "/abs/path/photo.jpg"},
		CreatedAt: time.Now(),
	}
	placeholder := domain.Chunk{
		ID:              domain.NewChunkID(docID, 0, doc.Content),
		ParentDocID:     docID,
		ChunkIndex:      0,
		Content:         doc.Content,
		ChunkType:       domain.ChunkTypeImageRef,
		Metadata:        map[string]string{domain.MetaKeyPendingEnrich: "true"},
		EmbeddingStatus: domain.EmbeddingStatusPending,
	}
	require.NoError(t, st.Save(ctx, doc, []domain.Chunk{placeholder}))

	task := domain.MediaTask{
		ID:         domain.NewOpaqueID(),
		DocumentID: docID,
		MediaPath:  doc.Content,
		MediaType:  domain.MediaTypeImage,
		MimeType:   "image/jpeg",
		Status:     domain.MediaTaskStatusPending,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	require.NoError(t, st.SaveMediaTask(ctx, &task))

	analyzer := &fakeAnalyzer{result: domain.MediaAnalysisResult{
		Description: ptr("a red bicycle leaning on a wall"),
		Keywords:    []string{"bicycle", "red"},
	}}
	p := newProcessor(st, analyzer, domain.MediaTypeImage)

	picked, err := p.ProcessOne(ctx)
	require.NoError(t, err)
	assert.True(t, picked)

	got, err := st.GetMediaTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MediaTaskStatusCompleted, got.Status)
	assert.NotEmpty(t, got.ResultChunkID)

	chunks, err := st.GetChunks(ctx, docID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "a red bicycle leaning on a wall", chunks[0].Content)
	assert.Equal(t, "true", chunks[0].Metadata[domain.MetaKeyEnriched])
	assert.Empty(t, chunks[0].Metadata[domain.MetaKeyPendingEnrich])
	assert.Equal(t, domain.EmbeddingStatusPending, chunks[0].EmbeddingStatus)
}

func TestProcessOneAppendsTranscriptChunksForAudio(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	docID := "doc-audio"
	doc := &domain.Document{
		ID:        docID,
		Content:   "/abs/path/clip.mp3",
		MediaType: domain.MediaTypeAudio,
		Metadata:  map[string]string{domain.MetaKeySource: "/abs/path/clip.mp3"},
		CreatedAt: time.Now(),
	}
	placeholder := domain.Chunk{
		ID:              domain.NewChunkID(docID, 0, doc.Content),
		ParentDocID:     docID,
		ChunkIndex:      0,
		Content:         doc.Content,
		ChunkType:       domain.ChunkTypeAudioRef,
		Metadata:        map[string]string{domain.MetaKeyPendingEnrich: "true"},
		EmbeddingStatus: domain.EmbeddingStatusPending,
	}
	require.NoError(t, st.Save(ctx, doc, []domain.Chunk{placeholder}))

	task := domain.MediaTask{
		ID:         domain.NewOpaqueID(),
		DocumentID: docID,
		MediaPath:  doc.Content,
		MediaType:  domain.MediaTypeAudio,
		MimeType:   "audio/mpeg",
		Status:     domain.MediaTaskStatusPending,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	require.NoError(t, st.SaveMediaTask(ctx, &task))

	duration := 90.0
	analyzer := &fakeAnalyzer{result: domain.MediaAnalysisResult{
		Description:     ptr("a short interview"),
		Transcription:   ptr("[00:05] Intro\n\n[00:30] Main\n\n[01:15] End"),
		DurationSeconds: &duration,
	}}
	p := newProcessor(st, analyzer, domain.MediaTypeAudio)

	picked, err := p.ProcessOne(ctx)
	require.NoError(t, err)
	assert.True(t, picked)

	chunks, err := st.GetChunks(ctx, docID)
	require.NoError(t, err)
	assert.Greater(t, len(chunks), 1)

	seenIndices := map[int]bool{}
	for _, c := range chunks {
		assert.False(t, seenIndices[c.ChunkIndex], "duplicate chunk_index %d", c.ChunkIndex)
		seenIndices[c.ChunkIndex] = true
		if c.Metadata[domain.MetaKeyRole] == string(domain.ChunkRoleTranscript) {
			assert.NotEmpty(t, c.Metadata[domain.MetaKeyStartSeconds])
		}
	}
}

func TestProcessOneFailsTaskOnAnalyzerError(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	docID := "doc-err"
	doc := &domain.Document{
		ID:        docID,
		Content:   "/abs/path/x.png",
		MediaType: domain.MediaTypeImage,
		Metadata:  map[string]string{domain.MetaKeySource: "/abs/path/x.png"},
		CreatedAt: time.Now(),
	}
	placeholder := domain.Chunk{
		ID:              domain.NewChunkID(docID, 0, doc.Content),
		ParentDocID:     docID,
		ChunkIndex:      0,
		Content:         doc.Content,
		ChunkType:       domain.ChunkTypeImageRef,
		Metadata:        map[string]string{domain.MetaKeyPendingEnrich: "true"},
		EmbeddingStatus: domain.EmbeddingStatusPending,
	}
	require.NoError(t, st.Save(ctx, doc, []domain.Chunk{placeholder}))

	task := domain.MediaTask{
		ID:         domain.NewOpaqueID(),
		DocumentID: docID,
		MediaPath:  doc.Content,
		MediaType:  domain.MediaTypeImage,
		Status:     domain.MediaTaskStatusPending,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	require.NoError(t, st.SaveMediaTask(ctx, &task))

	analyzer := &fakeAnalyzer{err: assertNonRetryableErr{}}
	p := newProcessor(st, analyzer, domain.MediaTypeImage)

	picked, err := p.ProcessOne(ctx)
	require.NoError(t, err)
	assert.True(t, picked)

	got, err := st.GetMediaTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MediaTaskStatusFailed, got.Status)
	assert.NotEmpty(t, got.ErrorMessage)
}

type assertNonRetryableErr struct{}

func (assertNonRetryableErr) Error() string { return "invalid request: bad image" }

func TestProcessBatchStopsWhenQueueEmpty(t *testing.T) {
	st := newTestStore(t)
	p := newProcessor(st, &fakeAnalyzer{}, domain.MediaTypeImage)

	n, err := p.ProcessBatch(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
