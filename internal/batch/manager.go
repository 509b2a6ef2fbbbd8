// Package batch implements BatchManager: grouping pending chunks
// into remote batch-embedding jobs, submitting them, and reconciling
// results back onto chunk rows. A mutex keeps at most one flush or sync
// in flight at a time.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vmonin/semknow/internal/aiclient"
	"github.com/vmonin/semknow/internal/domain"
	"github.com/vmonin/semknow/internal/store"
)

// Manager owns the BatchJob lifecycle: pending -> running -> completed|failed.
type Manager struct {
	store    *store.Store
	embedder aiclient.Embedder
	model    string

	mu sync.Mutex
}

// New returns a Manager. model names the embedding model recorded in the
// JSONL request line; the concrete provider behind embedder is
// free to ignore it if it only has one.
func New(st *store.Store, embedder aiclient.Embedder, model string) *Manager {
	return &Manager{store: st, embedder: embedder, model: model}
}

// Enqueue associates chunkIDs with a new pending BatchJob row, without
// submitting it to the remote provider yet; that happens at the next
// FlushQueue call, which also submits any BatchJobStatusPending job it
// finds. Enqueue groups, FlushQueue talks to the network.
func (m *Manager) Enqueue(ctx context.Context, chunkIDs []string) (string, error) {
	if len(chunkIDs) == 0 {
		return "", fmt.Errorf("enqueue: no chunk ids given")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	job := domain.BatchJob{
		ID:         domain.NewOpaqueID(),
		Status:     domain.BatchJobStatusPending,
		ChunkCount: len(chunkIDs),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := m.store.SaveBatchJob(ctx, &job); err != nil {
		return "", err
	}
	if err := m.store.SetChunkBatchJob(ctx, chunkIDs, job.ID); err != nil {
		return "", err
	}
	return job.ID, nil
}

// FlushQueue submits every job still awaiting submission: first any
// BatchJobStatusPending jobs created by Enqueue, then, if at least
// minSize chunks are pending and unbatched (or force is set), a freshly
// created job wrapping them too. Returns the id of the last job submitted,
// or "" if nothing needed submitting.
func (m *Manager) FlushQueue(ctx context.Context, minSize int, force bool) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var lastJobID string

	pendingJobs, err := m.store.ListBatchJobsByStatus(ctx, domain.BatchJobStatusPending)
	if err != nil {
		return "", err
	}
	for i := range pendingJobs {
		if err := m.submitJob(ctx, &pendingJobs[i]); err != nil {
			return "", err
		}
		lastJobID = pendingJobs[i].ID
	}

	stray, err := m.store.PendingChunksWithoutBatchJob(ctx)
	if err != nil {
		return "", err
	}
	if len(stray) < minSize && !force {
		return lastJobID, nil
	}
	if len(stray) == 0 {
		return lastJobID, nil
	}

	now := time.Now().UTC()
	job := domain.BatchJob{
		ID:         domain.NewOpaqueID(),
		Status:     domain.BatchJobStatusPending,
		ChunkCount: len(stray),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := m.store.SaveBatchJob(ctx, &job); err != nil {
		return "", err
	}
	chunkIDs := make([]string, len(stray))
	for i, c := range stray {
		chunkIDs[i] = c.ID
	}
	if err := m.store.SetChunkBatchJob(ctx, chunkIDs, job.ID); err != nil {
		return "", err
	}
	if err := m.submitJob(ctx, &job); err != nil {
		return "", err
	}
	return job.ID, nil
}

// submitJob builds the batch embedding request for every chunk tagged with
// job and hands it to the embedder, moving job to running with the
// provider's remote id.
func (m *Manager) submitJob(ctx context.Context, job *domain.BatchJob) error {
	chunks, err := m.store.ChunksForBatchJob(ctx, job.ID)
	if err != nil {
		return err
	}

	items := make([]aiclient.BatchEmbedItem, len(chunks))
	for i, c := range chunks {
		items[i] = aiclient.BatchEmbedItem{ChunkID: c.ID, VectorText: vectorTextFor(c)}
	}

	remoteJobID, err := m.embedder.SubmitBatch(ctx, items)
	if err != nil {
		job.Status = domain.BatchJobStatusFailed
		job.ErrorMessage = err.Error()
		job.UpdatedAt = time.Now().UTC()
		_ = m.store.SaveBatchJob(ctx, job)
		return err
	}

	job.Status = domain.BatchJobStatusRunning
	job.RemoteJobID = remoteJobID
	job.UpdatedAt = time.Now().UTC()
	return m.store.SaveBatchJob(ctx, job)
}

// vectorTextFor recovers the text that should have been submitted for
// embedding: the _vector_source metadata the ingestion pipeline stashed
// when it marked the chunk pending, falling back to raw content for chunks
// that never went through that path.
func vectorTextFor(c domain.Chunk) string {
	if vt, ok := c.Metadata[domain.MetaKeyVectorSource]; ok && vt != "" {
		return vt
	}
	return c.Content
}

// SyncStatus polls every running job, applying completed results via
// bulk_update_vectors and tolerating partial results (chunks missing from
// a completed response stay pending), and marking failed jobs
// and their chunks failed.
func (m *Manager) SyncStatus(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	running, err := m.store.ListBatchJobsByStatus(ctx, domain.BatchJobStatusRunning)
	if err != nil {
		return err
	}

	for i := range running {
		job := &running[i]
		result, err := m.embedder.PollBatch(ctx, job.RemoteJobID)
		if err != nil {
			return err
		}

		switch result.Status {
		case aiclient.BatchStatusCompleted:
			if err := m.applyCompleted(ctx, job, result); err != nil {
				return err
			}
		case aiclient.BatchStatusFailed:
			if err := m.applyFailed(ctx, job, result.Error); err != nil {
				return err
			}
		case aiclient.BatchStatusRunning:
			// nothing to do yet
		}
	}
	return nil
}

func (m *Manager) applyCompleted(ctx context.Context, job *domain.BatchJob, result aiclient.BatchPollResult) error {
	embeddings := make(map[string][]float32, len(result.Embeddings))
	chunks, err := m.store.ChunksForBatchJob(ctx, job.ID)
	if err != nil {
		return err
	}
	for _, c := range chunks {
		if vec, ok := result.Embeddings[customIDForChunk(c.ID)]; ok {
			embeddings[c.ID] = vec
		}
	}

	if err := m.store.BulkUpdateVectors(ctx, embeddings); err != nil {
		return err
	}

	// Chunks missing from a completed response stay pending; untag them
	// from this job so the next FlushQueue picks them up again. The job
	// itself is still considered done.
	leftover, err := m.store.PendingChunkIDsForBatchJob(ctx, job.ID)
	if err != nil {
		return err
	}
	if len(leftover) > 0 {
		if err := m.store.SetChunkBatchJob(ctx, leftover, ""); err != nil {
			return err
		}
	}

	job.Status = domain.BatchJobStatusCompleted
	job.UpdatedAt = time.Now().UTC()
	return m.store.SaveBatchJob(ctx, job)
}

func (m *Manager) applyFailed(ctx context.Context, job *domain.BatchJob, errMessage string) error {
	job.Status = domain.BatchJobStatusFailed
	job.ErrorMessage = errMessage
	job.UpdatedAt = time.Now().UTC()
	if err := m.store.SaveBatchJob(ctx, job); err != nil {
		return err
	}

	ids, err := m.store.PendingChunkIDsForBatchJob(ctx, job.ID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := m.store.MarkChunkFailed(ctx, id, errMessage); err != nil {
			return err
		}
	}
	return nil
}
