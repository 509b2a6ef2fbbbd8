package store

import (
	"context"
	"fmt"

	"github.com/vmonin/semknow/internal/domain"
)

// SaveBatchJob upserts a BatchJob row.
func (s *Store) SaveBatchJob(ctx context.Context, job *domain.BatchJob) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO batch_jobs (id, status, remote_job_id, chunk_count, error_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			remote_job_id = excluded.remote_job_id,
			chunk_count = excluded.chunk_count,
			error_message = excluded.error_message,
			updated_at = excluded.updated_at
	`, job.ID, string(job.Status), job.RemoteJobID, job.ChunkCount, job.ErrorMessage, job.CreatedAt.Unix(), job.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("save batch job: %w", err)
	}
	return nil
}

// GetBatchJob fetches a BatchJob by id.
func (s *Store) GetBatchJob(ctx context.Context, id string) (*domain.BatchJob, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, status, remote_job_id, chunk_count, error_message, created_at, updated_at
		FROM batch_jobs WHERE id = ?
	`, id)

	var job domain.BatchJob
	var status string
	var createdAt, updatedAt int64
	if err := row.Scan(&job.ID, &status, &job.RemoteJobID, &job.ChunkCount, &job.ErrorMessage, &createdAt, &updatedAt); err != nil {
		return nil, mapNotFound("batch_job", id, err)
	}
	job.Status = domain.BatchJobStatus(status)
	job.CreatedAt = unixToTime(createdAt)
	job.UpdatedAt = unixToTime(updatedAt)
	return &job, nil
}

// ListBatchJobsByStatus returns every batch job in the given status, e.g.
// BatchJobStatusRunning for the manager's sync_status sweep.
func (s *Store) ListBatchJobsByStatus(ctx context.Context, status domain.BatchJobStatus) ([]domain.BatchJob, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, status, remote_job_id, chunk_count, error_message, created_at, updated_at
		FROM batch_jobs WHERE status = ? ORDER BY created_at ASC
	`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list batch jobs: %w", err)
	}
	defer rows.Close()

	var out []domain.BatchJob
	for rows.Next() {
		var job domain.BatchJob
		var st string
		var createdAt, updatedAt int64
		if err := rows.Scan(&job.ID, &st, &job.RemoteJobID, &job.ChunkCount, &job.ErrorMessage, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		job.Status = domain.BatchJobStatus(st)
		job.CreatedAt = unixToTime(createdAt)
		job.UpdatedAt = unixToTime(updatedAt)
		out = append(out, job)
	}
	return out, rows.Err()
}

// ChunksForBatchJob returns every chunk tagged with batchJobID, so the
// manager can apply PollBatch results by custom_id back onto the right rows.
func (s *Store) ChunksForBatchJob(ctx context.Context, batchJobID string) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, chunk_index, content, chunk_type, language, metadata_json, embedding_status, batch_job_id, error_message
		FROM chunks WHERE batch_job_id = ?
	`, batchJobID)
	if err != nil {
		return nil, fmt.Errorf("query chunks for batch job: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// SetChunkBatchJob tags a set of pending chunks with batchJobID (enqueue
// step of BatchManager).
func (s *Store) SetChunkBatchJob(ctx context.Context, chunkIDs []string, batchJobID string) error {
	if len(chunkIDs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `UPDATE chunks SET batch_job_id = ? WHERE id = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, id := range chunkIDs {
		if _, err := stmt.ExecContext(ctx, batchJobID, id); err != nil {
			return fmt.Errorf("tag chunk %s with batch job: %w", id, err)
		}
	}
	return tx.Commit()
}

// MarkChunkFailed records a terminal per-chunk embedding failure. A chunk
// merely missing from a completed batch is left pending, not failed; this
// is only for explicit provider errors. batch_job_id is cleared along with
// the status change.
func (s *Store) MarkChunkFailed(ctx context.Context, chunkID, errMessage string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE chunks SET embedding_status = ?, error_message = ?, batch_job_id = '' WHERE id = ?
	`, string(domain.EmbeddingStatusFailed), errMessage, chunkID)
	if err != nil {
		return fmt.Errorf("mark chunk %s failed: %w", chunkID, err)
	}
	return nil
}

// PendingChunkIDsForBatchJob lists chunks still pending under a batch job,
// i.e. the custom_ids a partial PollBatch result omitted.
func (s *Store) PendingChunkIDsForBatchJob(ctx context.Context, batchJobID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM chunks WHERE batch_job_id = ? AND embedding_status = ?
	`, batchJobID, string(domain.EmbeddingStatusPending))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// PendingChunksWithoutBatchJob returns every chunk eligible for
// flush_queue: embedding_status=pending and not yet tagged with a batch
// job.
func (s *Store) PendingChunksWithoutBatchJob(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, chunk_index, content, chunk_type, language, metadata_json, embedding_status, batch_job_id, error_message
		FROM chunks WHERE embedding_status = ? AND batch_job_id = ''
	`, string(domain.EmbeddingStatusPending))
	if err != nil {
		return nil, fmt.Errorf("query pending chunks without batch job: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}
