package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vmonin/semknow/internal/domain"
)

// Save upserts document and atomically replaces its chunks: either
// every row across documents/chunks/chunks_fts/the vector index is
// written, or none is. Chunks whose Embedding is non-nil are inserted
// into the vector index inside the same call (though not the same SQL
// transaction, since the HNSW graph lives outside SQLite; embedding
// dimensions are checked before the commit, so a mismatch rolls back the
// SQL half before any vector write happens).
func (s *Store) Save(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save transaction: %w", err)
	}
	defer tx.Rollback()

	metaJSON, err := encodeMetadata(doc.Metadata)
	if err != nil {
		return fmt.Errorf("encode document metadata: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (id, content, media_type, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			media_type = excluded.media_type,
			metadata_json = excluded.metadata_json
	`, doc.ID, doc.Content, string(doc.MediaType), metaJSON, doc.CreatedAt.Unix()); err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}

	existingIDs, err := queryChunkIDs(ctx, tx, doc.ID)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, doc.ID); err != nil {
		return fmt.Errorf("clear old chunks: %w", err)
	}
	if len(existingIDs) > 0 {
		if err := deleteFromFTS(ctx, tx, existingIDs); err != nil {
			return err
		}
	}

	var vectorIDs []string
	var vectors [][]float32

	for _, c := range chunks {
		cMetaJSON, err := encodeMetadata(c.Metadata)
		if err != nil {
			return fmt.Errorf("encode chunk metadata: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chunks (id, document_id, chunk_index, content, chunk_type, language, metadata_json, embedding_status, batch_job_id, error_message)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, c.ID, doc.ID, c.ChunkIndex, c.Content, string(c.ChunkType), c.Language, cMetaJSON, string(c.EmbeddingStatus), c.BatchJobID, c.ErrorMessage); err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.ID, err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chunks_fts (chunk_id, content, metadata_text) VALUES (?, ?, ?)
		`, c.ID, c.Content, metadataJSONToText(cMetaJSON)); err != nil {
			return fmt.Errorf("index chunk %s into fts: %w", c.ID, err)
		}

		if c.Embedding != nil {
			if len(c.Embedding) != s.vec.config.Dimensions {
				return ErrDimensionMismatch{Expected: s.vec.config.Dimensions, Got: len(c.Embedding)}
			}
			vectorIDs = append(vectorIDs, c.ID)
			vectors = append(vectors, c.Embedding)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}

	if len(vectorIDs) > 0 {
		if err := s.vec.Upsert(vectorIDs, vectors); err != nil {
			return fmt.Errorf("index vectors: %w", err)
		}
	}

	return nil
}

func queryChunkIDs(ctx context.Context, tx *sql.Tx, documentID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM chunks WHERE document_id = ?`, documentID)
	if err != nil {
		return nil, fmt.Errorf("query existing chunk ids: %w", err)
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

func deleteFromFTS(ctx context.Context, tx *sql.Tx, chunkIDs []string) error {
	stmt, err := tx.PrepareContext(ctx, `DELETE FROM chunks_fts WHERE chunk_id = ?`)
	if err != nil {
		return fmt.Errorf("prepare fts delete: %w", err)
	}
	defer stmt.Close()

	for _, id := range chunkIDs {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("delete chunk %s from fts: %w", id, err)
		}
	}
	return nil
}

// GetDocument fetches a document by id.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, content, media_type, metadata_json, created_at FROM documents WHERE id = ?
	`, id)

	var doc domain.Document
	var mediaType, metaJSON string
	var createdAt int64
	if err := row.Scan(&doc.ID, &doc.Content, &mediaType, &metaJSON, &createdAt); err != nil {
		return nil, mapNotFound("document", id, err)
	}

	meta, err := decodeMetadata(metaJSON)
	if err != nil {
		return nil, fmt.Errorf("decode document metadata: %w", err)
	}
	doc.MediaType = domain.MediaType(mediaType)
	doc.Metadata = meta
	doc.CreatedAt = unixToTime(createdAt)
	return &doc, nil
}

// GetChunks returns every chunk owned by documentID, ordered by
// chunk_index ascending.
func (s *Store) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, chunk_index, content, chunk_type, language, metadata_json, embedding_status, batch_job_id, error_message
		FROM chunks WHERE document_id = ? ORDER BY chunk_index ASC
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

func scanChunks(rows *sql.Rows) ([]domain.Chunk, error) {
	var out []domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		var chunkType, embeddingStatus, metaJSON string
		if err := rows.Scan(&c.ID, &c.ParentDocID, &c.ChunkIndex, &c.Content, &chunkType, &c.Language, &metaJSON, &embeddingStatus, &c.BatchJobID, &c.ErrorMessage); err != nil {
			return nil, err
		}
		meta, err := decodeMetadata(metaJSON)
		if err != nil {
			return nil, fmt.Errorf("decode chunk metadata: %w", err)
		}
		c.ChunkType = domain.ChunkType(chunkType)
		c.EmbeddingStatus = domain.EmbeddingStatus(embeddingStatus)
		c.Metadata = meta
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes a document and cascades to its chunks, their FTS rows,
// and their vectors.
func (s *Store) Delete(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chunkIDs, err := s.chunkIDsForDocument(ctx, documentID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteFromFTS(ctx, tx, chunkIDs); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}

	s.vec.Delete(chunkIDs)
	return nil
}

func (s *Store) chunkIDsForDocument(ctx context.Context, documentID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM chunks WHERE document_id = ?`, documentID)
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

// DeleteByMetadata deletes every document matching filters (and cascades
// to their chunks/fts/vectors), returning the number of documents removed.
func (s *Store) DeleteByMetadata(ctx context.Context, filters Filters) (int, error) {
	where, args := filters.whereClause(0)
	query := `SELECT id FROM documents d`
	if where != "" {
		query += " WHERE " + where
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("query documents by metadata: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()

	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}

// GetSiblingChunks returns the chunks of the same document as chunkID
// whose chunk_index falls within [center-window, center+window], ordered
// by chunk_index.
func (s *Store) GetSiblingChunks(ctx context.Context, chunkID string, window int) ([]domain.Chunk, error) {
	var documentID string
	var center int
	err := s.db.QueryRowContext(ctx, `SELECT document_id, chunk_index FROM chunks WHERE id = ?`, chunkID).Scan(&documentID, &center)
	if err != nil {
		return nil, mapNotFound("chunk", chunkID, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, chunk_index, content, chunk_type, language, metadata_json, embedding_status, batch_job_id, error_message
		FROM chunks
		WHERE document_id = ? AND chunk_index BETWEEN ? AND ?
		ORDER BY chunk_index ASC
	`, documentID, center-window, center+window)
	if err != nil {
		return nil, fmt.Errorf("query sibling chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// BulkUpdateVectors writes a batch of chunk embeddings in a single call:
// the vector index is updated in one pass, and each chunk's
// embedding_status is flipped to ready in one SQL transaction.
// batch_job_id is cleared along with the status flip.
func (s *Store) BulkUpdateVectors(ctx context.Context, embeddings map[string][]float32) error {
	if len(embeddings) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(embeddings))
	vectors := make([][]float32, 0, len(embeddings))
	for id, vec := range embeddings {
		ids = append(ids, id)
		vectors = append(vectors, vec)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `UPDATE chunks SET embedding_status = ?, error_message = '', batch_job_id = '' WHERE id = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, string(domain.EmbeddingStatusReady), id); err != nil {
			return fmt.Errorf("mark chunk %s ready: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit vector status update: %w", err)
	}

	return s.vec.Upsert(ids, vectors)
}
