package store

import (
	"context"
	"fmt"
)

// IndexInfo is an introspection read-model: row counts across the three
// physical stores, useful for diagnostics and for the consistency checker
// below.
type IndexInfo struct {
	DocumentCount int
	ChunkCount    int
	FTSRowCount   int
	VectorCount   int
}

// Info reports row counts across all three physical stores.
func (s *Store) Info(ctx context.Context) (IndexInfo, error) {
	var info IndexInfo

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&info.DocumentCount); err != nil {
		return info, fmt.Errorf("count documents: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&info.ChunkCount); err != nil {
		return info, fmt.Errorf("count chunks: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks_fts`).Scan(&info.FTSRowCount); err != nil {
		return info, fmt.Errorf("count fts rows: %w", err)
	}
	info.VectorCount = s.vec.Count()

	return info, nil
}

// ConsistencyReport lists chunk ids present in one physical store but
// missing from another. The three stores (SQLite chunks table, the FTS5
// index, the HNSW vector index) are written together but live in separate
// subsystems, so drift after a crash mid-write is the one failure mode
// this guards against.
type ConsistencyReport struct {
	MissingFromFTS    []string
	MissingFromVector []string
	OrphanedInFTS     []string
}

// CheckConsistency compares the chunk id sets across SQLite, FTS5 and the
// vector index. A chunk that hasn't been embedded yet (embedding_status
// != ready) is expected to be absent from the vector index and is not
// reported as missing.
func (s *Store) CheckConsistency(ctx context.Context) (ConsistencyReport, error) {
	var report ConsistencyReport

	chunkRows, err := s.db.QueryContext(ctx, `SELECT id, embedding_status FROM chunks`)
	if err != nil {
		return report, fmt.Errorf("query chunks: %w", err)
	}
	chunkIDs := map[string]struct{}{}
	readyIDs := map[string]struct{}{}
	for chunkRows.Next() {
		var id, status string
		if err := chunkRows.Scan(&id, &status); err != nil {
			chunkRows.Close()
			return report, err
		}
		chunkIDs[id] = struct{}{}
		if status == "ready" {
			readyIDs[id] = struct{}{}
		}
	}
	chunkRows.Close()

	ftsRows, err := s.db.QueryContext(ctx, `SELECT chunk_id FROM chunks_fts`)
	if err != nil {
		return report, fmt.Errorf("query chunks_fts: %w", err)
	}
	ftsIDs := map[string]struct{}{}
	for ftsRows.Next() {
		var id string
		if err := ftsRows.Scan(&id); err != nil {
			ftsRows.Close()
			return report, err
		}
		ftsIDs[id] = struct{}{}
	}
	ftsRows.Close()

	for id := range chunkIDs {
		if _, ok := ftsIDs[id]; !ok {
			report.MissingFromFTS = append(report.MissingFromFTS, id)
		}
	}
	for id := range ftsIDs {
		if _, ok := chunkIDs[id]; !ok {
			report.OrphanedInFTS = append(report.OrphanedInFTS, id)
		}
	}
	for id := range readyIDs {
		if !s.vec.Contains(id) {
			report.MissingFromVector = append(report.MissingFromVector, id)
		}
	}

	return report, nil
}
