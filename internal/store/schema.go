package store

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaDDL creates the three cooperating tables plus the chunks_fts FTS5
// virtual table. chunks_fts is kept external-content-free (a plain fts5
// table carrying its own copy of chunk_id/content/metadata_text) rather
// than SQLite's content=/content_rowid= linkage: that linkage requires an
// INTEGER rowid, and chunks.id is a content-addressable text hash. Sync is
// done explicitly by Go code in the same transaction as chunk writes,
// delete-then-insert since FTS5 has no REPLACE.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS documents (
	id            TEXT PRIMARY KEY,
	content       TEXT NOT NULL,
	media_type    TEXT NOT NULL,
	metadata_json TEXT NOT NULL DEFAULT '{}',
	created_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS chunks (
	id               TEXT PRIMARY KEY,
	document_id      TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	chunk_index      INTEGER NOT NULL,
	content          TEXT NOT NULL,
	chunk_type       TEXT NOT NULL,
	language         TEXT NOT NULL DEFAULT '',
	metadata_json    TEXT NOT NULL DEFAULT '{}',
	embedding_status TEXT NOT NULL DEFAULT 'pending',
	batch_job_id     TEXT NOT NULL DEFAULT '',
	error_message    TEXT NOT NULL DEFAULT '',
	UNIQUE(document_id, chunk_index)
);
CREATE INDEX IF NOT EXISTS idx_chunks_document_id ON chunks(document_id);
CREATE INDEX IF NOT EXISTS idx_chunks_batch_job_id ON chunks(batch_job_id);

CREATE TABLE IF NOT EXISTS batch_jobs (
	id            TEXT PRIMARY KEY,
	status        TEXT NOT NULL,
	remote_job_id TEXT NOT NULL DEFAULT '',
	chunk_count   INTEGER NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS media_tasks (
	id               TEXT PRIMARY KEY,
	document_id      TEXT NOT NULL,
	media_path       TEXT NOT NULL,
	media_type       TEXT NOT NULL,
	mime_type        TEXT NOT NULL DEFAULT '',
	user_prompt      TEXT NOT NULL DEFAULT '',
	context_text     TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL,
	error_message    TEXT NOT NULL DEFAULT '',
	description      TEXT,
	alt_text         TEXT,
	keywords         TEXT NOT NULL DEFAULT '',
	ocr_text         TEXT,
	transcription    TEXT,
	participants     TEXT NOT NULL DEFAULT '',
	action_items     TEXT NOT NULL DEFAULT '',
	duration_seconds REAL,
	result_chunk_id  TEXT NOT NULL DEFAULT '',
	created_at       INTEGER NOT NULL,
	updated_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_media_tasks_status ON media_tasks(status);

CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
	chunk_id UNINDEXED,
	content,
	metadata_text,
	tokenize = 'unicode61'
);

CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);
`

const currentSchemaVersion = 1

func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		return fmt.Errorf("read schema_version: %w", err)
	}
	if count == 0 {
		if _, err := db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
			return fmt.Errorf("seed schema_version: %w", err)
		}
	}
	return nil
}

// ensureFTSPopulated performs a one-shot bootstrap populate: if
// chunks_fts is empty while chunks is not (e.g. a database created before
// FTS existed, or recovered from a partial write), rebuild it from chunks.
func (s *Store) ensureFTSPopulated(ctx context.Context) error {
	var chunkCount, ftsCount int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&chunkCount); err != nil {
		return fmt.Errorf("count chunks: %w", err)
	}
	if chunkCount == 0 {
		return nil
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks_fts").Scan(&ftsCount); err != nil {
		return fmt.Errorf("count chunks_fts: %w", err)
	}
	if ftsCount > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, "SELECT id, content, metadata_json FROM chunks")
	if err != nil {
		return fmt.Errorf("scan chunks for fts populate: %w", err)
	}
	type row struct{ id, content, metaText string }
	var toInsert []row
	for rows.Next() {
		var id, content, metaJSON string
		if err := rows.Scan(&id, &content, &metaJSON); err != nil {
			rows.Close()
			return err
		}
		toInsert = append(toInsert, row{id, content, metadataJSONToText(metaJSON)})
	}
	rows.Close()

	for _, r := range toInsert {
		if _, err := tx.ExecContext(ctx, `INSERT INTO chunks_fts (chunk_id, content, metadata_text) VALUES (?, ?, ?)`, r.id, r.content, r.metaText); err != nil {
			return fmt.Errorf("populate chunks_fts: %w", err)
		}
	}

	return tx.Commit()
}
