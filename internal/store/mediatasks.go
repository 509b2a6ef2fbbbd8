package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vmonin/semknow/internal/domain"
)

// SaveMediaTask upserts a MediaTask row.
func (s *Store) SaveMediaTask(ctx context.Context, t *domain.MediaTask) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO media_tasks (
			id, document_id, media_path, media_type, mime_type, user_prompt, context_text,
			status, error_message, description, alt_text, keywords, ocr_text, transcription,
			participants, action_items, duration_seconds, result_chunk_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			description = excluded.description,
			alt_text = excluded.alt_text,
			keywords = excluded.keywords,
			ocr_text = excluded.ocr_text,
			transcription = excluded.transcription,
			participants = excluded.participants,
			action_items = excluded.action_items,
			duration_seconds = excluded.duration_seconds,
			result_chunk_id = excluded.result_chunk_id,
			updated_at = excluded.updated_at
	`,
		t.ID, t.DocumentID, t.MediaPath, string(t.MediaType), t.MimeType, t.UserPrompt, t.ContextText,
		string(t.Status), t.ErrorMessage, nullableString(t.Description), nullableString(t.AltText),
		domain.EncodeList(t.Keywords), nullableString(t.OCRText), nullableString(t.Transcription),
		domain.EncodeList(t.Participants), domain.EncodeList(t.ActionItems), nullableFloat(t.DurationSeconds),
		t.ResultChunkID, t.CreatedAt.Unix(), t.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("save media task: %w", err)
	}
	return nil
}

// GetMediaTask fetches a MediaTask by id.
func (s *Store) GetMediaTask(ctx context.Context, id string) (*domain.MediaTask, error) {
	row := s.db.QueryRowContext(ctx, mediaTaskSelect+" WHERE id = ?", id)
	t, err := scanMediaTask(row)
	if err != nil {
		return nil, mapNotFound("media_task", id, err)
	}
	return t, nil
}

// NextPendingMediaTasks returns up to limit pending tasks, oldest first,
// for mediaqueue.Processor.ProcessOne.
func (s *Store) NextPendingMediaTasks(ctx context.Context, limit int) ([]domain.MediaTask, error) {
	rows, err := s.db.QueryContext(ctx, mediaTaskSelect+`
		WHERE status = ? ORDER BY created_at ASC LIMIT ?
	`, string(domain.MediaTaskStatusPending), limit)
	if err != nil {
		return nil, fmt.Errorf("query pending media tasks: %w", err)
	}
	defer rows.Close()

	var out []domain.MediaTask
	for rows.Next() {
		t, err := scanMediaTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

const mediaTaskSelect = `
	SELECT id, document_id, media_path, media_type, mime_type, user_prompt, context_text,
		status, error_message, description, alt_text, keywords, ocr_text, transcription,
		participants, action_items, duration_seconds, result_chunk_id, created_at, updated_at
	FROM media_tasks
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMediaTask(row rowScanner) (*domain.MediaTask, error) {
	var t domain.MediaTask
	var mediaType, status string
	var description, altText, ocrText, transcription sql.NullString
	var keywords, participants, actionItems string
	var duration sql.NullFloat64
	var createdAt, updatedAt int64

	if err := row.Scan(
		&t.ID, &t.DocumentID, &t.MediaPath, &mediaType, &t.MimeType, &t.UserPrompt, &t.ContextText,
		&status, &t.ErrorMessage, &description, &altText, &keywords, &ocrText, &transcription,
		&participants, &actionItems, &duration, &t.ResultChunkID, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	t.MediaType = domain.MediaType(mediaType)
	t.Status = domain.MediaTaskStatus(status)
	t.Description = nullStringToPtr(description)
	t.AltText = nullStringToPtr(altText)
	t.Keywords = domain.DecodeList(keywords)
	t.OCRText = nullStringToPtr(ocrText)
	t.Transcription = nullStringToPtr(transcription)
	t.Participants = domain.DecodeList(participants)
	t.ActionItems = domain.DecodeList(actionItems)
	if duration.Valid {
		t.DurationSeconds = &duration.Float64
	}
	t.CreatedAt = unixToTime(createdAt)
	t.UpdatedAt = unixToTime(updatedAt)
	return &t, nil
}

func nullableString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullableFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func nullStringToPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	v := n.String
	return &v
}
