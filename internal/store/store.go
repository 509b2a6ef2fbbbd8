// Package store is the engine's single embedded persistence layer:
// a SQLite database holding documents, chunks and batch jobs, an FTS5
// virtual table kept in sync with chunks, and an in-process HNSW vector
// index.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/vmonin/semknow/internal/engerr"
)

// Store is the engine's embedded store: one SQLite connection plus one
// HNSW vector index, written together so that a save or delete is atomic
// across both halves.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	vec    *VectorIndex
	dbPath string
}

// Open opens (creating if necessary) a SQLite database at path and wires
// an HNSW vector index of the given dimension alongside it. path may be
// ":memory:" for tests.
func Open(ctx context.Context, path string, vectorDimension int) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	vec, err := NewVectorIndex(DefaultVectorConfig(vectorDimension))
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, vec: vec, dbPath: path}

	if err := s.ensureFTSPopulated(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}

// Close releases the SQLite connection and the in-memory vector index.
// It does not persist the vector index to disk; call SaveVectorIndex
// first if durability across process restarts is required.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.vec.Close(); err != nil {
		return err
	}
	return s.db.Close()
}

// SaveVectorIndex persists the HNSW side-store to path. The vector half
// lives in its own file pair since coder/hnsw has no SQLite binding.
func (s *Store) SaveVectorIndex(path string) error {
	return s.vec.Save(path)
}

// LoadVectorIndex restores the HNSW side-store from a prior SaveVectorIndex.
func (s *Store) LoadVectorIndex(path string) error {
	return s.vec.Load(path)
}

func mapNotFound(entity, id string, err error) error {
	if err == sql.ErrNoRows {
		return engerr.NotFound(entity, id)
	}
	return err
}
