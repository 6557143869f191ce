// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package store provides the persistent, vertically-partitioned index
// backing a single repo's duplicate-detection state: tracked files and
// their extracted units, with unit embeddings kept in a separate table so
// reads that need no vectors (counting units, listing tracked files) never
// touch the heavier vector payloads; the unit getters join them in.
package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/dryhq/dry/pkg/extract"
)

// TrackedFile is a row in the files table: the last-seen state of one
// source file, used to detect new/changed/deleted files between scans.
type TrackedFile struct {
	FilePath string
	Checksum string
	Size     int64
	ModTime  int64 // Unix seconds, as observed at last scan.
}

// Store is the SQLite-backed persistent index for one repo.
type Store struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the SQLite database at dbPath and
// ensures its schema exists. dbPath is typically "<repo>/.dry/dry.db".
func Open(ctx context.Context, dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dbPath, err)
	}
	// SQLite has one writer at a time; a single pooled connection avoids
	// SQLITE_BUSY from the driver handing out a second connection under
	// concurrent access, matching the teacher's single-RWMutex discipline
	// over its own embedded backend.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: dbPath}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// init creates the schema if it doesn't already exist. Safe to call on
// every Open.
func (s *Store) init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stmts := []string{
		`PRAGMA journal_mode=WAL`,
		`PRAGMA foreign_keys = ON`,
		`CREATE TABLE IF NOT EXISTS files (
			file_path TEXT PRIMARY KEY,
			checksum  TEXT NOT NULL,
			size      INTEGER NOT NULL,
			mod_time  INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS units (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			file_path    TEXT NOT NULL,
			start_line   INTEGER NOT NULL,
			end_line     INTEGER NOT NULL,
			code         TEXT NOT NULL,
			unit_type    TEXT NOT NULL,
			parent_id    TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_units_file_path ON units(file_path)`,
		`CREATE INDEX IF NOT EXISTS idx_units_unit_type ON units(unit_type)`,
		`CREATE TABLE IF NOT EXISTS unit_embeddings (
			unit_id   TEXT PRIMARY KEY REFERENCES units(id) ON DELETE CASCADE,
			embedding BLOB NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: init schema: %w", err)
		}
	}
	return nil
}

// IsInitialized reports whether the schema (the units table) exists. Open
// creates the schema, so this is true for every Store that Open returned.
func (s *Store) IsInitialized(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type='table' AND name='units'`)
	var name string
	if err := row.Scan(&name); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SaveFile upserts a tracked file's scan state.
func (s *Store) SaveFile(ctx context.Context, f TrackedFile) error {
	return s.SaveFiles(ctx, []TrackedFile{f})
}

// SaveFiles upserts many tracked files in one transaction.
func (s *Store) SaveFiles(ctx context.Context, files []TrackedFile) error {
	if len(files) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO files (file_path, checksum, size, mod_time)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET
			checksum = excluded.checksum,
			size = excluded.size,
			mod_time = excluded.mod_time
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range files {
		if _, err := stmt.ExecContext(ctx, f.FilePath, f.Checksum, f.Size, f.ModTime); err != nil {
			return fmt.Errorf("store: save file %s: %w", f.FilePath, err)
		}
	}
	return tx.Commit()
}

// GetFile returns the tracked state for filePath, or ok=false if it isn't
// tracked.
func (s *Store) GetFile(ctx context.Context, filePath string) (TrackedFile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT file_path, checksum, size, mod_time FROM files WHERE file_path = ?`, filePath)

	var f TrackedFile
	if err := row.Scan(&f.FilePath, &f.Checksum, &f.Size, &f.ModTime); err != nil {
		if err == sql.ErrNoRows {
			return TrackedFile{}, false, nil
		}
		return TrackedFile{}, false, err
	}
	return f, true, nil
}

// GetAllFiles returns every tracked file.
func (s *Store) GetAllFiles(ctx context.Context) ([]TrackedFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT file_path, checksum, size, mod_time FROM files`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TrackedFile
	for rows.Next() {
		var f TrackedFile
		if err := rows.Scan(&f.FilePath, &f.Checksum, &f.Size, &f.ModTime); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// RemoveFilesByFilePaths deletes tracked file rows for the given paths.
func (s *Store) RemoveFilesByFilePaths(ctx context.Context, filePaths []string) error {
	if len(filePaths) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `DELETE FROM files WHERE file_path = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range filePaths {
		if _, err := stmt.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SaveUnit upserts a single unit (and its embedding, if attached).
func (s *Store) SaveUnit(ctx context.Context, u extract.IndexUnit) error {
	return s.SaveUnits(ctx, []extract.IndexUnit{u})
}

// SaveUnits upserts many units in one transaction. Units with a non-nil
// Embedding also upsert their embedding row; units with a nil Embedding
// leave any existing embedding row untouched.
func (s *Store) SaveUnits(ctx context.Context, units []extract.IndexUnit) error {
	if len(units) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	unitStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO units (id, name, file_path, start_line, end_line, code, unit_type, parent_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			file_path = excluded.file_path,
			start_line = excluded.start_line,
			end_line = excluded.end_line,
			code = excluded.code,
			unit_type = excluded.unit_type,
			parent_id = excluded.parent_id
	`)
	if err != nil {
		return err
	}
	defer unitStmt.Close()

	embedStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO unit_embeddings (unit_id, embedding) VALUES (?, ?)
		ON CONFLICT(unit_id) DO UPDATE SET embedding = excluded.embedding
	`)
	if err != nil {
		return err
	}
	defer embedStmt.Close()

	for _, u := range units {
		if _, err := unitStmt.ExecContext(ctx, u.ID, u.Name, u.FilePath, u.StartLine, u.EndLine, u.Code, string(u.UnitType), u.ParentID); err != nil {
			return fmt.Errorf("store: save unit %s: %w", u.ID, err)
		}
		if u.Embedding != nil {
			if _, err := embedStmt.ExecContext(ctx, u.ID, encodeEmbedding(u.Embedding)); err != nil {
				return fmt.Errorf("store: save embedding for %s: %w", u.ID, err)
			}
		}
	}
	return tx.Commit()
}

// GetUnit returns one unit by ID, with its embedding attached if present.
func (s *Store) GetUnit(ctx context.Context, id string) (extract.IndexUnit, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.name, u.file_path, u.start_line, u.end_line, u.code, u.unit_type, u.parent_id, e.embedding
		FROM units u LEFT JOIN unit_embeddings e ON e.unit_id = u.id
		WHERE u.id = ?`, id)

	u, embedding, err := scanUnitRow(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return extract.IndexUnit{}, false, nil
		}
		return extract.IndexUnit{}, false, err
	}
	u.Embedding = embedding
	return u, true, nil
}

// GetAllUnits returns every unit, with embeddings attached where present.
func (s *Store) GetAllUnits(ctx context.Context) ([]extract.IndexUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.name, u.file_path, u.start_line, u.end_line, u.code, u.unit_type, u.parent_id, e.embedding
		FROM units u LEFT JOIN unit_embeddings e ON e.unit_id = u.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []extract.IndexUnit
	for rows.Next() {
		u, embedding, err := scanUnitRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		u.Embedding = embedding
		out = append(out, u)
	}
	return out, rows.Err()
}

// GetUnitsByFilePath returns every unit belonging to filePath.
func (s *Store) GetUnitsByFilePath(ctx context.Context, filePath string) ([]extract.IndexUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.name, u.file_path, u.start_line, u.end_line, u.code, u.unit_type, u.parent_id, e.embedding
		FROM units u LEFT JOIN unit_embeddings e ON e.unit_id = u.id
		WHERE u.file_path = ?`, filePath)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []extract.IndexUnit
	for rows.Next() {
		u, embedding, err := scanUnitRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		u.Embedding = embedding
		out = append(out, u)
	}
	return out, rows.Err()
}

// CountUnits returns the total number of tracked units.
func (s *Store) CountUnits(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM units`).Scan(&n)
	return n, err
}

// RemoveUnitsByFilePaths deletes every unit (and cascades to its embedding)
// belonging to any of filePaths.
func (s *Store) RemoveUnitsByFilePaths(ctx context.Context, filePaths []string) error {
	if len(filePaths) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `DELETE FROM units WHERE file_path = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range filePaths {
		if _, err := stmt.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type scanFunc func(dest ...any) error

func scanUnitRow(scan scanFunc) (extract.IndexUnit, []float32, error) {
	var u extract.IndexUnit
	var unitType string
	var embeddingBlob []byte
	err := scan(&u.ID, &u.Name, &u.FilePath, &u.StartLine, &u.EndLine, &u.Code, &unitType, &u.ParentID, &embeddingBlob)
	if err != nil {
		return extract.IndexUnit{}, nil, err
	}
	u.UnitType = extract.UnitType(unitType)
	if embeddingBlob == nil {
		return u, nil, nil
	}
	return u, decodeEmbedding(embeddingBlob), nil
}

// encodeEmbedding packs a float32 vector as little-endian bytes, 4 bytes
// per component, with no length prefix (the BLOB's own byte length is the
// prefix: len(bytes)/4 components).
func encodeEmbedding(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeEmbedding(b []byte) []float32 {
	n := len(b) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}
