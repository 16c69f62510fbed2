// Package db is the SQLite store behind notedx: a vector index of note
// chunks (sqlite-vec) and a ledger of backup runs and OSINT lookups.
package db

import (
	"database/sql"
	"fmt"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	conn     *sql.DB
	embedDim int
}

func init() {
	sqlite_vec.Auto()
}

func Open(path string, embedDim int) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, embedDim: embedDim}
	if err := db.init(); err != nil {
		conn.Close() //nolint:errcheck
		return nil, err
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) EmbedDim() int {
	return db.embedDim
}

func (db *DB) init() error {
	var vecVersion string
	if err := db.conn.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		return fmt.Errorf("sqlite-vec not available: %w", err)
	}

	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS notes (
			id INTEGER PRIMARY KEY,
			ref TEXT UNIQUE NOT NULL,
			section TEXT NOT NULL,
			name TEXT NOT NULL,
			modified_at INTEGER,
			indexed_at INTEGER
		);

		CREATE TABLE IF NOT EXISTS chunks (
			id INTEGER PRIMARY KEY,
			note_id INTEGER REFERENCES notes(id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			start_line INTEGER,
			end_line INTEGER
		);

		CREATE INDEX IF NOT EXISTS idx_chunks_note_id ON chunks(note_id);

		CREATE VIRTUAL TABLE IF NOT EXISTS vec_chunks USING vec0(
			chunk_id INTEGER PRIMARY KEY,
			embedding float[%d]
		);

		CREATE TABLE IF NOT EXISTS backups (
			id INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			files INTEGER NOT NULL DEFAULT 0,
			bytes INTEGER NOT NULL DEFAULT 0,
			taken_at INTEGER NOT NULL,
			error TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS lookups (
			id INTEGER PRIMARY KEY,
			kind TEXT NOT NULL,
			input TEXT NOT NULL,
			result TEXT NOT NULL,
			looked_up_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_lookups_at ON lookups(looked_up_at);
	`, db.embedDim)

	_, err := db.conn.Exec(schema)
	return err
}
