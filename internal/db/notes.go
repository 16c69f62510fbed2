package db

import (
	"database/sql"
	"errors"
)

// Note is the index row for one note file, keyed by its "section/name" ref.
type Note struct {
	ID         int64
	Ref        string
	Section    string
	Name       string
	ModifiedAt int64
	IndexedAt  int64
}

type Chunk struct {
	ID        int64
	NoteID    int64
	Content   string
	StartLine int
	EndLine   int
}

type ChunkWithScore struct {
	Chunk
	Distance float64
	Ref      string
}

func (db *DB) GetNote(ref string) (*Note, error) {
	var n Note
	err := db.conn.QueryRow(
		"SELECT id, ref, section, name, modified_at, indexed_at FROM notes WHERE ref = ?",
		ref,
	).Scan(&n.ID, &n.Ref, &n.Section, &n.Name, &n.ModifiedAt, &n.IndexedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (db *DB) UpsertNote(ref, section, name string, modifiedAt, indexedAt int64) (int64, error) {
	var id int64
	err := db.conn.QueryRow(`
		INSERT INTO notes (ref, section, name, modified_at, indexed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(ref) DO UPDATE SET
			modified_at = excluded.modified_at,
			indexed_at = excluded.indexed_at
		RETURNING id
	`, ref, section, name, modifiedAt, indexedAt).Scan(&id)
	return id, err
}

// DeleteNote drops a note with its chunks and vectors. Unknown refs are a no-op.
func (db *DB) DeleteNote(ref string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	var noteID int64
	err = tx.QueryRow("SELECT id FROM notes WHERE ref = ?", ref).Scan(&noteID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := deleteChunks(tx, noteID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM notes WHERE id = ?", noteID); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteSection drops every indexed note under section.
func (db *DB) DeleteSection(section string) error {
	rows, err := db.conn.Query("SELECT ref FROM notes WHERE section = ?", section)
	if err != nil {
		return err
	}
	refs, err := scanStrings(rows)
	if err != nil {
		return err
	}

	for _, ref := range refs {
		if err := db.DeleteNote(ref); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) ReplaceChunks(noteID int64, chunks []Chunk) ([]int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	if err := deleteChunks(tx, noteID); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(chunks))
	for _, c := range chunks {
		res, err := tx.Exec(
			"INSERT INTO chunks (note_id, content, start_line, end_line) VALUES (?, ?, ?, ?)",
			noteID, c.Content, c.StartLine, c.EndLine,
		)
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, tx.Commit()
}

func (db *DB) InsertEmbedding(chunkID int64, embedding []byte) error {
	_, err := db.conn.Exec(
		"INSERT INTO vec_chunks (chunk_id, embedding) VALUES (?, ?)",
		chunkID, embedding,
	)
	return err
}

func (db *DB) SearchSimilar(queryEmbedding []byte, limit int) ([]ChunkWithScore, error) {
	rows, err := db.conn.Query(`
		SELECT
			v.chunk_id,
			v.distance,
			c.note_id,
			c.content,
			c.start_line,
			c.end_line,
			n.ref
		FROM vec_chunks v
		JOIN chunks c ON c.id = v.chunk_id
		JOIN notes n ON n.id = c.note_id
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance
	`, queryEmbedding, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var results []ChunkWithScore
	for rows.Next() {
		var c ChunkWithScore
		if err := rows.Scan(&c.ID, &c.Distance, &c.NoteID, &c.Content, &c.StartLine, &c.EndLine, &c.Ref); err != nil {
			return nil, err
		}
		results = append(results, c)
	}

	return results, rows.Err()
}

func (db *DB) AllNotes() ([]Note, error) {
	rows, err := db.conn.Query("SELECT id, ref, section, name, modified_at, indexed_at FROM notes ORDER BY ref")
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var notes []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.Ref, &n.Section, &n.Name, &n.ModifiedAt, &n.IndexedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (db *DB) ChunksForNote(noteID int64) ([]Chunk, error) {
	rows, err := db.conn.Query(
		"SELECT id, note_id, content, start_line, end_line FROM chunks WHERE note_id = ? ORDER BY start_line",
		noteID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.ID, &c.NoteID, &c.Content, &c.StartLine, &c.EndLine); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (db *DB) NoteCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM notes").Scan(&count)
	return count, err
}

func (db *DB) ChunkCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&count)
	return count, err
}

// deleteChunks removes vectors before rows; vec0 tables do not cascade.
func deleteChunks(tx *sql.Tx, noteID int64) error {
	rows, err := tx.Query("SELECT id FROM chunks WHERE note_id = ?", noteID)
	if err != nil {
		return err
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close() //nolint:errcheck
			return err
		}
		ids = append(ids, id)
	}
	if err := rows.Close(); err != nil {
		return err
	}

	for _, id := range ids {
		if _, err := tx.Exec("DELETE FROM vec_chunks WHERE chunk_id = ?", id); err != nil {
			return err
		}
	}

	_, err = tx.Exec("DELETE FROM chunks WHERE note_id = ?", noteID)
	return err
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close() //nolint:errcheck

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
