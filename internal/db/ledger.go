package db

import "time"

type BackupRecord struct {
	ID    int64
	Path  string
	Files int
	Bytes int64
	Taken time.Time
	Err   string
}

func (r BackupRecord) Failed() bool { return r.Err != "" }

type LookupRecord struct {
	ID     int64
	Kind   string
	Input  string
	Result string
	At     time.Time
}

// RecordBackup stores the outcome of one backup run. A non-nil runErr marks
// the run as failed.
func (db *DB) RecordBackup(path string, files int, bytes int64, taken time.Time, runErr error) error {
	var msg string
	if runErr != nil {
		msg = runErr.Error()
	}
	_, err := db.conn.Exec(
		"INSERT INTO backups (path, files, bytes, taken_at, error) VALUES (?, ?, ?, ?, ?)",
		path, files, bytes, taken.Unix(), msg,
	)
	return err
}

// RecentBackups returns up to limit runs, newest first.
func (db *DB) RecentBackups(limit int) ([]BackupRecord, error) {
	rows, err := db.conn.Query(
		"SELECT id, path, files, bytes, taken_at, error FROM backups ORDER BY taken_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var records []BackupRecord
	for rows.Next() {
		var r BackupRecord
		var taken int64
		if err := rows.Scan(&r.ID, &r.Path, &r.Files, &r.Bytes, &taken, &r.Err); err != nil {
			return nil, err
		}
		r.Taken = time.Unix(taken, 0)
		records = append(records, r)
	}
	return records, rows.Err()
}

func (db *DB) RecordLookup(kind, input, result string, at time.Time) error {
	_, err := db.conn.Exec(
		"INSERT INTO lookups (kind, input, result, looked_up_at) VALUES (?, ?, ?, ?)",
		kind, input, result, at.Unix(),
	)
	return err
}

// RecentLookups returns up to limit lookups, newest first.
func (db *DB) RecentLookups(limit int) ([]LookupRecord, error) {
	rows, err := db.conn.Query(
		"SELECT id, kind, input, result, looked_up_at FROM lookups ORDER BY looked_up_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var records []LookupRecord
	for rows.Next() {
		var r LookupRecord
		var at int64
		if err := rows.Scan(&r.ID, &r.Kind, &r.Input, &r.Result, &at); err != nil {
			return nil, err
		}
		r.At = time.Unix(at, 0)
		records = append(records, r)
	}
	return records, rows.Err()
}
