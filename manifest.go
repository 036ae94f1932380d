package animagif

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rkburrow/animagif/crc32"
)

// Manifest is an optional SQLite-backed record of encode sessions, so a
// batch-encoding driver can tell which output files were already finished
// across restarts without re-reading every GIF it produced. It follows the
// same CREATE TABLE IF NOT EXISTS / sql.DB idiom as a conventional SQLite
// schema-on-open.
type Manifest struct {
	db *sql.DB
}

// OpenManifest opens (creating if necessary) a manifest database at file.
func OpenManifest(file string) (*Manifest, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS session (
		id INTEGER PRIMARY KEY NOT NULL,
		path TEXT NOT NULL UNIQUE,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		bit_depth INTEGER NOT NULL,
		dither INTEGER NOT NULL,
		frame_count INTEGER NOT NULL DEFAULT 0,
		bytes_written INTEGER NOT NULL DEFAULT 0,
		checksum INTEGER,
		started_at INTEGER NOT NULL,
		finished_at INTEGER
	)`); err != nil {
		db.Close()
		return nil, err
	}

	return &Manifest{db: db}, nil
}

// Close releases the underlying database handle.
func (m *Manifest) Close() error {
	return m.db.Close()
}

// Begin records the start of an encode session for path, replacing any
// existing record for the same path, finished or not.
func (m *Manifest) Begin(path string, width, height, bitDepth int, dither bool) error {
	_, err := m.db.Exec(
		`INSERT INTO session (path, width, height, bit_depth, dither, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
		   width=excluded.width, height=excluded.height, bit_depth=excluded.bit_depth,
		   dither=excluded.dither, started_at=excluded.started_at,
		   frame_count=0, bytes_written=0, finished_at=NULL`,
		path, width, height, bitDepth, dither, time.Now().Unix(),
	)
	return err
}

// RecordFrame increments the frame count and byte total for an in-progress
// session.
func (m *Manifest) RecordFrame(path string, bytesWritten int) error {
	_, err := m.db.Exec(
		`UPDATE session SET frame_count = frame_count + 1, bytes_written = bytes_written + ? WHERE path = ?`,
		bytesWritten, path,
	)
	return err
}

// Finish computes path's CRC-32 checksum, records it alongside a completion
// timestamp, and marks the session done.
func (m *Manifest) Finish(path string) error {
	sum, err := crc32.ChecksumFile(path)
	if err != nil {
		return err
	}

	_, err = m.db.Exec(
		`UPDATE session SET finished_at = ?, checksum = ? WHERE path = ?`,
		time.Now().Unix(), sum, path,
	)
	return err
}

// IsFinished reports whether path already has a completed session recorded
// whose checksum still matches the file on disk, letting a batch driver skip
// work it already did on a prior run while still catching a file that was
// truncated or otherwise modified since.
func (m *Manifest) IsFinished(path string) (bool, error) {
	var finished sql.NullInt64
	var checksum sql.NullInt64
	switch err := m.db.QueryRow(
		`SELECT finished_at, checksum FROM session WHERE path = ?`, path,
	).Scan(&finished, &checksum); err {
	case sql.ErrNoRows:
		return false, nil
	case nil:
		if !finished.Valid {
			return false, nil
		}
		if !checksum.Valid {
			return true, nil
		}
		sum, err := crc32.ChecksumFile(path)
		if err != nil {
			return false, nil
		}
		return sum == uint32(checksum.Int64), nil
	default:
		return false, err
	}
}
