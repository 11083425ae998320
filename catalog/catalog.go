// Package catalog keeps a small SQLite manifest of pyramid builds: what
// was built, from what source, when, and where its archive ended up.
// Adapted from an MBTiles-format reader/writer pair, generalized from
// storing tile blobs in SQLite (this module keeps tiles in mmap'd level
// files and packaged archives instead) to storing build records.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// BuildRecord is one row of the builds table.
type BuildRecord struct {
	ID             int64
	SourcePath     string
	Width          int
	Height         int
	LevelCount     int
	ArchivePath    string
	DecoderKind    string
	DownsampleKind string
	CreatedAtUnix  int64
}

// Catalog is a handle on the manifest database. Safe for concurrent use:
// database/sql pools its own connections.
type Catalog struct {
	db *sql.DB
}

// OpenCatalog opens (creating if necessary) the manifest database at path
// and ensures its schema exists.
func OpenCatalog(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS builds (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			source_path      TEXT NOT NULL,
			width            INTEGER NOT NULL,
			height           INTEGER NOT NULL,
			level_count      INTEGER NOT NULL,
			archive_path     TEXT NOT NULL,
			decoder_kind     TEXT NOT NULL,
			downsample_kind  TEXT NOT NULL,
			created_at_unix  INTEGER NOT NULL
		);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: create schema: %w", err)
	}

	return &Catalog{db: db}, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

// RecordBuild inserts one build record and returns its assigned ID.
func (c *Catalog) RecordBuild(rec BuildRecord) (int64, error) {
	result, err := c.db.Exec(
		`INSERT INTO builds (source_path, width, height, level_count, archive_path, decoder_kind, downsample_kind, created_at_unix)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SourcePath, rec.Width, rec.Height, rec.LevelCount, rec.ArchivePath, rec.DecoderKind, rec.DownsampleKind, rec.CreatedAtUnix,
	)
	if err != nil {
		return 0, fmt.Errorf("catalog: record build: %w", err)
	}
	return result.LastInsertId()
}

// Builds returns every recorded build, oldest first.
func (c *Catalog) Builds() ([]BuildRecord, error) {
	rows, err := c.db.Query(`
		SELECT id, source_path, width, height, level_count, archive_path, decoder_kind, downsample_kind, created_at_unix
		FROM builds ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list builds: %w", err)
	}
	defer rows.Close()

	var out []BuildRecord
	for rows.Next() {
		var r BuildRecord
		if err := rows.Scan(&r.ID, &r.SourcePath, &r.Width, &r.Height, &r.LevelCount, &r.ArchivePath, &r.DecoderKind, &r.DownsampleKind, &r.CreatedAtUnix); err != nil {
			return nil, fmt.Errorf("catalog: scan build: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list builds: %w", err)
	}
	return out, nil
}

// BuildByID looks up a single build record, returning false if not found.
func (c *Catalog) BuildByID(id int64) (BuildRecord, bool, error) {
	var r BuildRecord
	err := c.db.QueryRow(`
		SELECT id, source_path, width, height, level_count, archive_path, decoder_kind, downsample_kind, created_at_unix
		FROM builds WHERE id = ?
	`, id).Scan(&r.ID, &r.SourcePath, &r.Width, &r.Height, &r.LevelCount, &r.ArchivePath, &r.DecoderKind, &r.DownsampleKind, &r.CreatedAtUnix)
	if errors.Is(err, sql.ErrNoRows) {
		return BuildRecord{}, false, nil
	}
	if err != nil {
		return BuildRecord{}, false, fmt.Errorf("catalog: get build %d: %w", id, err)
	}
	return r, true, nil
}
