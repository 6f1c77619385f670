package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Row is one photos-table record relevant to banner rendering.
type Row struct {
	Filename  string
	SpeciesCN string
	SpeciesEN string
	Rating    int
	Pick      int
}

// Species returns the display species for the row: the Chinese name when
// present, otherwise the English name.
func (r Row) Species() string {
	if r.SpeciesCN != "" {
		return r.SpeciesCN
	}
	return r.SpeciesEN
}

// DB is a read-only handle on an analysis report database.
type DB struct {
	db   *sql.DB
	path string
}

// Open connects to the report database at path. The handle is read-only;
// this tool never mutates analysis results.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open report db: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragma: %w", err)
	}
	return &DB{db: db, path: path}, nil
}

// OpenNearest discovers and opens the report database for a photo path.
// It returns (nil, nil) when no database exists within the walk limit.
func OpenNearest(start string) (*DB, error) {
	path := Discover(start)
	if path == "" {
		return nil, nil
	}
	return Open(path)
}

// Path returns the database file location.
func (d *DB) Path() string {
	return d.path
}

// Lookup finds the photos row for a file, trying the full path, base name,
// and stem in that order. A missing row returns (nil, nil).
func (d *DB) Lookup(ctx context.Context, photoPath string) (*Row, error) {
	for _, key := range LookupKeys(photoPath) {
		row, err := d.lookupKey(ctx, key)
		if err != nil {
			return nil, err
		}
		if row != nil {
			return row, nil
		}
	}
	return nil, nil
}

func (d *DB) lookupKey(ctx context.Context, key string) (*Row, error) {
	const query = `
		SELECT filename,
		       COALESCE(bird_species_cn, ''),
		       COALESCE(bird_species_en, ''),
		       COALESCE(rating, 0),
		       COALESCE(pick, 0)
		FROM photos
		WHERE filename = ?
		LIMIT 1`

	var row Row
	err := d.db.QueryRowContext(ctx, query, key).Scan(
		&row.Filename, &row.SpeciesCN, &row.SpeciesEN, &row.Rating, &row.Pick)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		if isMissingTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup %q: %w", key, err)
	}
	row.SpeciesCN = strings.TrimSpace(row.SpeciesCN)
	row.SpeciesEN = strings.TrimSpace(row.SpeciesEN)
	return &row, nil
}

// isMissingTable matches databases created by older analysis runs that
// never wrote a photos table.
func isMissingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}

// Close releases the database handle.
func (d *DB) Close() error {
	return d.db.Close()
}
