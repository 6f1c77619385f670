package report

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func createReportDB(t *testing.T, path string, rows ...Row) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	const schema = `
		CREATE TABLE photos (
			filename TEXT PRIMARY KEY,
			bird_species_cn TEXT,
			bird_species_en TEXT,
			rating INTEGER,
			pick INTEGER
		)`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	for _, row := range rows {
		_, err := db.Exec(
			"INSERT INTO photos (filename, bird_species_cn, bird_species_en, rating, pick) VALUES (?, ?, ?, ?, ?)",
			row.Filename, row.SpeciesCN, row.SpeciesEN, row.Rating, row.Pick)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
}

func TestExistingPathsPrefersSuperpicky(t *testing.T) {
	dir := t.TempDir()
	createReportDB(t, filepath.Join(dir, "report.db"))
	createReportDB(t, filepath.Join(dir, ".superpicky", "report.db"))

	paths := ExistingPaths(dir)
	if len(paths) != 2 {
		t.Fatalf("paths = %v", paths)
	}
	if paths[0] != filepath.Join(dir, ".superpicky", "report.db") {
		t.Fatalf("first path = %q", paths[0])
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	createReportDB(t, filepath.Join(root, "report.db"))
	nested := filepath.Join(root, "child", "leaf")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got := Discover(filepath.Join(nested, "sample.jpg"))
	if got != filepath.Join(root, "report.db") {
		t.Fatalf("discover = %q", got)
	}
}

func TestDiscoverMissing(t *testing.T) {
	if got := Discover(t.TempDir()); got != "" {
		t.Fatalf("discover = %q, want empty", got)
	}
}

func TestLookupKeysCoverFilenameAndStem(t *testing.T) {
	keys := LookupKeys("/photos/sample.jpg")
	want := []string{"/photos/sample.jpg", "sample.jpg", "sample"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v", keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestLookupTriesKeysInOrder(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "report.db")
	createReportDB(t, dbPath,
		Row{Filename: "sample.jpg", SpeciesCN: "红胁蓝尾鸲", SpeciesEN: "Red-flanked Bluetail", Rating: 4, Pick: 1},
		Row{Filename: "stemonly", SpeciesEN: "Grey Heron"},
	)

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	row, err := db.Lookup(context.Background(), filepath.Join(dir, "sample.jpg"))
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if row == nil || row.Species() != "红胁蓝尾鸲" {
		t.Fatalf("row = %+v", row)
	}

	row, err = db.Lookup(context.Background(), filepath.Join(dir, "stemonly.jpg"))
	if err != nil {
		t.Fatalf("lookup stem: %v", err)
	}
	if row == nil || row.Species() != "Grey Heron" {
		t.Fatalf("stem row = %+v", row)
	}

	row, err = db.Lookup(context.Background(), filepath.Join(dir, "absent.jpg"))
	if err != nil {
		t.Fatalf("lookup absent: %v", err)
	}
	if row != nil {
		t.Fatalf("absent row = %+v", row)
	}
}

func TestLookupMissingTable(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "report.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := db.Exec("CREATE TABLE smoke_test (id INTEGER PRIMARY KEY)"); err != nil {
		t.Fatalf("create: %v", err)
	}
	db.Close()

	rdb, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer rdb.Close()

	row, err := rdb.Lookup(context.Background(), "sample.jpg")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if row != nil {
		t.Fatalf("row = %+v", row)
	}
}
