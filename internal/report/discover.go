package report

import (
	"os"
	"path/filepath"
)

// maxWalkLevels bounds the upward search for a report root.
const maxWalkLevels = 4

// candidateNames lists report database locations relative to a directory,
// most specific first. The .superpicky copy is authoritative when both
// exist.
func candidateNames(dir string) []string {
	return []string{
		filepath.Join(dir, ".superpicky", "report.db"),
		filepath.Join(dir, "report.db"),
	}
}

// ExistingPaths returns the report databases present in dir, priority order.
func ExistingPaths(dir string) []string {
	var found []string
	for _, candidate := range candidateNames(dir) {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			found = append(found, candidate)
		}
	}
	return found
}

// Discover walks upward from start looking for a directory that carries a
// report database. It returns the database path, or "" when none exists
// within the walk limit.
func Discover(start string) string {
	dir := start
	if info, err := os.Stat(start); err == nil && !info.IsDir() {
		dir = filepath.Dir(start)
	}
	for level := 0; level <= maxWalkLevels; level++ {
		if paths := ExistingPaths(dir); len(paths) > 0 {
			return paths[0]
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// LookupKeys returns the keys a photo may be filed under in the photos
// table: the full path, the base name, and the stem.
func LookupKeys(path string) []string {
	base := filepath.Base(path)
	stem := base[:len(base)-len(filepath.Ext(base))]
	keys := []string{path}
	if base != path {
		keys = append(keys, base)
	}
	if stem != base {
		keys = append(keys, stem)
	}
	return keys
}
