package naming

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Table is a species name table loaded from a plain text file, one name
// per line. Matching is case-insensitive on the lookup side but preserves
// the table's original casing in results.
type Table struct {
	// names maps lowercase name to canonical form.
	names map[string]string
	// ordered holds lowercase names sorted longest first so that when two
	// table entries both occur in a stem, the longer one wins. Ties break
	// lexicographically to keep resolution deterministic.
	ordered []string
}

// LoadTable reads a species table file. Blank lines and lines starting
// with # are skipped.
func LoadTable(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open species table: %w", err)
	}
	defer file.Close()

	table := &Table{names: make(map[string]string)}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lowered := strings.ToLower(line)
		if _, dup := table.names[lowered]; !dup {
			table.names[lowered] = line
			table.ordered = append(table.ordered, lowered)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read species table: %w", err)
	}
	sort.Slice(table.ordered, func(i, j int) bool {
		if len(table.ordered[i]) != len(table.ordered[j]) {
			return len(table.ordered[i]) > len(table.ordered[j])
		}
		return table.ordered[i] < table.ordered[j]
	})
	return table, nil
}

// NewTable builds an in-memory table from names.
func NewTable(names ...string) *Table {
	table := &Table{names: make(map[string]string, len(names))}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		lowered := strings.ToLower(name)
		if _, dup := table.names[lowered]; !dup {
			table.names[lowered] = name
			table.ordered = append(table.ordered, lowered)
		}
	}
	sort.Slice(table.ordered, func(i, j int) bool {
		if len(table.ordered[i]) != len(table.ordered[j]) {
			return len(table.ordered[i]) > len(table.ordered[j])
		}
		return table.ordered[i] < table.ordered[j]
	})
	return table
}

// Len returns the number of table entries.
func (t *Table) Len() int {
	return len(t.names)
}

// Contains reports whether name is a known species.
func (t *Table) Contains(name string) bool {
	_, ok := t.names[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Match finds the species name occurring in stem, longest entry first,
// and returns its canonical casing. No occurrence returns "".
func (t *Table) Match(stem string) string {
	lowered := strings.ToLower(stem)
	for _, name := range t.ordered {
		if strings.Contains(lowered, name) {
			return t.names[name]
		}
	}
	return ""
}
