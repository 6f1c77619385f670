package naming

import (
	"regexp"
	"strings"
)

// Source identifies which channel produced the bird name.
type Source string

const (
	SourceCLI        Source = "cli"
	SourceMetadata   Source = "metadata"
	SourceReport     Source = "report"
	SourceFilename   Source = "filename"
	SourceUnresolved Source = "unresolved"
)

// Resolution is the chosen bird name plus its winning source. Exactly one
// source wins per resolution.
type Resolution struct {
	Name   string
	Source Source
}

// Resolved reports whether any source produced a name.
func (r Resolution) Resolved() bool {
	return r.Source != SourceUnresolved
}

// Inputs carries the candidate names for one file in priority order slots.
type Inputs struct {
	// Override is the run-wide --bird flag value.
	Override string
	// MetadataName is the species tag read from the file's metadata.
	MetadataName string
	// ReportName is the species recorded by an analysis report database.
	ReportName string
	// Stem is the file's base name without extension.
	Stem string
}

// Resolver applies the bird-name priority chain.
type Resolver struct {
	priority []string
	regex    *regexp.Regexp
	table    *Table
}

// NewResolver builds a resolver. Priority entries are a subset of
// arg, meta, report, filename; an empty priority uses the full default
// chain. The regex extracts a candidate token from file stems; a table,
// when present, gates which tokens count as species names.
func NewResolver(priority []string, regex *regexp.Regexp, table *Table) *Resolver {
	if len(priority) == 0 {
		priority = []string{"arg", "meta", "report", "filename"}
	}
	return &Resolver{priority: priority, regex: regex, table: table}
}

// Resolve walks the priority chain and returns the first non-empty match.
// An exhausted chain yields SourceUnresolved with an empty name, never an
// error; whether that fails the file is the template's call.
func (r *Resolver) Resolve(in Inputs) Resolution {
	for _, item := range r.priority {
		switch strings.ToLower(strings.TrimSpace(item)) {
		case "arg", "cli":
			if name := strings.TrimSpace(in.Override); name != "" {
				return Resolution{Name: name, Source: SourceCLI}
			}
		case "meta", "metadata":
			if name := strings.TrimSpace(in.MetadataName); name != "" {
				return Resolution{Name: name, Source: SourceMetadata}
			}
		case "report":
			if name := strings.TrimSpace(in.ReportName); name != "" {
				return Resolution{Name: name, Source: SourceReport}
			}
		case "filename":
			if name := r.fromStem(in.Stem); name != "" {
				return Resolution{Name: name, Source: SourceFilename}
			}
		}
	}
	return Resolution{Source: SourceUnresolved}
}

// fromStem extracts a species token from a file stem. The regex proposes a
// candidate; the species table, when configured, must recognize it. Without
// a table, tokens that look like dates or sequence counters are rejected so
// a stem like 20260503_0142 never becomes a bird name.
func (r *Resolver) fromStem(stem string) string {
	if r.regex == nil || stem == "" {
		return ""
	}
	match := r.regex.FindStringSubmatch(stem)
	if match == nil {
		return ""
	}
	candidate := match[0]
	for i, name := range r.regex.SubexpNames() {
		if name == "bird" && i < len(match) {
			candidate = match[i]
			break
		}
		if i == 1 && name == "" && len(match) > 1 {
			candidate = match[1]
		}
	}
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return ""
	}
	if r.table != nil {
		return r.table.Match(stem)
	}
	if looksSequential(candidate) {
		return ""
	}
	return candidate
}

// looksSequential reports whether a token carries digits, the shape of
// dates and camera sequence counters like DSC-1234. Species names do not
// contain digits, so any digit disqualifies the token when no species
// table is present to vouch for it.
func looksSequential(token string) bool {
	for _, r := range token {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}
