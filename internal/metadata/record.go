package metadata

import "strings"

// Provenance identifies which engine produced a Record.
type Provenance string

const (
	ProvenanceExifTool Provenance = "exiftool"
	ProvenanceEmbedded Provenance = "embedded"
	ProvenanceNone     Provenance = "none"
)

// Record maps recognized metadata tag names to textual values for one source
// file. Built once per input file and read-only afterward.
type Record struct {
	Source     string
	Provenance Provenance
	Tags       map[string]string

	lookup map[string]string
}

// NewRecord builds a Record with a case-insensitive lookup index. Group
// prefixes ("Composite:GPSLatitude") are also indexed by their last segment.
func NewRecord(source string, provenance Provenance, tags map[string]string) *Record {
	rec := &Record{
		Source:     source,
		Provenance: provenance,
		Tags:       tags,
		lookup:     make(map[string]string, len(tags)),
	}
	for key, value := range tags {
		k := strings.ToLower(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		if _, ok := rec.lookup[k]; !ok {
			rec.lookup[k] = value
		}
		if idx := strings.LastIndex(k, ":"); idx >= 0 {
			short := k[idx+1:]
			if _, ok := rec.lookup[short]; !ok {
				rec.lookup[short] = value
			}
		}
	}
	return rec
}

// EmptyRecord returns the downgraded record used when every extraction engine
// failed. Downstream stages render its fields blank, never crash.
func EmptyRecord(source string) *Record {
	return NewRecord(source, ProvenanceNone, nil)
}

// Get returns the first non-empty value among the candidate tag names.
func (r *Record) Get(candidates ...string) string {
	if r == nil {
		return ""
	}
	for _, key := range candidates {
		value := strings.TrimSpace(r.lookup[strings.ToLower(key)])
		if value != "" {
			return value
		}
	}
	return ""
}

// Empty reports whether the record carries no tags.
func (r *Record) Empty() bool {
	return r == nil || len(r.Tags) == 0
}
