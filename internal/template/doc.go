// Package template parses and validates banner templates.
//
// A template resolves from either a built-in name (default, minimal, dark,
// compact, all embedded in the binary) or a YAML/JSON file
// produced by the template editor. Loading and validation share one entry
// point, Load, so downstream code never needs to know a template's
// provenance. Validation failures carry the offending key path.
package template
