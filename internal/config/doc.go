// Package config loads, normalizes, and validates birdstamp configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// BIRDSTAMP_EXIFTOOL. Always obtain settings through this package so
// downstream code receives sanitized paths, canonical enum values, and clear
// validation errors.
package config
