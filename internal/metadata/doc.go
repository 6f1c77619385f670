// Package metadata extracts and normalizes photo metadata.
//
// The preferred engine is a long-lived exiftool subprocess run in stay-open
// mode so a batch pays the interpreter startup cost once. When exiftool is
// unavailable the package degrades to parsing embedded EXIF directly, which
// covers the camera tags but not maker notes or XMP.
//
// Raw tag maps are turned into display-ready strings by Normalize, which
// owns all formatting rules: GPS coordinates, exposure fractions, the
// camera settings line, and capture time parsing.
package metadata
