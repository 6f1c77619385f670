// Package render owns pixels: decoding sources, reshaping them for the
// output mode, painting a layout plan, and writing the final file.
//
// Decoding covers JPEG, PNG, and TIFF in process, with camera raw files
// handled through darktable-cli when installed. Output writes go through
// a temp-then-rename so an aborted job never leaves a truncated image.
package render
