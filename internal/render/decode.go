package render

import (
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/tiff"
)

// StandardExtensions are the formats the in-process decoder handles.
var StandardExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".tif": true, ".tiff": true,
}

// RawExtensions are camera raw and HEIF formats, decoded through
// darktable-cli when it is installed.
var RawExtensions = map[string]bool{
	".arw": true, ".cr2": true, ".cr3": true, ".nef": true,
	".raf": true, ".rw2": true, ".orf": true, ".dng": true,
	".heic": true, ".heif": true, ".hif": true,
}

// Supported reports whether path names a decodable image. RAW formats
// count only when the external decoder is present.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if StandardExtensions[ext] {
		return true
	}
	return RawExtensions[ext] && RawDecoderAvailable()
}

// RawDecoderAvailable reports whether darktable-cli is on PATH.
func RawDecoderAvailable() bool {
	_, err := exec.LookPath("darktable-cli")
	return err == nil
}

// Decode opens and orients a source image. JPEG orientation is applied
// from EXIF so a rotated camera file renders upright.
func Decode(path string) (image.Image, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if RawExtensions[ext] {
		return decodeRaw(path)
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return img, nil
}

// decodeRaw converts a camera raw file through darktable-cli into a
// temporary TIFF and decodes that.
func decodeRaw(path string) (image.Image, error) {
	tmp, err := os.CreateTemp("", "birdstamp-raw-*.tif")
	if err != nil {
		return nil, fmt.Errorf("stage raw decode: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	// darktable-cli refuses to overwrite an existing output file.
	os.Remove(tmpPath)
	defer os.Remove(tmpPath)

	cmd := exec.Command("darktable-cli", path, tmpPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(output))
		if detail == "" {
			detail = err.Error()
		}
		return nil, fmt.Errorf("%w: %s: darktable-cli: %s", ErrDecode, path, detail)
	}

	img, err := imaging.Open(tmpPath, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return img, nil
}
