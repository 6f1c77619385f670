package render

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// Encode writes the final raster to dest. The write goes to a temporary
// file in the destination directory and renames into place, so an
// interrupted run never leaves a truncated image under the final name.
func Encode(img image.Image, dest string, quality int) error {
	if quality <= 0 || quality > 100 {
		quality = 92
	}
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	format, err := formatFor(dest)
	if err != nil {
		cleanup()
		return err
	}
	if err := imaging.Encode(tmp, img, format, imaging.JPEGQuality(quality)); err != nil {
		cleanup()
		return fmt.Errorf("encode %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("flush %s: %w", dest, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("finalize %s: %w", dest, err)
	}
	return nil
}

func formatFor(dest string) (imaging.Format, error) {
	switch strings.ToLower(filepath.Ext(dest)) {
	case ".jpg", ".jpeg":
		return imaging.JPEG, nil
	case ".png":
		return imaging.PNG, nil
	case ".tif", ".tiff":
		return imaging.TIFF, nil
	}
	return 0, fmt.Errorf("unsupported output format %q", filepath.Ext(dest))
}
