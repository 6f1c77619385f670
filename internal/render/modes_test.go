package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"

	"birdstamp/internal/template"
)

func solidImage(w, h int, c color.NRGBA) image.Image {
	return imaging.New(w, h, c)
}

func dims(img image.Image) (int, int) {
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

func TestTransformKeepPassesThrough(t *testing.T) {
	src := solidImage(3000, 2000, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	out := TransformSource(src, TransformOptions{Mode: template.ModeKeep, MaxLongEdge: 1024})
	if w, h := dims(out); w != 3000 || h != 2000 {
		t.Fatalf("keep resized to %dx%d", w, h)
	}
}

func TestTransformFitCapsLongEdge(t *testing.T) {
	src := solidImage(3000, 2000, color.NRGBA{A: 255})
	out := TransformSource(src, TransformOptions{Mode: template.ModeFit, MaxLongEdge: 1500})
	if w, h := dims(out); w != 1500 || h != 1000 {
		t.Fatalf("fit = %dx%d", w, h)
	}

	// Small sources are never upscaled.
	small := solidImage(600, 400, color.NRGBA{A: 255})
	out = TransformSource(small, TransformOptions{Mode: template.ModeFit, MaxLongEdge: 1500})
	if w, h := dims(out); w != 600 || h != 400 {
		t.Fatalf("fit upscaled to %dx%d", w, h)
	}
}

func TestTransformSquareCrops(t *testing.T) {
	src := solidImage(3000, 2000, color.NRGBA{A: 255})
	out := TransformSource(src, TransformOptions{
		Mode:       template.ModeSquare,
		FrameStyle: FrameCrop,
	})
	if w, h := dims(out); w != h || h != 2000 {
		t.Fatalf("square crop = %dx%d", w, h)
	}
}

func TestTransformSquarePads(t *testing.T) {
	src := solidImage(3000, 2000, color.NRGBA{R: 255, A: 255})
	out := TransformSource(src, TransformOptions{
		Mode:       template.ModeSquare,
		FrameStyle: FramePad,
		Fill:       color.NRGBA{R: 255, G: 255, B: 255, A: 255},
	})
	if w, h := dims(out); w != h || w != 3000 {
		t.Fatalf("square pad = %dx%d", w, h)
	}
}

func TestTransformVerticalRatio(t *testing.T) {
	src := solidImage(3000, 2000, color.NRGBA{A: 255})
	out := TransformSource(src, TransformOptions{
		Mode:       template.ModeVertical,
		FrameStyle: FrameCrop,
	})
	w, h := dims(out)
	ratio := float64(w) / float64(h)
	if ratio < 0.79 || ratio > 0.81 {
		t.Fatalf("vertical ratio = %.3f (%dx%d), want 4:5", ratio, w, h)
	}
}

func TestTransformVerticalThenCap(t *testing.T) {
	src := solidImage(3000, 2000, color.NRGBA{A: 255})
	out := TransformSource(src, TransformOptions{
		Mode:        template.ModeVertical,
		FrameStyle:  FrameCrop,
		MaxLongEdge: 1000,
	})
	w, h := dims(out)
	if h != 1000 {
		t.Fatalf("long edge = %d, want 1000", h)
	}
	if w != 800 {
		t.Fatalf("width = %d, want 800", w)
	}
}
