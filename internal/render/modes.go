package render

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"birdstamp/internal/template"
)

// FrameStyle selects how a ratio change reshapes the source.
type FrameStyle string

const (
	FrameCrop FrameStyle = "crop"
	FramePad  FrameStyle = "pad"
)

const (
	squareRatio   = 1.0
	verticalRatio = 4.0 / 5.0
	ratioEpsilon  = 0.0001
)

// TransformOptions configure the output-mode source transform.
type TransformOptions struct {
	Mode        template.Mode
	FrameStyle  FrameStyle
	MaxLongEdge int
	Fill        color.NRGBA
}

// TransformSource reshapes the decoded source for the output mode before
// layout runs: keep passes through untouched, fit caps the long edge,
// square and vertical force their aspect ratio by crop or pad and then
// cap the long edge.
func TransformSource(src image.Image, opts TransformOptions) image.Image {
	switch opts.Mode {
	case template.ModeFit:
		return resizeLongEdge(src, opts.MaxLongEdge)
	case template.ModeSquare:
		return resizeLongEdge(applyRatio(src, squareRatio, opts), opts.MaxLongEdge)
	case template.ModeVertical:
		return resizeLongEdge(applyRatio(src, verticalRatio, opts), opts.MaxLongEdge)
	}
	return src
}

func applyRatio(src image.Image, ratio float64, opts TransformOptions) image.Image {
	if opts.FrameStyle == FramePad {
		return padToRatio(src, ratio, opts.Fill)
	}
	return cropToRatio(src, ratio)
}

// resizeLongEdge scales down so max(width, height) <= maxLongEdge. It
// never upscales.
func resizeLongEdge(src image.Image, maxLongEdge int) image.Image {
	if maxLongEdge <= 0 {
		return src
	}
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	long := w
	if h > long {
		long = h
	}
	if long <= maxLongEdge {
		return src
	}
	scale := float64(maxLongEdge) / float64(long)
	newW := max(1, int(math.Round(float64(w)*scale)))
	newH := max(1, int(math.Round(float64(h)*scale)))
	return imaging.Resize(src, newW, newH, imaging.Lanczos)
}

// cropToRatio center-crops to the target width/height ratio.
func cropToRatio(src image.Image, target float64) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if h == 0 {
		return src
	}
	ratio := float64(w) / float64(h)
	if math.Abs(ratio-target) < ratioEpsilon {
		return src
	}
	if ratio > target {
		newW := int(float64(h) * target)
		return imaging.CropCenter(src, max(1, newW), h)
	}
	newH := int(float64(w) / target)
	return imaging.CropCenter(src, w, max(1, newH))
}

// padToRatio extends the canvas to the target ratio, centering the
// source on a fill background.
func padToRatio(src image.Image, target float64, fill color.NRGBA) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if h == 0 {
		return src
	}
	ratio := float64(w) / float64(h)
	if math.Abs(ratio-target) < ratioEpsilon {
		return src
	}

	newW, newH := w, h
	if ratio > target {
		newH = int(math.Round(float64(w) / target))
		if newH < h {
			newH = h
		}
	} else {
		newW = int(math.Round(float64(h) * target))
		if newW < w {
			newW = w
		}
	}
	canvas := imaging.New(newW, newH, fill)
	return imaging.PasteCenter(canvas, src)
}
