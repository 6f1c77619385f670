package render

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"birdstamp/internal/layout"
)

// Composite paints a layout plan onto a fresh canvas. Paint order is
// fixed: background fill, positioned source, divider, text runs, logo.
// The logo is last so nothing occludes it.
func Composite(plan *layout.Plan, src image.Image, faces *layout.FaceSet) (*image.NRGBA, error) {
	canvas := imaging.New(plan.CanvasW, plan.CanvasH, plan.Background)

	canvas = paintSource(canvas, plan, src)
	paintDividers(canvas, plan)
	paintTexts(canvas, plan, faces)

	if plan.Logo != nil {
		if err := paintLogo(canvas, plan, faces); err != nil {
			return nil, err
		}
	}
	return canvas, nil
}

func paintSource(canvas *image.NRGBA, plan *layout.Plan, src image.Image) *image.NRGBA {
	rect := plan.ImageRect
	bounds := src.Bounds()
	if bounds.Dx() != rect.Dx() || bounds.Dy() != rect.Dy() {
		src = imaging.Resize(src, rect.Dx(), rect.Dy(), imaging.Lanczos)
	}
	return imaging.Paste(canvas, src, rect.Min)
}

func paintDividers(canvas *image.NRGBA, plan *layout.Plan) {
	for _, seg := range plan.Dividers {
		var box image.Rectangle
		if seg.From.X == seg.To.X {
			box = image.Rect(seg.From.X, seg.From.Y, seg.From.X+seg.Thickness, seg.To.Y)
		} else {
			box = image.Rect(seg.From.X, seg.From.Y, seg.To.X, seg.From.Y+seg.Thickness)
		}
		draw.Draw(canvas, box.Intersect(canvas.Bounds()), image.NewUniform(seg.Color), image.Point{}, draw.Src)
	}
}

func paintTexts(canvas *image.NRGBA, plan *layout.Plan, faces *layout.FaceSet) {
	for _, run := range plan.Texts {
		drawer := font.Drawer{
			Dst:  canvas,
			Src:  image.NewUniform(run.Color),
			Face: faces.Face(run.Role),
			Dot:  fixed.P(run.Origin.X, run.Origin.Y),
		}
		drawer.DrawString(run.Text)
	}
}

func paintLogo(canvas *image.NRGBA, plan *layout.Plan, faces *layout.FaceSet) error {
	logo := plan.Logo
	if logo.ImagePath != "" {
		img, err := imaging.Open(logo.ImagePath)
		if err != nil {
			return fmt.Errorf("open logo %s: %w", logo.ImagePath, err)
		}
		fitted := imaging.Fit(img, logo.Rect.Dx(), logo.Rect.Dy(), imaging.Lanczos)
		offset := image.Pt(
			logo.Rect.Min.X+(logo.Rect.Dx()-fitted.Bounds().Dx())/2,
			logo.Rect.Min.Y+(logo.Rect.Dy()-fitted.Bounds().Dy())/2,
		)
		*canvas = *imaging.Overlay(canvas, fitted, offset, 1.0)
		return nil
	}

	drawer := font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(logo.Color),
		Face: faces.Face(logo.Role),
		Dot:  fixed.P(logo.Rect.Min.X, logo.Rect.Min.Y+faces.Face(logo.Role).Metrics().Ascent.Ceil()),
	}
	drawer.DrawString(logo.Text)
	return nil
}
